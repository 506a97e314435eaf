// Package ingest turns delivered block payloads into projected factory events.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"factoryMonitor/internal/factory"
	"factoryMonitor/internal/journal"
	"factoryMonitor/internal/model"
	"factoryMonitor/internal/projector"
)

const defaultNetwork = "testnet"

// Applier projects a decoded event.
type Applier interface {
	Apply(ctx context.Context, event factory.Event, meta projector.Meta) error
}

// Config configures a Processor.
type Config struct {
	FactoryAddress string
	Network        string
}

// Summary is the response for one processed block.
type Summary struct {
	Status          string   `json:"status"`
	BlockNumber     uint64   `json:"blockNumber"`
	LogsProcessed   int      `json:"logsProcessed"`
	FactoryAddress  string   `json:"factoryAddress"`
	Network         string   `json:"network"`
	EventsSupported []string `json:"eventsSupported"`

	Applied int `json:"-"`
	Skipped int `json:"-"`
	Failed  int `json:"-"`
}

// Info describes the endpoint configuration.
type Info struct {
	Status        string            `json:"status"`
	Message       string            `json:"message"`
	Configuration InfoConfiguration `json:"configuration"`
	Usage         InfoUsage         `json:"usage"`
}

type InfoConfiguration struct {
	FactoryAddress  string   `json:"factoryAddress"`
	Network         string   `json:"network"`
	SupportedEvents []string `json:"supportedEvents"`
}

type InfoUsage struct {
	Description    string   `json:"description"`
	AllowedMethods []string `json:"allowedMethods"`
}

// Processor filters, decodes and projects the logs of one block at a time.
type Processor struct {
	decoder        *factory.Decoder
	applier        Applier
	journal        journal.Sink
	factoryAddress string
	network        string
	logger         *zap.Logger
}

// NewProcessor builds a processor. sink may be nil.
func NewProcessor(cfg Config, decoder *factory.Decoder, applier Applier, sink journal.Sink, logger *zap.Logger) (*Processor, error) {
	if cfg.FactoryAddress == "" {
		return nil, fmt.Errorf("factory address is required")
	}
	if decoder == nil || applier == nil {
		return nil, fmt.Errorf("decoder and applier are required")
	}
	if sink == nil {
		sink = journal.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	network := cfg.Network
	if network == "" {
		network = defaultNetwork
	}
	return &Processor{
		decoder:        decoder,
		applier:        applier,
		journal:        sink,
		factoryAddress: cfg.FactoryAddress,
		network:        network,
		logger:         logger,
	}, nil
}

// FactoryAddress returns the configured factory address.
func (p *Processor) FactoryAddress() string {
	return p.factoryAddress
}

// Info returns the static endpoint description.
func (p *Processor) Info() Info {
	return Info{
		Status:  "info",
		Message: "Factory Event Monitor Webhook",
		Configuration: InfoConfiguration{
			FactoryAddress:  p.factoryAddress,
			Network:         p.network,
			SupportedEvents: factory.SupportedEvents(),
		},
		Usage: InfoUsage{
			Description:    "POST block payloads containing factory logs to project them into the token store",
			AllowedMethods: []string{"POST"},
		},
	}
}

// ProcessPayload extracts the block from a delivery payload and processes it.
func (p *Processor) ProcessPayload(ctx context.Context, payload model.WebhookPayload) (Summary, error) {
	block, err := payload.Block()
	if err != nil {
		return Summary{}, err
	}
	return p.ProcessBlock(ctx, block)
}

// ProcessBlock projects the factory logs of block in array order. A failing log is logged and
// journaled; processing continues with the next log.
func (p *Processor) ProcessBlock(ctx context.Context, block *model.Block) (Summary, error) {
	if block == nil {
		return Summary{}, fmt.Errorf("block is nil")
	}
	blockNumber := uint64(block.Number)
	timestamp := model.FormatTimestamp(uint64(block.Timestamp))

	summary := Summary{
		Status:          "success",
		BlockNumber:     blockNumber,
		FactoryAddress:  p.factoryAddress,
		Network:         p.network,
		EventsSupported: factory.SupportedEvents(),
	}

	for position, raw := range block.Logs {
		if !strings.EqualFold(raw.Account.Address, p.factoryAddress) {
			continue
		}
		summary.LogsProcessed++

		if err := ctx.Err(); err != nil {
			return summary, err
		}

		record := raw.Record(blockNumber, position)
		event, err := p.decoder.Decode(record)
		if err != nil {
			level := zap.WarnLevel
			if errors.Is(err, factory.ErrNotDecodable) {
				level = zap.DebugLevel
			}
			p.logger.Check(level, "skipping undecodable factory log").Write(
				zap.Uint64("block", blockNumber),
				zap.String("tx", record.TxHash),
				zap.Error(err),
			)
			summary.Skipped++
			continue
		}

		if unknown, ok := event.(factory.Unrecognized); ok {
			p.logger.Warn("unrecognized factory event",
				zap.String("event", unknown.Name),
				zap.Uint64("block", blockNumber),
				zap.String("tx", record.TxHash),
			)
			summary.Skipped++
			continue
		}

		meta := projector.Meta{
			BlockNumber: blockNumber,
			Timestamp:   timestamp,
			TxHash:      record.TxHash,
			LogIndex:    record.LogIndex,
		}
		if err := p.applier.Apply(ctx, event, meta); err != nil {
			summary.Failed++
			p.logger.Error("projection failed",
				zap.String("event", event.EventName()),
				zap.Uint64("block", blockNumber),
				zap.String("tx", record.TxHash),
				zap.Uint64("logIndex", record.LogIndex),
				zap.Error(err),
			)
			p.recordFailure(record, event.EventName(), err)
			continue
		}
		summary.Applied++
	}

	p.logger.Info("block processed",
		zap.Uint64("block", blockNumber),
		zap.Int("factoryLogs", summary.LogsProcessed),
		zap.Int("applied", summary.Applied),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (p *Processor) recordFailure(record model.LogRecord, eventName string, cause error) {
	topic0 := ""
	if len(record.Topics) > 0 {
		topic0 = record.Topics[0]
	}
	failure := model.ProjectionFailure{
		BlockNumber: record.BlockNumber,
		TxHash:      record.TxHash,
		LogIndex:    record.LogIndex,
		Address:     record.Address,
		Topic0:      topic0,
		EventName:   eventName,
		Error:       cause.Error(),
		FailedAt:    model.FormatTime(time.Now()),
	}
	if err := p.journal.Record(failure); err != nil {
		p.logger.Warn("journal write failed", zap.Error(err))
	}
}
