// Package backfill replays factory logs from JSON-RPC through the ingestion processor.
package backfill

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"factoryMonitor/internal/ingest"
	"factoryMonitor/internal/model"
)

// LogSource is the chain access the runner needs. *chain.Client satisfies it.
type LogSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, address common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// BlockProcessor consumes block payloads. *ingest.Processor satisfies it.
type BlockProcessor interface {
	ProcessBlock(ctx context.Context, block *model.Block) (ingest.Summary, error)
}

// RunConfig holds runtime settings for a backfill.
type RunConfig struct {
	FactoryAddress common.Address
	Topic0         []common.Hash
	FromBlock      uint64
	ToBlock        uint64
	BatchSize      uint64
	Confirmations  uint64
	MaxRetries     int
	RetryBackoff   time.Duration
}

// Result summarizes a backfill run.
type Result struct {
	FromBlock uint64
	ToBlock   uint64
	Blocks    int
	Logs      int
	Applied   int
	Failed    int
}

// Runner pulls factory logs in batches and feeds them to the processor block by block.
type Runner struct {
	cfg        RunConfig
	source     LogSource
	processor  BlockProcessor
	checkpoint Checkpointer
	logger     *zap.Logger
}

// NewRunner builds a Runner. checkpoint may be nil.
func NewRunner(cfg RunConfig, source LogSource, processor BlockProcessor, checkpoint Checkpointer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkpoint == nil {
		checkpoint = noCheckpoint{}
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		processor:  processor,
		checkpoint: checkpoint,
		logger:     logger,
	}
}

// Run executes the backfill loop.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var result Result
	if r.source == nil {
		return result, fmt.Errorf("chain client is nil")
	}
	if r.processor == nil {
		return result, fmt.Errorf("processor is nil")
	}
	if r.cfg.BatchSize == 0 {
		return result, fmt.Errorf("batch size must be greater than zero")
	}
	if r.cfg.FactoryAddress == (common.Address{}) {
		return result, fmt.Errorf("factory address is required")
	}

	w, err := r.window(ctx)
	if err != nil {
		return result, err
	}
	result.FromBlock = w.From
	result.ToBlock = w.To
	if w.Empty() {
		r.logger.Info("nothing to sync", zap.Uint64("from", w.From), zap.Uint64("to", w.To))
		return result, nil
	}

	err = w.Batches(r.cfg.BatchSize, func(batch Window) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.logger.Info("fetch logs", zap.Uint64("from", batch.From), zap.Uint64("to", batch.To))

		logs, err := r.filterLogs(ctx, batch)
		if err != nil {
			return fmt.Errorf("filter logs: %w", err)
		}

		for _, block := range groupBlocks(logs) {
			ts, err := r.blockTimestamp(ctx, uint64(block.Number))
			if err != nil {
				return fmt.Errorf("block timestamp %d: %w", block.Number, err)
			}
			block.Timestamp = model.Uint64(ts)

			summary, err := r.processor.ProcessBlock(ctx, block)
			if err != nil {
				return fmt.Errorf("process block %d: %w", block.Number, err)
			}
			result.Blocks++
			result.Logs += summary.LogsProcessed
			result.Applied += summary.Applied
			result.Failed += summary.Failed
		}

		if err := r.checkpoint.Save(ctx, batch.To); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}

		r.logger.Info("batch complete",
			zap.Int("logs", len(logs)),
			zap.Uint64("from", batch.From),
			zap.Uint64("to", batch.To),
		)
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

func (r *Runner) filterLogs(ctx context.Context, batch Window) ([]types.Log, error) {
	var logs []types.Log
	err := r.retry(ctx, "eth_getLogs", func(ctx context.Context) error {
		var err error
		logs, err = r.source.FilterLogs(ctx, batch.From, batch.To, r.cfg.FactoryAddress, r.cfg.Topic0)
		return err
	})
	return logs, err
}

func (r *Runner) blockTimestamp(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := r.retry(ctx, "eth_getBlockByNumber", func(ctx context.Context) error {
		var err error
		ts, err = r.source.BlockTimestamp(ctx, blockNumber)
		return err
	})
	return ts, err
}
