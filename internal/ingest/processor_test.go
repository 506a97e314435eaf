package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"factoryMonitor/internal/factory"
	"factoryMonitor/internal/model"
	"factoryMonitor/internal/projector"
	"factoryMonitor/internal/storage/memory"
)

const factoryAddr = "0xFaC7000000000000000000000000000000000001"

var (
	tokenAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	traderAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
	tokenKey   = strings.ToLower(tokenAddr.Hex())
)

type recordingSink struct {
	failures []model.ProjectionFailure
}

func (r *recordingSink) Record(failures ...model.ProjectionFailure) error {
	r.failures = append(r.failures, failures...)
	return nil
}

func newProcessor(t *testing.T) (*Processor, *memory.Store, *recordingSink) {
	t.Helper()
	decoder, err := factory.NewDecoder()
	require.NoError(t, err)
	store := memory.NewStore()
	sink := &recordingSink{}
	p, err := NewProcessor(
		Config{FactoryAddress: factoryAddr},
		decoder,
		projector.New(store, nil, zap.NewNop()),
		sink,
		zap.NewNop(),
	)
	require.NoError(t, err)
	return p, store, sink
}

func eventLog(t *testing.T, emitter string, name string, indexed []common.Address, args ...interface{}) model.BlockLog {
	t.Helper()
	parsed, err := factory.FactoryABI()
	require.NoError(t, err)
	event := parsed.Events[name]
	data, err := event.Inputs.NonIndexed().Pack(args...)
	require.NoError(t, err)

	topics := []string{event.ID.Hex()}
	for _, addr := range indexed {
		topics = append(topics, common.BytesToHash(addr.Bytes()).Hex())
	}
	return model.BlockLog{
		Account:     model.LogAccount{Address: emitter},
		Data:        hexutil.Encode(data),
		Topics:      topics,
		Transaction: model.LogTransaction{Hash: "0xfeed"},
	}
}

func wei(v string) *big.Int {
	n, _ := new(big.Int).SetString(v, 10)
	return n
}

func createdLog(t *testing.T, emitter string) model.BlockLog {
	return eventLog(t, emitter, factory.EventTokenCreated, []common.Address{tokenAddr, traderAddr},
		"Pepe", "PEPE", "ipfs://pepe", wei("500000000000000000000"), common.Address{})
}

func TestProcessBlockProjectsFactoryLogs(t *testing.T) {
	p, store, sink := newProcessor(t)
	ctx := context.Background()

	block := &model.Block{
		Number:    100,
		Timestamp: 1700000000,
		Logs: []model.BlockLog{
			createdLog(t, strings.ToLower(factoryAddr)),
			eventLog(t, factoryAddr, factory.EventTokensPurchased, []common.Address{tokenAddr, traderAddr},
				wei("10000000000000000000"), wei("1000000000000000000"), wei("3000000000000000")),
		},
	}

	summary, err := p.ProcessBlock(ctx, block)
	require.NoError(t, err)
	assert.Equal(t, "success", summary.Status)
	assert.Equal(t, uint64(100), summary.BlockNumber)
	assert.Equal(t, 2, summary.LogsProcessed)
	assert.Equal(t, 2, summary.Applied)
	assert.Equal(t, "testnet", summary.Network)
	assert.Equal(t, factory.SupportedEvents(), summary.EventsSupported)
	assert.Empty(t, sink.failures)

	token, err := store.GetToken(ctx, tokenKey)
	require.NoError(t, err)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", token.CreatedAt)
	assert.Equal(t, "1", token.Collateral)
	assert.Equal(t, "0.1", token.Statistics.CurrentPrice)

	trades, err := store.ListTrades(ctx, tokenKey, 0)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(1), trades[0].LogIndex)
}

// Blocks can be delivered out of order, so a trade may arrive before its TokenCreated.
func TestProcessBlockTradeBeforeCreate(t *testing.T) {
	p, store, sink := newProcessor(t)
	ctx := context.Background()

	buy := eventLog(t, factoryAddr, factory.EventTokensPurchased, []common.Address{tokenAddr, traderAddr},
		wei("10000000000000000000"), wei("1000000000000000000"), wei("3000000000000000"))
	summary, err := p.ProcessBlock(ctx, &model.Block{Number: 101, Timestamp: 1700000012, Logs: []model.BlockLog{buy}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Applied)

	summary, err = p.ProcessBlock(ctx, &model.Block{Number: 100, Timestamp: 1700000000, Logs: []model.BlockLog{createdLog(t, factoryAddr)}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Applied)
	assert.Empty(t, sink.failures)

	token, err := store.GetToken(ctx, tokenKey)
	require.NoError(t, err)
	assert.Equal(t, "Pepe", token.Name)
	assert.Equal(t, "1", token.Collateral)
	assert.Equal(t, "1", token.Statistics.VolumeETH)
	assert.Equal(t, uint64(1), token.Statistics.TradeCount)

	trades, err := store.ListTrades(ctx, tokenKey, 0)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestProcessBlockIgnoresOtherEmitters(t *testing.T) {
	p, store, _ := newProcessor(t)
	ctx := context.Background()

	block := &model.Block{
		Number: 5,
		Logs: []model.BlockLog{
			createdLog(t, "0x9999999999999999999999999999999999999999"),
		},
	}
	summary, err := p.ProcessBlock(ctx, block)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.LogsProcessed)

	_, err = store.GetToken(ctx, tokenKey)
	assert.Error(t, err)
}

func TestProcessBlockSkipsAndContinues(t *testing.T) {
	p, store, sink := newProcessor(t)
	ctx := context.Background()

	garbage := model.BlockLog{
		Account: model.LogAccount{Address: factoryAddr},
		Topics:  []string{"0x0000000000000000000000000000000000000000000000000000000000000001"},
		Data:    "0x",
	}
	ownership := eventLog(t, factoryAddr, "OwnershipTransferred", []common.Address{traderAddr, tokenAddr})
	zeroTrade := eventLog(t, factoryAddr, factory.EventTokensSold, []common.Address{tokenAddr, traderAddr},
		big.NewInt(0), big.NewInt(1), big.NewInt(0))
	halt := eventLog(t, factoryAddr, factory.EventTradingHalted, []common.Address{tokenAddr}, wei("2000000000000000000"))
	resume := eventLog(t, factoryAddr, factory.EventTradingResumed, []common.Address{tokenAddr})

	block := &model.Block{
		Number:    7,
		Timestamp: 1700000000,
		Logs:      []model.BlockLog{createdLog(t, factoryAddr), garbage, ownership, zeroTrade, halt, resume},
	}
	summary, err := p.ProcessBlock(ctx, block)
	require.NoError(t, err)
	assert.Equal(t, 6, summary.LogsProcessed)
	assert.Equal(t, 3, summary.Applied)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)

	require.Len(t, sink.failures, 1)
	assert.Equal(t, factory.EventTokensSold, sink.failures[0].EventName)
	assert.Equal(t, uint64(3), sink.failures[0].LogIndex)
	assert.Contains(t, sink.failures[0].Error, projector.ErrInvalidTradeAmount.Error())

	token, err := store.GetToken(ctx, tokenKey)
	require.NoError(t, err)
	assert.Equal(t, model.TokenStateTrading, token.CurrentState)
	assert.Equal(t, "2", token.FinalCollateral)
	assert.Equal(t, uint64(0), token.Statistics.TradeCount)
}

func TestProcessBlockUsesDeliveredIndex(t *testing.T) {
	p, store, _ := newProcessor(t)
	ctx := context.Background()

	buy := eventLog(t, factoryAddr, factory.EventTokensPurchased, []common.Address{tokenAddr, traderAddr},
		wei("1000000000000000000"), wei("1000000000000000000"), big.NewInt(0))
	idx := model.Uint64(42)
	buy.Index = &idx

	_, err := p.ProcessBlock(ctx, &model.Block{Number: 1, Logs: []model.BlockLog{createdLog(t, factoryAddr), buy}})
	require.NoError(t, err)

	trades, err := store.ListTrades(ctx, tokenKey, 1)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(42), trades[0].LogIndex)
}

func TestProcessPayloadMalformed(t *testing.T) {
	p, _, _ := newProcessor(t)

	var payload model.WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(`{"event":{}}`), &payload))
	_, err := p.ProcessPayload(context.Background(), payload)
	assert.Error(t, err)
}

func TestProcessBlockApplierErrorIsolated(t *testing.T) {
	decoder, err := factory.NewDecoder()
	require.NoError(t, err)
	applier := &failingApplier{failOn: factory.EventTokenCreated}
	p, err := NewProcessor(Config{FactoryAddress: factoryAddr, Network: "mainnet"}, decoder, applier, nil, nil)
	require.NoError(t, err)

	resume := eventLog(t, factoryAddr, factory.EventTradingResumed, []common.Address{tokenAddr})
	summary, err := p.ProcessBlock(context.Background(), &model.Block{
		Number: 9,
		Logs:   []model.BlockLog{createdLog(t, factoryAddr), resume},
	})
	require.NoError(t, err)
	assert.Equal(t, "mainnet", summary.Network)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{factory.EventTradingResumed}, applier.applied)
}

func TestInfo(t *testing.T) {
	p, _, _ := newProcessor(t)
	info := p.Info()
	assert.Equal(t, "info", info.Status)
	assert.Equal(t, factoryAddr, info.Configuration.FactoryAddress)
	assert.Equal(t, []string{"POST"}, info.Usage.AllowedMethods)
	assert.Contains(t, info.Configuration.SupportedEvents, factory.EventTokensPurchased)
}

func TestNewProcessorValidation(t *testing.T) {
	decoder, err := factory.NewDecoder()
	require.NoError(t, err)
	_, err = NewProcessor(Config{}, decoder, &failingApplier{}, nil, nil)
	assert.Error(t, err)
	_, err = NewProcessor(Config{FactoryAddress: factoryAddr}, nil, &failingApplier{}, nil, nil)
	assert.Error(t, err)
}

type failingApplier struct {
	failOn  string
	applied []string
}

func (f *failingApplier) Apply(_ context.Context, event factory.Event, _ projector.Meta) error {
	if event.EventName() == f.failOn {
		return errors.New("store unavailable")
	}
	f.applied = append(f.applied, event.EventName())
	return nil
}
