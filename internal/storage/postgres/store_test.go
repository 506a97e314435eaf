//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"factoryMonitor/internal/model"
	"factoryMonitor/internal/storage"
)

const (
	testToken   = "0x1111111111111111111111111111111111111111"
	testCreator = "0x2222222222222222222222222222222222222222"
)

// setupTestDB starts a postgres container and applies the embedded migrations.
func setupTestDB(t *testing.T) (*Store, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	store, err := NewStore(ctx, dsn)
	require.NoError(t, err, "failed to create store")
	require.NoError(t, store.Migrate(ctx), "failed to migrate")

	cleanup := func() {
		store.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
	return store, cleanup
}

func seedToken(t *testing.T, ctx context.Context, store *Store) {
	t.Helper()
	require.NoError(t, store.UpsertToken(ctx, &model.Token{
		Address:         testToken,
		Name:            "Pepe",
		Symbol:          "PEPE",
		ImageURL:        "ipfs://pepe",
		Creator:         testCreator,
		BurnManager:     "0x3333333333333333333333333333333333333333",
		FundingGoal:     "500",
		CreatedAt:       "2024-01-01T00:00:00.000Z",
		BlockNumber:     10,
		TransactionHash: "0xcreate",
		StatePosition:   &model.LogPosition{Block: 10, Index: 0},
	}))
}

func newTrade(kind model.TradeType, tx string, block, index uint64, eth, price string) *model.Trade {
	return &model.Trade{
		Type:            kind,
		Token:           testToken,
		Trader:          testCreator,
		TokenAmount:     "10",
		EthAmount:       eth,
		Fee:             "0.003",
		PricePerToken:   price,
		BlockNumber:     block,
		LogIndex:        index,
		TransactionHash: tx,
		Timestamp:       "2024-01-01T00:01:00.000Z",
	}
}

func TestStore_TokenLifecycle(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	seedToken(t, ctx, store)

	token, err := store.GetToken(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, model.TokenStateTrading, token.CurrentState)
	assert.Equal(t, "0", token.Collateral)
	assert.Equal(t, "500", token.FundingGoal)
	assert.Nil(t, token.LastTrade)

	applied, err := store.ApplyTrade(ctx, newTrade(model.TradeTypeBuy, "0xa", 11, 0, "1", "0.1"))
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = store.ApplyTrade(ctx, newTrade(model.TradeTypeSell, "0xb", 12, 1, "0.25", "0.025"))
	require.NoError(t, err)
	assert.True(t, applied)

	token, err = store.GetToken(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "0.75", token.Collateral)
	assert.Equal(t, "1.25", token.Statistics.VolumeETH)
	assert.Equal(t, uint64(2), token.Statistics.TradeCount)
	assert.Equal(t, "0.025", token.Statistics.CurrentPrice)
	require.NotNil(t, token.LastTrade)
	assert.Equal(t, model.TradeTypeSell, token.LastTrade.Type)
}

func TestStore_DuplicateTradeSkipped(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	seedToken(t, ctx, store)

	applied, err := store.ApplyTrade(ctx, newTrade(model.TradeTypeBuy, "0xa", 11, 0, "1", "0.1"))
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = store.ApplyTrade(ctx, newTrade(model.TradeTypeBuy, "0xa", 11, 0, "1", "0.1"))
	require.NoError(t, err)
	assert.False(t, applied)

	token, err := store.GetToken(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "1", token.Collateral)
	assert.Equal(t, uint64(1), token.Statistics.TradeCount)

	trades, err := store.ListTrades(ctx, testToken, 10)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestStore_TradeBeforeCreate(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	applied, err := store.ApplyTrade(ctx, newTrade(model.TradeTypeBuy, "0xa", 11, 0, "1", "0.1"))
	require.NoError(t, err)
	require.True(t, applied)

	token, err := store.GetToken(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "", token.Name)
	assert.Equal(t, "1", token.Collateral)

	seedToken(t, ctx, store)

	token, err = store.GetToken(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "Pepe", token.Name)
	assert.Equal(t, model.TokenStateTrading, token.CurrentState)
	assert.Equal(t, "1", token.Collateral)
	assert.Equal(t, "1", token.Statistics.VolumeETH)
	assert.Equal(t, uint64(1), token.Statistics.TradeCount)
	assert.Equal(t, "0.1", token.Statistics.CurrentPrice)

	trades, err := store.ListTrades(ctx, testToken, 0)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestStore_StaleHaltKeepsAuditFields(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	seedToken(t, ctx, store)

	require.NoError(t, store.HaltToken(ctx, storage.HaltUpdate{
		Token: testToken, FinalCollateral: "9", HaltedAt: "late", HaltBlock: 40, Position: model.LogPosition{Block: 40, Index: 3},
	}))
	require.NoError(t, store.HaltToken(ctx, storage.HaltUpdate{
		Token: testToken, FinalCollateral: "4", HaltedAt: "early", HaltBlock: 40, Position: model.LogPosition{Block: 40, Index: 1},
	}))
	require.NoError(t, store.ResumeToken(ctx, storage.ResumeUpdate{
		Token: testToken, ResumedAt: "late", ResumeBlock: 50, Position: model.LogPosition{Block: 50},
	}))
	require.NoError(t, store.ResumeToken(ctx, storage.ResumeUpdate{
		Token: testToken, ResumedAt: "early", ResumeBlock: 45, Position: model.LogPosition{Block: 45},
	}))

	token, err := store.GetToken(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "9", token.FinalCollateral)
	assert.Equal(t, "late", token.HaltedAt)
	require.NotNil(t, token.HaltPosition)
	assert.Equal(t, uint64(3), token.HaltPosition.Index)
	assert.Equal(t, "late", token.ResumedAt)
	assert.Equal(t, uint64(50), token.ResumeBlock)
	assert.Equal(t, model.TokenStateTrading, token.CurrentState)
}

func TestStore_OutOfOrderOverwrites(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	seedToken(t, ctx, store)

	_, err := store.ApplyTrade(ctx, newTrade(model.TradeTypeBuy, "0xlate", 20, 0, "1", "0.2"))
	require.NoError(t, err)
	_, err = store.ApplyTrade(ctx, newTrade(model.TradeTypeBuy, "0xearly", 15, 0, "1", "0.1"))
	require.NoError(t, err)

	require.NoError(t, store.ResumeToken(ctx, storage.ResumeUpdate{
		Token: testToken, ResumedAt: "r", ResumeBlock: 30, Position: model.LogPosition{Block: 30, Index: 2},
	}))
	require.NoError(t, store.HaltToken(ctx, storage.HaltUpdate{
		Token: testToken, FinalCollateral: "2", HaltedAt: "h", HaltBlock: 30, Position: model.LogPosition{Block: 30, Index: 1},
	}))

	token, err := store.GetToken(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "0.2", token.Statistics.CurrentPrice)
	assert.Equal(t, model.TokenStateTrading, token.CurrentState)
	assert.Equal(t, "2", token.FinalCollateral)
	assert.Equal(t, uint64(30), token.HaltBlock)

	const missing = "0x5555555555555555555555555555555555555555"
	require.NoError(t, store.HaltToken(ctx, storage.HaltUpdate{
		Token: missing, FinalCollateral: "3", HaltedAt: "h", HaltBlock: 5, Position: model.LogPosition{Block: 5},
	}))
	placeholder, err := store.GetToken(ctx, missing)
	require.NoError(t, err)
	assert.Equal(t, model.TokenStateHalted, placeholder.CurrentState)
	assert.Equal(t, "3", placeholder.FinalCollateral)
	assert.Equal(t, "0", placeholder.Collateral)
}

func TestStore_Users(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	entry := model.CreatedToken{Address: testToken, Name: "Pepe", Symbol: "PEPE", FundingGoal: "500", Timestamp: "t1"}
	require.NoError(t, store.AddCreatedToken(ctx, testCreator, entry, "t1"))
	require.NoError(t, store.AddCreatedToken(ctx, testCreator, entry, "t2"))

	second := entry
	second.Address = "0x4444444444444444444444444444444444444444"
	require.NoError(t, store.AddCreatedToken(ctx, testCreator, second, "t3"))

	user, err := store.GetUser(ctx, testCreator)
	require.NoError(t, err)
	assert.Equal(t, "t3", user.LastActive)
	require.Len(t, user.CreatedTokens, 2)
	assert.Equal(t, testToken, user.CreatedTokens[0].Address)

	_, err = store.GetUser(ctx, testToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_Checkpoint(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, ok, err := store.LoadCheckpoint(ctx, "backfill")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveCheckpoint(ctx, "backfill", 1234))
	block, ok, err := store.LoadCheckpoint(ctx, "backfill")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(1234), block)
}
