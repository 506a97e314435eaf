package storage

import (
	"context"

	"factoryMonitor/internal/model"
)

// HaltUpdate carries the fields written by a TradingHalted event.
type HaltUpdate struct {
	Token           string
	FinalCollateral string
	HaltedAt        string
	HaltBlock       uint64
	Position        model.LogPosition
}

// ResumeUpdate carries the fields written by a TradingResumed event.
type ResumeUpdate struct {
	Token       string
	ResumedAt   string
	ResumeBlock uint64
	Position    model.LogPosition
}

// Writer is the write side used by the projector.
type Writer interface {
	// UpsertToken inserts a token in state Trading with zero collateral and statistics.
	// An existing token only has its identity fields refreshed.
	UpsertToken(ctx context.Context, token *model.Token) error

	// AddCreatedToken records a created token on the creator's user record and sets lastActive.
	// Entries are unique per token address.
	AddCreatedToken(ctx context.Context, creator string, entry model.CreatedToken, lastActive string) error

	// ApplyTrade inserts the trade and applies its counters in one transaction.
	// Returns false without writing when (transactionHash, logIndex) already exists.
	// An unknown token gets a placeholder that a later UpsertToken completes.
	ApplyTrade(ctx context.Context, trade *model.Trade) (bool, error)

	// HaltToken records halt audit fields unless a later halt already wrote them, and moves
	// the token to Halted unless a later event already wrote its state. Creates a placeholder
	// for an unknown token.
	HaltToken(ctx context.Context, update HaltUpdate) error

	// ResumeToken records resume audit fields unless a later resume already wrote them, and
	// moves the token to Trading unless a later event already wrote its state. Creates a
	// placeholder for an unknown token.
	ResumeToken(ctx context.Context, update ResumeUpdate) error
}

// Reader is the read side used by the API and candles.
type Reader interface {
	// GetToken returns ErrNotFound if the token does not exist.
	GetToken(ctx context.Context, address string) (*model.Token, error)

	// GetUser returns ErrNotFound if the user does not exist.
	GetUser(ctx context.Context, address string) (*model.User, error)

	// ListTrades returns the newest trades for a token, latest position first.
	ListTrades(ctx context.Context, token string, limit int) ([]*model.Trade, error)

	// TradesSince returns trades with timestamp >= since, oldest position first.
	TradesSince(ctx context.Context, token string, since string) ([]*model.Trade, error)
}

// Store is a full read/write projection store.
type Store interface {
	Writer
	Reader
	Close()
}
