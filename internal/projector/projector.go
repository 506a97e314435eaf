// Package projector applies decoded factory events to the token, user and trade store.
package projector

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"factoryMonitor/internal/factory"
	"factoryMonitor/internal/feed"
	"factoryMonitor/internal/model"
	"factoryMonitor/internal/storage"
	"factoryMonitor/internal/units"
)

// priceDecimals bounds the precision of the stored price-per-token.
const priceDecimals = 18

// ErrInvalidTradeAmount is returned when a trade cannot produce a finite price.
var ErrInvalidTradeAmount = errors.New("invalid trade amount")

// Meta is the block context a log is projected with.
type Meta struct {
	BlockNumber uint64
	Timestamp   string
	TxHash      string
	LogIndex    uint64
}

// Position returns the chain position of the log.
func (m Meta) Position() model.LogPosition {
	return model.LogPosition{Block: m.BlockNumber, Index: m.LogIndex}
}

// Projector dispatches decoded events to per-kind handlers. It holds no state besides the store.
type Projector struct {
	store     storage.Writer
	publisher feed.Publisher
	logger    *zap.Logger
}

// New creates a projector. publisher may be nil.
func New(store storage.Writer, publisher feed.Publisher, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{store: store, publisher: publisher, logger: logger}
}

// Apply projects one decoded event. Unrecognized events produce no writes.
func (p *Projector) Apply(ctx context.Context, event factory.Event, meta Meta) error {
	switch e := event.(type) {
	case factory.TokenCreated:
		return p.tokenCreated(ctx, e, meta)
	case factory.TokensPurchased:
		return p.trade(ctx, model.TradeTypeBuy, e.Token, e.Buyer, e.Amount, e.Price, e.Fee, meta)
	case factory.TokensSold:
		return p.trade(ctx, model.TradeTypeSell, e.Token, e.Seller, e.TokenAmount, e.EthAmount, e.Fee, meta)
	case factory.TradingHalted:
		return p.tradingHalted(ctx, e, meta)
	case factory.TradingResumed:
		return p.tradingResumed(ctx, e, meta)
	case factory.Unrecognized:
		return nil
	default:
		return fmt.Errorf("unsupported event %T", event)
	}
}

func (p *Projector) tokenCreated(ctx context.Context, e factory.TokenCreated, meta Meta) error {
	tokenAddr := lower(e.TokenAddress)
	creator := lower(e.Creator)
	fundingGoal := units.FormatEther(e.FundingGoal)
	pos := meta.Position()

	token := &model.Token{
		Address:         tokenAddr,
		Name:            e.Name,
		Symbol:          e.Symbol,
		ImageURL:        e.ImageURL,
		Creator:         creator,
		BurnManager:     lower(e.BurnManager),
		FundingGoal:     fundingGoal,
		CreatedAt:       meta.Timestamp,
		CurrentState:    model.TokenStateTrading,
		Collateral:      "0",
		Statistics:      model.ZeroStatistics(),
		BlockNumber:     meta.BlockNumber,
		TransactionHash: strings.ToLower(meta.TxHash),
		StatePosition:   &pos,
	}
	if err := p.store.UpsertToken(ctx, token); err != nil {
		return fmt.Errorf("store token %s: %w", tokenAddr, err)
	}

	entry := model.CreatedToken{
		Address:     tokenAddr,
		Name:        e.Name,
		Symbol:      e.Symbol,
		ImageURL:    e.ImageURL,
		FundingGoal: fundingGoal,
		Timestamp:   meta.Timestamp,
	}
	if err := p.store.AddCreatedToken(ctx, creator, entry, meta.Timestamp); err != nil {
		return fmt.Errorf("store creator %s: %w", creator, err)
	}

	p.logger.Info("token created",
		zap.String("token", tokenAddr),
		zap.String("creator", creator),
		zap.String("symbol", e.Symbol),
		zap.Uint64("block", meta.BlockNumber),
	)
	return nil
}

func (p *Projector) trade(
	ctx context.Context,
	kind model.TradeType,
	tokenAddress common.Address,
	trader common.Address,
	tokenAmountWei *big.Int,
	ethAmountWei *big.Int,
	feeWei *big.Int,
	meta Meta,
) error {
	tokenAmount := units.ToEther(tokenAmountWei)
	ethAmount := units.ToEther(ethAmountWei)
	if tokenAmount.IsZero() {
		return fmt.Errorf("%w: zero token amount in %s", ErrInvalidTradeAmount, kind)
	}
	if tokenAmount.IsNegative() || ethAmount.IsNegative() {
		return fmt.Errorf("%w: negative amount in %s", ErrInvalidTradeAmount, kind)
	}
	price := ethAmount.DivRound(tokenAmount, priceDecimals)

	trade := &model.Trade{
		Type:            kind,
		Token:           lower(tokenAddress),
		Trader:          lower(trader),
		TokenAmount:     tokenAmount.String(),
		EthAmount:       ethAmount.String(),
		Fee:             units.FormatEther(feeWei),
		PricePerToken:   price.String(),
		BlockNumber:     meta.BlockNumber,
		LogIndex:        meta.LogIndex,
		TransactionHash: strings.ToLower(meta.TxHash),
		Timestamp:       meta.Timestamp,
	}

	applied, err := p.store.ApplyTrade(ctx, trade)
	if err != nil {
		return fmt.Errorf("store %s trade for %s: %w", kind, trade.Token, err)
	}
	if !applied {
		p.logger.Debug("duplicate trade skipped",
			zap.String("tx", trade.TransactionHash),
			zap.Uint64("logIndex", trade.LogIndex),
		)
		return nil
	}

	p.publish(feed.Notification{Kind: feed.KindTrade, Token: trade.Token, Trade: trade})
	return nil
}

func (p *Projector) tradingHalted(ctx context.Context, e factory.TradingHalted, meta Meta) error {
	tokenAddr := lower(e.Token)
	err := p.store.HaltToken(ctx, storage.HaltUpdate{
		Token:           tokenAddr,
		FinalCollateral: units.FormatEther(e.Collateral),
		HaltedAt:        meta.Timestamp,
		HaltBlock:       meta.BlockNumber,
		Position:        meta.Position(),
	})
	if err != nil {
		return fmt.Errorf("store halt for %s: %w", tokenAddr, err)
	}
	p.publish(feed.Notification{Kind: feed.KindHalted, Token: tokenAddr, State: model.TokenStateHalted})
	return nil
}

func (p *Projector) tradingResumed(ctx context.Context, e factory.TradingResumed, meta Meta) error {
	tokenAddr := lower(e.Token)
	err := p.store.ResumeToken(ctx, storage.ResumeUpdate{
		Token:       tokenAddr,
		ResumedAt:   meta.Timestamp,
		ResumeBlock: meta.BlockNumber,
		Position:    meta.Position(),
	})
	if err != nil {
		return fmt.Errorf("store resume for %s: %w", tokenAddr, err)
	}
	p.publish(feed.Notification{Kind: feed.KindResumed, Token: tokenAddr, State: model.TokenStateTrading})
	return nil
}

func (p *Projector) publish(n feed.Notification) {
	if p.publisher == nil {
		return
	}
	p.publisher.Publish(n)
}

func lower(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
