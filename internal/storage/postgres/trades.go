package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"factoryMonitor/internal/model"
	"factoryMonitor/internal/storage"
	"factoryMonitor/internal/units"
)

const tradeColumns = `
	id::text, type, token, trader, token_amount::text, eth_amount::text, fee::text,
	price_per_token::text, block_number, log_index, transaction_hash, timestamp`

// ApplyTrade inserts the trade and applies token counters in one transaction.
// A duplicate (transaction_hash, log_index) rolls back and reports false. An unknown token
// gets a placeholder row that a later TokenCreated completes.
func (s *Store) ApplyTrade(ctx context.Context, trade *model.Trade) (bool, error) {
	if trade == nil || trade.Token == "" || trade.TransactionHash == "" {
		return false, storage.ErrInvalidInput
	}
	eth, err := units.ParseDecimal(trade.EthAmount)
	if err != nil {
		return false, fmt.Errorf("%w: eth amount: %v", storage.ErrInvalidInput, err)
	}
	delta := eth
	if trade.Type == model.TradeTypeSell {
		delta = eth.Neg()
	}
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	txHash := strings.ToLower(trade.TransactionHash)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin trade tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO trades (
			id, type, token, trader, token_amount, eth_amount, fee, price_per_token,
			block_number, log_index, transaction_hash, timestamp
		) VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric,$7::numeric,$8::numeric,$9,$10,$11,$12)
	`,
		trade.ID,
		string(trade.Type),
		trade.Token,
		trade.Trader,
		trade.TokenAmount,
		trade.EthAmount,
		trade.Fee,
		trade.PricePerToken,
		int64(trade.BlockNumber),
		int64(trade.LogIndex),
		txHash,
		trade.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert trade: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tokens (address, name, symbol, creator, created_at, collateral, volume_eth, trade_count)
		VALUES ($1, '', '', '', '', $2::numeric, $3::numeric, 1)
		ON CONFLICT (address) DO UPDATE SET
			collateral = tokens.collateral + EXCLUDED.collateral,
			volume_eth = tokens.volume_eth + EXCLUDED.volume_eth,
			trade_count = tokens.trade_count + 1,
			updated_at = now()
	`, trade.Token, delta.String(), eth.String())
	if err != nil {
		return false, fmt.Errorf("update token counters: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE tokens SET
			current_price = $2::numeric,
			last_trade_price = $3,
			last_trade_timestamp = $4,
			last_trade_type = $5,
			last_trade_fee = $6,
			price_block = $7,
			price_log_index = $8
		WHERE address = $1 AND (price_block, price_log_index) < ($7, $8)
	`,
		trade.Token,
		trade.PricePerToken,
		trade.PricePerToken,
		trade.Timestamp,
		string(trade.Type),
		trade.Fee,
		int64(trade.BlockNumber),
		int64(trade.LogIndex),
	)
	if err != nil {
		return false, fmt.Errorf("update last trade: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit trade tx: %w", err)
	}
	return true, nil
}

// ListTrades returns the latest trades for a token. limit <= 0 returns all.
func (s *Store) ListTrades(ctx context.Context, token string, limit int) ([]*model.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE token = $1 ORDER BY block_number DESC, log_index DESC`
	args := []interface{}{token}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	return collectTrades(rows)
}

// TradesSince returns trades with timestamp >= since in chain order.
func (s *Store) TradesSince(ctx context.Context, token string, since string) ([]*model.Trade, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+tradeColumns+` FROM trades
		WHERE token = $1 AND timestamp >= $2
		ORDER BY block_number ASC, log_index ASC
	`, token, since)
	if err != nil {
		return nil, fmt.Errorf("trades since: %w", err)
	}
	return collectTrades(rows)
}

func collectTrades(rows pgx.Rows) ([]*model.Trade, error) {
	defer rows.Close()

	var result []*model.Trade
	for rows.Next() {
		var (
			t                  model.Trade
			tradeType          string
			blockNum, logIndex int64
		)
		if err := rows.Scan(
			&t.ID, &tradeType, &t.Token, &t.Trader, &t.TokenAmount, &t.EthAmount, &t.Fee,
			&t.PricePerToken, &blockNum, &logIndex, &t.TransactionHash, &t.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Type = model.TradeType(tradeType)
		t.BlockNumber = uint64(blockNum)
		t.LogIndex = uint64(logIndex)
		t.TokenAmount = normalizeDecimal(t.TokenAmount)
		t.EthAmount = normalizeDecimal(t.EthAmount)
		t.Fee = normalizeDecimal(t.Fee)
		t.PricePerToken = normalizeDecimal(t.PricePerToken)
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return result, nil
}
