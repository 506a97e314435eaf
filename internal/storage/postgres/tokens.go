package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"factoryMonitor/internal/model"
	"factoryMonitor/internal/storage"
)

const tokenColumns = `
	address, name, symbol, image_url, creator, burn_manager, funding_goal, created_at,
	block_number, transaction_hash, current_state, state_block, state_log_index,
	collateral::text, total_supply::text, current_price::text, volume_eth::text,
	trade_count, unique_holders,
	last_trade_price, last_trade_timestamp, last_trade_type, last_trade_fee,
	price_block, price_log_index,
	final_collateral, halted_at, halt_block, halt_log_index,
	resumed_at, resume_block, resume_log_index`

// UpsertToken inserts a token with fresh state and statistics; on conflict only identity fields change.
func (s *Store) UpsertToken(ctx context.Context, token *model.Token) error {
	if token == nil || token.Address == "" {
		return storage.ErrInvalidInput
	}
	pos := model.LogPosition{Block: token.BlockNumber}
	if token.StatePosition != nil {
		pos = *token.StatePosition
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (
			address, name, symbol, image_url, creator, burn_manager, funding_goal, created_at,
			block_number, transaction_hash, current_state, state_block, state_log_index,
			collateral, total_supply, current_price, volume_eth, trade_count, unique_holders, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,0,0,0,0,0,0,now())
		ON CONFLICT (address) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			image_url = EXCLUDED.image_url,
			creator = EXCLUDED.creator,
			burn_manager = EXCLUDED.burn_manager,
			funding_goal = EXCLUDED.funding_goal,
			created_at = EXCLUDED.created_at,
			block_number = EXCLUDED.block_number,
			transaction_hash = EXCLUDED.transaction_hash,
			updated_at = now()
	`,
		token.Address,
		token.Name,
		token.Symbol,
		token.ImageURL,
		token.Creator,
		token.BurnManager,
		token.FundingGoal,
		token.CreatedAt,
		int64(token.BlockNumber),
		token.TransactionHash,
		string(model.TokenStateTrading),
		int64(pos.Block),
		int64(pos.Index),
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// HaltToken writes halt audit fields and moves state to Halted, each only when the position is
// newer than the one that last wrote it. An unknown token gets a placeholder row.
func (s *Store) HaltToken(ctx context.Context, update storage.HaltUpdate) error {
	if update.Token == "" {
		return storage.ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (
			address, name, symbol, creator, created_at,
			current_state, state_block, state_log_index,
			final_collateral, halted_at, halt_block, halt_log_index
		) VALUES ($1, '', '', '', '', $7, $5, $6, $2, $3, $4, $6)
		ON CONFLICT (address) DO UPDATE SET
			final_collateral = CASE WHEN (COALESCE(tokens.halt_block, -1), tokens.halt_log_index) < ($5, $6)
				THEN EXCLUDED.final_collateral ELSE tokens.final_collateral END,
			halted_at = CASE WHEN (COALESCE(tokens.halt_block, -1), tokens.halt_log_index) < ($5, $6)
				THEN EXCLUDED.halted_at ELSE tokens.halted_at END,
			halt_log_index = CASE WHEN (COALESCE(tokens.halt_block, -1), tokens.halt_log_index) < ($5, $6)
				THEN EXCLUDED.halt_log_index ELSE tokens.halt_log_index END,
			halt_block = CASE WHEN (COALESCE(tokens.halt_block, -1), tokens.halt_log_index) < ($5, $6)
				THEN EXCLUDED.halt_block ELSE tokens.halt_block END,
			current_state = CASE WHEN (tokens.state_block, tokens.state_log_index) < ($5, $6)
				THEN EXCLUDED.current_state ELSE tokens.current_state END,
			state_log_index = CASE WHEN (tokens.state_block, tokens.state_log_index) < ($5, $6)
				THEN EXCLUDED.state_log_index ELSE tokens.state_log_index END,
			state_block = CASE WHEN (tokens.state_block, tokens.state_log_index) < ($5, $6)
				THEN EXCLUDED.state_block ELSE tokens.state_block END,
			updated_at = now()
	`,
		update.Token,
		update.FinalCollateral,
		update.HaltedAt,
		int64(update.HaltBlock),
		int64(update.Position.Block),
		int64(update.Position.Index),
		string(model.TokenStateHalted),
	)
	if err != nil {
		return fmt.Errorf("halt token: %w", err)
	}
	return nil
}

// ResumeToken writes resume audit fields and moves state to Trading, each only when the position
// is newer than the one that last wrote it. An unknown token gets a placeholder row.
func (s *Store) ResumeToken(ctx context.Context, update storage.ResumeUpdate) error {
	if update.Token == "" {
		return storage.ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (
			address, name, symbol, creator, created_at,
			current_state, state_block, state_log_index,
			resumed_at, resume_block, resume_log_index
		) VALUES ($1, '', '', '', '', $6, $4, $5, $2, $3, $5)
		ON CONFLICT (address) DO UPDATE SET
			resumed_at = CASE WHEN (COALESCE(tokens.resume_block, -1), tokens.resume_log_index) < ($4, $5)
				THEN EXCLUDED.resumed_at ELSE tokens.resumed_at END,
			resume_log_index = CASE WHEN (COALESCE(tokens.resume_block, -1), tokens.resume_log_index) < ($4, $5)
				THEN EXCLUDED.resume_log_index ELSE tokens.resume_log_index END,
			resume_block = CASE WHEN (COALESCE(tokens.resume_block, -1), tokens.resume_log_index) < ($4, $5)
				THEN EXCLUDED.resume_block ELSE tokens.resume_block END,
			current_state = CASE WHEN (tokens.state_block, tokens.state_log_index) < ($4, $5)
				THEN EXCLUDED.current_state ELSE tokens.current_state END,
			state_log_index = CASE WHEN (tokens.state_block, tokens.state_log_index) < ($4, $5)
				THEN EXCLUDED.state_log_index ELSE tokens.state_log_index END,
			state_block = CASE WHEN (tokens.state_block, tokens.state_log_index) < ($4, $5)
				THEN EXCLUDED.state_block ELSE tokens.state_block END,
			updated_at = now()
	`,
		update.Token,
		update.ResumedAt,
		int64(update.ResumeBlock),
		int64(update.Position.Block),
		int64(update.Position.Index),
		string(model.TokenStateTrading),
	)
	if err != nil {
		return fmt.Errorf("resume token: %w", err)
	}
	return nil
}

// GetToken loads a token by lowercase address.
func (s *Store) GetToken(ctx context.Context, address string) (*model.Token, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE address = $1`, address)
	token, err := scanToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

func scanToken(row pgx.Row) (*model.Token, error) {
	var (
		t                         model.Token
		state                     string
		blockNumber               int64
		stateBlock, stateIndex    int64
		priceBlock, priceIndex    int64
		tradeCount, uniqueHolders int64
		lastPrice, lastTS         *string
		lastType, lastFee         *string
		finalCollateral, haltedAt *string
		resumedAt                 *string
		haltBlock, resumeBlock    *int64
		haltIndex, resumeIndex    int64
	)
	err := row.Scan(
		&t.Address, &t.Name, &t.Symbol, &t.ImageURL, &t.Creator, &t.BurnManager, &t.FundingGoal, &t.CreatedAt,
		&blockNumber, &t.TransactionHash, &state, &stateBlock, &stateIndex,
		&t.Collateral, &t.Statistics.TotalSupply, &t.Statistics.CurrentPrice, &t.Statistics.VolumeETH,
		&tradeCount, &uniqueHolders,
		&lastPrice, &lastTS, &lastType, &lastFee,
		&priceBlock, &priceIndex,
		&finalCollateral, &haltedAt, &haltBlock, &haltIndex,
		&resumedAt, &resumeBlock, &resumeIndex,
	)
	if err != nil {
		return nil, err
	}

	t.BlockNumber = uint64(blockNumber)
	t.CurrentState = model.TokenState(state)
	t.Collateral = normalizeDecimal(t.Collateral)
	t.Statistics.TotalSupply = normalizeDecimal(t.Statistics.TotalSupply)
	t.Statistics.CurrentPrice = normalizeDecimal(t.Statistics.CurrentPrice)
	t.Statistics.VolumeETH = normalizeDecimal(t.Statistics.VolumeETH)
	t.Statistics.TradeCount = uint64(tradeCount)
	t.Statistics.UniqueHolders = uint64(uniqueHolders)

	if block, index, ok := positionFromColumns(stateBlock, stateIndex); ok {
		t.StatePosition = &model.LogPosition{Block: block, Index: index}
	}
	if block, index, ok := positionFromColumns(priceBlock, priceIndex); ok {
		t.PricePosition = &model.LogPosition{Block: block, Index: index}
	}
	if lastPrice != nil {
		t.LastTrade = &model.LastTrade{
			Price:     deref(lastPrice),
			Timestamp: deref(lastTS),
			Type:      model.TradeType(deref(lastType)),
			Fee:       deref(lastFee),
		}
	}
	t.FinalCollateral = deref(finalCollateral)
	t.HaltedAt = deref(haltedAt)
	t.ResumedAt = deref(resumedAt)
	if haltBlock != nil {
		t.HaltBlock = uint64(*haltBlock)
		if block, index, ok := positionFromColumns(*haltBlock, haltIndex); ok {
			t.HaltPosition = &model.LogPosition{Block: block, Index: index}
		}
	}
	if resumeBlock != nil {
		t.ResumeBlock = uint64(*resumeBlock)
		if block, index, ok := positionFromColumns(*resumeBlock, resumeIndex); ok {
			t.ResumePosition = &model.LogPosition{Block: block, Index: index}
		}
	}
	return &t, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
