package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"factoryMonitor/internal/model"
	"factoryMonitor/internal/storage"
)

// AddCreatedToken upserts the user and its created-token entry in one batch.
func (s *Store) AddCreatedToken(ctx context.Context, creator string, entry model.CreatedToken, lastActive string) error {
	if creator == "" || entry.Address == "" {
		return storage.ErrInvalidInput
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO users (address, last_active, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (address) DO UPDATE
		SET last_active = EXCLUDED.last_active, updated_at = now()
	`, creator, lastActive)
	batch.Queue(`
		INSERT INTO user_created_tokens (
			user_address, token_address, name, symbol, image_url, funding_goal, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_address, token_address) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			image_url = EXCLUDED.image_url,
			funding_goal = EXCLUDED.funding_goal,
			timestamp = EXCLUDED.timestamp
	`,
		creator,
		entry.Address,
		entry.Name,
		entry.Symbol,
		entry.ImageURL,
		entry.FundingGoal,
		entry.Timestamp,
	)

	// A batch sent outside a transaction runs as one implicit transaction.
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("add created token: %w", err)
		}
	}
	return nil
}

// GetUser loads a user and its created tokens in insertion order.
func (s *Store) GetUser(ctx context.Context, address string) (*model.User, error) {
	user := model.User{Address: address, CreatedTokens: []model.CreatedToken{}}
	row := s.pool.QueryRow(ctx, `SELECT last_active FROM users WHERE address = $1`, address)
	if err := row.Scan(&user.LastActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT token_address, name, symbol, image_url, funding_goal, timestamp
		FROM user_created_tokens
		WHERE user_address = $1
		ORDER BY seq ASC
	`, address)
	if err != nil {
		return nil, fmt.Errorf("list created tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry model.CreatedToken
		if err := rows.Scan(&entry.Address, &entry.Name, &entry.Symbol, &entry.ImageURL, &entry.FundingGoal, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan created token: %w", err)
		}
		user.CreatedTokens = append(user.CreatedTokens, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate created tokens: %w", err)
	}
	return &user, nil
}
