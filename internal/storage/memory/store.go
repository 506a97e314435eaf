// Package memory provides an in-process implementation of storage.Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"factoryMonitor/internal/model"
	"factoryMonitor/internal/storage"
	"factoryMonitor/internal/units"
)

type tradeKey struct {
	txHash   string
	logIndex uint64
}

// Store keeps tokens, users and trades in maps guarded by a single mutex,
// which makes every write method transactional.
type Store struct {
	mu        sync.RWMutex
	tokens    map[string]*model.Token
	users     map[string]*model.User
	trades    map[string]*model.Trade
	tradeKeys map[tradeKey]string
	byToken   map[string][]string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		tokens:    make(map[string]*model.Token),
		users:     make(map[string]*model.User),
		trades:    make(map[string]*model.Trade),
		tradeKeys: make(map[tradeKey]string),
		byToken:   make(map[string][]string),
	}
}

func (s *Store) Close() {}

// UpsertToken inserts a new token or refreshes identity fields of an existing one.
func (s *Store) UpsertToken(_ context.Context, token *model.Token) error {
	if token == nil || token.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tokens[token.Address]
	if !ok {
		created := *token
		created.CurrentState = model.TokenStateTrading
		created.Collateral = "0"
		created.Statistics = model.ZeroStatistics()
		created.LastTrade = nil
		created.PricePosition = nil
		pos := model.LogPosition{Block: token.BlockNumber}
		if token.StatePosition != nil {
			pos = *token.StatePosition
		}
		created.StatePosition = &pos
		s.tokens[token.Address] = &created
		return nil
	}

	existing.Name = token.Name
	existing.Symbol = token.Symbol
	existing.ImageURL = token.ImageURL
	existing.Creator = token.Creator
	existing.BurnManager = token.BurnManager
	existing.FundingGoal = token.FundingGoal
	existing.CreatedAt = token.CreatedAt
	existing.BlockNumber = token.BlockNumber
	existing.TransactionHash = token.TransactionHash
	return nil
}

// AddCreatedToken appends entry to the creator's list unless the token is already listed.
func (s *Store) AddCreatedToken(_ context.Context, creator string, entry model.CreatedToken, lastActive string) error {
	if creator == "" || entry.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[creator]
	if !ok {
		user = &model.User{Address: creator, CreatedTokens: []model.CreatedToken{}}
		s.users[creator] = user
	}
	user.LastActive = lastActive

	for i := range user.CreatedTokens {
		if user.CreatedTokens[i].Address == entry.Address {
			user.CreatedTokens[i] = entry
			return nil
		}
	}
	user.CreatedTokens = append(user.CreatedTokens, entry)
	return nil
}

// ApplyTrade records the trade and updates token counters atomically.
func (s *Store) ApplyTrade(_ context.Context, trade *model.Trade) (bool, error) {
	if trade == nil || trade.Token == "" || trade.TransactionHash == "" {
		return false, storage.ErrInvalidInput
	}
	eth, err := units.ParseDecimal(trade.EthAmount)
	if err != nil {
		return false, fmt.Errorf("%w: eth amount: %v", storage.ErrInvalidInput, err)
	}
	price, err := units.ParseDecimal(trade.PricePerToken)
	if err != nil {
		return false, fmt.Errorf("%w: price: %v", storage.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := tradeKey{txHash: strings.ToLower(trade.TransactionHash), logIndex: trade.LogIndex}
	if _, exists := s.tradeKeys[key]; exists {
		return false, nil
	}
	token := s.tokenLocked(trade.Token)

	collateral, err := units.ParseDecimal(token.Collateral)
	if err != nil {
		return false, fmt.Errorf("parse collateral: %w", err)
	}
	volume, err := units.ParseDecimal(token.Statistics.VolumeETH)
	if err != nil {
		return false, fmt.Errorf("parse volume: %w", err)
	}

	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	stored := *trade
	s.trades[stored.ID] = &stored
	s.tradeKeys[key] = stored.ID
	s.byToken[stored.Token] = append(s.byToken[stored.Token], stored.ID)

	delta := eth
	if trade.Type == model.TradeTypeSell {
		delta = eth.Neg()
	}
	token.Collateral = collateral.Add(delta).String()
	token.Statistics.VolumeETH = volume.Add(eth).String()
	token.Statistics.TradeCount++

	pos := trade.Position()
	if model.Supersedes(token.PricePosition, pos) {
		token.Statistics.CurrentPrice = price.String()
		token.LastTrade = &model.LastTrade{
			Price:     trade.PricePerToken,
			Timestamp: trade.Timestamp,
			Type:      trade.Type,
			Fee:       trade.Fee,
		}
		token.PricePosition = &pos
	}
	return true, nil
}

// HaltToken writes halt audit fields and the Halted state, each when its position allows.
func (s *Store) HaltToken(_ context.Context, update storage.HaltUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if update.Token == "" {
		return storage.ErrInvalidInput
	}
	token := s.tokenLocked(update.Token)
	if model.Supersedes(token.HaltPosition, update.Position) {
		token.FinalCollateral = update.FinalCollateral
		token.HaltedAt = update.HaltedAt
		token.HaltBlock = update.HaltBlock
		pos := update.Position
		token.HaltPosition = &pos
	}
	if model.Supersedes(token.StatePosition, update.Position) {
		token.CurrentState = model.TokenStateHalted
		pos := update.Position
		token.StatePosition = &pos
	}
	return nil
}

// ResumeToken writes resume audit fields and the Trading state, each when its position allows.
func (s *Store) ResumeToken(_ context.Context, update storage.ResumeUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if update.Token == "" {
		return storage.ErrInvalidInput
	}
	token := s.tokenLocked(update.Token)
	if model.Supersedes(token.ResumePosition, update.Position) {
		token.ResumedAt = update.ResumedAt
		token.ResumeBlock = update.ResumeBlock
		pos := update.Position
		token.ResumePosition = &pos
	}
	if model.Supersedes(token.StatePosition, update.Position) {
		token.CurrentState = model.TokenStateTrading
		pos := update.Position
		token.StatePosition = &pos
	}
	return nil
}

// tokenLocked returns the token, creating a placeholder when it is unknown. Callers hold s.mu.
func (s *Store) tokenLocked(address string) *model.Token {
	token, ok := s.tokens[address]
	if !ok {
		token = model.PlaceholderToken(address)
		s.tokens[address] = token
	}
	return token
}

// GetToken returns a copy of the token.
func (s *Store) GetToken(_ context.Context, address string) (*model.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[address]
	if !ok {
		return nil, storage.ErrNotFound
	}
	tokenCopy := *token
	if token.LastTrade != nil {
		lastTrade := *token.LastTrade
		tokenCopy.LastTrade = &lastTrade
	}
	return &tokenCopy, nil
}

// GetUser returns a copy of the user.
func (s *Store) GetUser(_ context.Context, address string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[address]
	if !ok {
		return nil, storage.ErrNotFound
	}
	userCopy := *user
	userCopy.CreatedTokens = append([]model.CreatedToken(nil), user.CreatedTokens...)
	return &userCopy, nil
}

// ListTrades returns up to limit trades, latest position first. limit <= 0 returns all.
func (s *Store) ListTrades(_ context.Context, token string, limit int) ([]*model.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.tradesFor(token, func(*model.Trade) bool { return true })
	sort.Slice(result, func(i, j int) bool {
		return result[j].Position().Before(result[i].Position())
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// TradesSince returns trades at or after since, oldest position first.
func (s *Store) TradesSince(_ context.Context, token string, since string) ([]*model.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.tradesFor(token, func(t *model.Trade) bool { return t.Timestamp >= since })
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position().Before(result[j].Position())
	})
	return result, nil
}

func (s *Store) tradesFor(token string, keep func(*model.Trade) bool) []*model.Trade {
	ids := s.byToken[token]
	result := make([]*model.Trade, 0, len(ids))
	for _, id := range ids {
		trade := s.trades[id]
		if !keep(trade) {
			continue
		}
		tradeCopy := *trade
		result = append(result, &tradeCopy)
	}
	return result
}

// TradeCount returns the number of stored trades.
func (s *Store) TradeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trades)
}

var _ storage.Store = (*Store)(nil)
