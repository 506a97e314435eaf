// Package candles buckets stored trades into OHLCV windows for charting.
package candles

import (
	"context"
	"fmt"
	"time"

	"factoryMonitor/internal/model"
	"factoryMonitor/internal/storage"
)

// MaxWindows bounds the lookback of a single request.
const MaxWindows = 500

var allowedWindows = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// ParseWindow validates a window label.
func ParseWindow(label string) (time.Duration, error) {
	window, ok := allowedWindows[label]
	if !ok {
		return 0, fmt.Errorf("unsupported window %q", label)
	}
	return window, nil
}

// Build buckets trades (chain order) into candles, oldest first. Empty windows are omitted.
func Build(token string, trades []*model.Trade, window time.Duration) ([]model.Candle, error) {
	windowSec := uint64(window / time.Second)
	if windowSec == 0 {
		return nil, fmt.Errorf("window must be at least one second")
	}

	var (
		out     []model.Candle
		current *Accumulator
	)
	for _, trade := range trades {
		ts, err := model.ParseTimestamp(trade.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("trade %s: %w", trade.ID, err)
		}
		start := windowStart(uint64(ts.Unix()), windowSec)
		if current == nil || current.WindowStart != start {
			if current != nil {
				out = append(out, current.Candle())
			}
			current = NewAccumulator(token, start, start+windowSec)
		}
		if err := current.AddTrade(trade); err != nil {
			return nil, fmt.Errorf("trade %s: %w", trade.ID, err)
		}
	}
	if current != nil {
		out = append(out, current.Candle())
	}
	return out, nil
}

// Service serves candles from the store.
type Service struct {
	reader storage.Reader
	now    func() time.Time
}

func NewService(reader storage.Reader) *Service {
	return &Service{reader: reader, now: time.Now}
}

// Candles returns up to count windows of the given size ending at the current window.
func (s *Service) Candles(ctx context.Context, token string, window time.Duration, count int) ([]model.Candle, error) {
	if count <= 0 || count > MaxWindows {
		count = MaxWindows
	}
	windowSec := uint64(window / time.Second)
	if windowSec == 0 {
		return nil, fmt.Errorf("window must be at least one second")
	}

	nowSec := uint64(s.now().Unix())
	from := windowStart(nowSec, windowSec)
	span := uint64(count-1) * windowSec
	if span > from {
		from = 0
	} else {
		from -= span
	}

	trades, err := s.reader.TradesSince(ctx, token, model.FormatTimestamp(from))
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	return Build(token, trades, window)
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func unixTime(ts uint64) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}
