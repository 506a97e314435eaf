package candles

import (
	"fmt"

	"github.com/shopspring/decimal"

	"factoryMonitor/internal/model"
	"factoryMonitor/internal/units"
)

// Accumulator holds OHLCV values for one token window.
type Accumulator struct {
	Token       string
	WindowStart uint64
	WindowEnd   uint64
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	Volume      decimal.Decimal
	TradeCount  uint64
}

func NewAccumulator(token string, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		Token:       token,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume:      decimal.Zero,
	}
}

// AddTrade folds a trade into the window. Trades must arrive in chain order.
func (a *Accumulator) AddTrade(trade *model.Trade) error {
	price, err := units.ParseDecimal(trade.PricePerToken)
	if err != nil {
		return fmt.Errorf("parse price: %w", err)
	}
	eth, err := units.ParseDecimal(trade.EthAmount)
	if err != nil {
		return fmt.Errorf("parse eth amount: %w", err)
	}

	if a.TradeCount == 0 {
		a.Open = price
		a.High = price
		a.Low = price
	}
	if price.GreaterThan(a.High) {
		a.High = price
	}
	if price.LessThan(a.Low) {
		a.Low = price
	}
	a.Close = price
	a.Volume = a.Volume.Add(eth)
	a.TradeCount++
	return nil
}

// Candle renders the accumulator.
func (a *Accumulator) Candle() model.Candle {
	return model.Candle{
		Token:       a.Token,
		WindowStart: unixTime(a.WindowStart),
		WindowEnd:   unixTime(a.WindowEnd),
		Open:        a.Open.String(),
		High:        a.High.String(),
		Low:         a.Low.String(),
		Close:       a.Close.String(),
		VolumeETH:   a.Volume.String(),
		TradeCount:  a.TradeCount,
	}
}
