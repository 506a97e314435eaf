package model

import "time"

// Candle is an OHLCV bucket of trades for one token.
type Candle struct {
	Token       string    `json:"token"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
	Open        string    `json:"open"`
	High        string    `json:"high"`
	Low         string    `json:"low"`
	Close       string    `json:"close"`
	VolumeETH   string    `json:"volumeETH"`
	TradeCount  uint64    `json:"tradeCount"`
}
