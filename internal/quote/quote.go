// Package quote computes display-only trade previews from contract reads.
package quote

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side is the trade direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide validates a side string.
func ParseSide(value string) (Side, error) {
	switch Side(value) {
	case SideBuy, SideSell:
		return Side(value), nil
	default:
		return "", fmt.Errorf("invalid side %q", value)
	}
}

const divisionPrecision = 18

var (
	// FeeRate is the fixed trading fee.
	FeeRate   = decimal.RequireFromString("0.003")
	netFactor = decimal.NewFromInt(1).Sub(FeeRate)
	hundred   = decimal.NewFromInt(100)
)

// Quote is a trade preview. EffectivePrice and PriceImpact are nil when Available is false.
type Quote struct {
	Side           Side             `json:"side"`
	Input          decimal.Decimal  `json:"input"`
	Output         decimal.Decimal  `json:"output"`
	Gross          decimal.Decimal  `json:"gross"`
	Fee            decimal.Decimal  `json:"fee"`
	Net            decimal.Decimal  `json:"net"`
	CurrentPrice   decimal.Decimal  `json:"currentPrice"`
	EffectivePrice *decimal.Decimal `json:"effectivePrice"`
	PriceImpact    *decimal.Decimal `json:"priceImpact"`
	Available      bool             `json:"available"`
}

// Buy previews spending ethIn for tokensOut (as computed by the contract).
// The fee is taken from the ETH input.
func Buy(ethIn, tokensOut, currentPrice decimal.Decimal) Quote {
	fee := ethIn.Mul(FeeRate)
	q := Quote{
		Side:         SideBuy,
		Input:        ethIn,
		Output:       tokensOut,
		Gross:        ethIn,
		Fee:          fee,
		Net:          ethIn.Sub(fee),
		CurrentPrice: currentPrice,
	}
	if !tokensOut.IsPositive() {
		return q
	}
	effective := ethIn.DivRound(tokensOut, divisionPrecision)
	return withImpact(q, effective)
}

// Sell previews selling tokensIn for ethOut (as computed by the contract, after fees).
// The gross ETH amount is reconstructed from the net output.
func Sell(tokensIn, ethOut, currentPrice decimal.Decimal) Quote {
	gross := ethOut.DivRound(netFactor, divisionPrecision)
	q := Quote{
		Side:         SideSell,
		Input:        tokensIn,
		Output:       ethOut,
		Gross:        gross,
		Fee:          gross.Mul(FeeRate),
		Net:          ethOut,
		CurrentPrice: currentPrice,
	}
	if !tokensIn.IsPositive() || !ethOut.IsPositive() {
		return q
	}
	effective := ethOut.DivRound(tokensIn, divisionPrecision)
	return withImpact(q, effective)
}

// Impact returns (effective - current) / current * 100, or false when current is not positive.
func Impact(effective, current decimal.Decimal) (decimal.Decimal, bool) {
	if !current.IsPositive() {
		return decimal.Zero, false
	}
	return effective.Sub(current).Mul(hundred).DivRound(current, divisionPrecision), true
}

func withImpact(q Quote, effective decimal.Decimal) Quote {
	impact, ok := Impact(effective, q.CurrentPrice)
	if !ok {
		return q
	}
	q.EffectivePrice = &effective
	q.PriceImpact = &impact
	q.Available = true
	return q
}
