package factory

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	EventTokenCreated    = "TokenCreated"
	EventTokensPurchased = "TokensPurchased"
	EventTokensSold      = "TokensSold"
	EventTradingHalted   = "TradingHalted"
	EventTradingResumed  = "TradingResumed"
)

// Event is a decoded factory event. The set of implementations is closed to this package.
type Event interface {
	EventName() string
	isEvent()
}

// TokenCreated is emitted when the factory deploys a new token.
type TokenCreated struct {
	TokenAddress common.Address
	Creator      common.Address
	Name         string
	Symbol       string
	ImageURL     string
	FundingGoal  *big.Int
	BurnManager  common.Address
}

// TokensPurchased is emitted for a buy against the curve.
type TokensPurchased struct {
	Token  common.Address
	Buyer  common.Address
	Amount *big.Int
	Price  *big.Int
	Fee    *big.Int
}

// TokensSold is emitted for a sell against the curve.
type TokensSold struct {
	Token       common.Address
	Seller      common.Address
	TokenAmount *big.Int
	EthAmount   *big.Int
	Fee         *big.Int
}

// TradingHalted is emitted when a token stops trading on the curve.
type TradingHalted struct {
	Token      common.Address
	Collateral *big.Int
}

// TradingResumed is emitted when trading on the curve restarts.
type TradingResumed struct {
	Token common.Address
}

// Unrecognized is an event present in the factory ABI that has no projection.
type Unrecognized struct {
	Name string
}

func (TokenCreated) EventName() string { return EventTokenCreated }
func (TokensPurchased) EventName() string { return EventTokensPurchased }
func (TokensSold) EventName() string { return EventTokensSold }
func (TradingHalted) EventName() string { return EventTradingHalted }
func (TradingResumed) EventName() string { return EventTradingResumed }
func (u Unrecognized) EventName() string { return u.Name }

func (TokenCreated) isEvent() {}
func (TokensPurchased) isEvent() {}
func (TokensSold) isEvent() {}
func (TradingHalted) isEvent() {}
func (TradingResumed) isEvent() {}
func (Unrecognized) isEvent() {}
