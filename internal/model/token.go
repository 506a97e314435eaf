package model

// TokenState is the lifecycle state of a bonding-curve token.
type TokenState string

const (
	TokenStateTrading TokenState = "Trading"
	TokenStateHalted  TokenState = "Halted"
)

// Token is the projected record of a factory-created token, keyed by lowercase address.
type Token struct {
	Address         string          `json:"address"`
	Name            string          `json:"name"`
	Symbol          string          `json:"symbol"`
	ImageURL        string          `json:"imageUrl"`
	Creator         string          `json:"creator"`
	BurnManager     string          `json:"burnManager"`
	FundingGoal     string          `json:"fundingGoal"`
	CreatedAt       string          `json:"createdAt"`
	CurrentState    TokenState      `json:"currentState"`
	Collateral      string          `json:"collateral"`
	Statistics      TokenStatistics `json:"statistics"`
	LastTrade       *LastTrade      `json:"lastTrade,omitempty"`
	FinalCollateral string          `json:"finalCollateral,omitempty"`
	HaltedAt        string          `json:"haltedAt,omitempty"`
	HaltBlock       uint64          `json:"haltBlock,omitempty"`
	ResumedAt       string          `json:"resumedAt,omitempty"`
	ResumeBlock     uint64          `json:"resumeBlock,omitempty"`
	BlockNumber     uint64          `json:"blockNumber"`
	TransactionHash string          `json:"transactionHash"`

	// Positions of the logs that last wrote currentState, currentPrice/lastTrade and the
	// halt and resume audit fields.
	StatePosition  *LogPosition `json:"-"`
	PricePosition  *LogPosition `json:"-"`
	HaltPosition   *LogPosition `json:"-"`
	ResumePosition *LogPosition `json:"-"`
}

// TokenStatistics holds running trade statistics for a token.
type TokenStatistics struct {
	TotalSupply   string `json:"totalSupply"`
	CurrentPrice  string `json:"currentPrice"`
	VolumeETH     string `json:"volumeETH"`
	TradeCount    uint64 `json:"tradeCount"`
	UniqueHolders uint64 `json:"uniqueHolders"`
}

// LastTrade is a snapshot of the most recent trade applied to a token.
type LastTrade struct {
	Price     string    `json:"price"`
	Timestamp string    `json:"timestamp"`
	Type      TradeType `json:"type"`
	Fee       string    `json:"fee"`
}

// ZeroStatistics returns the statistics of a freshly created token.
func ZeroStatistics() TokenStatistics {
	return TokenStatistics{
		TotalSupply:  "0",
		CurrentPrice: "0",
		VolumeETH:    "0",
	}
}

// PlaceholderToken is the record written when a trade, halt or resume arrives before the
// token's TokenCreated log. A later TokenCreated fills in the identity fields.
func PlaceholderToken(address string) *Token {
	return &Token{
		Address:      address,
		CurrentState: TokenStateTrading,
		Collateral:   "0",
		Statistics:   ZeroStatistics(),
	}
}
