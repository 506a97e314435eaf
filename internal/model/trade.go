package model

// TradeType is the direction of a trade against the bonding curve.
type TradeType string

const (
	TradeTypeBuy  TradeType = "buy"
	TradeTypeSell TradeType = "sell"
)

// Trade is an immutable record of a single buy or sell.
// Amounts are decimal ether strings.
type Trade struct {
	ID              string    `json:"id"`
	Type            TradeType `json:"type"`
	Token           string    `json:"token"`
	Trader          string    `json:"trader"`
	TokenAmount     string    `json:"tokenAmount"`
	EthAmount       string    `json:"ethAmount"`
	Fee             string    `json:"fee"`
	PricePerToken   string    `json:"pricePerToken"`
	BlockNumber     uint64    `json:"blockNumber"`
	LogIndex        uint64    `json:"logIndex"`
	TransactionHash string    `json:"transactionHash"`
	Timestamp       string    `json:"timestamp"`
}

// Position returns the on-chain position of the log that produced the trade.
func (t Trade) Position() LogPosition {
	return LogPosition{Block: t.BlockNumber, Index: t.LogIndex}
}
