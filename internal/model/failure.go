package model

// ProjectionFailure records a factory log whose projection failed.
type ProjectionFailure struct {
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Address     string `json:"address"`
	Topic0      string `json:"topic0"`
	EventName   string `json:"event_name,omitempty"`
	Error       string `json:"error"`
	FailedAt    string `json:"failed_at"`
}
