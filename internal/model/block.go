package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// WebhookPayload is the body pushed by the log delivery service.
type WebhookPayload struct {
	Event *WebhookEvent `json:"event"`
}

// WebhookEvent wraps the delivered block.
type WebhookEvent struct {
	Data *WebhookData `json:"data"`
}

// WebhookData wraps the delivered block.
type WebhookData struct {
	Block *Block `json:"block"`
}

// Block is one delivered block with its raw logs.
type Block struct {
	Number    Uint64     `json:"number"`
	Timestamp Uint64     `json:"timestamp"`
	Logs      []BlockLog `json:"logs"`
}

// BlockLog is a raw log as delivered inside a block payload.
type BlockLog struct {
	Account     LogAccount     `json:"account"`
	Data        string         `json:"data"`
	Topics      []string       `json:"topics"`
	Transaction LogTransaction `json:"transaction"`
	Index       *Uint64        `json:"index,omitempty"`
}

// LogAccount is the emitting contract.
type LogAccount struct {
	Address string `json:"address"`
}

// LogTransaction is the parent transaction of a log.
type LogTransaction struct {
	Hash string `json:"hash"`
}

// Block returns the delivered block or an error when the payload is malformed.
func (p WebhookPayload) Block() (*Block, error) {
	if p.Event == nil || p.Event.Data == nil || p.Event.Data.Block == nil {
		return nil, fmt.Errorf("payload missing event.data.block")
	}
	return p.Event.Data.Block, nil
}

// Record normalizes a delivered log. position is the log's offset in the block's log array and
// is used when the delivery omits the log index.
func (l BlockLog) Record(blockNumber uint64, position int) LogRecord {
	index := uint64(position)
	if l.Index != nil {
		index = uint64(*l.Index)
	}
	return LogRecord{
		BlockNumber: blockNumber,
		TxHash:      l.Transaction.Hash,
		LogIndex:    index,
		Address:     l.Account.Address,
		Topics:      l.Topics,
		Data:        l.Data,
	}
}

// Uint64 accepts a JSON number, a decimal string or a 0x-prefixed hex string.
type Uint64 uint64

func (u Uint64) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatUint(uint64(u), 10)), nil
}

func (u *Uint64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = 0
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		text = strings.TrimSpace(s)
	}

	var (
		val uint64
		err error
	)
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		val, err = strconv.ParseUint(text[2:], 16, 64)
	} else {
		val, err = strconv.ParseUint(text, 10, 64)
	}
	if err != nil {
		return fmt.Errorf("invalid uint64 %q: %w", text, err)
	}
	*u = Uint64(val)
	return nil
}
