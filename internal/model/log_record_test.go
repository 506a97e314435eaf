package model

import (
	"encoding/json"
	"testing"
)

func TestWebhookPayloadBlock(t *testing.T) {
	body := `{
		"event": {
			"data": {
				"block": {
					"number": "0x10",
					"timestamp": 1700000000,
					"logs": [
						{
							"account": {"address": "0xAbC0000000000000000000000000000000000001"},
							"data": "0x",
							"topics": ["0xaaa"],
							"transaction": {"hash": "0xdef"}
						},
						{
							"account": {"address": "0xAbC0000000000000000000000000000000000001"},
							"data": "0x01",
							"topics": ["0xbbb"],
							"transaction": {"hash": "0xfed"},
							"index": "7"
						}
					]
				}
			}
		}
	}`

	var payload WebhookPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	block, err := payload.Block()
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if block.Number != 16 || block.Timestamp != 1700000000 {
		t.Fatalf("block header mismatch: %+v", block)
	}
	if len(block.Logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(block.Logs))
	}

	first := block.Logs[0].Record(uint64(block.Number), 0)
	if first.LogIndex != 0 || first.TxHash != "0xdef" || first.BlockNumber != 16 {
		t.Fatalf("first record mismatch: %+v", first)
	}

	second := block.Logs[1].Record(uint64(block.Number), 1)
	if second.LogIndex != 7 {
		t.Fatalf("explicit index should win, got %d", second.LogIndex)
	}
}

func TestWebhookPayloadMissingBlock(t *testing.T) {
	var payload WebhookPayload
	if err := json.Unmarshal([]byte(`{"event":{"data":{}}}`), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, err := payload.Block(); err == nil {
		t.Fatalf("expected error for missing block")
	}
}

func TestUint64RejectsGarbage(t *testing.T) {
	var v Uint64
	if err := json.Unmarshal([]byte(`"twelve"`), &v); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLogPositionBefore(t *testing.T) {
	a := LogPosition{Block: 10, Index: 5}
	b := LogPosition{Block: 10, Index: 6}
	c := LogPosition{Block: 11, Index: 0}

	if !a.Before(b) || !b.Before(c) || c.Before(a) || a.Before(a) {
		t.Fatalf("ordering mismatch")
	}
}
