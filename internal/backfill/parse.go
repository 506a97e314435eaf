package backfill

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"factoryMonitor/internal/factory"
)

// ParseAddress converts a hex string into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}

// FactoryTopics returns the topic0 hashes of every factory event.
func FactoryTopics() ([]common.Hash, error) {
	parsed, err := factory.FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	topics := make([]common.Hash, 0, len(parsed.Events))
	for _, name := range factory.SupportedEvents() {
		event, ok := parsed.Events[name]
		if !ok {
			continue
		}
		topics = append(topics, event.ID)
	}
	return topics, nil
}
