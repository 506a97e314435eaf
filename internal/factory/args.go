package factory

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"factoryMonitor/internal/model"
)

// args holds the arguments of one decoded log keyed by their ABI names.
type args map[string]interface{}

// unpackLog reads indexed arguments from topics[1:] and the rest from data.
func unpackLog(event abi.Event, log model.LogRecord) (args, error) {
	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(log.Topics) != len(indexed)+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", len(indexed)+1, len(log.Topics))
	}

	topics := make([]common.Hash, 0, len(indexed))
	for _, topic := range log.Topics[1:] {
		raw, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic %q: %w", topic, err)
		}
		if len(raw) > common.HashLength {
			return nil, fmt.Errorf("topic %q longer than 32 bytes", topic)
		}
		topics = append(topics, common.BytesToHash(raw))
	}

	out := make(args, len(event.Inputs))
	if err := abi.ParseTopicsIntoMap(out, indexed, topics); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}

	var data []byte
	if log.Data != "" && log.Data != "0x" {
		decoded, err := hexutil.Decode(log.Data)
		if err != nil {
			return nil, fmt.Errorf("invalid data: %w", err)
		}
		data = decoded
	}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(out, data); err != nil {
		return nil, fmt.Errorf("unpack data: %w", err)
	}
	return out, nil
}

func (a args) address(name string) (common.Address, error) {
	switch v := a[name].(type) {
	case common.Address:
		return v, nil
	case nil:
		return common.Address{}, fmt.Errorf("%s: missing", name)
	default:
		return common.Address{}, fmt.Errorf("%s: unexpected type %T", name, v)
	}
}

func (a args) uint256(name string) (*big.Int, error) {
	if _, ok := a[name]; !ok {
		return nil, fmt.Errorf("%s: missing", name)
	}
	v, err := toBigInt(a[name])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func (a args) text(name string) (string, error) {
	v, ok := a[name].(string)
	if !ok {
		return "", fmt.Errorf("%s: unexpected type %T", name, a[name])
	}
	return v, nil
}

// toBigInt copies an unpacked integer.
func toBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unexpected type %T", value)
	}
}
