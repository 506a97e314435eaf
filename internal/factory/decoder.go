package factory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"factoryMonitor/internal/model"
)

// ErrNotDecodable is returned when a log does not match any factory event.
var ErrNotDecodable = errors.New("log not decodable by factory abi")

// Decoder decodes raw factory logs into typed events.
type Decoder struct {
	factoryABI  abi.ABI
	topicToName map[string]string
}

// NewDecoder builds a decoder over the factory ABI.
func NewDecoder() (*Decoder, error) {
	parsed, err := FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}

	topicToName := make(map[string]string, len(parsed.Events))
	for name, event := range parsed.Events {
		topicToName[strings.ToLower(event.ID.Hex())] = name
	}

	return &Decoder{
		factoryABI:  parsed,
		topicToName: topicToName,
	}, nil
}

// CanDecode checks if the topic0 belongs to a factory event.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a typed Event. Any mismatch against the ABI yields an error
// wrapping ErrNotDecodable.
func (d *Decoder) Decode(log model.LogRecord) (Event, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("%w: missing topics", ErrNotDecodable)
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("%w: unknown topic0 %s", ErrNotDecodable, log.Topics[0])
	}

	event := d.factoryABI.Events[name]
	values, err := unpackLog(event, log)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotDecodable, name, err)
	}

	var decoded Event
	switch name {
	case EventTokenCreated:
		decoded, err = decodeTokenCreated(values)
	case EventTokensPurchased:
		decoded, err = decodeTokensPurchased(values)
	case EventTokensSold:
		decoded, err = decodeTokensSold(values)
	case EventTradingHalted:
		decoded, err = decodeTradingHalted(values)
	case EventTradingResumed:
		decoded, err = decodeTradingResumed(values)
	default:
		decoded = Unrecognized{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotDecodable, name, err)
	}
	return decoded, nil
}

func decodeTokenCreated(a args) (Event, error) {
	var (
		e   TokenCreated
		err error
	)
	if e.TokenAddress, err = a.address("tokenAddress"); err != nil {
		return nil, err
	}
	if e.Creator, err = a.address("creator"); err != nil {
		return nil, err
	}
	if e.Name, err = a.text("name"); err != nil {
		return nil, err
	}
	if e.Symbol, err = a.text("symbol"); err != nil {
		return nil, err
	}
	if e.ImageURL, err = a.text("imageUrl"); err != nil {
		return nil, err
	}
	if e.FundingGoal, err = a.uint256("fundingGoal"); err != nil {
		return nil, err
	}
	if e.BurnManager, err = a.address("burnManager"); err != nil {
		return nil, err
	}
	return e, nil
}

func decodeTokensPurchased(a args) (Event, error) {
	var (
		e   TokensPurchased
		err error
	)
	if e.Token, err = a.address("token"); err != nil {
		return nil, err
	}
	if e.Buyer, err = a.address("buyer"); err != nil {
		return nil, err
	}
	if e.Amount, err = a.uint256("amount"); err != nil {
		return nil, err
	}
	if e.Price, err = a.uint256("price"); err != nil {
		return nil, err
	}
	if e.Fee, err = a.uint256("fee"); err != nil {
		return nil, err
	}
	return e, nil
}

func decodeTokensSold(a args) (Event, error) {
	var (
		e   TokensSold
		err error
	)
	if e.Token, err = a.address("token"); err != nil {
		return nil, err
	}
	if e.Seller, err = a.address("seller"); err != nil {
		return nil, err
	}
	if e.TokenAmount, err = a.uint256("tokenAmount"); err != nil {
		return nil, err
	}
	if e.EthAmount, err = a.uint256("ethAmount"); err != nil {
		return nil, err
	}
	if e.Fee, err = a.uint256("fee"); err != nil {
		return nil, err
	}
	return e, nil
}

func decodeTradingHalted(a args) (Event, error) {
	token, err := a.address("token")
	if err != nil {
		return nil, err
	}
	collateral, err := a.uint256("collateral")
	if err != nil {
		return nil, err
	}
	return TradingHalted{Token: token, Collateral: collateral}, nil
}

func decodeTradingResumed(a args) (Event, error) {
	token, err := a.address("token")
	if err != nil {
		return nil, err
	}
	return TradingResumed{Token: token}, nil
}
