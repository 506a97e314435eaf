package factory

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"factoryMonitor/internal/model"
)

var (
	testFactory = common.HexToAddress("0xfac7000000000000000000000000000000000001")
	testToken   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testTrader  = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestDecoderTokenCreated(t *testing.T) {
	parsed, err := FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	burnManager := common.HexToAddress("0x3333333333333333333333333333333333333333")
	goal, _ := new(big.Int).SetString("5000000000000000000", 10)
	data, err := parsed.Events[EventTokenCreated].Inputs.NonIndexed().Pack(
		"Pepe", "PEPE", "ipfs://pepe", goal, burnManager,
	)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	log := buildLogRecord(parsed.Events[EventTokenCreated].ID, data, testToken, testTrader)
	event, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	created, ok := event.(TokenCreated)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", event)
	}
	if created.TokenAddress != testToken || created.Creator != testTrader {
		t.Fatalf("address mismatch: %+v", created)
	}
	if created.Name != "Pepe" || created.Symbol != "PEPE" || created.ImageURL != "ipfs://pepe" {
		t.Fatalf("metadata mismatch: %+v", created)
	}
	if created.FundingGoal.Cmp(goal) != 0 || created.BurnManager != burnManager {
		t.Fatalf("goal mismatch: %+v", created)
	}
}

func TestDecoderTrades(t *testing.T) {
	parsed, err := FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	buyData, err := parsed.Events[EventTokensPurchased].Inputs.NonIndexed().Pack(
		big.NewInt(1000), big.NewInt(20), big.NewInt(3),
	)
	if err != nil {
		t.Fatalf("pack buy: %v", err)
	}
	buyEvent, err := decoder.Decode(buildLogRecord(parsed.Events[EventTokensPurchased].ID, buyData, testToken, testTrader))
	if err != nil {
		t.Fatalf("decode buy: %v", err)
	}
	buy, ok := buyEvent.(TokensPurchased)
	if !ok {
		t.Fatalf("buy type mismatch: %T", buyEvent)
	}
	if buy.Amount.Int64() != 1000 || buy.Price.Int64() != 20 || buy.Fee.Int64() != 3 {
		t.Fatalf("buy amounts mismatch: %+v", buy)
	}
	if buy.Buyer != testTrader || buy.Token != testToken {
		t.Fatalf("buy address mismatch")
	}

	sellData, err := parsed.Events[EventTokensSold].Inputs.NonIndexed().Pack(
		big.NewInt(500), big.NewInt(9), big.NewInt(1),
	)
	if err != nil {
		t.Fatalf("pack sell: %v", err)
	}
	sellEvent, err := decoder.Decode(buildLogRecord(parsed.Events[EventTokensSold].ID, sellData, testToken, testTrader))
	if err != nil {
		t.Fatalf("decode sell: %v", err)
	}
	sell, ok := sellEvent.(TokensSold)
	if !ok {
		t.Fatalf("sell type mismatch: %T", sellEvent)
	}
	if sell.TokenAmount.Int64() != 500 || sell.EthAmount.Int64() != 9 || sell.Seller != testTrader {
		t.Fatalf("sell mismatch: %+v", sell)
	}
}

func TestDecoderHaltResume(t *testing.T) {
	parsed, err := FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	haltData, err := parsed.Events[EventTradingHalted].Inputs.NonIndexed().Pack(big.NewInt(42))
	if err != nil {
		t.Fatalf("pack halt: %v", err)
	}
	haltEvent, err := decoder.Decode(buildLogRecord(parsed.Events[EventTradingHalted].ID, haltData, testToken))
	if err != nil {
		t.Fatalf("decode halt: %v", err)
	}
	halt, ok := haltEvent.(TradingHalted)
	if !ok || halt.Collateral.Int64() != 42 || halt.Token != testToken {
		t.Fatalf("halt mismatch: %+v", haltEvent)
	}

	resumeEvent, err := decoder.Decode(buildLogRecord(parsed.Events[EventTradingResumed].ID, nil, testToken))
	if err != nil {
		t.Fatalf("decode resume: %v", err)
	}
	if resume, ok := resumeEvent.(TradingResumed); !ok || resume.Token != testToken {
		t.Fatalf("resume mismatch: %+v", resumeEvent)
	}
}

func TestDecoderUnrecognized(t *testing.T) {
	parsed, err := FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	event, err := decoder.Decode(buildLogRecord(parsed.Events["OwnershipTransferred"].ID, nil, testTrader, testToken))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	unknown, ok := event.(Unrecognized)
	if !ok || unknown.EventName() != "OwnershipTransferred" {
		t.Fatalf("expected unrecognized, got %+v", event)
	}
}

func TestDecoderNotDecodable(t *testing.T) {
	parsed, err := FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	cases := map[string]model.LogRecord{
		"no topics":     {Address: testFactory.Hex(), Data: "0x"},
		"unknown topic": buildLogRecord(common.HexToHash("0xdeadbeef"), nil, testToken),
		"missing topic": buildLogRecord(parsed.Events[EventTokensPurchased].ID, nil, testToken),
		"short data":    buildLogRecord(parsed.Events[EventTokensPurchased].ID, []byte{0x01}, testToken, testTrader),
		"bad hex":       {Topics: []string{parsed.Events[EventTradingResumed].ID.Hex(), "0xzz"}},
	}
	for name, log := range cases {
		if _, err := decoder.Decode(log); !errors.Is(err, ErrNotDecodable) {
			t.Fatalf("%s: expected ErrNotDecodable, got %v", name, err)
		}
	}
}

func TestDecoderCanDecode(t *testing.T) {
	parsed, err := FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	upper := "0x" + strings.ToUpper(common.Bytes2Hex(parsed.Events[EventTokensSold].ID.Bytes()))
	if !decoder.CanDecode(upper) {
		t.Fatalf("expected sold topic decodable")
	}
	if decoder.CanDecode("") || decoder.CanDecode("0x01") {
		t.Fatalf("unexpected decodable topic")
	}
}

func buildLogRecord(topic0 common.Hash, data []byte, indexed ...common.Address) model.LogRecord {
	topics := []string{topic0.Hex()}
	for _, addr := range indexed {
		topics = append(topics, common.BytesToHash(addr.Bytes()).Hex())
	}
	return model.LogRecord{
		BlockNumber: 100,
		TxHash:      "0xabc",
		LogIndex:    1,
		Address:     testFactory.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(data),
	}
}
