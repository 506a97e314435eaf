package factory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

type stubCaller struct {
	results map[string]*big.Int
	err     error
	calls   []ethereum.CallMsg
}

func (s *stubCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	s.calls = append(s.calls, msg)
	if s.err != nil {
		return nil, s.err
	}
	parsed, err := FactoryABI()
	if err != nil {
		return nil, err
	}
	method, err := parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(s.results[method.Name])
}

func TestReaderCalls(t *testing.T) {
	caller := &stubCaller{results: map[string]*big.Int{
		"getCurrentPrice":      big.NewInt(7),
		"collateral":           big.NewInt(11),
		"calculateTokenAmount": big.NewInt(13),
		"calculateBuyPrice":    big.NewInt(17),
		"calculateSellPrice":   big.NewInt(19),
	}}
	reader, err := NewReader(caller, testFactory.Hex())
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	ctx := context.Background()

	checks := []struct {
		name string
		call func() (*big.Int, error)
		want int64
	}{
		{"price", func() (*big.Int, error) { return reader.CurrentPrice(ctx, testToken) }, 7},
		{"collateral", func() (*big.Int, error) { return reader.Collateral(ctx, testToken) }, 11},
		{"tokenAmount", func() (*big.Int, error) { return reader.CalculateTokenAmount(ctx, testToken, big.NewInt(1)) }, 13},
		{"buyPrice", func() (*big.Int, error) { return reader.CalculateBuyPrice(ctx, testToken, big.NewInt(1)) }, 17},
		{"sellPrice", func() (*big.Int, error) { return reader.CalculateSellPrice(ctx, testToken, big.NewInt(1)) }, 19},
	}
	for _, check := range checks {
		got, err := check.call()
		if err != nil {
			t.Fatalf("%s: %v", check.name, err)
		}
		if got.Int64() != check.want {
			t.Fatalf("%s: got %s want %d", check.name, got, check.want)
		}
	}
	for _, msg := range caller.calls {
		if msg.To == nil || *msg.To != testFactory {
			t.Fatalf("call sent to wrong contract: %v", msg.To)
		}
	}
}

func TestReaderErrors(t *testing.T) {
	if _, err := NewReader(&stubCaller{}, "not-an-address"); err == nil {
		t.Fatalf("expected invalid address error")
	}
	if _, err := NewReader(nil, testFactory.Hex()); err == nil {
		t.Fatalf("expected nil caller error")
	}

	boom := errors.New("rpc down")
	reader, err := NewReader(&stubCaller{err: boom}, testFactory.Hex())
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	if _, err := reader.CurrentPrice(context.Background(), common.Address{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped rpc error, got %v", err)
	}
}
