package factory

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller performs eth_call. *chain.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader wraps the factory view functions.
type Reader struct {
	caller  Caller
	factory common.Address
	abi     abi.ABI
}

// NewReader creates a contract reader for the factory at the given address.
func NewReader(caller Caller, factoryAddress string) (*Reader, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if !common.IsHexAddress(factoryAddress) {
		return nil, fmt.Errorf("invalid factory address %q", factoryAddress)
	}
	parsed, err := FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	return &Reader{
		caller:  caller,
		factory: common.HexToAddress(factoryAddress),
		abi:     parsed,
	}, nil
}

// CurrentPrice returns getCurrentPrice(token) in wei per token.
func (r *Reader) CurrentPrice(ctx context.Context, token common.Address) (*big.Int, error) {
	return r.callUint(ctx, "getCurrentPrice", token)
}

// Collateral returns the ETH collateral held for the token.
func (r *Reader) Collateral(ctx context.Context, token common.Address) (*big.Int, error) {
	return r.callUint(ctx, "collateral", token)
}

// CalculateTokenAmount returns the tokens received for ethAmount wei.
func (r *Reader) CalculateTokenAmount(ctx context.Context, token common.Address, ethAmount *big.Int) (*big.Int, error) {
	return r.callUint(ctx, "calculateTokenAmount", token, ethAmount)
}

// CalculateBuyPrice returns the ETH cost of buying tokenAmount.
func (r *Reader) CalculateBuyPrice(ctx context.Context, token common.Address, tokenAmount *big.Int) (*big.Int, error) {
	return r.callUint(ctx, "calculateBuyPrice", token, tokenAmount)
}

// CalculateSellPrice returns the ETH received for selling tokenAmount.
func (r *Reader) CalculateSellPrice(ctx context.Context, token common.Address, tokenAmount *big.Int) (*big.Int, error) {
	return r.callUint(ctx, "calculateSellPrice", token, tokenAmount)
}

func (r *Reader) callUint(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	data, err := r.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &r.factory, Data: data}
	resp, err := r.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := r.abi.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	return toBigInt(values[0])
}
