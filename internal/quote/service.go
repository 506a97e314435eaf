package quote

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"factoryMonitor/internal/units"
)

// ContractReader is the subset of factory view functions a quote needs.
type ContractReader interface {
	CurrentPrice(ctx context.Context, token common.Address) (*big.Int, error)
	CalculateTokenAmount(ctx context.Context, token common.Address, ethAmount *big.Int) (*big.Int, error)
	CalculateSellPrice(ctx context.Context, token common.Address, tokenAmount *big.Int) (*big.Int, error)
}

// Service reads the contract and builds quotes.
type Service struct {
	reader ContractReader
}

func NewService(reader ContractReader) *Service {
	return &Service{reader: reader}
}

// Quote previews a trade of amount (ether units of the input asset) on token.
func (s *Service) Quote(ctx context.Context, token common.Address, side Side, amount string) (Quote, error) {
	amountWei, err := units.ParseEther(amount)
	if err != nil {
		return Quote{}, fmt.Errorf("parse amount: %w", err)
	}

	priceWei, err := s.reader.CurrentPrice(ctx, token)
	if err != nil {
		return Quote{}, fmt.Errorf("read current price: %w", err)
	}
	currentPrice := units.ToEther(priceWei)
	input := units.ToEther(amountWei)

	switch side {
	case SideBuy:
		out, err := s.reader.CalculateTokenAmount(ctx, token, amountWei)
		if err != nil {
			return Quote{}, fmt.Errorf("read token amount: %w", err)
		}
		return Buy(input, units.ToEther(out), currentPrice), nil
	case SideSell:
		out, err := s.reader.CalculateSellPrice(ctx, token, amountWei)
		if err != nil {
			return Quote{}, fmt.Errorf("read sell price: %w", err)
		}
		return Sell(input, units.ToEther(out), currentPrice), nil
	default:
		return Quote{}, fmt.Errorf("invalid side %q", side)
	}
}
