// Package units converts between wei base units and decimal ether.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the number of base-unit decimals in one ether (and one factory token).
const EtherDecimals = 18

// ToEther converts a base-unit integer into a decimal ether amount.
func ToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals)
}

// FormatEther renders wei as a decimal ether string without trailing zeros ("500", "0.003").
func FormatEther(wei *big.Int) string {
	return ToEther(wei).String()
}

// ParseEther converts a decimal ether string into wei. Precision beyond 18 decimals is rejected.
func ParseEther(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", value)
	}
	wei := d.Shift(EtherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("amount %q exceeds %d decimals", value, EtherDecimals)
	}
	return wei.BigInt(), nil
}

// ParseDecimal parses a stored decimal string, treating empty as zero.
func ParseDecimal(value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}
