package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wei(ether int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(ether), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestFormatEther(t *testing.T) {
	assert.Equal(t, "500", FormatEther(wei(500)))
	assert.Equal(t, "0.003", FormatEther(big.NewInt(3_000_000_000_000_000)))
	assert.Equal(t, "0", FormatEther(big.NewInt(0)))
	assert.Equal(t, "0", FormatEther(nil))
	assert.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
}

func TestParseEther(t *testing.T) {
	got, err := ParseEther("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", got.String())

	got, err = ParseEther(" 1000 ")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Cmp(wei(1000)))

	_, err = ParseEther("0.0000000000000000001")
	assert.Error(t, err)

	_, err = ParseEther("-1")
	assert.Error(t, err)

	_, err = ParseEther("abc")
	assert.Error(t, err)
}

func TestParseDecimalEmpty(t *testing.T) {
	d, err := ParseDecimal("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())
}
