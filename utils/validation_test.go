package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAtomicAmount(t *testing.T) {
	dec, err := ParseAtomicAmount("1000000")
	require.NoError(t, err)
	require.Equal(t, "1000000", dec.String())

	_, err = ParseAtomicAmount("")
	require.Error(t, err)

	_, err = ParseAtomicAmount("-5")
	require.Error(t, err)

	_, err = ParseAtomicAmount("1.5")
	require.Error(t, err)

	_, err = ParseAtomicAmount("abc")
	require.Error(t, err)
}

func TestAmountCovers(t *testing.T) {
	covers, err := AmountCovers("1000", "1000")
	require.NoError(t, err)
	require.True(t, covers)

	covers, err = AmountCovers("2000", "1000")
	require.NoError(t, err)
	require.True(t, covers)

	covers, err = AmountCovers("999", "1000")
	require.NoError(t, err)
	require.False(t, covers)

	_, err = AmountCovers("abc", "1000")
	require.Error(t, err)

	_, err = AmountCovers("1000", "abc")
	require.Error(t, err)
}

func TestParseAmountWithDecimals(t *testing.T) {
	got, err := ParseAmountWithDecimals("1.5", 6)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1500000), got)

	got, err = ParseAmountWithDecimals("0.000001", 6)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1), got)

	_, err = ParseAmountWithDecimals("-1", 6)
	require.Error(t, err)

	_, err = ParseAmountWithDecimals("", 6)
	require.Error(t, err)
}

func TestFormatAtomicAmount(t *testing.T) {
	require.Equal(t, "1.5", FormatAtomicAmount("1500000", 6))
	require.Equal(t, "0.000001", FormatAtomicAmount("1", 6))
	require.Equal(t, "1000", FormatAtomicAmount("1000", 0))

	// Unparseable input is passed through untouched.
	require.Equal(t, "abc", FormatAtomicAmount("abc", 6))
}
