// Package amount converts between human-readable token amounts and base units.
package amount

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"solana-token-minter/internal/domain"
)

// SOLDecimals is the number of decimals of native SOL.
const SOLDecimals = 9

// ToBaseUnits returns supply × 10^decimals as an exact u64.
// A supply that would leave a fractional base unit is rejected, never rounded.
func ToBaseUnits(supply string, decimals uint8) (uint64, error) {
	s := strings.TrimSpace(supply)
	if s == "" {
		return 0, fmt.Errorf("%w: supply is empty", domain.ErrInvalidRequest)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: supply %q is not a number", domain.ErrInvalidRequest, supply)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: supply must be positive", domain.ErrInvalidRequest)
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: %s with %d decimals", domain.ErrFractionalAmount, s, decimals)
	}

	units := scaled.BigInt()
	if !units.IsUint64() {
		return 0, fmt.Errorf("%w: %s with %d decimals", domain.ErrAmountOverflow, s, decimals)
	}
	return units.Uint64(), nil
}

// FormatTokenAmount renders raw base units as a canonical decimal string
// (no exponent, no trailing fractional zeros).
func FormatTokenAmount(raw uint64, decimals uint8) string {
	return fromRaw(raw, decimals).String()
}

// UIAmount returns raw base units scaled by decimals as a float.
// Precision is lost above 2^53 base units; use FormatTokenAmount for exact values.
func UIAmount(raw uint64, decimals uint8) float64 {
	return fromRaw(raw, decimals).InexactFloat64()
}

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports uint64) float64 {
	return UIAmount(lamports, SOLDecimals)
}

func fromRaw(raw uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals))
}
