package lending

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// WeiDecimals is the precision of the collateral token.
const WeiDecimals = 18

var errAmountNotPositive = errors.New("lending: amount must be positive")

// ToWei converts a decimal token amount into its integer wei representation.
// Amounts with more than WeiDecimals fractional digits are rejected rather
// than truncated.
func ToWei(amount string) (*uint256.Int, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("lending: parse amount %q: %w", amount, err)
	}
	if !value.IsPositive() {
		return nil, errAmountNotPositive
	}
	scaled := value.Shift(WeiDecimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("lending: amount %q exceeds %d decimals", amount, WeiDecimals)
	}
	wei, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, fmt.Errorf("lending: amount %q overflows 256 bits", amount)
	}
	return wei, nil
}

// FromWei renders a wei amount as a decimal token amount.
func FromWei(wei *uint256.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei.ToBig(), -WeiDecimals)
}
