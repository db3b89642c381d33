package loan

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// CollateralInput is the collateral field as the borrower typed it together
// with its parsed value.
type CollateralInput struct {
	// Raw is the text kept on screen.
	Raw string
	// Value is the parsed amount. It is zero whenever Raw is not numeric.
	Value decimal.Decimal
	// Valid reports whether Raw is a positive number accepted by the filter.
	Valid bool
}

// Quantities are the loan amounts derived from a collateral value.
type Quantities struct {
	// Gross is the loan before the origination fee is deducted.
	Gross decimal.Decimal
	// OriginationFee is Gross multiplied by the origination fee rate.
	OriginationFee decimal.Decimal
	// Net is the amount disbursed to the borrower.
	Net decimal.Decimal
	// Valid mirrors the validity of the collateral the amounts were derived
	// from. Invalid quantities always carry zero amounts.
	Valid bool
}

// Params is the protocol snapshot a derivation runs against.
type Params struct {
	// OracleAddress identifies the price feed. The zero address selects the
	// fixed-rate line.
	OracleAddress common.Address
	// OriginationFeeRate is the share of the gross loan withheld at creation,
	// between 0 and 1.
	OriginationFeeRate decimal.Decimal
	// InterestRateYearly is the yearly borrow rate, between 0 and 1.
	InterestRateYearly decimal.Decimal
}

// FixedRateLine reports whether the parameters select the fixed conversion
// line instead of an oracle quoted market.
func (p Params) FixedRateLine() bool {
	return p.OracleAddress == (common.Address{})
}

// PriceSource resolves the current collateral price in loan asset units.
type PriceSource interface {
	CurrentPrice() decimal.Decimal
}

// ParamsSource resolves the protocol parameters for the next derivation.
type ParamsSource interface {
	ProtocolParams() Params
}

// PriceFunc adapts ordinary functions to PriceSource.
type PriceFunc func() decimal.Decimal

// CurrentPrice implements PriceSource.
func (f PriceFunc) CurrentPrice() decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return f()
}

// StaticParams is a ParamsSource that always returns the same snapshot.
type StaticParams Params

// ProtocolParams implements ParamsSource.
func (s StaticParams) ProtocolParams() Params { return Params(s) }

func invalidQuantities() Quantities {
	return Quantities{
		Gross:          decimal.Zero,
		OriginationFee: decimal.Zero,
		Net:            decimal.Zero,
	}
}
