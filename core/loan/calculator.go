package loan

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// FixedRate is the loan units granted per collateral unit on the fixed-rate
// line.
var FixedRate = decimal.NewFromInt(1000)

// QuotePrecision is the number of decimal places kept when dividing the
// collateral by an oracle price.
const QuotePrecision = 18

// Derive maps a collateral value to loan quantities.
//
// On the fixed-rate line (zero oracle address) the gross loan is the
// collateral multiplied by FixedRate. Otherwise it is the collateral divided
// by price. A non-positive price on an oracle market cannot be quoted and
// yields invalid zero quantities, as does a non-positive collateral value.
func Derive(collateral decimal.Decimal, oracle common.Address, price, feeRate decimal.Decimal) Quantities {
	if !collateral.IsPositive() {
		return invalidQuantities()
	}
	var gross decimal.Decimal
	if oracle == (common.Address{}) {
		gross = collateral.Mul(FixedRate)
	} else {
		if !price.IsPositive() {
			return invalidQuantities()
		}
		gross = collateral.DivRound(price, QuotePrecision)
	}
	fee := gross.Mul(feeRate)
	return Quantities{
		Gross:          gross,
		OriginationFee: fee,
		Net:            gross.Sub(fee),
		Valid:          true,
	}
}
