package loan

import "github.com/shopspring/decimal"

// Status classifies the collateral field.
type Status string

const (
	// StatusEmpty is the invalid state of a field holding no text.
	StatusEmpty Status = "empty"
	// StatusInvalid marks text that is not a positive number.
	StatusInvalid Status = "invalid"
	// StatusValid marks a positive collateral amount with derived loan
	// quantities.
	StatusValid Status = "valid"
)

// State is the last accepted collateral field and the loan derived from it.
type State struct {
	Collateral CollateralInput
	Loan       Quantities
}

// Env carries the external inputs a transition reads.
type Env struct {
	Price  decimal.Decimal
	Params Params
}

// Status reports the validity class of the collateral field.
func (s State) Status() Status {
	switch {
	case s.Collateral.Valid:
		return StatusValid
	case s.Collateral.Raw == "":
		return StatusEmpty
	default:
		return StatusInvalid
	}
}

// SubmitEnabled reports whether the submit action may be offered.
func (s State) SubmitEnabled() bool {
	return s.Collateral.Valid &&
		s.Loan.Valid &&
		!s.Loan.Gross.IsZero() &&
		!s.Collateral.Value.IsZero()
}

// Apply runs one transition on raw text typed into the collateral field. The
// second result is false when the filter refused raw, in which case prev is
// returned unchanged.
func Apply(prev State, raw string, env Env) (State, bool) {
	if !Accepts(raw) {
		return prev, false
	}
	if IsSeparator(raw) {
		return State{
			Collateral: CollateralInput{Raw: SeparatorPlaceholder, Value: decimal.Zero},
			Loan:       invalidQuantities(),
		}, true
	}
	value, numeric := Parse(raw)
	if !numeric || !value.IsPositive() {
		return State{
			Collateral: CollateralInput{Raw: raw, Value: value},
			Loan:       invalidQuantities(),
		}, true
	}
	return State{
		Collateral: CollateralInput{Raw: raw, Value: value, Valid: true},
		Loan:       Derive(value, env.Params.OracleAddress, env.Price, env.Params.OriginationFeeRate),
	}, true
}

// Reprice re-derives the loan for the current collateral after a price or
// parameter change. An empty field falls back to DefaultCollateral.
func Reprice(prev State, env Env) State {
	raw := prev.Collateral.Raw
	if raw == "" {
		raw = DefaultCollateral
	}
	next, ok := Apply(prev, raw, env)
	if !ok {
		return prev
	}
	return next
}
