package loan

// Form holds the collateral field of one loan form and keeps its loan
// quantities consistent with the latest price. A Form is owned by a single
// view and is not safe for concurrent use.
type Form struct {
	prices PriceSource
	params ParamsSource
	state  State
}

// NewForm constructs a form and derives the default collateral against the
// current price.
func NewForm(prices PriceSource, params ParamsSource) *Form {
	f := &Form{prices: prices, params: params}
	f.OnPriceUpdate()
	return f
}

func (f *Form) env() Env {
	env := Env{}
	if f.prices != nil {
		env.Price = f.prices.CurrentPrice()
	}
	if f.params != nil {
		env.Params = f.params.ProtocolParams()
	}
	return env
}

// OnCollateralInput applies typed text to the field. It reports false when
// the text was refused and the previous state kept.
func (f *Form) OnCollateralInput(raw string) bool {
	next, ok := Apply(f.state, raw, f.env())
	f.state = next
	return ok
}

// OnPriceUpdate re-derives the loan from the last collateral value.
func (f *Form) OnPriceUpdate() {
	f.state = Reprice(f.state, f.env())
}

// State returns a copy of the current field state.
func (f *Form) State() State { return f.state }

// Collateral returns the current collateral field.
func (f *Form) Collateral() CollateralInput { return f.state.Collateral }

// Quantities returns the loan derived from the current collateral.
func (f *Form) Quantities() Quantities { return f.state.Loan }

// Status reports the validity class of the collateral field.
func (f *Form) Status() Status { return f.state.Status() }

// Params returns the protocol snapshot the next transition will use.
func (f *Form) Params() Params { return f.env().Params }

// SubmitEnabled reports whether the submit action may be offered.
func (f *Form) SubmitEnabled() bool { return f.state.SubmitEnabled() }

// ValidatedCollateralAmount returns the collateral to hand to the transaction
// submitter, or "" when submission is not enabled.
func (f *Form) ValidatedCollateralAmount() string {
	if !f.SubmitEnabled() {
		return ""
	}
	return Canonical(f.state.Collateral.Raw)
}
