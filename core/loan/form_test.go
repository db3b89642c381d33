package loan

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type mutablePrice struct {
	value decimal.Decimal
}

func (m *mutablePrice) CurrentPrice() decimal.Decimal { return m.value }

func sameState(a, b State) bool {
	return a.Collateral.Raw == b.Collateral.Raw &&
		a.Collateral.Valid == b.Collateral.Valid &&
		a.Collateral.Value.Equal(b.Collateral.Value) &&
		a.Loan.Valid == b.Loan.Valid &&
		a.Loan.Gross.Equal(b.Loan.Gross) &&
		a.Loan.OriginationFee.Equal(b.Loan.OriginationFee) &&
		a.Loan.Net.Equal(b.Loan.Net)
}

func fixedLine(feeRate string) StaticParams {
	return StaticParams{OriginationFeeRate: decimal.RequireFromString(feeRate)}
}

func oracleMarket(feeRate string) StaticParams {
	return StaticParams{OracleAddress: testOracle, OriginationFeeRate: decimal.RequireFromString(feeRate)}
}

func TestNewFormDerivesDefaultCollateral(t *testing.T) {
	form := NewForm(nil, fixedLine("0"))
	if form.Collateral().Raw != DefaultCollateral {
		t.Fatalf("expected default collateral %q, got %q", DefaultCollateral, form.Collateral().Raw)
	}
	if !form.Quantities().Gross.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected gross 1000, got %s", form.Quantities().Gross)
	}
	if !form.SubmitEnabled() {
		t.Fatalf("expected submit enabled for default collateral")
	}
}

func TestFormFixedLineScenario(t *testing.T) {
	form := NewForm(nil, fixedLine("0.01"))
	if !form.OnCollateralInput("2") {
		t.Fatalf("expected input to be accepted")
	}
	loan := form.Quantities()
	if !loan.Valid {
		t.Fatalf("expected valid loan")
	}
	if !loan.Gross.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("expected gross 2000, got %s", loan.Gross)
	}
	if !loan.OriginationFee.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected fee 20, got %s", loan.OriginationFee)
	}
	if !loan.Net.Equal(decimal.NewFromInt(1980)) {
		t.Fatalf("expected net 1980, got %s", loan.Net)
	}
	if !form.SubmitEnabled() {
		t.Fatalf("expected submit enabled")
	}
	if got := form.ValidatedCollateralAmount(); got != "2" {
		t.Fatalf("expected validated amount 2, got %q", got)
	}
}

func TestFormSeparatorPlaceholder(t *testing.T) {
	for _, sep := range []string{".", ","} {
		form := NewForm(nil, fixedLine("0.01"))
		form.OnCollateralInput(sep)
		state := form.State()
		if state.Collateral.Raw != "0." || state.Collateral.Valid {
			t.Fatalf("%q: expected invalid placeholder 0., got %+v", sep, state.Collateral)
		}
		if state.Loan.Valid || !state.Loan.Gross.IsZero() {
			t.Fatalf("%q: expected invalid zero loan, got %+v", sep, state.Loan)
		}
		if form.SubmitEnabled() {
			t.Fatalf("%q: expected submit disabled", sep)
		}
		if form.Status() != StatusInvalid {
			t.Fatalf("%q: expected invalid status, got %s", sep, form.Status())
		}
	}
}

func TestFormDecimalBoundary(t *testing.T) {
	form := NewForm(nil, fixedLine("0"))
	eighteen := "0." + strings.Repeat("0", 17) + "1"
	if !form.OnCollateralInput(eighteen) {
		t.Fatalf("expected 18 decimals to be accepted")
	}
	before := form.State()
	nineteen := "0." + strings.Repeat("0", 18) + "1"
	if form.OnCollateralInput(nineteen) {
		t.Fatalf("expected 19 decimals to be rejected")
	}
	if !sameState(form.State(), before) {
		t.Fatalf("expected state to be unchanged after rejection")
	}
}

func TestFormMagnitudeBoundary(t *testing.T) {
	form := NewForm(nil, fixedLine("0"))
	if !form.OnCollateralInput("1000000") {
		t.Fatalf("expected 1000000 to be accepted")
	}
	before := form.State()
	if form.OnCollateralInput("1000001") {
		t.Fatalf("expected 1000001 to be rejected")
	}
	if !sameState(form.State(), before) {
		t.Fatalf("expected state to be unchanged after rejection")
	}
	if form.Collateral().Raw != "1000000" {
		t.Fatalf("expected raw 1000000 to be kept, got %q", form.Collateral().Raw)
	}
}

func TestFormInvalidInputs(t *testing.T) {
	for _, raw := range []string{"", "0", "0.0", "abc", "-5", "1e3", " 2", "1.2.3"} {
		form := NewForm(nil, fixedLine("0.01"))
		if !form.OnCollateralInput(raw) {
			t.Fatalf("%q: expected the filter to accept", raw)
		}
		state := form.State()
		if state.Collateral.Valid || state.Loan.Valid {
			t.Fatalf("%q: expected invalid state, got %+v", raw, state)
		}
		if !state.Loan.Gross.IsZero() || !state.Loan.Net.IsZero() || !state.Loan.OriginationFee.IsZero() {
			t.Fatalf("%q: expected zero loan, got %+v", raw, state.Loan)
		}
		if form.SubmitEnabled() || form.ValidatedCollateralAmount() != "" {
			t.Fatalf("%q: expected submit disabled", raw)
		}
	}
}

func TestFormEmptyStatus(t *testing.T) {
	form := NewForm(nil, fixedLine("0"))
	form.OnCollateralInput("")
	if form.Status() != StatusEmpty {
		t.Fatalf("expected empty status, got %s", form.Status())
	}
}

func TestFormIdempotentInput(t *testing.T) {
	prices := &mutablePrice{value: decimal.NewFromInt(4)}
	form := NewForm(prices, oracleMarket("0.02"))
	for _, raw := range []string{"3", ".", "abc", "0,75", "1000000"} {
		form.OnCollateralInput(raw)
		first := form.State()
		form.OnCollateralInput(raw)
		if !sameState(form.State(), first) {
			t.Fatalf("%q: expected identical state after repeated input", raw)
		}
	}
}

func TestFormCommaSeparator(t *testing.T) {
	form := NewForm(nil, fixedLine("0"))
	form.OnCollateralInput("0,5")
	if !form.Collateral().Valid {
		t.Fatalf("expected comma decimal to be valid")
	}
	if form.Collateral().Raw != "0,5" {
		t.Fatalf("expected raw text to be kept, got %q", form.Collateral().Raw)
	}
	if !form.Quantities().Gross.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected gross 500, got %s", form.Quantities().Gross)
	}
	if got := form.ValidatedCollateralAmount(); got != "0.5" {
		t.Fatalf("expected canonical amount 0.5, got %q", got)
	}
}

func TestFormRepricesOnPriceUpdate(t *testing.T) {
	prices := &mutablePrice{value: decimal.NewFromInt(10)}
	form := NewForm(prices, oracleMarket("0"))
	form.OnCollateralInput("5")
	if !form.Quantities().Gross.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected gross 0.5, got %s", form.Quantities().Gross)
	}
	prices.value = decimal.NewFromInt(20)
	form.OnPriceUpdate()
	if !form.Quantities().Gross.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("expected gross 0.25 after price update, got %s", form.Quantities().Gross)
	}
	if form.Collateral().Raw != "5" {
		t.Fatalf("expected collateral to be kept, got %q", form.Collateral().Raw)
	}
}

func TestFormPriceUpdateOnEmptyFieldUsesDefault(t *testing.T) {
	prices := &mutablePrice{value: decimal.NewFromInt(2)}
	form := NewForm(prices, oracleMarket("0"))
	form.OnCollateralInput("")
	form.OnPriceUpdate()
	if form.Collateral().Raw != DefaultCollateral {
		t.Fatalf("expected default collateral, got %q", form.Collateral().Raw)
	}
	if !form.Quantities().Gross.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected gross 0.5, got %s", form.Quantities().Gross)
	}
}

func TestFormZeroPriceDisablesSubmit(t *testing.T) {
	prices := &mutablePrice{value: decimal.Zero}
	form := NewForm(prices, oracleMarket("0.01"))
	form.OnCollateralInput("5")
	if !form.Collateral().Valid {
		t.Fatalf("expected collateral to stay valid")
	}
	if form.Quantities().Valid {
		t.Fatalf("expected loan invalid without a price")
	}
	if form.SubmitEnabled() {
		t.Fatalf("expected submit disabled without a price")
	}
	prices.value = decimal.NewFromInt(5)
	form.OnPriceUpdate()
	if !form.SubmitEnabled() {
		t.Fatalf("expected submit enabled once a price arrives")
	}
	if !form.Quantities().Gross.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected gross 1, got %s", form.Quantities().Gross)
	}
}

func TestApplyIsPure(t *testing.T) {
	env := Env{Price: decimal.NewFromInt(2), Params: Params{OracleAddress: common.HexToAddress("0x01")}}
	prev := State{}
	next, ok := Apply(prev, "8", env)
	if !ok {
		t.Fatalf("expected input accepted")
	}
	if prev.Collateral.Raw != "" {
		t.Fatalf("expected previous state untouched")
	}
	if !next.Loan.Gross.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("expected gross 4, got %s", next.Loan.Gross)
	}
}
