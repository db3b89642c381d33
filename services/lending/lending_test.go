package lending

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type fakeCaller struct {
	method string
	params any
	result string
	err    error
}

func (f *fakeCaller) Call(ctx context.Context, method string, params any, result any) error {
	_ = ctx
	f.method = method
	f.params = params
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.result), result)
}

func TestToWei(t *testing.T) {
	cases := map[string]string{
		"1":                    "1000000000000000000",
		"0.5":                  "500000000000000000",
		"0.000000000000000001": "1",
		"1000000":              "1000000000000000000000000",
	}
	for amount, want := range cases {
		wei, err := ToWei(amount)
		if err != nil {
			t.Fatalf("ToWei(%q): %v", amount, err)
		}
		if wei.Dec() != want {
			t.Fatalf("ToWei(%q) = %s, want %s", amount, wei.Dec(), want)
		}
		if !FromWei(wei).Equal(decimal.RequireFromString(amount)) {
			t.Fatalf("FromWei round trip mismatch for %q", amount)
		}
	}
}

func TestToWeiRejects(t *testing.T) {
	for _, amount := range []string{"0", "-1", "abc", "0.0000000000000000001"} {
		if _, err := ToWei(amount); err == nil {
			t.Fatalf("ToWei(%q): expected error", amount)
		}
	}
}

func TestSubmitterOpenLoan(t *testing.T) {
	caller := &fakeCaller{result: `{"txHash":"0xabc"}`}
	submitter := NewSubmitter(caller)
	borrower := common.HexToAddress("0x1111111111111111111111111111111111111111")
	receipt, err := submitter.OpenLoan(context.Background(), OpenLoanRequest{
		Borrower:   borrower,
		Collateral: "2.5",
	})
	if err != nil {
		t.Fatalf("open loan: %v", err)
	}
	if receipt.TxHash != common.HexToHash("0xabc") {
		t.Fatalf("unexpected tx hash %s", receipt.TxHash.Hex())
	}
	if caller.method != "lending_openLoan" {
		t.Fatalf("unexpected method %q", caller.method)
	}
	params := caller.params.([]any)[0].(openLoanParams)
	if params.CollateralWei != "2500000000000000000" {
		t.Fatalf("unexpected wei amount %s", params.CollateralWei)
	}
	if params.Borrower != borrower.Hex() {
		t.Fatalf("unexpected borrower %s", params.Borrower)
	}
}

func TestSubmitterValidates(t *testing.T) {
	submitter := NewSubmitter(&fakeCaller{result: `{}`})
	if _, err := submitter.OpenLoan(context.Background(), OpenLoanRequest{Collateral: "1"}); err == nil {
		t.Fatal("expected error without borrower")
	}
	borrower := common.HexToAddress("0x01")
	if _, err := submitter.OpenLoan(context.Background(), OpenLoanRequest{Borrower: borrower, Collateral: "1"}); !errors.Is(err, errTxHashMissing) {
		t.Fatalf("expected missing hash error, got %v", err)
	}
}

func TestOracleSourceFetch(t *testing.T) {
	caller := &fakeCaller{result: `{"rate":"12.5","timestamp":1700000000}`}
	oracle := common.HexToAddress("0xa1")
	source, err := NewOracleSource(caller, oracle)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	quote, err := source.Fetch(context.Background(), "znhb", "nhb")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !quote.Rate.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected rate %s", quote.Rate)
	}
	if !quote.Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("unexpected timestamp %s", quote.Timestamp)
	}
	params := caller.params.([]any)
	if params[1] != "ZNHB" || params[2] != "NHB" {
		t.Fatalf("unexpected params %v", params)
	}
}

func TestOracleSourceRejectsFixedLine(t *testing.T) {
	if _, err := NewOracleSource(&fakeCaller{}, common.Address{}); err == nil {
		t.Fatal("expected error for zero oracle")
	}
}

func TestOracleSourceMalformedRate(t *testing.T) {
	source, err := NewOracleSource(&fakeCaller{result: `{"rate":"n/a"}`}, common.HexToAddress("0xa1"))
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if _, err := source.Fetch(context.Background(), "A", "B"); err == nil {
		t.Fatal("expected error for malformed rate")
	}
}
