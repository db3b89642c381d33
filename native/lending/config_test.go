package lending

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"lendview/core/loan"
)

func writeParams(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "params.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write params: %v", err)
	}
	return path
}

func TestLoadConfigOracleMarket(t *testing.T) {
	path := writeParams(t, `
OracleAddress = " 0x00000000000000000000000000000000000000a1 "
OriginationFeeBps = 100
InterestRateBps = 550
PricePair = "znhb/nhb"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PricePair != "ZNHB/NHB" {
		t.Fatalf("unexpected price pair: %q", cfg.PricePair)
	}
	if pair := cfg.Pair(); pair.Base != "ZNHB" || pair.Quote != "NHB" {
		t.Fatalf("unexpected split pair: %+v", pair)
	}
	params := cfg.Params()
	if params.OracleAddress != common.HexToAddress("0xa1") {
		t.Fatalf("unexpected oracle: %s", params.OracleAddress.Hex())
	}
	if !params.OriginationFeeRate.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("unexpected fee rate: %s", params.OriginationFeeRate)
	}
	if !params.InterestRateYearly.Equal(decimal.RequireFromString("0.055")) {
		t.Fatalf("unexpected interest rate: %s", params.InterestRateYearly)
	}
	if params.FixedRateLine() {
		t.Fatalf("expected oracle market")
	}
}

func TestLoadConfigFixedRateLine(t *testing.T) {
	path := writeParams(t, `OriginationFeeBps = 25`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Params().FixedRateLine() {
		t.Fatalf("expected fixed-rate line without an oracle address")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeParams(t, `MaxLTVBps = 5000`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]Config{
		"bad address":     {OracleAddress: "not-an-address"},
		"fee above 100%":  {OriginationFeeBps: 10_001},
		"rate above 100%": {InterestRateBps: 10_001},
		"missing pair":    {OracleAddress: "0x00000000000000000000000000000000000000a1"},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestParamsStoreSwapsSnapshots(t *testing.T) {
	store := NewParamsStore(loan.Params{OriginationFeeRate: decimal.RequireFromString("0.01")})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Set(loan.Params{OriginationFeeRate: decimal.NewFromInt(int64(i % 2))})
			_ = store.ProtocolParams()
		}(i)
	}
	wg.Wait()
	got := store.ProtocolParams().OriginationFeeRate
	if !got.Equal(decimal.Zero) && !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("unexpected fee rate after concurrent writes: %s", got)
	}
}

func TestNilParamsStore(t *testing.T) {
	var store *ParamsStore
	if !store.ProtocolParams().FixedRateLine() {
		t.Fatalf("expected zero params from nil store")
	}
}
