package lending

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"lendview/core/pricing"
)

// Caller performs JSON-RPC calls against the node.
type Caller interface {
	Call(ctx context.Context, method string, params any, result any) error
}

type oracleRateResult struct {
	Rate      string `json:"rate"`
	Timestamp int64  `json:"timestamp"`
}

// OracleSource reads quotes published by an on-chain oracle through the node
// RPC. It implements pricing.Source.
type OracleSource struct {
	caller Caller
	oracle common.Address
}

// NewOracleSource constructs a source bound to the oracle contract address.
func NewOracleSource(caller Caller, oracle common.Address) (*OracleSource, error) {
	if caller == nil {
		return nil, fmt.Errorf("lending: rpc caller required")
	}
	if oracle == (common.Address{}) {
		return nil, fmt.Errorf("lending: fixed-rate line has no oracle to query")
	}
	return &OracleSource{caller: caller, oracle: oracle}, nil
}

// Name implements pricing.Source.
func (s *OracleSource) Name() string {
	return "oracle:" + strings.ToLower(s.oracle.Hex())
}

// Fetch implements pricing.Source.
func (s *OracleSource) Fetch(ctx context.Context, base, quote string) (pricing.Quote, error) {
	var result oracleRateResult
	params := []any{s.oracle.Hex(), strings.ToUpper(base), strings.ToUpper(quote)}
	if err := s.caller.Call(ctx, "oracle_getRate", params, &result); err != nil {
		return pricing.Quote{}, err
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(result.Rate))
	if err != nil {
		return pricing.Quote{}, fmt.Errorf("lending: oracle returned malformed rate %q: %w", result.Rate, err)
	}
	ts := time.Time{}
	if result.Timestamp > 0 {
		ts = time.Unix(result.Timestamp, 0).UTC()
	}
	return pricing.Quote{Rate: rate, Timestamp: ts, Source: s.Name()}, nil
}
