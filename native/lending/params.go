package lending

import (
	"sync/atomic"

	"github.com/shopspring/decimal"

	"lendview/core/loan"
)

var basisPoints = decimal.NewFromInt(maxBps)

// Params converts the configuration into the snapshot consumed by loan forms.
func (c Config) Params() loan.Params {
	return loan.Params{
		OracleAddress:      c.Oracle(),
		OriginationFeeRate: bpsToRate(c.OriginationFeeBps),
		InterestRateYearly: bpsToRate(c.InterestRateBps),
	}
}

func bpsToRate(bps uint64) decimal.Decimal {
	return decimal.NewFromInt(int64(bps)).Div(basisPoints)
}

// ParamsStore publishes immutable parameter snapshots. Readers always observe
// a complete snapshot; writers replace it atomically.
type ParamsStore struct {
	current atomic.Pointer[loan.Params]
}

// NewParamsStore constructs a store seeded with params.
func NewParamsStore(params loan.Params) *ParamsStore {
	store := &ParamsStore{}
	store.Set(params)
	return store
}

// Set replaces the published snapshot.
func (s *ParamsStore) Set(params loan.Params) {
	if s == nil {
		return
	}
	snapshot := params
	s.current.Store(&snapshot)
}

// ProtocolParams implements loan.ParamsSource.
func (s *ParamsStore) ProtocolParams() loan.Params {
	if s == nil {
		return loan.Params{}
	}
	if p := s.current.Load(); p != nil {
		return *p
	}
	return loan.Params{}
}
