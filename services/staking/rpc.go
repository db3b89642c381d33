package staking

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Caller performs JSON-RPC calls against the node.
type Caller interface {
	Call(ctx context.Context, method string, params any, result any) error
}

type poolResult struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	APR         string `json:"apr"`
	TotalStaked string `json:"totalStaked"`
}

// RPCLister lists pools through the node staking RPC namespace.
type RPCLister struct {
	caller Caller
}

// NewRPCLister constructs a lister backed by caller.
func NewRPCLister(caller Caller) *RPCLister {
	return &RPCLister{caller: caller}
}

// AllPools implements PoolLister.
func (l *RPCLister) AllPools(ctx context.Context) ([]Pool, error) {
	return l.list(ctx, "staking_listPools", nil)
}

// MyPools implements PoolLister.
func (l *RPCLister) MyPools(ctx context.Context, owner common.Address) ([]Pool, error) {
	return l.list(ctx, "staking_listPoolsByOwner", []any{owner.Hex()})
}

func (l *RPCLister) list(ctx context.Context, method string, params []any) ([]Pool, error) {
	if params == nil {
		params = []any{}
	}
	var rows []poolResult
	if err := l.caller.Call(ctx, method, params, &rows); err != nil {
		return nil, fmt.Errorf("staking: %s: %w", method, err)
	}
	pools := make([]Pool, 0, len(rows))
	for _, row := range rows {
		apr, err := parseAmount(row.APR)
		if err != nil {
			return nil, fmt.Errorf("staking: pool %s apr: %w", row.ID, err)
		}
		staked, err := parseAmount(row.TotalStaked)
		if err != nil {
			return nil, fmt.Errorf("staking: pool %s total staked: %w", row.ID, err)
		}
		pools = append(pools, Pool{ID: row.ID, Name: row.Name, APR: apr, TotalStaked: staked})
	}
	return pools, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
