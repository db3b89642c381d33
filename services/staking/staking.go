package staking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Tab selects which pools the staking page lists.
type Tab string

const (
	TabAll Tab = "all"
	TabMy  Tab = "my"
)

var (
	// ErrUnknownTab is returned for tabs other than all and my.
	ErrUnknownTab = errors.New("staking: unknown tab")
	// ErrOwnerRequired is returned when the my tab is listed without a wallet.
	ErrOwnerRequired = errors.New("staking: owner required for my pools")
)

// ParseTab resolves a tab name. The empty string selects TabAll.
func ParseTab(raw string) (Tab, error) {
	switch Tab(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TabAll:
		return TabAll, nil
	case TabMy:
		return TabMy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTab, raw)
	}
}

// Route returns the page path for the tab.
func (t Tab) Route() string {
	if t == TabMy {
		return "/staking/my"
	}
	return "/staking"
}

// Pool is one staking pool row.
type Pool struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	APR         decimal.Decimal `json:"apr"`
	TotalStaked decimal.Decimal `json:"totalStaked"`
}

// PoolLister resolves pool listings.
type PoolLister interface {
	AllPools(ctx context.Context) ([]Pool, error)
	MyPools(ctx context.Context, owner common.Address) ([]Pool, error)
}

// Analytics receives tab navigation events.
type Analytics interface {
	RecordTabSwitch(tab string)
}

// Page tracks the selected tab of a staking page.
type Page struct {
	lister    PoolLister
	analytics Analytics
	owner     common.Address
	tab       Tab
}

// NewPage constructs a page on the all tab for owner, which may be the zero
// address when no wallet is connected.
func NewPage(lister PoolLister, analytics Analytics, owner common.Address) *Page {
	return &Page{lister: lister, analytics: analytics, owner: owner, tab: TabAll}
}

// Tab returns the selected tab.
func (p *Page) Tab() Tab { return p.tab }

// Switch selects tab and returns its route.
func (p *Page) Switch(raw string) (string, error) {
	tab, err := ParseTab(raw)
	if err != nil {
		return "", err
	}
	p.tab = tab
	if p.analytics != nil {
		p.analytics.RecordTabSwitch(string(tab))
	}
	return tab.Route(), nil
}

// Pools lists the pools of the selected tab.
func (p *Page) Pools(ctx context.Context) ([]Pool, error) {
	if p.lister == nil {
		return nil, fmt.Errorf("staking: pool lister not configured")
	}
	if p.tab == TabMy {
		if p.owner == (common.Address{}) {
			return nil, ErrOwnerRequired
		}
		return p.lister.MyPools(ctx, p.owner)
	}
	return p.lister.AllPools(ctx)
}
