package lending

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"lendview/core/pricing"
)

const maxBps = 10_000

var (
	errInvalidOracle       = errors.New("lending params: oracle address is not a hex address")
	errOriginationFeeRange = errors.New("lending params: origination fee exceeds 100%")
	errInterestRateRange   = errors.New("lending params: yearly interest exceeds 100%")
	errPricePairRequired   = errors.New("lending params: price pair required for an oracle market")
)

// Config captures the protocol parameters published for the loan form. Rates
// are expressed in basis points for deterministic decoding.
type Config struct {
	// OracleAddress is the hex address of the price feed contract. Empty or the
	// zero address selects the fixed-rate line.
	OracleAddress string `toml:"OracleAddress"`
	// OriginationFeeBps is withheld from the gross loan at creation.
	OriginationFeeBps uint64 `toml:"OriginationFeeBps"`
	// InterestRateBps is the yearly borrow rate.
	InterestRateBps uint64 `toml:"InterestRateBps"`
	// PricePair names the collateral/loan pair quoted by the oracle, e.g.
	// "ZNHB/NHB".
	PricePair string `toml:"PricePair"`
}

// LoadConfig decodes protocol parameters from a TOML file.
func LoadConfig(path string) (Config, error) {
	cfg := Config{}
	if strings.TrimSpace(path) == "" {
		return cfg, fmt.Errorf("lending params: path required")
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("lending params: %w", err)
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("lending params: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("lending params: unknown key %s", undecoded[0].String())
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.OracleAddress = strings.TrimSpace(c.OracleAddress)
	c.PricePair = strings.ToUpper(strings.TrimSpace(c.PricePair))
}

// Validate checks address syntax and rate bounds.
func (c Config) Validate() error {
	if c.OracleAddress != "" && !common.IsHexAddress(c.OracleAddress) {
		return errInvalidOracle
	}
	if c.OriginationFeeBps > maxBps {
		return errOriginationFeeRange
	}
	if c.InterestRateBps > maxBps {
		return errInterestRateRange
	}
	if c.Oracle() != (common.Address{}) {
		base, quote, ok := strings.Cut(c.PricePair, "/")
		if !ok || strings.TrimSpace(base) == "" || strings.TrimSpace(quote) == "" {
			return errPricePairRequired
		}
	}
	return nil
}

// Oracle returns the configured oracle address, the zero address when unset.
func (c Config) Oracle() common.Address {
	if c.OracleAddress == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.OracleAddress)
}

// Pair splits PricePair into the quoted base and quote assets.
func (c Config) Pair() pricing.Pair {
	base, quote, _ := strings.Cut(c.PricePair, "/")
	return pricing.Pair{Base: strings.TrimSpace(base), Quote: strings.TrimSpace(quote)}
}
