package registry

import (
	"fmt"
	"math/big"
	"sync"

	"goswapresolver/types"

	"github.com/shopspring/decimal"
)

// AssetRegistry holds the static configuration of every tradable asset and
// does exact-precision conversion between human decimal strings and raw
// on-chain units.
type AssetRegistry struct {
	mu     sync.RWMutex
	assets map[string]*types.AssetConfig // keyed by symbol
}

func New() *AssetRegistry {
	return &AssetRegistry{
		assets: make(map[string]*types.AssetConfig),
	}
}

// NewFromConfigs registers every config, failing on the first invalid one.
func NewFromConfigs(configs []types.AssetConfig) (*AssetRegistry, error) {
	r := New()
	for i := range configs {
		if err := r.Register(configs[i]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *AssetRegistry) Register(cfg types.AssetConfig) error {
	if cfg.Address == "" {
		return types.NewDomainError(types.ErrConfigurationError, "asset address cannot be empty",
			map[string]interface{}{"symbol": cfg.Symbol})
	}
	if cfg.Symbol == "" {
		return types.NewDomainError(types.ErrConfigurationError, "asset symbol cannot be empty",
			map[string]interface{}{"address": cfg.Address})
	}
	if cfg.Decimals < 0 || cfg.Decimals > 18 {
		return types.NewDomainError(types.ErrConfigurationError,
			fmt.Sprintf("asset decimals must be within [0,18], got %d", cfg.Decimals),
			map[string]interface{}{"symbol": cfg.Symbol})
	}
	if !cfg.Network.Valid() {
		return types.NewDomainError(types.ErrConfigurationError,
			fmt.Sprintf("unrecognized network %q", cfg.Network),
			map[string]interface{}{"symbol": cfg.Symbol})
	}
	for _, threshold := range []string{cfg.MinimumThreshold, cfg.WarningThreshold} {
		d, err := decimal.NewFromString(threshold)
		if err != nil || d.IsNegative() {
			return types.NewDomainError(types.ErrConfigurationError,
				fmt.Sprintf("threshold %q is not a non-negative decimal", threshold),
				map[string]interface{}{"symbol": cfg.Symbol})
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	c := cfg
	r.assets[cfg.Symbol] = &c
	return nil
}

func (r *AssetRegistry) Get(symbol string) (*types.AssetConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.assets[symbol]
	if !ok {
		return nil, types.NewDomainError(types.ErrAssetNotSupported,
			fmt.Sprintf("asset %q is not registered", symbol),
			map[string]interface{}{"symbol": symbol})
	}
	c := *cfg
	return &c, nil
}

func (r *AssetRegistry) List() []types.AssetConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.AssetConfig, 0, len(r.assets))
	for _, cfg := range r.assets {
		out = append(out, *cfg)
	}
	return out
}

// UpdateThresholds is the only mutation allowed after registration.
func (r *AssetRegistry) UpdateThresholds(symbol, minimum, warning string) error {
	for _, threshold := range []string{minimum, warning} {
		d, err := decimal.NewFromString(threshold)
		if err != nil || d.IsNegative() {
			return types.NewDomainError(types.ErrConfigurationError,
				fmt.Sprintf("threshold %q is not a non-negative decimal", threshold),
				map[string]interface{}{"symbol": symbol})
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.assets[symbol]
	if !ok {
		return types.NewDomainError(types.ErrAssetNotSupported,
			fmt.Sprintf("asset %q is not registered", symbol),
			map[string]interface{}{"symbol": symbol})
	}
	cfg.MinimumThreshold = minimum
	cfg.WarningThreshold = warning
	return nil
}

// ConvertFromDecimal scales a human decimal amount to raw units by
// 10^decimals. Supplying more fractional digits than the asset's precision
// allows is an error, not a silent truncation.
func (r *AssetRegistry) ConvertFromDecimal(symbol, amount string) (string, error) {
	cfg, err := r.Get(symbol)
	if err != nil {
		return "", err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "", types.NewDomainError(types.ErrInvalidAmount,
			fmt.Sprintf("amount %q is not a decimal number", amount),
			map[string]interface{}{"symbol": symbol})
	}
	if d.IsNegative() {
		return "", types.NewDomainError(types.ErrInvalidAmount,
			"amount cannot be negative",
			map[string]interface{}{"symbol": symbol, "amount": amount})
	}

	scaled := d.Shift(int32(cfg.Decimals))
	if !scaled.IsInteger() {
		return "", types.NewDomainError(types.ErrInvalidAmount,
			fmt.Sprintf("amount %q has more than %d fractional digits", amount, cfg.Decimals),
			map[string]interface{}{"symbol": symbol, "decimals": cfg.Decimals})
	}
	return scaled.BigInt().String(), nil
}

// ConvertToDecimal renders a raw amount as a decimal string.
func (r *AssetRegistry) ConvertToDecimal(symbol, raw string) (string, error) {
	cfg, err := r.Get(symbol)
	if err != nil {
		return "", err
	}

	bi, err := r.parseRaw(symbol, raw)
	if err != nil {
		return "", err
	}
	return decimal.NewFromBigInt(bi, -int32(cfg.Decimals)).String(), nil
}

// Compare returns -1, 0 or 1 for two raw amounts of one asset.
func (r *AssetRegistry) Compare(symbol, a, b string) (int, error) {
	if _, err := r.Get(symbol); err != nil {
		return 0, err
	}
	ba, err := r.parseRaw(symbol, a)
	if err != nil {
		return 0, err
	}
	bb, err := r.parseRaw(symbol, b)
	if err != nil {
		return 0, err
	}
	return ba.Cmp(bb), nil
}

func (r *AssetRegistry) Add(symbol, a, b string) (string, error) {
	if _, err := r.Get(symbol); err != nil {
		return "", err
	}
	ba, err := r.parseRaw(symbol, a)
	if err != nil {
		return "", err
	}
	bb, err := r.parseRaw(symbol, b)
	if err != nil {
		return "", err
	}
	return new(big.Int).Add(ba, bb).String(), nil
}

// Subtract fails rather than wrapping below zero.
func (r *AssetRegistry) Subtract(symbol, a, b string) (string, error) {
	if _, err := r.Get(symbol); err != nil {
		return "", err
	}
	ba, err := r.parseRaw(symbol, a)
	if err != nil {
		return "", err
	}
	bb, err := r.parseRaw(symbol, b)
	if err != nil {
		return "", err
	}
	res := new(big.Int).Sub(ba, bb)
	if res.Sign() < 0 {
		return "", types.NewDomainError(types.ErrInvalidAmount,
			fmt.Sprintf("subtraction underflow: %s - %s", a, b),
			map[string]interface{}{"symbol": symbol})
	}
	return res.String(), nil
}

// MinimumThresholdRaw resolves an asset's minimum threshold to raw units.
func (r *AssetRegistry) MinimumThresholdRaw(symbol string) (string, error) {
	cfg, err := r.Get(symbol)
	if err != nil {
		return "", err
	}
	return r.ConvertFromDecimal(symbol, cfg.MinimumThreshold)
}

// WarningThresholdRaw resolves an asset's warning threshold to raw units.
func (r *AssetRegistry) WarningThresholdRaw(symbol string) (string, error) {
	cfg, err := r.Get(symbol)
	if err != nil {
		return "", err
	}
	return r.ConvertFromDecimal(symbol, cfg.WarningThreshold)
}

func (r *AssetRegistry) parseRaw(symbol, raw string) (*big.Int, error) {
	bi, ok := new(big.Int).SetString(raw, 10)
	if !ok || bi.Sign() < 0 {
		return nil, types.NewDomainError(types.ErrInvalidAmount,
			fmt.Sprintf("raw amount %q is not a non-negative integer", raw),
			map[string]interface{}{"symbol": symbol})
	}
	return bi, nil
}
