package liquidity

import (
	"fmt"
	"log"
	"sync"
	"time"

	"goswapresolver/types"
)

// BalanceFetcher pulls the resolver's on-chain balance for one asset.
// One implementation exists per network.
type BalanceFetcher interface {
	FetchBalance(cfg types.AssetConfig) (string, error)
}

type cacheEntry struct {
	balance   string
	timestamp time.Time
	ttl       time.Duration
}

func (e *cacheEntry) valid(now time.Time) bool {
	return !now.After(e.timestamp.Add(e.ttl))
}

// BalanceChangeFn is notified when a forced refresh observes a new balance.
type BalanceChangeFn func(network types.Network, asset, previous, current string)

// BalanceOracle caches on-chain balances per (network, asset) with a TTL,
// falling back to the most recent stale value when a fetch fails.
type BalanceOracle struct {
	registry Registry
	fetchers map[types.Network]BalanceFetcher
	ttl      time.Duration

	mu          sync.Mutex
	cache       map[string]*cacheEntry
	subscribers []BalanceChangeFn

	monitorEvery time.Duration
	stop         chan struct{}
	wg           sync.WaitGroup
}

// Registry is the slice of the asset registry this package needs.
type Registry interface {
	Get(symbol string) (*types.AssetConfig, error)
	List() []types.AssetConfig
	MinimumThresholdRaw(symbol string) (string, error)
	WarningThresholdRaw(symbol string) (string, error)
}

func NewBalanceOracle(reg Registry, fetchers map[types.Network]BalanceFetcher, ttl, monitorEvery time.Duration) *BalanceOracle {
	return &BalanceOracle{
		registry:     reg,
		fetchers:     fetchers,
		ttl:          ttl,
		cache:        make(map[string]*cacheEntry),
		monitorEvery: monitorEvery,
		stop:         make(chan struct{}),
	}
}

func cacheKey(network types.Network, asset string) string {
	return fmt.Sprintf("%s:%s", network, asset)
}

// GetBalance returns the cached balance while the TTL holds, otherwise
// fetches and caches. A failed fetch falls back to the stale cached value
// before giving up.
func (o *BalanceOracle) GetBalance(network types.Network, asset string) (string, error) {
	key := cacheKey(network, asset)

	o.mu.Lock()
	entry, ok := o.cache[key]
	if ok && entry.valid(time.Now()) {
		balance := entry.balance
		o.mu.Unlock()
		return balance, nil
	}
	o.mu.Unlock()

	balance, err := o.fetch(network, asset)
	if err != nil {
		o.mu.Lock()
		entry, ok := o.cache[key]
		o.mu.Unlock()
		if ok {
			log.Printf("balance fetch for %s failed (%v), falling back to stale cache from %s",
				key, err, entry.timestamp.Format(time.RFC3339))
			return entry.balance, nil
		}
		return "", types.NewDomainError(types.ErrBalanceFetchFailed,
			fmt.Sprintf("cannot fetch balance for %s", key),
			map[string]interface{}{"network": network, "asset": asset, "cause": err.Error()})
	}

	o.store(key, balance)
	return balance, nil
}

// UpdateBalance forces a fetch and notifies subscribers when the value moved.
func (o *BalanceOracle) UpdateBalance(network types.Network, asset string) (string, error) {
	key := cacheKey(network, asset)

	balance, err := o.fetch(network, asset)
	if err != nil {
		return "", types.NewDomainError(types.ErrBalanceFetchFailed,
			fmt.Sprintf("cannot fetch balance for %s", key),
			map[string]interface{}{"network": network, "asset": asset, "cause": err.Error()})
	}

	o.mu.Lock()
	previous := ""
	if entry, ok := o.cache[key]; ok {
		previous = entry.balance
	}
	o.cache[key] = &cacheEntry{balance: balance, timestamp: time.Now(), ttl: o.ttl}
	subscribers := append([]BalanceChangeFn(nil), o.subscribers...)
	o.mu.Unlock()

	if previous != balance {
		for _, fn := range subscribers {
			fn(network, asset, previous, balance)
		}
	}
	return balance, nil
}

// Invalidate drops the cached entry for one asset, or every entry of the
// network when asset is empty.
func (o *BalanceOracle) Invalidate(network types.Network, asset string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if asset != "" {
		delete(o.cache, cacheKey(network, asset))
		return
	}
	prefix := string(network) + ":"
	for key := range o.cache {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(o.cache, key)
		}
	}
}

func (o *BalanceOracle) Subscribe(fn BalanceChangeFn) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subscribers = append(o.subscribers, fn)
}

// StartMonitor re-fetches every registered asset on a fixed interval,
// tolerating individual failures without aborting the batch.
func (o *BalanceOracle) StartMonitor() {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.monitorEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, cfg := range o.registry.List() {
					if _, err := o.UpdateBalance(cfg.Network, cfg.Symbol); err != nil {
						log.Printf("balance monitor: refresh of %s:%s failed: %v", cfg.Network, cfg.Symbol, err)
					}
				}
			case <-o.stop:
				return
			}
		}
	}()
}

func (o *BalanceOracle) Stop() {
	close(o.stop)
	o.wg.Wait()
}

func (o *BalanceOracle) fetch(network types.Network, asset string) (string, error) {
	cfg, err := o.registry.Get(asset)
	if err != nil {
		return "", err
	}
	if cfg.Network != network {
		return "", types.NewDomainError(types.ErrAssetNotSupported,
			fmt.Sprintf("asset %s belongs to %s, not %s", asset, cfg.Network, network),
			map[string]interface{}{"asset": asset, "network": network})
	}
	fetcher, ok := o.fetchers[network]
	if !ok {
		return "", types.NewDomainError(types.ErrNetworkError,
			fmt.Sprintf("no balance fetcher configured for network %s", network),
			map[string]interface{}{"network": network})
	}
	return fetcher.FetchBalance(*cfg)
}

func (o *BalanceOracle) store(key, balance string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cache[key] = &cacheEntry{balance: balance, timestamp: time.Now(), ttl: o.ttl}
}
