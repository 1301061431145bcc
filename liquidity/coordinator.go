package liquidity

import (
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"goswapresolver/types"
)

// AssetHealth is the monitoring verdict for one asset.
type AssetHealth string

const (
	HealthHealthy  AssetHealth = "healthy"
	HealthWarning  AssetHealth = "warning"
	HealthCritical AssetHealth = "critical"
)

// LiquidityCheck explains whether and why an order can(not) be funded.
type LiquidityCheck struct {
	CanHandle        bool   `json:"canHandle"`
	Reason           string `json:"reason,omitempty"`
	TotalBalance     string `json:"totalBalance"`
	Reserved         string `json:"reserved"`
	Available        string `json:"available"`
	Required         string `json:"required"`
	MinimumThreshold string `json:"minimumThreshold"`
}

// Coordinator composes the balance oracle and the reservation ledger into
// the resolver's single liquidity authority. Reservation is check-then-act
// internally, but the whole sequence runs under one lock so two orders
// racing for the same asset cannot both pass the availability check.
type Coordinator struct {
	registry Registry
	oracle   *BalanceOracle
	ledger   *ReservationLedger

	mu sync.Mutex // serializes check+reserve

	healthMu sync.Mutex
	health   map[string]AssetHealth

	monitorEvery time.Duration
	stop         chan struct{}
	wg           sync.WaitGroup
}

func NewCoordinator(reg Registry, oracle *BalanceOracle, ledger *ReservationLedger, monitorEvery time.Duration) *Coordinator {
	return &Coordinator{
		registry:     reg,
		oracle:       oracle,
		ledger:       ledger,
		health:       make(map[string]AssetHealth),
		monitorEvery: monitorEvery,
		stop:         make(chan struct{}),
	}
}

// HasLiquidity reports whether available balance covers the amount while
// keeping the asset above its minimum threshold. Both conditions are
// mandatory: liquidity is never reserved down to zero.
func (c *Coordinator) HasLiquidity(asset, amount string) (bool, error) {
	check, err := c.CanHandleOrder(asset, amount)
	if err != nil {
		return false, err
	}
	return check.CanHandle, nil
}

// CanHandleOrder returns the structured diagnostics behind HasLiquidity.
func (c *Coordinator) CanHandleOrder(asset, amount string) (*LiquidityCheck, error) {
	required, ok := new(big.Int).SetString(amount, 10)
	if !ok || required.Sign() <= 0 {
		return nil, types.NewDomainError(types.ErrInvalidAmount,
			fmt.Sprintf("amount %q must be a positive integer", amount),
			map[string]interface{}{"asset": asset})
	}

	cfg, err := c.registry.Get(asset)
	if err != nil {
		return nil, err
	}

	balanceStr, err := c.oracle.GetBalance(cfg.Network, asset)
	if err != nil {
		return nil, err
	}
	balance, _ := new(big.Int).SetString(balanceStr, 10)
	if balance == nil {
		balance = new(big.Int)
	}

	reservedStr := c.ledger.ReservedTotal(asset)
	reserved, _ := new(big.Int).SetString(reservedStr, 10)

	available := new(big.Int).Sub(balance, reserved)
	if available.Sign() < 0 {
		available.SetInt64(0)
	}

	minStr, err := c.registry.MinimumThresholdRaw(asset)
	if err != nil {
		return nil, err
	}
	minimum, _ := new(big.Int).SetString(minStr, 10)

	check := &LiquidityCheck{
		TotalBalance:     balance.String(),
		Reserved:         reserved.String(),
		Available:        available.String(),
		Required:         required.String(),
		MinimumThreshold: minimum.String(),
	}

	if available.Cmp(required) < 0 {
		check.Reason = "insufficient available balance"
		return check, nil
	}
	if new(big.Int).Sub(available, required).Cmp(minimum) < 0 {
		check.Reason = "reservation would breach minimum threshold"
		return check, nil
	}
	check.CanHandle = true
	return check, nil
}

// ReserveLiquidity atomically re-checks availability and places the hold.
func (c *Coordinator) ReserveLiquidity(orderHash, asset, amount string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	check, err := c.CanHandleOrder(asset, amount)
	if err != nil {
		return err
	}
	if !check.CanHandle {
		return types.NewDomainError(types.ErrInsufficientBalance,
			fmt.Sprintf("cannot reserve %s %s: %s", amount, asset, check.Reason),
			map[string]interface{}{
				"orderHash": orderHash,
				"asset":     asset,
				"available": check.Available,
				"required":  check.Required,
				"minimum":   check.MinimumThreshold,
			})
	}

	created, err := c.ledger.Reserve(orderHash, asset, amount)
	if err != nil {
		return err
	}
	if !created {
		log.Printf("liquidity: order %s already holds a reservation for %s, keeping existing hold", orderHash, asset)
	}
	return nil
}

// ReleaseLiquidity is always safe to call, including for orders that never
// reserved anything.
func (c *Coordinator) ReleaseLiquidity(orderHash string) {
	if released := c.ledger.Release(orderHash); released > 0 {
		log.Printf("liquidity: released %d reservation(s) for order %s", released, orderHash)
	}
}

// Health returns the last computed per-asset status.
func (c *Coordinator) Health() map[string]AssetHealth {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()
	out := make(map[string]AssetHealth, len(c.health))
	for asset, status := range c.health {
		out[asset] = status
	}
	return out
}

// StartMonitor periodically recomputes per-asset health against the two
// thresholds and logs alerts. It never auto-remediates.
func (c *Coordinator) StartMonitor() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.monitorEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.checkHealth()
			case <-c.stop:
				return
			}
		}
	}()
}

func (c *Coordinator) Stop() {
	close(c.stop)
	c.wg.Wait()
}

func (c *Coordinator) checkHealth() {
	for _, cfg := range c.registry.List() {
		balanceStr, err := c.oracle.GetBalance(cfg.Network, cfg.Symbol)
		if err != nil {
			log.Printf("liquidity monitor: cannot read balance for %s: %v", cfg.Symbol, err)
			continue
		}
		balance, _ := new(big.Int).SetString(balanceStr, 10)
		reserved, _ := new(big.Int).SetString(c.ledger.ReservedTotal(cfg.Symbol), 10)
		available := new(big.Int).Sub(balance, reserved)

		minStr, err := c.registry.MinimumThresholdRaw(cfg.Symbol)
		if err != nil {
			continue
		}
		warnStr, err := c.registry.WarningThresholdRaw(cfg.Symbol)
		if err != nil {
			continue
		}
		minimum, _ := new(big.Int).SetString(minStr, 10)
		warning, _ := new(big.Int).SetString(warnStr, 10)

		status := HealthHealthy
		if available.Cmp(minimum) <= 0 {
			status = HealthCritical
			log.Printf("ALERT: liquidity for %s is critical: available %s <= minimum %s",
				cfg.Symbol, available.String(), minimum.String())
		} else if available.Cmp(warning) <= 0 {
			status = HealthWarning
			log.Printf("liquidity warning for %s: available %s <= warning threshold %s",
				cfg.Symbol, available.String(), warning.String())
		}

		c.healthMu.Lock()
		c.health[cfg.Symbol] = status
		c.healthMu.Unlock()
	}
}
