package liquidity

import (
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"goswapresolver/types"

	"github.com/google/uuid"
)

// ReservationLedger tracks provisional holds of the resolver's balance,
// per order and per asset, with a fixed expiry and a periodic sweep.
//
// Release order for ReleaseByAsset is FIFO by creation time. The ledger
// keeps an insertion-ordered slice next to the per-order index so the
// traversal is deterministic.
type ReservationLedger struct {
	registry Registry
	expiry   time.Duration

	mu      sync.Mutex
	entries []*types.AssetReservation           // insertion order
	index   map[string]*types.AssetReservation  // orderHash:asset
	totals  map[string]*big.Int                 // per-asset reserved total

	sweepEvery time.Duration
	stop       chan struct{}
	wg         sync.WaitGroup
}

func NewReservationLedger(reg Registry, expiry, sweepEvery time.Duration) *ReservationLedger {
	return &ReservationLedger{
		registry:   reg,
		expiry:     expiry,
		index:      make(map[string]*types.AssetReservation),
		totals:     make(map[string]*big.Int),
		sweepEvery: sweepEvery,
		stop:       make(chan struct{}),
	}
}

func indexKey(orderHash, asset string) string {
	return orderHash + ":" + asset
}

// Reserve appends a hold for (order, asset). A second reserve for the same
// pair returns false without error: an idempotence guard, not a failure.
func (l *ReservationLedger) Reserve(orderHash, asset, amount string) (bool, error) {
	if orderHash == "" {
		return false, types.NewDomainError(types.ErrReservationFailed,
			"order hash cannot be empty", nil)
	}
	if _, err := l.registry.Get(asset); err != nil {
		return false, err
	}
	amt, ok := new(big.Int).SetString(amount, 10)
	if !ok || amt.Sign() <= 0 {
		return false, types.NewDomainError(types.ErrInvalidAmount,
			fmt.Sprintf("reservation amount %q must be a positive integer", amount),
			map[string]interface{}{"orderHash": orderHash, "asset": asset})
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.index[indexKey(orderHash, asset)]; exists {
		return false, nil
	}

	now := time.Now()
	res := &types.AssetReservation{
		ID:        uuid.New().String(),
		OrderHash: orderHash,
		Asset:     asset,
		Amount:    amount,
		CreatedAt: now,
		ExpiresAt: now.Add(l.expiry),
	}
	l.entries = append(l.entries, res)
	l.index[indexKey(orderHash, asset)] = res
	l.addTotal(asset, amt)
	return true, nil
}

// Release removes and refunds every reservation held by the order.
// A no-op when the order holds none.
func (l *ReservationLedger) Release(orderHash string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	released := 0
	kept := l.entries[:0]
	for _, res := range l.entries {
		if res.OrderHash != orderHash {
			kept = append(kept, res)
			continue
		}
		l.dropLocked(res)
		released++
	}
	l.entries = kept
	return released
}

// ReleaseByAsset walks the asset's reservations oldest-first, releasing or
// partially shrinking them until the requested amount is freed. Returns the
// amount actually freed.
func (l *ReservationLedger) ReleaseByAsset(asset, amount string) (string, error) {
	if _, err := l.registry.Get(asset); err != nil {
		return "", err
	}
	want, ok := new(big.Int).SetString(amount, 10)
	if !ok || want.Sign() <= 0 {
		return "", types.NewDomainError(types.ErrInvalidAmount,
			fmt.Sprintf("release amount %q must be a positive integer", amount),
			map[string]interface{}{"asset": asset})
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	freed := new(big.Int)
	kept := l.entries[:0]
	for _, res := range l.entries {
		remaining := new(big.Int).Sub(want, freed)
		if res.Asset != asset || remaining.Sign() <= 0 {
			kept = append(kept, res)
			continue
		}
		amt, _ := new(big.Int).SetString(res.Amount, 10)
		if amt.Cmp(remaining) <= 0 {
			l.dropLocked(res)
			freed.Add(freed, amt)
			continue
		}
		// partially shrink this reservation in place
		res.Amount = new(big.Int).Sub(amt, remaining).String()
		l.subTotal(asset, remaining)
		freed.Add(freed, remaining)
		kept = append(kept, res)
	}
	l.entries = kept
	return freed.String(), nil
}

// ReservedTotal returns the live reserved total for an asset as a raw string.
func (l *ReservationLedger) ReservedTotal(asset string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	total, ok := l.totals[asset]
	if !ok {
		return "0"
	}
	return total.String()
}

// Reservations returns copies of the order's live reservations.
func (l *ReservationLedger) Reservations(orderHash string) []types.AssetReservation {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []types.AssetReservation
	for _, res := range l.entries {
		if res.OrderHash == orderHash {
			out = append(out, *res)
		}
	}
	return out
}

// StartSweeper releases expired reservations on a fixed interval.
func (l *ReservationLedger) StartSweeper() {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweepExpired()
			case <-l.stop:
				return
			}
		}
	}()
}

func (l *ReservationLedger) Stop() {
	close(l.stop)
	l.wg.Wait()
}

func (l *ReservationLedger) sweepExpired() {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	for _, res := range l.entries {
		if res.ExpiresAt.After(now) {
			kept = append(kept, res)
			continue
		}
		l.dropLocked(res)
		log.Printf("reservation sweep: released expired hold %s (%s %s for order %s, expired %s)",
			res.ID, res.Amount, res.Asset, res.OrderHash, res.ExpiresAt.Format(time.RFC3339))
	}
	l.entries = kept
}

func (l *ReservationLedger) dropLocked(res *types.AssetReservation) {
	delete(l.index, indexKey(res.OrderHash, res.Asset))
	amt, _ := new(big.Int).SetString(res.Amount, 10)
	l.subTotal(res.Asset, amt)
}

func (l *ReservationLedger) addTotal(asset string, amt *big.Int) {
	total, ok := l.totals[asset]
	if !ok {
		total = new(big.Int)
		l.totals[asset] = total
	}
	total.Add(total, amt)
}

func (l *ReservationLedger) subTotal(asset string, amt *big.Int) {
	total, ok := l.totals[asset]
	if !ok {
		return
	}
	total.Sub(total, amt)
	if total.Sign() < 0 {
		total.SetInt64(0)
	}
}
