package liquidity

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"goswapresolver/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T, balance string) (*Coordinator, *ReservationLedger) {
	t.Helper()
	reg := newLedgerRegistry(t) // TST: decimals 0, minimum 5, warning 7
	fetcher := &stubFetcher{balance: balance}
	oracle := NewBalanceOracle(reg, map[types.Network]BalanceFetcher{
		types.NetworkStellar: fetcher,
	}, time.Minute, time.Minute)
	ledger := NewReservationLedger(reg, time.Minute, time.Minute)
	return NewCoordinator(reg, oracle, ledger, time.Minute), ledger
}

func TestCanHandleOrder(t *testing.T) {
	t.Run("fails when available balance is short", func(t *testing.T) {
		coord, _ := newTestCoordinator(t, "10")
		check, err := coord.CanHandleOrder("TST", "11")
		require.NoError(t, err)
		assert.False(t, check.CanHandle)
		assert.Equal(t, "insufficient available balance", check.Reason)
	})

	t.Run("fails when the hold would breach the minimum threshold", func(t *testing.T) {
		coord, _ := newTestCoordinator(t, "10")
		check, err := coord.CanHandleOrder("TST", "6") // 10-6=4 < minimum 5
		require.NoError(t, err)
		assert.False(t, check.CanHandle)
		assert.Equal(t, "reservation would breach minimum threshold", check.Reason)
	})

	t.Run("passes when headroom stays above the minimum", func(t *testing.T) {
		coord, _ := newTestCoordinator(t, "10")
		check, err := coord.CanHandleOrder("TST", "5") // 10-5=5 >= minimum 5
		require.NoError(t, err)
		assert.True(t, check.CanHandle)
		assert.Equal(t, "10", check.TotalBalance)
		assert.Equal(t, "0", check.Reserved)
	})

	t.Run("counts live reservations against availability", func(t *testing.T) {
		coord, ledger := newTestCoordinator(t, "20")
		_, err := ledger.Reserve("order-1", "TST", "10")
		require.NoError(t, err)

		check, err := coord.CanHandleOrder("TST", "6") // 20-10=10 available, 10-6=4 < 5
		require.NoError(t, err)
		assert.False(t, check.CanHandle)
		assert.Equal(t, "10", check.Available)
	})

	t.Run("rejects malformed amounts", func(t *testing.T) {
		coord, _ := newTestCoordinator(t, "10")
		_, err := coord.CanHandleOrder("TST", "lots")
		require.Error(t, err)
		assert.Equal(t, types.ErrInvalidAmount, types.CodeOf(err))
	})
}

func TestReserveLiquidity(t *testing.T) {
	t.Run("reserve then release round trip", func(t *testing.T) {
		coord, ledger := newTestCoordinator(t, "20")

		require.NoError(t, coord.ReserveLiquidity("order-1", "TST", "10"))
		assert.Equal(t, "10", ledger.ReservedTotal("TST"))

		coord.ReleaseLiquidity("order-1")
		assert.Equal(t, "0", ledger.ReservedTotal("TST"))

		// the freed liquidity is immediately reservable again
		require.NoError(t, coord.ReserveLiquidity("order-2", "TST", "10"))
	})

	t.Run("failure carries the diagnostic details", func(t *testing.T) {
		coord, _ := newTestCoordinator(t, "10")
		err := coord.ReserveLiquidity("order-1", "TST", "6")
		require.Error(t, err)
		assert.Equal(t, types.ErrInsufficientBalance, types.CodeOf(err))

		domainErr := err.(*types.DomainError)
		assert.Equal(t, "10", domainErr.Details["available"])
		assert.Equal(t, "6", domainErr.Details["required"])
	})

	t.Run("release for an unknown order is a no-op", func(t *testing.T) {
		coord, _ := newTestCoordinator(t, "10")
		coord.ReleaseLiquidity("never-reserved")
	})
}

// Two orders racing for the same funds must not both pass the availability
// check: the balance covers either reservation but not both.
func TestReserveLiquidityRace(t *testing.T) {
	coord, ledger := newTestCoordinator(t, "15") // minimum 5 leaves room for one hold of 6

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = coord.ReserveLiquidity(fmt.Sprintf("order-%d", i), "TST", "6")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, types.ErrInsufficientBalance, types.CodeOf(err))
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one racing reservation may win")
	assert.Equal(t, "6", ledger.ReservedTotal("TST"))
}
