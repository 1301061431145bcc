package liquidity

import (
	"testing"
	"time"

	"goswapresolver/registry"
	"goswapresolver/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerRegistry(t *testing.T) *registry.AssetRegistry {
	t.Helper()
	reg, err := registry.NewFromConfigs([]types.AssetConfig{
		{
			Address: "native", Symbol: "TST", Decimals: 0,
			Network: types.NetworkStellar, IsNative: true,
			MinimumThreshold: "5", WarningThreshold: "7",
		},
	})
	require.NoError(t, err)
	return reg
}

func TestReserveAndRelease(t *testing.T) {
	reg := newLedgerRegistry(t)
	ledger := NewReservationLedger(reg, time.Minute, time.Minute)

	t.Run("reserve accumulates the total", func(t *testing.T) {
		created, err := ledger.Reserve("order-1", "TST", "100")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "100", ledger.ReservedTotal("TST"))
	})

	t.Run("duplicate reserve is an idempotent no-op", func(t *testing.T) {
		created, err := ledger.Reserve("order-1", "TST", "100")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "100", ledger.ReservedTotal("TST"))
	})

	t.Run("release restores the total exactly", func(t *testing.T) {
		released := ledger.Release("order-1")
		assert.Equal(t, 1, released)
		assert.Equal(t, "0", ledger.ReservedTotal("TST"))
		assert.Empty(t, ledger.Reservations("order-1"))
	})

	t.Run("release is safe to repeat", func(t *testing.T) {
		assert.Equal(t, 0, ledger.Release("order-1"))
		assert.Equal(t, "0", ledger.ReservedTotal("TST"))
	})
}

func TestReserveValidation(t *testing.T) {
	ledger := NewReservationLedger(newLedgerRegistry(t), time.Minute, time.Minute)

	t.Run("empty order hash", func(t *testing.T) {
		_, err := ledger.Reserve("", "TST", "10")
		require.Error(t, err)
		assert.Equal(t, types.ErrReservationFailed, types.CodeOf(err))
	})

	t.Run("unknown asset", func(t *testing.T) {
		_, err := ledger.Reserve("order-1", "DOGE", "10")
		require.Error(t, err)
		assert.Equal(t, types.ErrAssetNotSupported, types.CodeOf(err))
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := ledger.Reserve("order-1", "TST", "0")
		require.Error(t, err)
		assert.Equal(t, types.ErrInvalidAmount, types.CodeOf(err))

		_, err = ledger.Reserve("order-1", "TST", "-3")
		require.Error(t, err)
	})
}

func TestReleaseByAssetFIFO(t *testing.T) {
	reg := newLedgerRegistry(t)
	ledger := NewReservationLedger(reg, time.Minute, time.Minute)

	mustReserve := func(order, amount string) {
		created, err := ledger.Reserve(order, "TST", amount)
		require.NoError(t, err)
		require.True(t, created)
	}
	mustReserve("order-1", "100")
	mustReserve("order-2", "50")
	mustReserve("order-3", "25")

	t.Run("releases oldest first, shrinking the boundary hold", func(t *testing.T) {
		freed, err := ledger.ReleaseByAsset("TST", "120")
		require.NoError(t, err)
		assert.Equal(t, "120", freed)
		assert.Equal(t, "55", ledger.ReservedTotal("TST"))

		// order-1 fully gone, order-2 shrunk in place
		assert.Empty(t, ledger.Reservations("order-1"))
		holds := ledger.Reservations("order-2")
		require.Len(t, holds, 1)
		assert.Equal(t, "30", holds[0].Amount)
	})

	t.Run("freeing more than reserved frees what exists", func(t *testing.T) {
		freed, err := ledger.ReleaseByAsset("TST", "1000")
		require.NoError(t, err)
		assert.Equal(t, "55", freed)
		assert.Equal(t, "0", ledger.ReservedTotal("TST"))
	})
}

func TestReservationExpirySweep(t *testing.T) {
	reg := newLedgerRegistry(t)
	ledger := NewReservationLedger(reg, 20*time.Millisecond, 10*time.Millisecond)

	created, err := ledger.Reserve("order-1", "TST", "40")
	require.NoError(t, err)
	require.True(t, created)

	ledger.StartSweeper()
	defer ledger.Stop()

	assert.Eventually(t, func() bool {
		return ledger.ReservedTotal("TST") == "0"
	}, time.Second, 10*time.Millisecond, "expired reservation should be swept")
}
