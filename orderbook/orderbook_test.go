package orderbook

import (
	"sync"
	"testing"
	"time"

	"goswapresolver/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryArchiver struct {
	mu     sync.Mutex
	orders []types.Order
}

func (a *memoryArchiver) ArchiveOrder(order *types.Order) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.orders = append(a.orders, *order)
	return nil
}

func (a *memoryArchiver) archived() []types.Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]types.Order(nil), a.orders...)
}

func testParams() CreateParams {
	return CreateParams{
		Maker:            "0x1111111111111111111111111111111111111111",
		Receiver:         "GRECEIVERADDRESS",
		MakerAsset:       "ETH",
		TakerAsset:       "XLM",
		MakingAmount:     "1000000000000000000",
		TakingAmount:     "1000",
		SourceChain:      types.NetworkEthereum,
		DestinationChain: types.NetworkStellar,
		Timelock:         time.Now().Add(time.Hour).Unix(),
	}
}

func TestCreateOrder(t *testing.T) {
	book := New(Config{
		AuctionDuration: time.Hour,
		ActivationDelay: 10 * time.Millisecond,
		Retention:       time.Hour,
		SweepEvery:      time.Hour,
	}, nil)
	defer book.Stop()

	t.Run("creates a pending order with the reserve floor", func(t *testing.T) {
		order, err := book.CreateOrder(testParams())
		require.NoError(t, err)

		assert.NotEmpty(t, order.Hash)
		assert.Equal(t, types.OrderStatusPending, order.Status)
		assert.Equal(t, "950", order.ReservePrice) // floor(0.95 * 1000)
		assert.Equal(t, order.AuctionStartTime.Add(time.Hour), order.AuctionEndTime)

		assert.Eventually(t, func() bool {
			got, ok := book.GetOrder(order.Hash)
			return ok && got.Status == types.OrderStatusAuctionActive
		}, time.Second, 5*time.Millisecond, "order should enter its auction window")
	})

	t.Run("identical economics still hash uniquely", func(t *testing.T) {
		first, err := book.CreateOrder(testParams())
		require.NoError(t, err)
		second, err := book.CreateOrder(testParams())
		require.NoError(t, err)
		assert.NotEqual(t, first.Hash, second.Hash)
	})

	t.Run("rejects non-integer amounts", func(t *testing.T) {
		p := testParams()
		p.TakingAmount = "10.5"
		_, err := book.CreateOrder(p)
		require.Error(t, err)
		assert.Equal(t, types.ErrInvalidAmount, types.CodeOf(err))
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		p := testParams()
		p.MakingAmount = "0"
		_, err := book.CreateOrder(p)
		require.Error(t, err)
	})
}

func TestOrderLifecycle(t *testing.T) {
	book := New(Config{
		AuctionDuration: time.Hour,
		ActivationDelay: time.Hour, // keep orders pending for the test
		Retention:       time.Hour,
		SweepEvery:      time.Hour,
	}, nil)
	defer book.Stop()

	order, err := book.CreateOrder(testParams())
	require.NoError(t, err)

	t.Run("status update merges metadata", func(t *testing.T) {
		require.NoError(t, book.UpdateOrderStatus(order.Hash, types.OrderStatusHTLCCreated, map[string]string{
			"ethereumContractId": "eth-1",
		}))
		require.NoError(t, book.UpdateOrderStatus(order.Hash, types.OrderStatusHTLCCreated, map[string]string{
			"stellarContractId": "stl-1",
		}))

		got, ok := book.GetOrder(order.Hash)
		require.True(t, ok)
		assert.Equal(t, types.OrderStatusHTLCCreated, got.Status)
		assert.Equal(t, "eth-1", got.Metadata["ethereumContractId"])
		assert.Equal(t, "stl-1", got.Metadata["stellarContractId"])
	})

	t.Run("update of an unknown order fails", func(t *testing.T) {
		require.Error(t, book.UpdateOrderStatus("0xmissing", types.OrderStatusFilled, nil))
	})

	t.Run("cancel is rejected once HTLCs exist", func(t *testing.T) {
		err := book.CancelOrder(order.Hash)
		require.Error(t, err, "an order with live HTLCs must run to completion or refund")

		got, _ := book.GetOrder(order.Hash)
		assert.Equal(t, types.OrderStatusHTLCCreated, got.Status)
	})

	t.Run("cancel before commitment, then cancel again", func(t *testing.T) {
		pending, err := book.CreateOrder(testParams())
		require.NoError(t, err)

		require.NoError(t, book.CancelOrder(pending.Hash))
		got, _ := book.GetOrder(pending.Hash)
		assert.Equal(t, types.OrderStatusCancelled, got.Status)

		require.Error(t, book.CancelOrder(pending.Hash), "terminal orders cannot be cancelled")
	})

	t.Run("list filters by status", func(t *testing.T) {
		cancelled := book.ListOrders(types.OrderStatusCancelled)
		require.Len(t, cancelled, 1)
		assert.Empty(t, book.ListOrders(types.OrderStatusFilled))
	})

	t.Run("counts by status", func(t *testing.T) {
		counts := book.Counts()
		assert.Equal(t, 1, counts[types.OrderStatusCancelled])
		assert.Equal(t, 1, counts[types.OrderStatusHTLCCreated])
	})
}

func TestSweepExpiresAndEvicts(t *testing.T) {
	archiver := &memoryArchiver{}
	book := New(Config{
		AuctionDuration: 20 * time.Millisecond,
		ActivationDelay: time.Millisecond,
		Retention:       50 * time.Millisecond,
		SweepEvery:      10 * time.Millisecond,
	}, archiver)
	defer book.Stop()

	order, err := book.CreateOrder(testParams())
	require.NoError(t, err)

	book.StartSweeper()

	// auction runs out with no settlement, then retention evicts it into
	// the archive
	assert.Eventually(t, func() bool {
		_, ok := book.GetOrder(order.Hash)
		return !ok
	}, time.Second, 10*time.Millisecond, "expired order should be evicted after retention")

	archived := archiver.archived()
	require.Len(t, archived, 1)
	assert.Equal(t, order.Hash, archived[0].Hash)
	assert.Equal(t, types.OrderStatusExpired, archived[0].Status)
}
