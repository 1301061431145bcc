package htlc

import (
	"context"
	"encoding/hex"
	"math/big"
	"sync"
	"testing"
	"time"

	"goswapresolver/types"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssets struct{}

func (stubAssets) Get(symbol string) (*types.AssetConfig, error) {
	switch symbol {
	case "ETH":
		return &types.AssetConfig{
			Address: "0x0000000000000000000000000000000000000000",
			Symbol:  "ETH", Decimals: 18, Network: types.NetworkEthereum, IsNative: true,
		}, nil
	default:
		return &types.AssetConfig{
			Address: "native", Symbol: symbol, Decimals: 7,
			Network: types.NetworkStellar, IsNative: true,
		}, nil
	}
}

type stubPairArchive struct {
	mu    sync.Mutex
	pairs []types.HTLCPair
}

func (a *stubPairArchive) ArchiveHTLCPair(pair *types.HTLCPair) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pairs = append(a.pairs, *pair)
	return nil
}

func (a *stubPairArchive) archived() []types.HTLCPair {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]types.HTLCPair(nil), a.pairs...)
}

type crossChainFixture struct {
	eth     *MockChain
	stellar *MockChain
	archive *stubPairArchive
	coord   *Coordinator

	mu        sync.Mutex
	completed []string
	refunded  []string
}

func newCrossChainFixture() *crossChainFixture {
	f := &crossChainFixture{
		eth:     NewMockChain(types.NetworkEthereum, func(b []byte) []byte { return crypto.Keccak256(b) }),
		stellar: NewMockChain(types.NetworkStellar, sha256Hash),
		archive: &stubPairArchive{},
	}
	f.coord = NewCoordinator(map[types.Network]ChainClient{
		types.NetworkEthereum: f.eth,
		types.NetworkStellar:  f.stellar,
	}, stubAssets{}, f.archive, 10)
	f.coord.OnCompleted = func(orderHash string) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.completed = append(f.completed, orderHash)
	}
	f.coord.OnRefunded = func(orderHash string) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.refunded = append(f.refunded, orderHash)
	}
	return f
}

func (f *crossChainFixture) outcomes() (completed, refunded []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.completed...), append([]string(nil), f.refunded...)
}

func testOrder(timelock int64) *types.Order {
	return &types.Order{
		Hash:             "0xorder1",
		Maker:            "0x1111111111111111111111111111111111111111",
		Receiver:         "GRECEIVER",
		MakerAsset:       "ETH",
		TakerAsset:       "XLM",
		MakingAmount:     "1000",
		TakingAmount:     "2000",
		SourceChain:      types.NetworkEthereum,
		DestinationChain: types.NetworkStellar,
		Timelock:         timelock,
	}
}

func TestCreateCrossChainHTLCs(t *testing.T) {
	f := newCrossChainFixture()
	order := testOrder(time.Now().Add(time.Hour).Unix())

	pair, err := f.coord.CreateCrossChainHTLCs(context.Background(), order, "resolver-addr")
	require.NoError(t, err)
	assert.Equal(t, types.PairStatusBothCreated, pair.Status)
	assert.NotEmpty(t, pair.EthereumContractID)
	assert.NotEmpty(t, pair.StellarContractID)

	t.Run("one secret, two hash primitives", func(t *testing.T) {
		secret, err := hex.DecodeString(pair.Secret)
		require.NoError(t, err)
		require.Len(t, secret, 32)

		assert.NotEqual(t, pair.EthereumHashlock, pair.StellarHashlock)
		assert.Equal(t, hex.EncodeToString(crypto.Keccak256(secret)), pair.EthereumHashlock)
		assert.Equal(t, hex.EncodeToString(sha256Hash(secret)), pair.StellarHashlock)
	})

	t.Run("source leg locks the maker asset for the resolver", func(t *testing.T) {
		rec, err := f.eth.GetHTLC(context.Background(), pair.EthereumContractID)
		require.NoError(t, err)
		assert.Equal(t, "resolver-addr", rec.Receiver)
		assert.Equal(t, int64(1000), rec.Amount.Int64())
		assert.Equal(t, int64(100), rec.SafetyDeposit.Int64()) // 10%
	})

	t.Run("counter-leg locks the taker asset for the order receiver", func(t *testing.T) {
		rec, err := f.stellar.GetHTLC(context.Background(), pair.StellarContractID)
		require.NoError(t, err)
		assert.Equal(t, "GRECEIVER", rec.Receiver)
		assert.Equal(t, int64(2000), rec.Amount.Int64())
		assert.Equal(t, int64(200), rec.SafetyDeposit.Int64())
	})

	t.Run("pair is queryable", func(t *testing.T) {
		got, ok := f.coord.GetPair(order.Hash)
		require.True(t, ok)
		assert.Equal(t, pair.EthereumContractID, got.EthereumContractID)
		assert.Len(t, f.coord.Pairs(), 1)
	})
}

func TestCreateCrossChainHTLCsCounterLegFailure(t *testing.T) {
	f := newCrossChainFixture()
	f.stellar.FailCreate = ErrInsufficientBalance
	order := testOrder(time.Now().Add(time.Hour).Unix())

	_, err := f.coord.CreateCrossChainHTLCs(context.Background(), order, "resolver-addr")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// no pair is recorded; the orphaned source leg stays refundable after
	// its timelock
	_, ok := f.coord.GetPair(order.Hash)
	assert.False(t, ok)
}

func TestMonitorCompletesCounterLeg(t *testing.T) {
	f := newCrossChainFixture()
	order := testOrder(time.Now().Add(time.Hour).Unix())

	pair, err := f.coord.CreateCrossChainHTLCs(context.Background(), order, "resolver-addr")
	require.NoError(t, err)
	require.NoError(t, f.coord.MonitorHTLCCompletion(order.Hash))

	// the maker claims the source leg, revealing the preimage on-chain
	secret, err := hex.DecodeString(pair.Secret)
	require.NoError(t, err)
	require.NoError(t, f.eth.Withdraw(context.Background(), pair.EthereumContractID, secret, nil))

	require.Eventually(t, func() bool {
		rec, err := f.stellar.GetHTLC(context.Background(), pair.StellarContractID)
		return err == nil && rec.Status == StatusWithdrawn
	}, 2*time.Second, 10*time.Millisecond, "counter-leg should be claimed with the revealed preimage")

	require.Eventually(t, func() bool {
		got, ok := f.coord.GetPair(order.Hash)
		return ok && got.Status == types.PairStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	completed, refunded := f.outcomes()
	assert.Equal(t, []string{order.Hash}, completed)
	assert.Empty(t, refunded)

	archived := f.archive.archived()
	require.Len(t, archived, 1)
	assert.Equal(t, types.PairStatusCompleted, archived[0].Status)
}

func TestMonitorRefundsOnTimeout(t *testing.T) {
	f := newCrossChainFixture()
	order := testOrder(time.Now().Add(time.Second).Unix())

	pair, err := f.coord.CreateCrossChainHTLCs(context.Background(), order, "resolver-addr")
	require.NoError(t, err)
	require.NoError(t, f.coord.MonitorHTLCCompletion(order.Hash))

	require.Eventually(t, func() bool {
		got, ok := f.coord.GetPair(order.Hash)
		return ok && got.Status == types.PairStatusRefunded
	}, 5*time.Second, 20*time.Millisecond, "pair should refund after the timelock")

	for _, leg := range []struct {
		chain *MockChain
		id    string
	}{
		{f.eth, pair.EthereumContractID},
		{f.stellar, pair.StellarContractID},
	} {
		rec, err := leg.chain.GetHTLC(context.Background(), leg.id)
		require.NoError(t, err)
		assert.Equal(t, StatusRefunded, rec.Status)
	}

	completed, refunded := f.outcomes()
	assert.Empty(t, completed)
	assert.Equal(t, []string{order.Hash}, refunded)
}

func TestLegParamsAmounts(t *testing.T) {
	f := newCrossChainFixture()
	order := testOrder(time.Now().Add(time.Hour).Unix())
	order.MakingAmount = "999" // safety 10% truncates

	params, err := f.coord.legParams(order, types.NetworkEthereum, "resolver-addr", []byte{1})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(99), params.SafetyDeposit)

	order.MakingAmount = "bogus"
	_, err = f.coord.legParams(order, types.NetworkEthereum, "resolver-addr", []byte{1})
	require.Error(t, err)
}
