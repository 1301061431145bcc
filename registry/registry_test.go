package registry

import (
	"testing"

	"goswapresolver/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *AssetRegistry {
	t.Helper()
	reg, err := NewFromConfigs([]types.AssetConfig{
		{
			Address:          "0x0000000000000000000000000000000000000000",
			Symbol:           "ETH",
			Decimals:         18,
			Network:          types.NetworkEthereum,
			IsNative:         true,
			MinimumThreshold: "0.1",
			WarningThreshold: "0.5",
		},
		{
			Address:          "native",
			Symbol:           "XLM",
			Decimals:         7,
			Network:          types.NetworkStellar,
			IsNative:         true,
			MinimumThreshold: "10",
			WarningThreshold: "50",
		},
	})
	require.NoError(t, err)
	return reg
}

func TestRegister(t *testing.T) {
	t.Run("rejects empty address", func(t *testing.T) {
		err := New().Register(types.AssetConfig{
			Symbol: "ETH", Decimals: 18, Network: types.NetworkEthereum,
			MinimumThreshold: "0", WarningThreshold: "0",
		})
		require.Error(t, err)
		assert.Equal(t, types.ErrConfigurationError, types.CodeOf(err))
	})

	t.Run("rejects out-of-range decimals", func(t *testing.T) {
		err := New().Register(types.AssetConfig{
			Address: "native", Symbol: "BAD", Decimals: 19, Network: types.NetworkStellar,
			MinimumThreshold: "0", WarningThreshold: "0",
		})
		require.Error(t, err)
		assert.Equal(t, types.ErrConfigurationError, types.CodeOf(err))
	})

	t.Run("rejects unknown network", func(t *testing.T) {
		err := New().Register(types.AssetConfig{
			Address: "native", Symbol: "BAD", Decimals: 6, Network: "dogecoin",
			MinimumThreshold: "0", WarningThreshold: "0",
		})
		require.Error(t, err)
	})

	t.Run("rejects negative threshold", func(t *testing.T) {
		err := New().Register(types.AssetConfig{
			Address: "native", Symbol: "BAD", Decimals: 6, Network: types.NetworkStellar,
			MinimumThreshold: "-1", WarningThreshold: "0",
		})
		require.Error(t, err)
	})

	t.Run("unknown symbol lookup", func(t *testing.T) {
		reg := newTestRegistry(t)
		_, err := reg.Get("DOGE")
		require.Error(t, err)
		assert.Equal(t, types.ErrAssetNotSupported, types.CodeOf(err))
	})
}

func TestConvertFromDecimal(t *testing.T) {
	reg := newTestRegistry(t)

	t.Run("scales by asset decimals", func(t *testing.T) {
		raw, err := reg.ConvertFromDecimal("XLM", "12.5")
		require.NoError(t, err)
		assert.Equal(t, "125000000", raw)
	})

	t.Run("18 decimals stay exact", func(t *testing.T) {
		raw, err := reg.ConvertFromDecimal("ETH", "1.000000000000000001")
		require.NoError(t, err)
		assert.Equal(t, "1000000000000000001", raw)
	})

	t.Run("rejects excess precision", func(t *testing.T) {
		_, err := reg.ConvertFromDecimal("XLM", "0.00000001") // 8 digits, asset has 7
		require.Error(t, err)
		assert.Equal(t, types.ErrInvalidAmount, types.CodeOf(err))
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := reg.ConvertFromDecimal("XLM", "-5")
		require.Error(t, err)
		assert.Equal(t, types.ErrInvalidAmount, types.CodeOf(err))
	})

	t.Run("round trips through raw units", func(t *testing.T) {
		raw, err := reg.ConvertFromDecimal("XLM", "42.0000001")
		require.NoError(t, err)
		back, err := reg.ConvertToDecimal("XLM", raw)
		require.NoError(t, err)
		assert.Equal(t, "42.0000001", back)
	})
}

func TestRawArithmetic(t *testing.T) {
	reg := newTestRegistry(t)

	t.Run("add", func(t *testing.T) {
		sum, err := reg.Add("XLM", "100000000", "25000000")
		require.NoError(t, err)
		assert.Equal(t, "125000000", sum)
	})

	t.Run("subtract", func(t *testing.T) {
		diff, err := reg.Subtract("XLM", "100000000", "25000000")
		require.NoError(t, err)
		assert.Equal(t, "75000000", diff)
	})

	t.Run("subtract underflow fails", func(t *testing.T) {
		_, err := reg.Subtract("XLM", "1", "2")
		require.Error(t, err)
		assert.Equal(t, types.ErrInvalidAmount, types.CodeOf(err))
	})

	t.Run("compare", func(t *testing.T) {
		cmp, err := reg.Compare("XLM", "100", "200")
		require.NoError(t, err)
		assert.Equal(t, -1, cmp)
	})

	t.Run("rejects malformed raw amounts", func(t *testing.T) {
		_, err := reg.Add("XLM", "100", "1.5")
		require.Error(t, err)
	})
}

func TestThresholds(t *testing.T) {
	reg := newTestRegistry(t)

	t.Run("minimum threshold in raw units", func(t *testing.T) {
		raw, err := reg.MinimumThresholdRaw("XLM")
		require.NoError(t, err)
		assert.Equal(t, "100000000", raw)
	})

	t.Run("update thresholds", func(t *testing.T) {
		require.NoError(t, reg.UpdateThresholds("XLM", "20", "80"))
		raw, err := reg.MinimumThresholdRaw("XLM")
		require.NoError(t, err)
		assert.Equal(t, "200000000", raw)
	})

	t.Run("update rejects negative values", func(t *testing.T) {
		require.Error(t, reg.UpdateThresholds("XLM", "-1", "80"))
	})
}
