package ihtlc

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIhtlc(t *testing.T) {
	// nil backend is the log-parsing configuration used by the withdrawal
	// watcher; the constructor must still produce a usable binding
	contract, err := NewIhtlc(common.HexToAddress("0x1"), nil)
	require.NoError(t, err)
	require.NotNil(t, contract)
}

func TestEventTopics(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(IhtlcABI))
	require.NoError(t, err)

	assert.Equal(t, parsed.Events["HTLCNew"].ID, HTLCNewTopic)
	assert.Equal(t, parsed.Events["HTLCWithdraw"].ID, HTLCWithdrawTopic)
	assert.Equal(t, parsed.Events["HTLCRefund"].ID, HTLCRefundTopic)
}

func TestParseHTLCWithdraw(t *testing.T) {
	contract, err := NewIhtlc(common.HexToAddress("0x1"), nil)
	require.NoError(t, err)

	parsed, err := abi.JSON(strings.NewReader(IhtlcABI))
	require.NoError(t, err)

	var preimage [32]byte
	copy(preimage[:], []byte("the-shared-secret"))
	data, err := parsed.Events["HTLCWithdraw"].Inputs.NonIndexed().Pack(
		preimage, big.NewInt(400), true)
	require.NoError(t, err)

	contractID := common.HexToHash("0xabc1")

	t.Run("unpacks the withdrawal payload", func(t *testing.T) {
		event, err := contract.ParseHTLCWithdraw(ethtypes.Log{
			Topics: []common.Hash{HTLCWithdrawTopic, contractID},
			Data:   data,
		})
		require.NoError(t, err)

		assert.Equal(t, [32]byte(contractID), event.ContractId)
		assert.Equal(t, preimage, event.Preimage)
		assert.Equal(t, int64(400), event.WithdrawAmount.Int64())
		assert.True(t, event.IsPartial)
	})

	t.Run("rejects logs of a different event", func(t *testing.T) {
		_, err := contract.ParseHTLCWithdraw(ethtypes.Log{
			Topics: []common.Hash{HTLCRefundTopic, contractID},
			Data:   nil,
		})
		require.Error(t, err)
	})
}
