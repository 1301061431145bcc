package ierc20

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

const Ierc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

// Ierc20 is a thin binding to the two ERC-20 methods the resolver uses.
type Ierc20 struct {
	contract *bind.BoundContract
}

func NewIerc20(address common.Address, backend bind.ContractBackend) (*Ierc20, error) {
	parsed, err := abi.JSON(strings.NewReader(Ierc20ABI))
	if err != nil {
		return nil, err
	}
	return &Ierc20{contract: bind.NewBoundContract(address, parsed, backend, backend, backend)}, nil
}

func (i *Ierc20) BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error) {
	var out []interface{}
	if err := i.contract.Call(opts, &out, "balanceOf", owner); err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

func (i *Ierc20) Transfer(opts *bind.TransactOpts, to common.Address, value *big.Int) (*ethtypes.Transaction, error) {
	return i.contract.Transact(opts, "transfer", to, value)
}
