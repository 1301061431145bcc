package ihtlc

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const IhtlcABI = `[
	{"inputs":[{"name":"receiver","type":"address"},{"name":"token","type":"address"},{"name":"amount","type":"uint256"},{"name":"hashlock","type":"bytes32"},{"name":"timelock","type":"uint256"},{"name":"safetyDeposit","type":"uint256"},{"name":"allowPartialFills","type":"bool"},{"name":"minFillAmount","type":"uint256"}],"name":"createHTLC","outputs":[{"name":"contractId","type":"bytes32"}],"stateMutability":"payable","type":"function"},
	{"inputs":[{"name":"contractId","type":"bytes32"},{"name":"preimage","type":"bytes32"},{"name":"amount","type":"uint256"}],"name":"withdraw","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"contractId","type":"bytes32"}],"name":"refund","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"contractId","type":"bytes32"}],"name":"getHTLC","outputs":[{"name":"sender","type":"address"},{"name":"receiver","type":"address"},{"name":"token","type":"address"},{"name":"amount","type":"uint256"},{"name":"remainingAmount","type":"uint256"},{"name":"filledAmount","type":"uint256"},{"name":"hashlock","type":"bytes32"},{"name":"timelock","type":"uint256"},{"name":"safetyDeposit","type":"uint256"},{"name":"remainingSafetyDeposit","type":"uint256"},{"name":"status","type":"uint8"},{"name":"allowPartialFills","type":"bool"},{"name":"minFillAmount","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"contractId","type":"bytes32"}],"name":"contractExists","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"contractId","type":"bytes32"},{"indexed":true,"name":"sender","type":"address"},{"indexed":true,"name":"receiver","type":"address"}],"name":"HTLCNew","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"contractId","type":"bytes32"},{"indexed":false,"name":"preimage","type":"bytes32"},{"indexed":false,"name":"withdrawAmount","type":"uint256"},{"indexed":false,"name":"isPartial","type":"bool"}],"name":"HTLCWithdraw","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"contractId","type":"bytes32"}],"name":"HTLCRefund","type":"event"}
]`

// event topics
var (
	HTLCNewTopic      = crypto.Keccak256Hash([]byte("HTLCNew(bytes32,address,address)"))
	HTLCWithdrawTopic = crypto.Keccak256Hash([]byte("HTLCWithdraw(bytes32,bytes32,uint256,bool)"))
	HTLCRefundTopic   = crypto.Keccak256Hash([]byte("HTLCRefund(bytes32)"))
)

// HTLCData is the flattened getHTLC return value.
type HTLCData struct {
	Sender                 common.Address
	Receiver               common.Address
	Token                  common.Address
	Amount                 *big.Int
	RemainingAmount        *big.Int
	FilledAmount           *big.Int
	Hashlock               [32]byte
	Timelock               *big.Int
	SafetyDeposit          *big.Int
	RemainingSafetyDeposit *big.Int
	Status                 uint8
	AllowPartialFills      bool
	MinFillAmount          *big.Int
}

// IhtlcHTLCWithdraw is the unpacked HTLCWithdraw event.
type IhtlcHTLCWithdraw struct {
	ContractId     [32]byte
	Preimage       [32]byte
	WithdrawAmount *big.Int
	IsPartial      bool
	Raw            ethtypes.Log
}

// Ihtlc binds the HTLC escrow contract.
type Ihtlc struct {
	contract *bind.BoundContract
}

func NewIhtlc(address common.Address, backend bind.ContractBackend) (*Ihtlc, error) {
	parsed, err := abi.JSON(strings.NewReader(IhtlcABI))
	if err != nil {
		return nil, err
	}
	return &Ihtlc{contract: bind.NewBoundContract(address, parsed, backend, backend, backend)}, nil
}

func (i *Ihtlc) CreateHTLC(opts *bind.TransactOpts, receiver, token common.Address, amount *big.Int,
	hashlock [32]byte, timelock, safetyDeposit *big.Int, allowPartialFills bool, minFillAmount *big.Int) (*ethtypes.Transaction, error) {
	return i.contract.Transact(opts, "createHTLC", receiver, token, amount, hashlock, timelock,
		safetyDeposit, allowPartialFills, minFillAmount)
}

func (i *Ihtlc) Withdraw(opts *bind.TransactOpts, contractId, preimage [32]byte, amount *big.Int) (*ethtypes.Transaction, error) {
	return i.contract.Transact(opts, "withdraw", contractId, preimage, amount)
}

func (i *Ihtlc) Refund(opts *bind.TransactOpts, contractId [32]byte) (*ethtypes.Transaction, error) {
	return i.contract.Transact(opts, "refund", contractId)
}

func (i *Ihtlc) GetHTLC(opts *bind.CallOpts, contractId [32]byte) (HTLCData, error) {
	var out []interface{}
	data := HTLCData{}
	if err := i.contract.Call(opts, &out, "getHTLC", contractId); err != nil {
		return data, err
	}
	data.Sender = *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	data.Receiver = *abi.ConvertType(out[1], new(common.Address)).(*common.Address)
	data.Token = *abi.ConvertType(out[2], new(common.Address)).(*common.Address)
	data.Amount = abi.ConvertType(out[3], new(big.Int)).(*big.Int)
	data.RemainingAmount = abi.ConvertType(out[4], new(big.Int)).(*big.Int)
	data.FilledAmount = abi.ConvertType(out[5], new(big.Int)).(*big.Int)
	data.Hashlock = *abi.ConvertType(out[6], new([32]byte)).(*[32]byte)
	data.Timelock = abi.ConvertType(out[7], new(big.Int)).(*big.Int)
	data.SafetyDeposit = abi.ConvertType(out[8], new(big.Int)).(*big.Int)
	data.RemainingSafetyDeposit = abi.ConvertType(out[9], new(big.Int)).(*big.Int)
	data.Status = *abi.ConvertType(out[10], new(uint8)).(*uint8)
	data.AllowPartialFills = *abi.ConvertType(out[11], new(bool)).(*bool)
	data.MinFillAmount = abi.ConvertType(out[12], new(big.Int)).(*big.Int)
	return data, nil
}

func (i *Ihtlc) ContractExists(opts *bind.CallOpts, contractId [32]byte) (bool, error) {
	var out []interface{}
	if err := i.contract.Call(opts, &out, "contractExists", contractId); err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (i *Ihtlc) ParseHTLCWithdraw(lg ethtypes.Log) (*IhtlcHTLCWithdraw, error) {
	event := new(IhtlcHTLCWithdraw)
	if err := i.contract.UnpackLog(event, "HTLCWithdraw", lg); err != nil {
		return nil, err
	}
	event.Raw = lg
	return event, nil
}
