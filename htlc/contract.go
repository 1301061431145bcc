package htlc

import (
	"context"
	"math/big"

	"goswapresolver/types"
)

// Status mirrors the remote contract's state machine.
type Status string

const (
	StatusActive          Status = "Active"
	StatusWithdrawn       Status = "Withdrawn"
	StatusRefunded        Status = "Refunded"
	StatusPartiallyFilled Status = "PartiallyFilled"
)

// CreateParams are the inputs to the remote createHTLC call.
type CreateParams struct {
	Receiver          string
	Amount            *big.Int
	TokenAddress      string
	Hashlock          []byte
	Timelock          int64 // unix seconds
	SafetyDeposit     *big.Int
	AllowPartialFills bool
	MinFillAmount     *big.Int
}

// Record is the remote HTLC state, consumed read-only.
// Invariant at every observation: FilledAmount + RemainingAmount == Amount.
type Record struct {
	ContractID             string
	Sender                 string
	Receiver               string
	Amount                 *big.Int
	RemainingAmount        *big.Int
	FilledAmount           *big.Int
	TokenAddress           string
	Hashlock               []byte
	Timelock               int64
	SafetyDeposit          *big.Int
	RemainingSafetyDeposit *big.Int
	Status                 Status
	AllowPartialFills      bool
	MinFillAmount          *big.Int
}

// WithdrawEvent is emitted by the contract when a preimage is revealed.
type WithdrawEvent struct {
	ContractID     string
	Preimage       []byte
	WithdrawAmount *big.Int
	IsPartial      bool
}

// ChainClient is the per-ledger port to one HTLC contract deployment.
// The two chains share this shape and differ only in the hash primitive
// their contract applies to the preimage.
type ChainClient interface {
	Network() types.Network

	// HashLock derives this chain's hashlock from the shared secret.
	HashLock(secret []byte) []byte

	CreateHTLC(ctx context.Context, p CreateParams) (string, error)

	// Withdraw claims funds with the preimage. A zero amount claims the
	// full remaining balance.
	Withdraw(ctx context.Context, contractID string, preimage []byte, amount *big.Int) error

	Refund(ctx context.Context, contractID string) error

	GetHTLC(ctx context.Context, contractID string) (*Record, error)

	// SubscribeWithdraw streams withdrawal events for one contract until
	// the context is cancelled.
	SubscribeWithdraw(ctx context.Context, contractID string) (<-chan WithdrawEvent, error)
}
