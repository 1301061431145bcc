package htlc

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"goswapresolver/types"
)

// MockChain is an in-memory ChainClient implementing the full remote HTLC
// contract semantics, including partial fills and proportional safety
// deposit returns. Used by tests and local development.
type MockChain struct {
	network types.Network
	hashFn  func([]byte) []byte

	// NowFn lets tests move the clock for timelock checks.
	NowFn func() time.Time
	// FailCreate, when set, makes every CreateHTLC call fail with it.
	FailCreate error

	mu        sync.Mutex
	seq       int
	contracts map[string]*Record
	watchers  map[string][]chan WithdrawEvent
}

func NewMockChain(network types.Network, hashFn func([]byte) []byte) *MockChain {
	return &MockChain{
		network:   network,
		hashFn:    hashFn,
		NowFn:     time.Now,
		contracts: make(map[string]*Record),
		watchers:  make(map[string][]chan WithdrawEvent),
	}
}

func (m *MockChain) Network() types.Network { return m.network }

func (m *MockChain) HashLock(secret []byte) []byte { return m.hashFn(secret) }

func (m *MockChain) CreateHTLC(ctx context.Context, p CreateParams) (string, error) {
	if m.FailCreate != nil {
		return "", m.FailCreate
	}
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return "", ErrInvalidAmount
	}
	if p.Timelock <= m.NowFn().Unix() {
		return "", ErrInvalidTimelock
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("%s-htlc-%d", m.network, m.seq)

	safety := new(big.Int)
	if p.SafetyDeposit != nil {
		safety.Set(p.SafetyDeposit)
	}
	minFill := new(big.Int)
	if p.MinFillAmount != nil {
		minFill.Set(p.MinFillAmount)
	}

	m.contracts[id] = &Record{
		ContractID:             id,
		Sender:                 "resolver",
		Receiver:               p.Receiver,
		Amount:                 new(big.Int).Set(p.Amount),
		RemainingAmount:        new(big.Int).Set(p.Amount),
		FilledAmount:           new(big.Int),
		TokenAddress:           p.TokenAddress,
		Hashlock:               append([]byte(nil), p.Hashlock...),
		Timelock:               p.Timelock,
		SafetyDeposit:          safety,
		RemainingSafetyDeposit: new(big.Int).Set(safety),
		Status:                 StatusActive,
		AllowPartialFills:      p.AllowPartialFills,
		MinFillAmount:          minFill,
	}
	return id, nil
}

func (m *MockChain) Withdraw(ctx context.Context, contractID string, preimage []byte, amount *big.Int) error {
	m.mu.Lock()
	rec, ok := m.contracts[contractID]
	if !ok {
		m.mu.Unlock()
		return ErrContractNotFound
	}
	if rec.Status == StatusWithdrawn {
		m.mu.Unlock()
		return ErrAlreadyWithdrawn
	}
	if rec.Status == StatusRefunded {
		m.mu.Unlock()
		return ErrAlreadyRefunded
	}
	if m.NowFn().Unix() >= rec.Timelock {
		m.mu.Unlock()
		return ErrTimelockExpired
	}
	if !bytes.Equal(m.hashFn(preimage), rec.Hashlock) {
		m.mu.Unlock()
		return ErrInvalidPreimage
	}

	// zero claims the full remaining balance
	claim := new(big.Int)
	if amount == nil || amount.Sign() == 0 {
		claim.Set(rec.RemainingAmount)
	} else {
		claim.Set(amount)
	}
	partial := claim.Cmp(rec.RemainingAmount) < 0
	if partial && !rec.AllowPartialFills {
		m.mu.Unlock()
		return ErrPartialFillsNotAllowed
	}
	if partial && claim.Cmp(rec.MinFillAmount) < 0 {
		m.mu.Unlock()
		return ErrBelowMinimumFill
	}
	if claim.Cmp(rec.RemainingAmount) > 0 {
		m.mu.Unlock()
		return ErrInsufficientRemainingAmount
	}

	// proportional safety deposit return, integer-truncated
	depositReturn := new(big.Int).Mul(rec.RemainingSafetyDeposit, claim)
	depositReturn.Div(depositReturn, rec.RemainingAmount)
	rec.RemainingSafetyDeposit.Sub(rec.RemainingSafetyDeposit, depositReturn)

	rec.RemainingAmount.Sub(rec.RemainingAmount, claim)
	rec.FilledAmount.Add(rec.FilledAmount, claim)
	if rec.RemainingAmount.Sign() == 0 {
		rec.Status = StatusWithdrawn
	} else {
		rec.Status = StatusPartiallyFilled
	}

	event := WithdrawEvent{
		ContractID:     contractID,
		Preimage:       append([]byte(nil), preimage...),
		WithdrawAmount: new(big.Int).Set(claim),
		IsPartial:      rec.Status == StatusPartiallyFilled,
	}
	watchers := append([]chan WithdrawEvent(nil), m.watchers[contractID]...)
	m.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockChain) Refund(ctx context.Context, contractID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.contracts[contractID]
	if !ok {
		return ErrContractNotFound
	}
	if rec.Status == StatusWithdrawn {
		return ErrAlreadyWithdrawn
	}
	if rec.Status == StatusRefunded {
		return ErrAlreadyRefunded
	}
	if m.NowFn().Unix() < rec.Timelock {
		return ErrTimelockNotExpired
	}
	rec.Status = StatusRefunded
	return nil
}

func (m *MockChain) GetHTLC(ctx context.Context, contractID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.contracts[contractID]
	if !ok {
		return nil, ErrContractNotFound
	}
	out := *rec
	out.Amount = new(big.Int).Set(rec.Amount)
	out.RemainingAmount = new(big.Int).Set(rec.RemainingAmount)
	out.FilledAmount = new(big.Int).Set(rec.FilledAmount)
	out.SafetyDeposit = new(big.Int).Set(rec.SafetyDeposit)
	out.RemainingSafetyDeposit = new(big.Int).Set(rec.RemainingSafetyDeposit)
	return &out, nil
}

func (m *MockChain) SubscribeWithdraw(ctx context.Context, contractID string) (<-chan WithdrawEvent, error) {
	ch := make(chan WithdrawEvent, 8)
	m.mu.Lock()
	m.watchers[contractID] = append(m.watchers[contractID], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		list := m.watchers[contractID]
		for i, c := range list {
			if c == ch {
				m.watchers[contractID] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}()
	return ch, nil
}
