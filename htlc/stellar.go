package htlc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"math/big"
	"strings"
	"time"

	"goswapresolver/StellarRPC"
	"goswapresolver/config"
	"goswapresolver/types"
)

// StellarClient drives the Soroban HTLC contract. The contract commits to
// SHA-256 hashlocks, unlike the keccak256 the EVM leg expects over the
// same preimage.
type StellarClient struct {
	rpc       *StellarRPC.RPCClient
	pollEvery time.Duration
}

func NewStellarClient(pollEvery time.Duration) *StellarClient {
	return &StellarClient{
		rpc:       StellarRPC.GetClient(),
		pollEvery: pollEvery,
	}
}

// NewStellarClientWith lets tests inject an RPC client against a local endpoint.
func NewStellarClientWith(rpc *StellarRPC.RPCClient, pollEvery time.Duration) *StellarClient {
	return &StellarClient{rpc: rpc, pollEvery: pollEvery}
}

func (s *StellarClient) Network() types.Network { return types.NetworkStellar }

func (s *StellarClient) HashLock(secret []byte) []byte {
	sum := sha256.Sum256(secret)
	return sum[:]
}

func (s *StellarClient) CreateHTLC(ctx context.Context, p CreateParams) (string, error) {
	minFill := "0"
	if p.MinFillAmount != nil {
		minFill = p.MinFillAmount.String()
	}
	id, err := s.rpc.CreateHTLC(StellarRPC.CreateHTLCParams{
		Sender:            config.Config.Stellar.PublicAddress,
		Receiver:          p.Receiver,
		Token:             p.TokenAddress,
		Amount:            p.Amount.String(),
		Hashlock:          hex.EncodeToString(p.Hashlock),
		Timelock:          p.Timelock,
		SafetyDeposit:     p.SafetyDeposit.String(),
		AllowPartialFills: p.AllowPartialFills,
		MinFillAmount:     minFill,
	})
	if err != nil {
		return "", mapContractError(err)
	}
	return id, nil
}

func (s *StellarClient) Withdraw(ctx context.Context, contractID string, preimage []byte, amount *big.Int) error {
	amt := "0"
	if amount != nil {
		amt = amount.String()
	}
	if err := s.rpc.Withdraw(contractID, hex.EncodeToString(preimage), amt); err != nil {
		return mapContractError(err)
	}
	return nil
}

func (s *StellarClient) Refund(ctx context.Context, contractID string) error {
	if err := s.rpc.Refund(contractID); err != nil {
		return mapContractError(err)
	}
	return nil
}

func (s *StellarClient) GetHTLC(ctx context.Context, contractID string) (*Record, error) {
	rec, err := s.rpc.GetHTLC(contractID)
	if err != nil {
		return nil, mapContractError(err)
	}

	hashlock, err := hex.DecodeString(strings.TrimPrefix(rec.Hashlock, "0x"))
	if err != nil {
		hashlock = nil
	}
	return &Record{
		ContractID:             rec.ContractID,
		Sender:                 rec.Sender,
		Receiver:               rec.Receiver,
		Amount:                 mustBig(rec.Amount),
		RemainingAmount:        mustBig(rec.RemainingAmount),
		FilledAmount:           mustBig(rec.FilledAmount),
		TokenAddress:           rec.Token,
		Hashlock:               hashlock,
		Timelock:               rec.Timelock,
		SafetyDeposit:          mustBig(rec.SafetyDeposit),
		RemainingSafetyDeposit: mustBig(rec.RemainingSafetyDeposit),
		Status:                 Status(rec.Status),
		AllowPartialFills:      rec.AllowPartialFills,
		MinFillAmount:          mustBig(rec.MinFillAmount),
	}, nil
}

// SubscribeWithdraw polls the contract's event stream with a ledger cursor.
func (s *StellarClient) SubscribeWithdraw(ctx context.Context, contractID string) (<-chan WithdrawEvent, error) {
	ch := make(chan WithdrawEvent, 8)
	go func() {
		defer close(ch)
		var cursor int64
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.pollEvery):
			}

			events, latest, err := s.rpc.GetWithdrawEvents(contractID, cursor)
			if err != nil {
				log.Printf("Error polling Stellar events for %s: %s", contractID, err.Error())
				continue
			}
			cursor = latest
			for _, event := range events {
				preimage, err := hex.DecodeString(strings.TrimPrefix(event.Preimage, "0x"))
				if err != nil {
					log.Printf("Error decoding preimage from Stellar event on %s: %s", contractID, err.Error())
					continue
				}
				select {
				case ch <- WithdrawEvent{
					ContractID:     contractID,
					Preimage:       preimage,
					WithdrawAmount: mustBig(event.Amount),
					IsPartial:      event.IsPartial,
				}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// FetchBalance implements liquidity.BalanceFetcher for the Stellar leg.
func (s *StellarClient) FetchBalance(cfg types.AssetConfig) (string, error) {
	return s.rpc.GetBalance(config.Config.Stellar.PublicAddress, cfg.Address)
}

// mapContractError folds the RPC error text back onto the shared contract
// failure taxonomy.
func mapContractError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "ContractNotFound"):
		return ErrContractNotFound
	case strings.Contains(msg, "InvalidPreimage"):
		return ErrInvalidPreimage
	case strings.Contains(msg, "TimelockNotExpired"):
		return ErrTimelockNotExpired
	case strings.Contains(msg, "TimelockExpired"):
		return ErrTimelockExpired
	case strings.Contains(msg, "Unauthorized"):
		return ErrUnauthorized
	case strings.Contains(msg, "AlreadyWithdrawn"):
		return ErrAlreadyWithdrawn
	case strings.Contains(msg, "AlreadyRefunded"):
		return ErrAlreadyRefunded
	case strings.Contains(msg, "PartialFillsNotAllowed"):
		return ErrPartialFillsNotAllowed
	case strings.Contains(msg, "BelowMinimumFill"):
		return ErrBelowMinimumFill
	case strings.Contains(msg, "InsufficientRemainingAmount"):
		return ErrInsufficientRemainingAmount
	case strings.Contains(msg, "InsufficientBalance"):
		return ErrInsufficientBalance
	case strings.Contains(msg, "InvalidTimelock"):
		return ErrInvalidTimelock
	case strings.Contains(msg, "InvalidAmount"):
		return ErrInvalidAmount
	default:
		return err
	}
}

func mustBig(s string) *big.Int {
	out, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return out
}
