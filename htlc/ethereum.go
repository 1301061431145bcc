package htlc

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"goswapresolver/EVMRPC"
	"goswapresolver/EVMRPC/ierc20"
	"goswapresolver/EVMRPC/ihtlc"
	"goswapresolver/config"
	"goswapresolver/types"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// BlockCursor persists the last Ethereum block the withdrawal watcher has
// scanned, so a restart does not re-read the whole chain.
type BlockCursor interface {
	GetEthereumScannedBlock() (int64, error) // -1 when never set
	SetEthereumScannedBlock(height int64) error
}

// EthereumClient drives the HTLC escrow contract on the EVM leg. The
// contract commits to keccak256 hashlocks.
type EthereumClient struct {
	contractAddr common.Address
	pollEvery    time.Duration
	cursor       BlockCursor
}

func NewEthereumClient(cursor BlockCursor, pollEvery time.Duration) *EthereumClient {
	return &EthereumClient{
		contractAddr: common.HexToAddress(config.Config.Ethereum.HTLCContract),
		pollEvery:    pollEvery,
		cursor:       cursor,
	}
}

func (e *EthereumClient) Network() types.Network { return types.NetworkEthereum }

func (e *EthereumClient) HashLock(secret []byte) []byte {
	return crypto.Keccak256(secret)
}

func (e *EthereumClient) CreateHTLC(ctx context.Context, p CreateParams) (string, error) {
	return EVMRPC.WithClient(func(client *ethclient.Client) (string, error) {
		contract, err := ihtlc.NewIhtlc(e.contractAddr, client)
		if err != nil {
			return "", fmt.Errorf("error instantiating contract: %s", err)
		}

		opts, err := e.transactOpts(ctx, client)
		if err != nil {
			return "", err
		}
		token := common.HexToAddress(p.TokenAddress)
		if p.TokenAddress == "" || token == (common.Address{}) {
			// native leg: lock value with the call itself
			opts.Value = new(big.Int).Add(p.Amount, p.SafetyDeposit)
		}

		minFill := p.MinFillAmount
		if minFill == nil {
			minFill = big.NewInt(0)
		}
		tx, err := contract.CreateHTLC(opts, common.HexToAddress(p.Receiver), token, p.Amount,
			toBytes32(p.Hashlock), big.NewInt(p.Timelock), p.SafetyDeposit, p.AllowPartialFills, minFill)
		if err != nil {
			return "", fmt.Errorf("error calling createHTLC: %s", err)
		}

		receipt, err := bind.WaitMined(ctx, client, tx)
		if err != nil {
			return "", fmt.Errorf("error waiting for createHTLC tx %s: %s", tx.Hash().Hex(), err)
		}
		for _, lg := range receipt.Logs {
			if len(lg.Topics) > 1 && lg.Topics[0] == ihtlc.HTLCNewTopic {
				return lg.Topics[1].Hex(), nil
			}
		}
		return "", fmt.Errorf("createHTLC tx %s mined without HTLCNew event", tx.Hash().Hex())
	})
}

func (e *EthereumClient) Withdraw(ctx context.Context, contractID string, preimage []byte, amount *big.Int) error {
	_, err := EVMRPC.WithClient(func(client *ethclient.Client) (struct{}, error) {
		contract, err := ihtlc.NewIhtlc(e.contractAddr, client)
		if err != nil {
			return struct{}{}, err
		}
		opts, err := e.transactOpts(ctx, client)
		if err != nil {
			return struct{}{}, err
		}
		if amount == nil {
			amount = big.NewInt(0)
		}
		tx, err := contract.Withdraw(opts, toBytes32FromHex(contractID), toBytes32(preimage), amount)
		if err != nil {
			return struct{}{}, err
		}
		_, err = bind.WaitMined(ctx, client, tx)
		return struct{}{}, err
	})
	return err
}

func (e *EthereumClient) Refund(ctx context.Context, contractID string) error {
	_, err := EVMRPC.WithClient(func(client *ethclient.Client) (struct{}, error) {
		contract, err := ihtlc.NewIhtlc(e.contractAddr, client)
		if err != nil {
			return struct{}{}, err
		}
		opts, err := e.transactOpts(ctx, client)
		if err != nil {
			return struct{}{}, err
		}
		tx, err := contract.Refund(opts, toBytes32FromHex(contractID))
		if err != nil {
			return struct{}{}, err
		}
		_, err = bind.WaitMined(ctx, client, tx)
		return struct{}{}, err
	})
	return err
}

func (e *EthereumClient) GetHTLC(ctx context.Context, contractID string) (*Record, error) {
	return EVMRPC.WithClient(func(client *ethclient.Client) (*Record, error) {
		contract, err := ihtlc.NewIhtlc(e.contractAddr, client)
		if err != nil {
			return nil, err
		}
		exists, err := contract.ContractExists(&bind.CallOpts{Context: ctx}, toBytes32FromHex(contractID))
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrContractNotFound
		}
		data, err := contract.GetHTLC(&bind.CallOpts{Context: ctx}, toBytes32FromHex(contractID))
		if err != nil {
			return nil, err
		}
		return &Record{
			ContractID:             contractID,
			Sender:                 data.Sender.Hex(),
			Receiver:               data.Receiver.Hex(),
			Amount:                 data.Amount,
			RemainingAmount:        data.RemainingAmount,
			FilledAmount:           data.FilledAmount,
			TokenAddress:           data.Token.Hex(),
			Hashlock:               data.Hashlock[:],
			Timelock:               data.Timelock.Int64(),
			SafetyDeposit:          data.SafetyDeposit,
			RemainingSafetyDeposit: data.RemainingSafetyDeposit,
			Status:                 evmStatus(data.Status),
			AllowPartialFills:      data.AllowPartialFills,
			MinFillAmount:          data.MinFillAmount,
		}, nil
	})
}

// SubscribeWithdraw polls FilterLogs for the contract's HTLCWithdraw events
// from the persisted block cursor forward.
func (e *EthereumClient) SubscribeWithdraw(ctx context.Context, contractID string) (<-chan WithdrawEvent, error) {
	ch := make(chan WithdrawEvent, 8)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(e.pollEvery):
			}
			e.pollWithdrawals(ctx, contractID, ch)
		}
	}()
	return ch, nil
}

func (e *EthereumClient) pollWithdrawals(ctx context.Context, contractID string, ch chan<- WithdrawEvent) {
	scanned := int64(-1)
	if e.cursor != nil {
		var err error
		scanned, err = e.cursor.GetEthereumScannedBlock()
		if err != nil {
			log.Printf("Error getting last scanned Ethereum block: %s", err.Error())
			return
		}
	}

	latest, err := EVMRPC.WithClient(func(client *ethclient.Client) (uint64, error) {
		return client.BlockNumber(ctx)
	})
	if err != nil {
		log.Printf("Error getting latest Ethereum block: %s", err.Error())
		return
	}
	if scanned < 0 {
		// first run: look back a small safety window only
		scanned = int64(latest) - 128
		if scanned < 0 {
			scanned = 0
		}
	}
	if int64(latest) <= scanned {
		return
	}

	logs, err := EVMRPC.WithClient(func(client *ethclient.Client) ([]ethtypes.Log, error) {
		return client.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: big.NewInt(scanned + 1),
			ToBlock:   big.NewInt(int64(latest)),
			Addresses: []common.Address{e.contractAddr},
			Topics:    [][]common.Hash{{ihtlc.HTLCWithdrawTopic}, {common.HexToHash(contractID)}},
		})
	})
	if err != nil {
		log.Printf("Error querying Ethereum logs: %s", err.Error())
		return
	}

	parser, err := ihtlc.NewIhtlc(e.contractAddr, nil)
	if err != nil {
		log.Printf("Error instantiating contract for log parsing: %s", err.Error())
		return
	}
	for _, lg := range logs {
		event, err := parser.ParseHTLCWithdraw(lg)
		if err != nil {
			log.Printf("Error decoding HTLCWithdraw log %s: %s", lg.TxHash.Hex(), err.Error())
			continue
		}
		select {
		case ch <- WithdrawEvent{
			ContractID:     contractID,
			Preimage:       event.Preimage[:],
			WithdrawAmount: event.WithdrawAmount,
			IsPartial:      event.IsPartial,
		}:
		case <-ctx.Done():
			return
		}
	}

	if e.cursor != nil {
		if err := e.cursor.SetEthereumScannedBlock(int64(latest)); err != nil {
			log.Printf("Error saving Ethereum block cursor: %s", err.Error())
		}
	}
}

// FetchBalance implements liquidity.BalanceFetcher for the Ethereum leg.
func (e *EthereumClient) FetchBalance(cfg types.AssetConfig) (string, error) {
	owner := common.HexToAddress(config.Config.Ethereum.PublicAddress)
	balance, err := EVMRPC.WithClient(func(client *ethclient.Client) (*big.Int, error) {
		if cfg.IsNative {
			return client.BalanceAt(context.Background(), owner, nil)
		}
		token, err := ierc20.NewIerc20(common.HexToAddress(cfg.Address), client)
		if err != nil {
			return nil, err
		}
		return token.BalanceOf(nil, owner)
	})
	if err != nil {
		return "", err
	}
	return balance.String(), nil
}

func (e *EthereumClient) transactOpts(ctx context.Context, client *ethclient.Client) (*bind.TransactOpts, error) {
	privateKey, err := crypto.HexToECDSA(config.Config.Ethereum.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("error instantiating private key: %s", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(privateKey, big.NewInt(int64(config.Config.Ethereum.ChainID)))
	if err != nil {
		return nil, fmt.Errorf("error instantiating transactor: %s", err)
	}

	nonce, err := client.PendingNonceAt(ctx, common.HexToAddress(config.Config.Ethereum.PublicAddress))
	if err != nil {
		return nil, fmt.Errorf("error getting nonce for wallet: %s", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting suggested gas price: %s", err)
	}

	opts.Context = ctx
	opts.Nonce = big.NewInt(int64(nonce))
	opts.GasPrice = gasPrice
	opts.GasLimit = uint64(300000)
	return opts, nil
}

func evmStatus(status uint8) Status {
	switch status {
	case 1:
		return StatusWithdrawn
	case 2:
		return StatusRefunded
	case 3:
		return StatusPartiallyFilled
	default:
		return StatusActive
	}
}

func toBytes32(b []byte) (out [32]byte) {
	copy(out[:], b)
	return
}

func toBytes32FromHex(s string) [32]byte {
	return [32]byte(common.HexToHash(s))
}
