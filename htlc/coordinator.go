package htlc

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"goswapresolver/types"
)

// AssetResolver maps asset symbols to their chain-level configuration.
type AssetResolver interface {
	Get(symbol string) (*types.AssetConfig, error)
}

// PairArchiver receives pairs that reached a terminal status.
type PairArchiver interface {
	ArchiveHTLCPair(pair *types.HTLCPair) error
}

// Coordinator creates the paired HTLCs on both chains with a shared secret,
// watches the source chain for the preimage, completes the counter-leg and
// drives refunds past timelock expiry.
type Coordinator struct {
	clients       map[types.Network]ChainClient
	assets        AssetResolver
	archive       PairArchiver
	safetyPercent int64

	// OnCompleted/OnRefunded run exactly once per pair, after the
	// completion and timeout paths have been arbitrated.
	OnCompleted func(orderHash string)
	OnRefunded  func(orderHash string)

	mu     sync.Mutex
	pairs  map[string]*types.HTLCPair
	source map[string]types.Network // source-of-truth chain per order
	cancel map[string]context.CancelFunc

	wg sync.WaitGroup
}

func NewCoordinator(clients map[types.Network]ChainClient, assets AssetResolver, archive PairArchiver, safetyPercent int64) *Coordinator {
	return &Coordinator{
		clients:       clients,
		assets:        assets,
		archive:       archive,
		safetyPercent: safetyPercent,
		pairs:         make(map[string]*types.HTLCPair),
		source:        make(map[string]types.Network),
		cancel:        make(map[string]context.CancelFunc),
	}
}

// CreateCrossChainHTLCs generates one secret for the whole order, derives
// the leg-specific hashlocks (each chain applies its own hash primitive to
// the same preimage) and creates the source-chain leg first.
func (c *Coordinator) CreateCrossChainHTLCs(ctx context.Context, order *types.Order, resolver string) (*types.HTLCPair, error) {
	srcClient, ok := c.clients[order.SourceChain]
	if !ok {
		return nil, fmt.Errorf("no chain client for source network %s", order.SourceChain)
	}
	dstClient, ok := c.clients[order.DestinationChain]
	if !ok {
		return nil, fmt.Errorf("no chain client for destination network %s", order.DestinationChain)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("cannot generate secret: %w", err)
	}

	srcParams, err := c.legParams(order, order.SourceChain, resolver, srcClient.HashLock(secret))
	if err != nil {
		return nil, err
	}
	dstParams, err := c.legParams(order, order.DestinationChain, resolver, dstClient.HashLock(secret))
	if err != nil {
		return nil, err
	}

	srcID, err := srcClient.CreateHTLC(ctx, *srcParams)
	if err != nil {
		return nil, fmt.Errorf("source leg creation on %s failed: %w", order.SourceChain, err)
	}

	dstID, err := dstClient.CreateHTLC(ctx, *dstParams)
	if err != nil {
		// the source leg stays refundable after its timelock; nothing
		// more can be done for it now
		log.Printf("cross-chain: counter-leg creation on %s failed after source leg %s was created: %v",
			order.DestinationChain, srcID, err)
		return nil, fmt.Errorf("counter-leg creation on %s failed: %w", order.DestinationChain, err)
	}

	pair := &types.HTLCPair{
		OrderHash: order.Hash,
		Secret:    hex.EncodeToString(secret),
		Timelock:  order.Timelock,
		Status:    types.PairStatusBothCreated,
		CreatedAt: time.Now(),
	}
	ethClient := c.clients[types.NetworkEthereum]
	stlClient := c.clients[types.NetworkStellar]
	if order.SourceChain == types.NetworkEthereum {
		pair.EthereumContractID, pair.StellarContractID = srcID, dstID
	} else {
		pair.EthereumContractID, pair.StellarContractID = dstID, srcID
	}
	if ethClient != nil {
		pair.EthereumHashlock = hex.EncodeToString(ethClient.HashLock(secret))
	}
	if stlClient != nil {
		pair.StellarHashlock = hex.EncodeToString(stlClient.HashLock(secret))
	}

	c.mu.Lock()
	c.pairs[order.Hash] = pair
	c.source[order.Hash] = order.SourceChain
	c.mu.Unlock()

	log.Printf("cross-chain: created HTLC pair for order %s (source %s leg %s, counter %s leg %s)",
		order.Hash, order.SourceChain, srcID, order.DestinationChain, dstID)

	out := *pair
	return &out, nil
}

// MonitorHTLCCompletion races the source chain's withdrawal stream against
// a one-shot refund timer; whichever fires first owns the pair's outcome.
func (c *Coordinator) MonitorHTLCCompletion(orderHash string) error {
	c.mu.Lock()
	pair, ok := c.pairs[orderHash]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("no HTLC pair recorded for order %s", orderHash)
	}
	sourceNet := c.source[orderHash]
	srcID, dstID := c.legIDs(pair, sourceNet)
	timelock := time.Unix(pair.Timelock, 0)
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel[orderHash] = cancel
	c.mu.Unlock()

	srcClient := c.clients[sourceNet]
	dstClient := c.counterClient(sourceNet)

	events, err := srcClient.SubscribeWithdraw(ctx, srcID)
	if err != nil {
		cancel()
		return fmt.Errorf("cannot subscribe to withdrawals for %s: %w", srcID, err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		timer := time.NewTimer(time.Until(timelock))
		defer timer.Stop()

		select {
		case event := <-events:
			c.completeCounterLeg(orderHash, dstClient, dstID, event)
		case <-timer.C:
			c.refundBothLegs(orderHash, srcClient, srcID, dstClient, dstID)
		case <-ctx.Done():
		}
	}()
	return nil
}

func (c *Coordinator) completeCounterLeg(orderHash string, dstClient ChainClient, dstID string, event WithdrawEvent) {
	c.mu.Lock()
	pair, ok := c.pairs[orderHash]
	if !ok || pair.Status == types.PairStatusCompleted || pair.Status == types.PairStatusRefunded {
		c.mu.Unlock()
		return
	}
	pair.Status = types.PairStatusSecretRevealed
	c.mu.Unlock()

	log.Printf("cross-chain: secret revealed for order %s on source leg %s, completing counter-leg %s",
		orderHash, event.ContractID, dstID)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := dstClient.Withdraw(ctx, dstID, event.Preimage, big.NewInt(0)); err != nil {
		log.Printf("cross-chain: counter-leg withdrawal for order %s failed: %v", orderHash, err)
		return
	}

	c.mu.Lock()
	pair.Status = types.PairStatusCompleted
	out := *pair
	c.mu.Unlock()

	log.Printf("cross-chain: swap for order %s completed on both legs", orderHash)
	c.archivePair(&out)
	if c.OnCompleted != nil {
		c.OnCompleted(orderHash)
	}
}

// refundBothLegs is best-effort: failures are logged, never retried. The
// counterparty's own timelock claim is the actual safety net.
func (c *Coordinator) refundBothLegs(orderHash string, srcClient ChainClient, srcID string, dstClient ChainClient, dstID string) {
	c.mu.Lock()
	pair, ok := c.pairs[orderHash]
	if !ok || pair.Status == types.PairStatusCompleted || pair.Status == types.PairStatusRefunded {
		c.mu.Unlock()
		return
	}
	pair.Status = types.PairStatusRefunded
	out := *pair
	c.mu.Unlock()

	log.Printf("cross-chain: timelock expired for order %s, refunding both legs", orderHash)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srcClient.Refund(ctx, srcID); err != nil {
		log.Printf("cross-chain: refund of source leg %s failed: %v", srcID, err)
	}
	if err := dstClient.Refund(ctx, dstID); err != nil {
		log.Printf("cross-chain: refund of counter-leg %s failed: %v", dstID, err)
	}

	c.archivePair(&out)
	if c.OnRefunded != nil {
		c.OnRefunded(orderHash)
	}
}

func (c *Coordinator) GetPair(orderHash string) (*types.HTLCPair, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pair, ok := c.pairs[orderHash]
	if !ok {
		return nil, false
	}
	out := *pair
	return &out, true
}

func (c *Coordinator) Pairs() []types.HTLCPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.HTLCPair, 0, len(c.pairs))
	for _, pair := range c.pairs {
		out = append(out, *pair)
	}
	return out
}

func (c *Coordinator) Stop() {
	c.mu.Lock()
	for _, cancel := range c.cancel {
		cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Coordinator) legParams(order *types.Order, network types.Network, resolver string, hashlock []byte) (*CreateParams, error) {
	var symbol, amountStr, receiver string
	if network == order.SourceChain {
		// source leg locks the maker-side asset for the resolver
		symbol, amountStr, receiver = order.MakerAsset, order.MakingAmount, resolver
	} else {
		// counter-leg locks the taker-side asset for the order's receiver
		symbol, amountStr, receiver = order.TakerAsset, order.TakingAmount, order.Receiver
	}

	cfg, err := c.assets.Get(symbol)
	if err != nil {
		return nil, err
	}
	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("order %s has malformed amount %q", order.Hash, amountStr)
	}

	safety := new(big.Int).Mul(amount, big.NewInt(c.safetyPercent))
	safety.Div(safety, big.NewInt(100))

	return &CreateParams{
		Receiver:      receiver,
		Amount:        amount,
		TokenAddress:  cfg.Address,
		Hashlock:      hashlock,
		Timelock:      order.Timelock,
		SafetyDeposit: safety,
	}, nil
}

func (c *Coordinator) legIDs(pair *types.HTLCPair, sourceNet types.Network) (srcID, dstID string) {
	if sourceNet == types.NetworkEthereum {
		return pair.EthereumContractID, pair.StellarContractID
	}
	return pair.StellarContractID, pair.EthereumContractID
}

func (c *Coordinator) counterClient(sourceNet types.Network) ChainClient {
	if sourceNet == types.NetworkEthereum {
		return c.clients[types.NetworkStellar]
	}
	return c.clients[types.NetworkEthereum]
}

func (c *Coordinator) archivePair(pair *types.HTLCPair) {
	if c.archive == nil {
		return
	}
	if err := c.archive.ArchiveHTLCPair(pair); err != nil {
		log.Printf("cross-chain: cannot archive pair for order %s: %v", pair.OrderHash, err)
	}
}
