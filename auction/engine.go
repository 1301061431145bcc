package auction

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"goswapresolver/orderbook"
	"goswapresolver/types"

	"github.com/shopspring/decimal"
)

// Liquidity is the slice of the liquidity coordinator the engine uses.
type Liquidity interface {
	ReserveLiquidity(orderHash, asset, amount string) error
	ReleaseLiquidity(orderHash string)
}

// Balances is the loose synchronous pre-check source: cached balances only,
// no reservation or threshold accounting.
type Balances interface {
	GetBalance(network types.Network, asset string) (string, error)
}

// Assets resolves asset symbols.
type Assets interface {
	Get(symbol string) (*types.AssetConfig, error)
}

// CrossChain creates and monitors the paired HTLCs for a won auction.
type CrossChain interface {
	CreateCrossChainHTLCs(ctx context.Context, order *types.Order, resolver string) (*types.HTLCPair, error)
	MonitorHTLCCompletion(orderHash string) error
}

type Config struct {
	TickInterval time.Duration // re-pricing / participation tick
	ScanInterval time.Duration // expiry/settlement scan
	Resolver     string        // bidder identity, also the HTLC-side address
	// SupportedPairs maps makerAsset -> takerAsset for pairs the resolver trades
	SupportedPairs map[string]string
}

// pricing bounds: 105% of the nominal rate at auction start, 95% at the end
var (
	startMultiplier = decimal.RequireFromString("1.05")
	endMultiplier   = decimal.RequireFromString("0.95")
)

// Engine walks every active auction each tick, prices it on the descending
// curve and decides whether the resolver should take it.
type Engine struct {
	cfg        Config
	book       *orderbook.OrderBook
	liquidity  Liquidity
	balances   Balances
	assets     Assets
	crossChain CrossChain

	mu   sync.Mutex
	bids map[string][]types.Bid // keyed by order hash

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewEngine(cfg Config, book *orderbook.OrderBook, liq Liquidity, balances Balances, assets Assets, crossChain CrossChain) *Engine {
	return &Engine{
		cfg:        cfg,
		book:       book,
		liquidity:  liq,
		balances:   balances,
		assets:     assets,
		crossChain: crossChain,
		bids:       make(map[string][]types.Bid),
		stop:       make(chan struct{}),
	}
}

// CurrentPrice computes the Dutch price at a point in time: the nominal
// taking amount scaled by a multiplier that decays linearly from 1.05 to
// 0.95 across the auction window.
func CurrentPrice(order *types.Order, now time.Time) decimal.Decimal {
	taking := decimal.RequireFromString(order.TakingAmount)

	window := order.AuctionEndTime.Sub(order.AuctionStartTime)
	if window <= 0 {
		return taking.Mul(endMultiplier)
	}
	progress := decimal.NewFromFloat(now.Sub(order.AuctionStartTime).Seconds() / window.Seconds())
	if progress.IsNegative() {
		progress = decimal.Zero
	}
	if progress.GreaterThan(decimal.NewFromInt(1)) {
		progress = decimal.NewFromInt(1)
	}

	multiplier := startMultiplier.Sub(progress.Mul(startMultiplier.Sub(endMultiplier)))
	return taking.Mul(multiplier)
}

// liveOrders are orders whose auction window is still relevant: active
// auctions plus orders already holding our HTLCs but not yet settled.
func (e *Engine) liveOrders() []types.Order {
	orders := e.book.ActiveAuctions()
	return append(orders, e.book.ListOrders(types.OrderStatusHTLCCreated)...)
}

// Tick evaluates every order currently in its auction window.
func (e *Engine) Tick() {
	now := time.Now()
	for _, order := range e.liveOrders() {
		o := order
		if now.After(o.AuctionEndTime) {
			e.settle(&o)
			continue
		}
		if err := e.evaluate(&o, now); err != nil {
			log.Printf("auction: evaluation of %s failed: %v", o.Hash, err)
		}
	}
}

// Scan settles or expires auctions past their window.
func (e *Engine) Scan() {
	now := time.Now()
	for _, order := range e.liveOrders() {
		o := order
		if now.After(o.AuctionEndTime) {
			e.settle(&o)
		}
	}
}

// evaluate decides whether to bid on one live auction.
func (e *Engine) evaluate(order *types.Order, now time.Time) error {
	if e.cfg.SupportedPairs[order.MakerAsset] != order.TakerAsset {
		return nil
	}
	if e.hasBid(order.Hash) {
		return nil
	}
	if !e.checkLiquidity(order) {
		return nil
	}

	price := CurrentPrice(order, now)
	reserve := decimal.RequireFromString(order.ReservePrice)
	if price.LessThan(reserve) {
		return nil
	}

	return e.placeBid(order, price)
}

// checkLiquidity is a deliberately loose synchronous pre-check against the
// cached balance alone; the authoritative threshold-aware check happens
// inside ReserveLiquidity.
func (e *Engine) checkLiquidity(order *types.Order) bool {
	cfg, err := e.assets.Get(order.TakerAsset)
	if err != nil {
		return false
	}
	balance, err := e.balances.GetBalance(cfg.Network, order.TakerAsset)
	if err != nil {
		return false
	}
	bal, err := decimal.NewFromString(balance)
	if err != nil {
		return false
	}
	need := decimal.RequireFromString(order.TakingAmount)
	return bal.GreaterThanOrEqual(need)
}

// placeBid reserves liquidity, creates both HTLC legs and records the bid.
// A failed HTLC creation rolls the reservation back before surfacing.
func (e *Engine) placeBid(order *types.Order, price decimal.Decimal) error {
	if err := e.liquidity.ReserveLiquidity(order.Hash, order.TakerAsset, order.TakingAmount); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	pair, err := e.crossChain.CreateCrossChainHTLCs(ctx, order, e.cfg.Resolver)
	if err != nil {
		e.liquidity.ReleaseLiquidity(order.Hash)
		return fmt.Errorf("HTLC creation for %s failed, reservation rolled back: %w", order.Hash, err)
	}

	bid := types.Bid{
		Bidder:    e.cfg.Resolver,
		OrderHash: order.Hash,
		Price:     price.Floor().String(),
		PlacedAt:  time.Now(),
	}
	e.mu.Lock()
	e.bids[order.Hash] = append(e.bids[order.Hash], bid)
	e.mu.Unlock()

	if err := e.book.UpdateOrderStatus(order.Hash, types.OrderStatusHTLCCreated, map[string]string{
		"ethereumContractId": pair.EthereumContractID,
		"stellarContractId":  pair.StellarContractID,
	}); err != nil {
		log.Printf("auction: cannot record HTLC creation on order %s: %v", order.Hash, err)
	}

	log.Printf("auction: bid placed on %s at %s (reserve %s)", order.Hash, bid.Price, order.ReservePrice)
	return nil
}

// settle closes an auction past its end time: the best bid wins, ties
// broken by earliest timestamp; with no bids the order expires and any
// reservation is returned.
func (e *Engine) settle(order *types.Order) {
	e.mu.Lock()
	bids := append([]types.Bid(nil), e.bids[order.Hash]...)
	e.mu.Unlock()

	if len(bids) == 0 {
		e.liquidity.ReleaseLiquidity(order.Hash)
		if err := e.book.UpdateOrderStatus(order.Hash, types.OrderStatusExpired, nil); err != nil {
			log.Printf("auction: cannot expire order %s: %v", order.Hash, err)
			return
		}
		e.dropBids(order.Hash)
		return
	}

	sort.Slice(bids, func(i, j int) bool {
		pi := decimal.RequireFromString(bids[i].Price)
		pj := decimal.RequireFromString(bids[j].Price)
		if !pi.Equal(pj) {
			return pi.GreaterThan(pj)
		}
		return bids[i].PlacedAt.Before(bids[j].PlacedAt)
	})
	winner := bids[0]

	if err := e.book.UpdateOrderStatus(order.Hash, types.OrderStatusFilled, map[string]string{
		"winner":   winner.Bidder,
		"winPrice": winner.Price,
	}); err != nil {
		log.Printf("auction: cannot settle order %s: %v", order.Hash, err)
		return
	}
	e.dropBids(order.Hash)
	log.Printf("auction: order %s settled, winner %s at %s", order.Hash, winner.Bidder, winner.Price)

	if winner.Bidder == e.cfg.Resolver {
		if err := e.crossChain.MonitorHTLCCompletion(order.Hash); err != nil {
			log.Printf("auction: cannot start completion watch for %s: %v", order.Hash, err)
		}
	}
}

// Bids returns the recorded bids for one auction.
func (e *Engine) Bids(orderHash string) []types.Bid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]types.Bid(nil), e.bids[orderHash]...)
}

// dropBids forgets a settled auction's bids; the order book keeps the
// winner in the order metadata.
func (e *Engine) dropBids(orderHash string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.bids, orderHash)
}

func (e *Engine) hasBid(orderHash string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, bid := range e.bids[orderHash] {
		if bid.Bidder == e.cfg.Resolver {
			return true
		}
	}
	return false
}

// Start launches the pricing tick and the expiry scan on their own timers.
func (e *Engine) Start() {
	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.Tick()
			case <-e.stop:
				return
			}
		}
	}()
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.cfg.ScanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.Scan()
			case <-e.stop:
				return
			}
		}
	}()
}

func (e *Engine) Stop() {
	close(e.stop)
	e.wg.Wait()
}
