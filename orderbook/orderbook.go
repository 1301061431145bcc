package orderbook

import (
	"fmt"
	"log"
	"sync"
	"time"

	"goswapresolver/types"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// Archiver receives terminal orders evicted by the retention sweep.
// The Redis store implements it; a nil archiver disables archiving.
type Archiver interface {
	ArchiveOrder(order *types.Order) error
}

type Config struct {
	AuctionDuration time.Duration // auction window length
	ActivationDelay time.Duration // pending -> auction_active delay
	Retention       time.Duration // how long terminal orders stay queryable
	SweepEvery      time.Duration
}

// CreateParams carries the economic content of a new swap intent.
type CreateParams struct {
	Maker            string
	Receiver         string
	MakerAsset       string
	TakerAsset       string
	MakingAmount     string
	TakingAmount     string
	SourceChain      types.Network
	DestinationChain types.Network
	Timelock         int64
}

// OrderBook owns the swap-intent lifecycle: creation, hashing, auction
// window assignment, status transitions and the expiry sweep.
type OrderBook struct {
	cfg     Config
	archive Archiver

	mu     sync.Mutex
	orders map[string]*types.Order

	stop chan struct{}
	wg   sync.WaitGroup
}

func New(cfg Config, archive Archiver) *OrderBook {
	return &OrderBook{
		cfg:     cfg,
		archive: archive,
		orders:  make(map[string]*types.Order),
		stop:    make(chan struct{}),
	}
}

// reserve price floor, percent of the nominal taking amount
var reservePriceRatio = decimal.RequireFromString("0.95")

// CreateOrder synthesizes the order hash from the economic parameters plus
// wall-clock creation time. A retried submission with identical economics
// therefore produces a different hash; see DESIGN.md for the idempotency
// trade-off.
func (b *OrderBook) CreateOrder(p CreateParams) (*types.Order, error) {
	now := time.Now()

	preimage := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%s|%d|%d",
		p.Maker, p.Receiver, p.MakerAsset, p.TakerAsset,
		p.MakingAmount, p.TakingAmount, p.SourceChain, p.DestinationChain,
		p.Timelock, now.UnixNano())
	hash := crypto.Keccak256Hash([]byte(preimage)).Hex()

	taking, err := decimal.NewFromString(p.TakingAmount)
	if err != nil || !taking.IsInteger() || taking.Sign() <= 0 {
		return nil, types.NewDomainError(types.ErrInvalidAmount,
			fmt.Sprintf("taking amount %q must be a positive integer", p.TakingAmount), nil)
	}
	if making, err := decimal.NewFromString(p.MakingAmount); err != nil || !making.IsInteger() || making.Sign() <= 0 {
		return nil, types.NewDomainError(types.ErrInvalidAmount,
			fmt.Sprintf("making amount %q must be a positive integer", p.MakingAmount), nil)
	}
	reservePrice := taking.Mul(reservePriceRatio).Floor()

	order := &types.Order{
		Hash:             hash,
		Maker:            p.Maker,
		Receiver:         p.Receiver,
		MakerAsset:       p.MakerAsset,
		TakerAsset:       p.TakerAsset,
		MakingAmount:     p.MakingAmount,
		TakingAmount:     p.TakingAmount,
		SourceChain:      p.SourceChain,
		DestinationChain: p.DestinationChain,
		Timelock:         p.Timelock,
		Status:           types.OrderStatusPending,
		CreatedAt:        now,
		AuctionStartTime: now,
		AuctionEndTime:   now.Add(b.cfg.AuctionDuration),
		ReservePrice:     reservePrice.String(),
	}

	b.mu.Lock()
	if _, exists := b.orders[hash]; exists {
		b.mu.Unlock()
		return nil, fmt.Errorf("order hash collision for %s", hash)
	}
	b.orders[hash] = order
	b.mu.Unlock()

	log.Printf("order book: created order %s (%s %s -> %s %s, auction ends %s)",
		hash, p.MakingAmount, p.MakerAsset, p.TakingAmount, p.TakerAsset,
		order.AuctionEndTime.Format(time.RFC3339))

	// short delayed transition into the auction window
	time.AfterFunc(b.cfg.ActivationDelay, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if o, ok := b.orders[hash]; ok && o.Status == types.OrderStatusPending {
			o.Status = types.OrderStatusAuctionActive
			log.Printf("order book: order %s entered auction", hash)
		}
	})

	out := *order
	return &out, nil
}

func (b *OrderBook) GetOrder(hash string) (*types.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	order, ok := b.orders[hash]
	if !ok {
		return nil, false
	}
	out := *order
	return &out, true
}

// ListOrders returns orders, optionally filtered by status.
func (b *OrderBook) ListOrders(status types.OrderStatus) []types.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.Order, 0, len(b.orders))
	for _, order := range b.orders {
		if status != "" && order.Status != status {
			continue
		}
		out = append(out, *order)
	}
	return out
}

// ActiveAuctions returns every order currently in its auction window.
func (b *OrderBook) ActiveAuctions() []types.Order {
	return b.ListOrders(types.OrderStatusAuctionActive)
}

// UpdateOrderStatus merges optional metadata and records the transition.
// It does not validate sequencing; callers own the lifecycle order.
func (b *OrderBook) UpdateOrderStatus(hash string, status types.OrderStatus, metadata map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	order, ok := b.orders[hash]
	if !ok {
		return fmt.Errorf("order %s not found", hash)
	}
	previous := order.Status
	order.Status = status
	if len(metadata) > 0 {
		if order.Metadata == nil {
			order.Metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			order.Metadata[k] = v
		}
	}
	log.Printf("order book: order %s status %s -> %s", hash, previous, status)
	return nil
}

// CancelOrder marks an order cancelled. Only pending and auction_active
// orders qualify: once HTLCs exist on-chain the order is committed and
// must run through completion or timelock refund.
func (b *OrderBook) CancelOrder(hash string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	order, ok := b.orders[hash]
	if !ok {
		return fmt.Errorf("order %s not found", hash)
	}
	if order.Status != types.OrderStatusPending && order.Status != types.OrderStatusAuctionActive {
		return fmt.Errorf("order %s cannot be cancelled in status %s", hash, order.Status)
	}
	order.Status = types.OrderStatusCancelled
	log.Printf("order book: order %s cancelled", hash)
	return nil
}

// Counts returns the number of orders per status, for /stats.
func (b *OrderBook) Counts() map[types.OrderStatus]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[types.OrderStatus]int)
	for _, order := range b.orders {
		out[order.Status]++
	}
	return out
}

// StartSweeper expires stale auctions and evicts old terminal orders.
func (b *OrderBook) StartSweeper() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.cfg.SweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.sweep()
			case <-b.stop:
				return
			}
		}
	}()
}

func (b *OrderBook) Stop() {
	close(b.stop)
	b.wg.Wait()
}

func (b *OrderBook) sweep() {
	now := time.Now()
	var evicted []*types.Order

	b.mu.Lock()
	for hash, order := range b.orders {
		if order.Status == types.OrderStatusAuctionActive && now.After(order.AuctionEndTime) {
			order.Status = types.OrderStatusExpired
			log.Printf("order book: auction for %s expired by sweep", hash)
		}
		if order.Status.Terminal() && now.Sub(order.CreatedAt) > b.cfg.Retention {
			delete(b.orders, hash)
			evicted = append(evicted, order)
		}
	}
	b.mu.Unlock()

	for _, order := range evicted {
		log.Printf("order book: evicted terminal order %s (%s)", order.Hash, order.Status)
		if b.archive == nil {
			continue
		}
		if err := b.archive.ArchiveOrder(order); err != nil {
			log.Printf("order book: cannot archive order %s: %v", order.Hash, err)
		}
	}
}
