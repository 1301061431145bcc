package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"goswapresolver/auction"
	"goswapresolver/config"
	"goswapresolver/htlc"
	"goswapresolver/liquidity"
	"goswapresolver/orderbook"
	"goswapresolver/redis"
	"goswapresolver/registry"
	"goswapresolver/types"
	"goswapresolver/workers"
	"goswapresolver/workers/handlers"
)

func main() {
	log.Print("Starting cross-chain swap resolver")

	f, err := os.OpenFile(fmt.Sprintf("logs/log_%s.txt", time.Now().Format("2006-01-02")), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file for writing: %v", err)
	}
	defer f.Close()

	log.SetOutput(f)

	config.Init()

	// connect to Redis, without persistence do not continue
	redis.Init()
	store := redis.NewStore()

	reg, err := registry.NewFromConfigs(config.Config.Assets)
	if err != nil {
		log.Fatalf("error building asset registry: %v", err)
	}

	ethereumClient := htlc.NewEthereumClient(store, config.EthereumEventPollPeriod)
	stellarClient := htlc.NewStellarClient(config.StellarEventPollPeriod)

	oracle := liquidity.NewBalanceOracle(reg, map[types.Network]liquidity.BalanceFetcher{
		types.NetworkEthereum: ethereumClient,
		types.NetworkStellar:  stellarClient,
	}, config.BalanceCacheTTL, config.BalanceMonitorInterval)
	ledger := liquidity.NewReservationLedger(reg, config.ReservationExpiry, config.ReservationSweep)
	liq := liquidity.NewCoordinator(reg, oracle, ledger, config.BalanceMonitorInterval)

	book := orderbook.New(orderbook.Config{
		AuctionDuration: config.AuctionDefaultDuration,
		ActivationDelay: config.AuctionActivationDelay,
		Retention:       config.TerminalOrderRetention,
		SweepEvery:      config.OrderSweep,
	}, store)

	crossChain := htlc.NewCoordinator(map[types.Network]htlc.ChainClient{
		types.NetworkEthereum: ethereumClient,
		types.NetworkStellar:  stellarClient,
	}, reg, store, int64(config.SafetyDepositPercent))
	// a settled swap frees the reservation; balances moved on both chains,
	// so cached values are stale either way
	crossChain.OnCompleted = func(orderHash string) {
		liq.ReleaseLiquidity(orderHash)
		oracle.Invalidate(types.NetworkEthereum, "")
		oracle.Invalidate(types.NetworkStellar, "")
	}
	crossChain.OnRefunded = func(orderHash string) {
		liq.ReleaseLiquidity(orderHash)
		oracle.Invalidate(types.NetworkEthereum, "")
		oracle.Invalidate(types.NetworkStellar, "")
	}

	engine := auction.NewEngine(auction.Config{
		TickInterval:   config.AuctionTickInterval,
		ScanInterval:   config.AuctionScanInterval,
		Resolver:       config.Config.Resolver.Address,
		SupportedPairs: config.SupportedPairs,
	}, book, liq, oracle, reg, crossChain)

	handlers.Setup(book, engine, liq, crossChain, reg, store)

	// background workers:
	// * balance monitor polling both chains
	// * reservation expiry sweeper
	// * liquidity health monitor
	// * order book retention sweep
	// * auction pricing tick + settlement scan
	// the API server runs on the main thread and returns on SIGINT/SIGTERM
	oracle.StartMonitor()
	ledger.StartSweeper()
	liq.StartMonitor()
	book.StartSweeper()
	engine.Start()

	workers.Worker_HTTP()

	engine.Stop()
	book.Stop()
	liq.Stop()
	ledger.Stop()
	oracle.Stop()
	crossChain.Stop()
	log.Print("Resolver shutdown complete")
}
