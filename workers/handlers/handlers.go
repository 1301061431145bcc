package handlers

import (
	"goswapresolver/auction"
	"goswapresolver/htlc"
	"goswapresolver/liquidity"
	"goswapresolver/orderbook"
	"goswapresolver/redis"
	"goswapresolver/registry"
)

// package-level components, wired once by cmd/server before the HTTP
// worker starts
var (
	book       *orderbook.OrderBook
	engine     *auction.Engine
	liq        *liquidity.Coordinator
	crossChain *htlc.Coordinator
	assets     *registry.AssetRegistry
	archive    *redis.Store
)

func Setup(b *orderbook.OrderBook, e *auction.Engine, c *liquidity.Coordinator, cc *htlc.Coordinator, reg *registry.AssetRegistry, store *redis.Store) {
	book = b
	engine = e
	liq = c
	crossChain = cc
	assets = reg
	archive = store
}
