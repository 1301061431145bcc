package handlers

import (
	"net/http"
	"time"

	"goswapresolver/config"
)

// GetStats summarizes the resolver's state: order counts by status,
// per-asset liquidity health and the number of HTLC pairs in flight.
func GetStats(w http.ResponseWriter, r *http.Request) {
	counts := book.Counts()
	orders := make(map[string]int, len(counts))
	for status, n := range counts {
		orders[string(status)] = n
	}

	responseJSON(w, &APIStatsResponse{
		Success:   true,
		Orders:    orders,
		Liquidity: liq.Health(),
		HTLCPairs: len(crossChain.Pairs()),
		Timestamp: time.Now().Unix(),
	}, http.StatusOK)
}

// GetPairs lists the swap pairs the resolver participates in and the
// assets it is configured for.
func GetPairs(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, &APIPairsResponse{
		Success:   true,
		Pairs:     config.SupportedPairs,
		Assets:    assets.List(),
		Timestamp: time.Now().Unix(),
	}, http.StatusOK)
}
