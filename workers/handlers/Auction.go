package handlers

import (
	"net/http"
	"time"

	"goswapresolver/auction"
	"goswapresolver/types"

	"github.com/go-chi/chi"
)

// GetAuction reports the live Dutch price and recorded bids for one order.
func GetAuction(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	order, ok := book.GetOrder(hash)
	if !ok {
		responseErrorMessage(w, "Order not found", http.StatusNotFound)
		return
	}
	if order.Status == types.OrderStatusPending {
		responseErrorMessage(w, "Auction has not started yet", http.StatusConflict)
		return
	}

	now := time.Now()
	responseJSON(w, &APIAuctionResponse{
		Success:      true,
		OrderHash:    order.Hash,
		Status:       string(order.Status),
		CurrentPrice: auction.CurrentPrice(order, now).Floor().String(),
		ReservePrice: order.ReservePrice,
		StartTime:    order.AuctionStartTime.Unix(),
		EndTime:      order.AuctionEndTime.Unix(),
		Bids:         engine.Bids(hash),
		Timestamp:    now.Unix(),
	}, http.StatusOK)
}
