package handlers

import (
	"log"
	"net/http"
	"time"

	"goswapresolver/types"

	"github.com/go-chi/chi"
)

// GetOrders lists live orders, optionally filtered by ?status=.
func GetOrders(w http.ResponseWriter, r *http.Request) {
	var orders []types.Order
	if status := r.URL.Query().Get("status"); status != "" {
		orders = book.ListOrders(types.OrderStatus(status))
	} else {
		orders = book.ListOrders("")
	}

	responseJSON(w, &APIOrderListResponse{
		Success:   true,
		Orders:    orders,
		Count:     len(orders),
		Timestamp: time.Now().Unix(),
	}, http.StatusOK)
}

// GetOrder looks an order up in the live book first, then in the Redis
// archive of evicted terminal orders.
func GetOrder(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	order, ok := book.GetOrder(hash)
	if !ok && archive != nil {
		archived, err := archive.GetArchivedOrder(hash)
		if err != nil {
			log.Printf("Error reading archived order %s: %s", hash, err.Error())
			responseErrorMessage(w, "Cannot read order archive", http.StatusInternalServerError)
			return
		}
		order, ok = archived, archived != nil
	}
	if !ok {
		responseErrorMessage(w, "Order not found", http.StatusNotFound)
		return
	}

	responseJSON(w, &APIOrderResponse{
		Success:   true,
		Order:     order,
		Timestamp: time.Now().Unix(),
	}, http.StatusOK)
}

// CancelOrder cancels an order that has not yet committed funds on-chain.
// Orders with live HTLCs are rejected; those settle through completion or
// timelock refund, which is where their reservation is released.
func CancelOrder(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	if err := book.CancelOrder(hash); err != nil {
		responseError(w, err, http.StatusBadRequest)
		return
	}
	liq.ReleaseLiquidity(hash)

	log.Printf("Order %s cancelled", hash)
	order, _ := book.GetOrder(hash)
	responseJSON(w, &APIOrderResponse{
		Success:   true,
		Order:     order,
		Timestamp: time.Now().Unix(),
	}, http.StatusOK)
}
