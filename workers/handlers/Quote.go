package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"goswapresolver/auction"
	"goswapresolver/config"
	"goswapresolver/types"

	"github.com/shopspring/decimal"
)

type QuoteRequest struct {
	MakerAsset   string `json:"makerAsset"`
	TakerAsset   string `json:"takerAsset"`
	MakingAmount string `json:"makingAmount"`
	TakingAmount string `json:"takingAmount"`
}

// Quote prices a prospective order on the descending curve without
// creating it: the opening price, the reserve floor and the resolver's
// current ability to fund the taker side.
func Quote(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading request body: %s", err.Error())
		responseErrorMessage(w, "Error reading request body", http.StatusBadRequest)
		return
	}

	var req QuoteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Printf("Error unmarshalling request body: %s", err.Error())
		responseErrorMessage(w, "Cannot unmarshal input JSON", http.StatusBadRequest)
		return
	}

	if _, err := assets.Get(req.MakerAsset); err != nil {
		responseError(w, err, http.StatusBadRequest)
		return
	}
	if _, err := assets.Get(req.TakerAsset); err != nil {
		responseError(w, err, http.StatusBadRequest)
		return
	}

	for _, amount := range []string{req.MakingAmount, req.TakingAmount} {
		parsed, err := decimal.NewFromString(amount)
		if err != nil || !parsed.IsPositive() || !parsed.IsInteger() {
			responseError(w, types.NewDomainError(types.ErrInvalidAmount,
				"amounts must be positive integers in base units", map[string]interface{}{
					"amount": amount,
				}), http.StatusBadRequest)
			return
		}
	}

	// synthetic auction window starting now, priced at both ends
	now := time.Now()
	probe := &types.Order{
		TakingAmount:     req.TakingAmount,
		AuctionStartTime: now,
		AuctionEndTime:   now.Add(config.AuctionDefaultDuration),
	}
	startPrice := auction.CurrentPrice(probe, now)
	reservePrice := auction.CurrentPrice(probe, probe.AuctionEndTime)

	resp := &APIQuoteResponse{
		Success:         true,
		MakerAsset:      req.MakerAsset,
		TakerAsset:      req.TakerAsset,
		MakingAmount:    req.MakingAmount,
		TakingAmount:    req.TakingAmount,
		StartPrice:      startPrice.Floor().String(),
		ReservePrice:    reservePrice.Floor().String(),
		AuctionDuration: int64(config.AuctionDefaultDuration.Seconds()),
		Timestamp:       now.Unix(),
	}

	check, err := liq.CanHandleOrder(req.TakerAsset, req.TakingAmount)
	if err != nil {
		log.Printf("Error checking liquidity for quote %s/%s: %s", req.MakerAsset, req.TakerAsset, err.Error())
	} else {
		resp.Liquidity = check
	}

	responseJSON(w, resp, http.StatusOK)
}
