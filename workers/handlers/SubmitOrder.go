package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"goswapresolver/orderbook"
	"goswapresolver/types"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/common"
)

type SubmitOrderRequest struct {
	Maker            string `json:"maker"`
	Receiver         string `json:"receiver"`
	MakerAsset       string `json:"makerAsset"`
	TakerAsset       string `json:"takerAsset"`
	MakingAmount     string `json:"makingAmount"`
	TakingAmount     string `json:"takingAmount"`
	SourceChain      string `json:"sourceChain"`
	DestinationChain string `json:"destinationChain"`
	Timelock         int64  `json:"timelock"`
}

func SubmitOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading request body: %s", err.Error())
		responseErrorMessage(w, "Error reading request body", http.StatusBadRequest)
		return
	}

	var req SubmitOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Printf("Error unmarshalling request body: %s", err.Error())
		responseErrorMessage(w, "Cannot unmarshal input JSON", http.StatusBadRequest)
		return
	}

	source := types.Network(req.SourceChain)
	destination := types.Network(req.DestinationChain)
	if !source.Valid() || !destination.Valid() {
		responseErrorMessage(w, "sourceChain and destinationChain must be 'ethereum' or 'stellar'", http.StatusBadRequest)
		return
	}
	if source == destination {
		responseErrorMessage(w, "sourceChain and destinationChain must differ", http.StatusBadRequest)
		return
	}

	if source == types.NetworkEthereum {
		if err := ethav.Validate(common.HexToAddress(req.Maker).Hex()); err != nil {
			log.Printf("Error validating Eth address '%s': %s", req.Maker, err.Error())
			responseErrorMessage(w, "No ethereum address or invalid address provided for maker", http.StatusBadRequest)
			return
		}
	}
	if destination == types.NetworkEthereum {
		if err := ethav.Validate(common.HexToAddress(req.Receiver).Hex()); err != nil {
			log.Printf("Error validating Eth address '%s': %s", req.Receiver, err.Error())
			responseErrorMessage(w, "No ethereum address or invalid address provided for receiver", http.StatusBadRequest)
			return
		}
	}
	if req.Maker == "" || req.Receiver == "" {
		responseErrorMessage(w, "maker and receiver are required", http.StatusBadRequest)
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

	if req.Timelock <= time.Now().Unix() {
		responseErrorMessage(w, "timelock must be in the future", http.StatusBadRequest)
		return
	}

	order, err := book.CreateOrder(orderbook.CreateParams{
		Maker:            req.Maker,
		Receiver:         req.Receiver,
		MakerAsset:       req.MakerAsset,
		TakerAsset:       req.TakerAsset,
		MakingAmount:     req.MakingAmount,
		TakingAmount:     req.TakingAmount,
		SourceChain:      source,
		DestinationChain: destination,
		Timelock:         req.Timelock,
	})
	if err != nil {
		responseError(w, err, http.StatusBadRequest)
		return
	}

	log.Printf("Order %s submitted: %s %s -> %s %s", order.Hash, req.MakingAmount, req.MakerAsset, req.TakingAmount, req.TakerAsset)
	responseJSON(w, &APIOrderResponse{
		Success:   true,
		Order:     order,
		Timestamp: time.Now().Unix(),
	}, http.StatusOK)
}
