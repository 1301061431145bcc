package handlers

import (
	"goswapresolver/liquidity"
	"goswapresolver/types"
)

type APIResponse struct {
	Success   bool                   `json:"success"`
	Status    string                 `json:"status,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

type APIOrderResponse struct {
	Success   bool         `json:"success"`
	Order     *types.Order `json:"order"`
	Timestamp int64        `json:"timestamp"`
}

type APIOrderListResponse struct {
	Success   bool          `json:"success"`
	Orders    []types.Order `json:"orders"`
	Count     int           `json:"count"`
	Timestamp int64         `json:"timestamp"`
}

type APIQuoteResponse struct {
	Success         bool                      `json:"success"`
	MakerAsset      string                    `json:"makerAsset"`
	TakerAsset      string                    `json:"takerAsset"`
	MakingAmount    string                    `json:"makingAmount"`
	TakingAmount    string                    `json:"takingAmount"`
	StartPrice      string                    `json:"startPrice"`
	ReservePrice    string                    `json:"reservePrice"`
	AuctionDuration int64                     `json:"auctionDuration"` // seconds
	Liquidity       *liquidity.LiquidityCheck `json:"liquidity,omitempty"`
	Timestamp       int64                     `json:"timestamp"`
}

type APIAuctionResponse struct {
	Success      bool        `json:"success"`
	OrderHash    string      `json:"orderHash"`
	Status       string      `json:"status"`
	CurrentPrice string      `json:"currentPrice"`
	ReservePrice string      `json:"reservePrice"`
	StartTime    int64       `json:"startTime"`
	EndTime      int64       `json:"endTime"`
	Bids         []types.Bid `json:"bids"`
	Timestamp    int64       `json:"timestamp"`
}

type APIStatsResponse struct {
	Success   bool                             `json:"success"`
	Orders    map[string]int                   `json:"orders"`
	Liquidity map[string]liquidity.AssetHealth `json:"liquidity"`
	HTLCPairs int                              `json:"htlcPairs"`
	Timestamp int64                            `json:"timestamp"`
}

type APIPairsResponse struct {
	Success   bool                `json:"success"`
	Pairs     map[string]string   `json:"pairs"`
	Assets    []types.AssetConfig `json:"assets"`
	Timestamp int64               `json:"timestamp"`
}
