package types

import "time"

// network keys for the two ledgers the resolver operates on
type Network string

const (
	NetworkEthereum Network = "ethereum"
	NetworkStellar  Network = "stellar"
)

func (n Network) Valid() bool {
	return n == NetworkEthereum || n == NetworkStellar
}

// AssetConfig describes one tradable asset. Immutable after registration
// except for the two thresholds.
type AssetConfig struct {
	Address          string  `yaml:"address"` // contract address or asset id
	Symbol           string  `yaml:"symbol"`
	Decimals         int     `yaml:"decimals"`
	Network          Network `yaml:"network"`
	IsNative         bool    `yaml:"native"`
	MinimumThreshold string  `yaml:"minimum_threshold"` // decimal string
	WarningThreshold string  `yaml:"warning_threshold"` // decimal string
}

type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "pending"
	OrderStatusAuctionActive OrderStatus = "auction_active"
	OrderStatusHTLCCreated   OrderStatus = "htlc_created"
	OrderStatusFilled        OrderStatus = "filled"
	OrderStatusExpired       OrderStatus = "expired"
	OrderStatusCancelled     OrderStatus = "cancelled"
)

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusFilled || s == OrderStatusExpired || s == OrderStatusCancelled
}

// Order is a swap intent moving through the auction pipeline.
// Owned by the order book, mutated only through UpdateOrderStatus.
type Order struct {
	Hash             string            `json:"orderHash"`
	Maker            string            `json:"maker"`
	Receiver         string            `json:"receiver"`
	MakerAsset       string            `json:"makerAsset"`
	TakerAsset       string            `json:"takerAsset"`
	MakingAmount     string            `json:"makingAmount"` // raw units, big-int string
	TakingAmount     string            `json:"takingAmount"` // raw units, big-int string
	SourceChain      Network           `json:"srcChain"`
	DestinationChain Network           `json:"dstChain"`
	Timelock         int64             `json:"timelock"` // unix seconds
	Status           OrderStatus       `json:"status"`
	CreatedAt        time.Time         `json:"createdAt"`
	AuctionStartTime time.Time         `json:"auctionStartTime"`
	AuctionEndTime   time.Time         `json:"auctionEndTime"`
	ReservePrice     string            `json:"reservePrice"` // raw taker units, big-int string
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Bid records one resolver's offer for an active auction.
type Bid struct {
	Bidder    string    `json:"bidder"`
	OrderHash string    `json:"orderHash"`
	Price     string    `json:"price"` // raw taker units, big-int string
	PlacedAt  time.Time `json:"placedAt"`
}

// AssetReservation is a time-bounded hold against the resolver's own balance.
// At most one live reservation exists per (order, asset).
type AssetReservation struct {
	ID        string
	OrderHash string
	Asset     string
	Amount    string // raw units, big-int string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type PairStatus string

const (
	PairStatusBothCreated    PairStatus = "both_created"
	PairStatusSecretRevealed PairStatus = "secret_revealed"
	PairStatusCompleted      PairStatus = "completed"
	PairStatusRefunded       PairStatus = "refunded"
)

// HTLCPair records the two legs of a swap sharing one secret.
// The secret is the sole capability needed to claim either leg.
type HTLCPair struct {
	OrderHash          string     `json:"orderHash"`
	EthereumContractID string     `json:"ethereumContractId"`
	StellarContractID  string     `json:"stellarContractId"`
	Secret             string     `json:"-"`                // hex, never serialized
	EthereumHashlock   string     `json:"ethereumHashlock"` // keccak256(secret), hex
	StellarHashlock    string     `json:"stellarHashlock"`  // sha256(secret), hex
	Timelock           int64      `json:"timelock"`
	Status             PairStatus `json:"status"`
	CreatedAt          time.Time  `json:"createdAt"`
}
