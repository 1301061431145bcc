package config

import (
	"time"

	"goswapresolver/types"
)

type Configuration struct {
	// Server config
	Server struct {
		UseSSL    bool   `yaml:"ssl"`
		Port      int    `yaml:"port"`
		RedisPort int    `yaml:"redis_port"`
		RedisHost string `yaml:"redis_host"`
	} `yaml:"server"`
	// Ethereum-related config
	Ethereum struct {
		ChainID       int      `yaml:"chain_id"`
		RPCList       []string `yaml:"rpc_list"`
		HTLCContract  string   `yaml:"htlc_contract"`
		PublicAddress string   `yaml:"address"`
		// important private stuff
		PrivateKey string `yaml:"private_key"`
	} `yaml:"ethereum"`
	// Stellar-related config
	Stellar struct {
		RPCURL        string `yaml:"rpc_url"`
		HTLCContract  string `yaml:"htlc_contract"`
		PublicAddress string `yaml:"address"`
		// important private stuff
		SecretSeed string `yaml:"secret_seed"`
	} `yaml:"stellar"`
	Resolver struct {
		Name string `yaml:"name"`
		// address the resolver bids and locks funds under
		Address string `yaml:"address"`
	} `yaml:"resolver"`
	Assets []types.AssetConfig `yaml:"assets"`
}

var Config Configuration

// worker/tick intervals
const (
	AuctionTickInterval     = 5 * time.Second
	AuctionScanInterval     = 10 * time.Second
	ReservationSweep        = 60 * time.Second
	OrderSweep              = 600 * time.Second
	BalanceMonitorInterval  = 30 * time.Second
	BalanceCacheTTL         = 30 * time.Second
	ReservationExpiry       = 300 * time.Second
	AuctionDefaultDuration  = 120 * time.Second
	AuctionActivationDelay  = 2 * time.Second
	TerminalOrderRetention  = 24 * time.Hour
	EthereumEventPollPeriod = 10 * time.Second
	StellarEventPollPeriod  = 10 * time.Second
)

// maximum number of EVM RPC retries
const EVM_RETRIES = 3

// Dutch auction pricing bounds: price decays linearly from 105% to 95%
// of the nominal rate across the auction window.
const (
	AuctionStartMultiplier = "1.05"
	AuctionEndMultiplier   = "0.95"
	ReservePriceRatio      = "0.95"
)

// safety deposit posted with each HTLC leg, percent of locked amount
const SafetyDepositPercent = 10

// trading pairs the resolver participates in, makerAsset -> takerAsset
var SupportedPairs = map[string]string{
	"ETH":  "XLM",
	"XLM":  "ETH",
	"USDC": "XLM",
}

// default asset set, used when the config file carries no assets section
var DefaultAssets = []types.AssetConfig{
	{
		Address:          "0x0000000000000000000000000000000000000000",
		Symbol:           "ETH",
		Decimals:         18,
		Network:          types.NetworkEthereum,
		IsNative:         true,
		MinimumThreshold: "0.1",
		WarningThreshold: "0.5",
	},
	{
		Address:          "native",
		Symbol:           "XLM",
		Decimals:         7,
		Network:          types.NetworkStellar,
		IsNative:         true,
		MinimumThreshold: "10",
		WarningThreshold: "50",
	},
	{
		Address:          "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Symbol:           "USDC",
		Decimals:         6,
		Network:          types.NetworkEthereum,
		IsNative:         false,
		MinimumThreshold: "100",
		WarningThreshold: "500",
	},
}
