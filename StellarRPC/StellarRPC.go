package StellarRPC

import (
	"fmt"
	"log"

	"goswapresolver/config"

	"github.com/ybbus/jsonrpc"
)

// thin JSON-RPC wrapper around the Soroban HTLC contract endpoint
type RPCClient struct {
	Client jsonrpc.RPCClient
}

var client *RPCClient

func GetClient() *RPCClient {
	if client == nil {
		client = &RPCClient{
			Client: jsonrpc.NewClient(config.Config.Stellar.RPCURL),
		}
	}
	return client
}

// NewClient builds a client against an explicit endpoint (tests, tools).
func NewClient(url string) *RPCClient {
	return &RPCClient{Client: jsonrpc.NewClient(url)}
}

// HTLCRecord mirrors the contract's stored state.
type HTLCRecord struct {
	ContractID             string `json:"contractId"`
	Sender                 string `json:"sender"`
	Receiver               string `json:"receiver"`
	Token                  string `json:"token"`
	Amount                 string `json:"amount"`
	RemainingAmount        string `json:"remainingAmount"`
	FilledAmount           string `json:"filledAmount"`
	Hashlock               string `json:"hashlock"` // hex
	Timelock               int64  `json:"timelock"`
	SafetyDeposit          string `json:"safetyDeposit"`
	RemainingSafetyDeposit string `json:"remainingSafetyDeposit"`
	Status                 string `json:"status"`
	AllowPartialFills      bool   `json:"allowPartialFills"`
	MinFillAmount          string `json:"minFillAmount"`
}

// WithdrawEventRecord is one HTLCWithdraw contract event.
type WithdrawEventRecord struct {
	ContractID string `json:"contractId"`
	Preimage   string `json:"preimage"` // hex
	Amount     string `json:"withdrawAmount"`
	IsPartial  bool   `json:"isPartial"`
	Ledger     int64  `json:"ledger"`
}

type CreateHTLCParams struct {
	Sender            string `json:"sender"`
	Receiver          string `json:"receiver"`
	Token             string `json:"token"`
	Amount            string `json:"amount"`
	Hashlock          string `json:"hashlock"` // hex
	Timelock          int64  `json:"timelock"`
	SafetyDeposit     string `json:"safetyDeposit"`
	AllowPartialFills bool   `json:"allowPartialFills"`
	MinFillAmount     string `json:"minFillAmount"`
}

func (c *RPCClient) CreateHTLC(p CreateHTLCParams) (string, error) {
	resp, err := c.Client.Call("createHTLC", p)
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("createHTLC: %s", resp.Error.Message)
	}
	var out struct {
		ContractID string `json:"contractId"`
	}
	if err := resp.GetObject(&out); err != nil {
		return "", err
	}
	return out.ContractID, nil
}

func (c *RPCClient) Withdraw(contractID, preimageHex, amount string) error {
	resp, err := c.Client.Call("withdraw", map[string]interface{}{
		"contractId": contractID,
		"preimage":   preimageHex,
		"amount":     amount,
	})
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("withdraw: %s", resp.Error.Message)
	}
	return nil
}

func (c *RPCClient) Refund(contractID string) error {
	resp, err := c.Client.Call("refund", map[string]interface{}{
		"contractId": contractID,
	})
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("refund: %s", resp.Error.Message)
	}
	return nil
}

func (c *RPCClient) GetHTLC(contractID string) (*HTLCRecord, error) {
	resp, err := c.Client.Call("getHTLC", map[string]interface{}{
		"contractId": contractID,
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getHTLC: %s", resp.Error.Message)
	}
	var rec HTLCRecord
	if err := resp.GetObject(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetWithdrawEvents returns HTLCWithdraw events for one contract since a
// ledger cursor, plus the new cursor.
func (c *RPCClient) GetWithdrawEvents(contractID string, sinceLedger int64) ([]WithdrawEventRecord, int64, error) {
	resp, err := c.Client.Call("getEvents", map[string]interface{}{
		"type":        "HTLCWithdraw",
		"contractId":  contractID,
		"startLedger": sinceLedger,
	})
	if err != nil {
		return nil, sinceLedger, err
	}
	if resp.Error != nil {
		return nil, sinceLedger, fmt.Errorf("getEvents: %s", resp.Error.Message)
	}
	var out struct {
		Events       []WithdrawEventRecord `json:"events"`
		LatestLedger int64                 `json:"latestLedger"`
	}
	if err := resp.GetObject(&out); err != nil {
		return nil, sinceLedger, err
	}
	return out.Events, out.LatestLedger, nil
}

// GetBalance reads the resolver account's balance for an asset, raw units.
func (c *RPCClient) GetBalance(account, asset string) (string, error) {
	resp, err := c.Client.Call("getBalance", map[string]interface{}{
		"account": account,
		"asset":   asset,
	})
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		log.Printf("error Stellar getBalance: %s", resp.Error.Message)
		return "", fmt.Errorf("getBalance: %s", resp.Error.Message)
	}
	var out struct {
		Balance string `json:"balance"`
	}
	if err := resp.GetObject(&out); err != nil {
		return "", err
	}
	return out.Balance, nil
}
