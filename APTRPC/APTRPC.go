package APTRPC

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/config"

	"github.com/ybbus/jsonrpc"
)

// Thin client for the Move-side node RPC. The node has no cursor-based
// event API for arbitrary accounts, so scanning lists recent bridge
// account transactions and filters them client-side.
type RPCClient struct {
	Client jsonrpc.RPCClient
}

var client *RPCClient

func GetClient() *RPCClient {
	if client == nil {
		client = &RPCClient{
			Client: jsonrpc.NewClient(config.Config.Aptos.NodeURL),
		}
	}
	return client
}

// LedgerInfo is the node's chain-head summary.
type LedgerInfo struct {
	ChainID       int    `json:"chain_id"`
	LedgerVersion string `json:"ledger_version"`
}

// AccountTransaction is one committed transaction of the bridge
// account, with its emitted events.
type AccountTransaction struct {
	Version  string    `json:"version"`
	Hash     string    `json:"hash"`
	Sender   string    `json:"sender"`
	Success  bool      `json:"success"`
	Function string    `json:"function"`
	Events   []TxEvent `json:"events"`
}

type TxEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// BridgeRequestEvent is the creation event payload emitted by
// initiate_bridge.
type BridgeRequestEvent struct {
	RequestID          string `json:"request_id"`
	User               string `json:"user"`
	DestinationChain   string `json:"destination_chain"`
	DestinationAddress string `json:"destination_address"`
	Amount             string `json:"amount"` // net, smallest units
	Token              string `json:"token"`  // Move coin type tag
	Timestamp          string `json:"timestamp"`
}

// BridgeRequestView is the canonical stored record, read back by the
// lock verifier.
type BridgeRequestView struct {
	Exists    bool   `json:"exists"`
	Amount    string `json:"amount"`
	Token     string `json:"token"`
	Recipient string `json:"recipient"`
	Processed bool   `json:"processed"`
}

// ReserveView mirrors the reserve counters of the bridge module.
type ReserveView struct {
	Balance       string `json:"balance"`
	TotalIn       string `json:"total_bridged_in"`
	TotalOut      string `json:"total_bridged_out"`
	FeesCollected string `json:"fees_collected"`
}

// PendingTransaction is the submission acknowledgement.
type PendingTransaction struct {
	Hash string `json:"hash"`
}

// TransactionResult is the committed-transaction lookup result.
type TransactionResult struct {
	Hash     string `json:"hash"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vm_status"`
	Pending  bool   `json:"pending"`
}

var ErrUnknownOutcome = errors.New("transaction outcome unknown after polling budget")

func (c *RPCClient) LedgerVersion() (int64, error) {
	var info LedgerInfo
	if err := c.Client.CallFor(&info, "get_ledger_info"); err != nil {
		return -1, err
	}
	return strconv.ParseInt(info.LedgerVersion, 10, 64)
}

// AccountTransactions lists the most recent limit transactions of the
// account, ordered old to new.
func (c *RPCClient) AccountTransactions(account string, limit int) ([]AccountTransaction, error) {
	var txs []AccountTransaction
	if err := c.Client.CallFor(&txs, "get_account_transactions", account, limit); err != nil {
		return nil, err
	}
	return txs, nil
}

// GetBridgeRequest reads the stored request record through a view call
// on the bridge module.
func (c *RPCClient) GetBridgeRequest(requestID string) (*BridgeRequestView, error) {
	fn := config.Config.Aptos.BridgeModule + "::get_request"
	var view BridgeRequestView
	if err := c.Client.CallFor(&view, "view_function", fn, []string{requestID}); err != nil {
		return nil, err
	}
	return &view, nil
}

// GetReserves reads the per-asset reserve counters.
func (c *RPCClient) GetReserves(tokenType string) (*ReserveView, error) {
	fn := config.Config.Aptos.BridgeModule + "::get_reserves"
	var view ReserveView
	if err := c.Client.CallFor(&view, "view_function", fn, []string{tokenType}); err != nil {
		return nil, err
	}
	return &view, nil
}

// SubmitRelease calls the relayer-only release entry function. The
// node signs with the relayer account configured on it.
func (c *RPCClient) SubmitRelease(requestID, recipient, amount, tokenType string) (string, error) {
	fn := config.Config.Aptos.BridgeModule + "::release_tokens"
	var pending PendingTransaction
	err := c.Client.CallFor(&pending, "submit_entry_function",
		config.Config.Aptos.PublicAddress, fn, []string{requestID, recipient, amount, tokenType})
	if err != nil {
		return "", err
	}
	if pending.Hash == "" {
		return "", errors.New("node returned empty transaction hash")
	}
	return pending.Hash, nil
}

// WaitTransaction polls for the committed transaction a bounded number
// of rounds. Exhausting the budget is an unknown outcome, not a
// confirmed failure.
func (c *RPCClient) WaitTransaction(hash string, rounds int, interval time.Duration) (*TransactionResult, error) {
	for i := 0; i < rounds; i++ {
		var res TransactionResult
		err := c.Client.CallFor(&res, "get_transaction_by_hash", hash)
		if err == nil && !res.Pending {
			if !res.Success {
				return &res, fmt.Errorf("transaction %s aborted: %s", hash, res.VMStatus)
			}
			return &res, nil
		}
		time.Sleep(interval)
	}
	return nil, ErrUnknownOutcome
}
