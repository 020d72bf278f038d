package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/APTRPC"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/config"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/convert"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/redis"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/types"
)

// AptosChain adapts the Move-side bridge module to the pipeline
// interfaces. The node has no cursor-based event feed, so scanning
// re-reads a bounded lookback of the bridge account's transactions
// every cycle and lets the tracker drop what it has already seen.
type AptosChain struct{}

func NewAptosChain() *AptosChain {
	return &AptosChain{}
}

func (c *AptosChain) Name() string {
	return "Aptos"
}

func (c *AptosChain) ChainKey() types.ChainType {
	return types.CHAINKEY_APTOS
}

func (c *AptosChain) Checkpoint() string {
	version, err := redis.GetAptosLedgerVersion()
	if err != nil {
		return "unknown"
	}
	return "version " + strconv.FormatInt(version, 10)
}

func symbolByAptosType(tokenType string) (string, bool) {
	for symbol, tc := range config.Config.Tokens {
		if tc.AptosType == tokenType {
			return symbol, true
		}
	}
	return "", false
}

func aptosTypeBySymbol(symbol string) (string, bool) {
	tc, ok := config.Config.Tokens[symbol]
	if !ok {
		return "", false
	}
	return tc.AptosType, true
}

// ScanRequests lists the last N transactions of the bridge account and
// keeps the successful initiate_bridge calls, old to new. The stored
// ledger version is a high-water mark for status reporting; dedup is
// the tracker's job.
func (c *AptosChain) ScanRequests(ctx context.Context) ([]types.BridgeRequest, error) {
	txs, err := APTRPC.GetClient().AccountTransactions(config.Config.Aptos.BridgeAccount, config.Config.Aptos.TxLookback)
	if err != nil {
		return nil, fmt.Errorf("listing bridge account transactions: %w", err)
	}

	var out []types.BridgeRequest
	var maxVersion int64 = -1
	for _, tx := range txs {
		if !tx.Success || !strings.HasSuffix(tx.Function, config.APTOS_INITIATE_FN) {
			continue
		}
		if v, err := strconv.ParseInt(tx.Version, 10, 64); err == nil && v > maxVersion {
			maxVersion = v
		}

		for _, ev := range tx.Events {
			if !strings.HasSuffix(ev.Type, "::BridgeRequestCreated") {
				continue
			}
			var payload APTRPC.BridgeRequestEvent
			if err := json.Unmarshal(ev.Data, &payload); err != nil {
				log.Printf("Error decoding bridge event in tx %s: %s", tx.Hash, err.Error())
				continue
			}

			symbol, ok := symbolByAptosType(payload.Token)
			if !ok {
				log.Printf("Skipping request %s with unsupported token %s", payload.RequestID, payload.Token)
				continue
			}
			ts, _ := strconv.ParseInt(payload.Timestamp, 10, 64)
			out = append(out, types.BridgeRequest{
				RequestID:    payload.RequestID,
				SourceChain:  types.CHAINKEY_APTOS,
				DestChain:    types.CHAINKEY_EVM,
				Initiator:    payload.User,
				DestAddress:  payload.DestinationAddress,
				Amount:       payload.Amount,
				Token:        symbol,
				TsCreated:    ts,
				SourceTxHash: tx.Hash,
			})
		}
	}

	if maxVersion >= 0 {
		if err := redis.SetAptosLedgerVersion(maxVersion); err != nil {
			log.Printf("Error persisting Aptos ledger version: %s", err.Error())
		}
	}
	return out, nil
}

func (c *AptosChain) GetRequest(ctx context.Context, requestID string) (*types.EscrowRecord, error) {
	view, err := APTRPC.GetClient().GetBridgeRequest(requestID)
	if err != nil {
		return nil, err
	}
	if !view.Exists {
		return &types.EscrowRecord{Exists: false}, nil
	}

	amount, ok := new(big.Int).SetString(view.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("malformed on-chain amount %q", view.Amount)
	}
	symbol, _ := symbolByAptosType(view.Token)
	return &types.EscrowRecord{
		Exists:    true,
		Amount:    amount,
		Token:     symbol,
		Recipient: view.Recipient,
		Processed: view.Processed,
	}, nil
}

// ValidateAddress accepts a native 32-byte Move address or a 20-byte
// EVM-style identifier, which gets zero-extended.
func (c *AptosChain) ValidateAddress(address string) error {
	_, err := c.recipient(address)
	return err
}

func (c *AptosChain) recipient(address string) (string, error) {
	if convert.ValidMoveAddress(address) {
		return strings.ToLower(address), nil
	}
	return convert.EVMToMove(address)
}

func (c *AptosChain) GetReserves(ctx context.Context, token string) (*types.Reserves, error) {
	tokenType, ok := aptosTypeBySymbol(token)
	if !ok {
		return nil, fmt.Errorf("unsupported token %q", token)
	}

	view, err := APTRPC.GetClient().GetReserves(tokenType)
	if err != nil {
		return nil, err
	}

	parse := func(field, v string) (*big.Int, error) {
		n, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, fmt.Errorf("malformed reserve field %s=%q", field, v)
		}
		return n, nil
	}
	balance, err := parse("balance", view.Balance)
	if err != nil {
		return nil, err
	}
	totalIn, err := parse("total_bridged_in", view.TotalIn)
	if err != nil {
		return nil, err
	}
	totalOut, err := parse("total_bridged_out", view.TotalOut)
	if err != nil {
		return nil, err
	}
	fees, err := parse("fees_collected", view.FeesCollected)
	if err != nil {
		return nil, err
	}
	return &types.Reserves{Balance: balance, TotalIn: totalIn, TotalOut: totalOut, FeesCollected: fees}, nil
}

// Release calls the relayer-only release entry function and waits for
// the transaction to commit.
func (c *AptosChain) Release(ctx context.Context, req *types.BridgeRequest) (string, error) {
	recipient, err := c.recipient(req.DestAddress)
	if err != nil {
		return "", err
	}
	tokenType, ok := aptosTypeBySymbol(req.Token)
	if !ok {
		return "", fmt.Errorf("unsupported token %q", req.Token)
	}

	hash, err := APTRPC.GetClient().SubmitRelease(req.RequestID, recipient, req.Amount, tokenType)
	if err != nil {
		return "", err
	}

	res, err := APTRPC.GetClient().WaitTransaction(hash,
		config.Config.ConfirmRounds, time.Duration(config.Config.ConfirmInterval)*time.Second)
	if err != nil {
		if res != nil && strings.Contains(res.VMStatus, "EALREADY_PROCESSED") {
			return "", ErrAlreadyProcessed
		}
		return "", fmt.Errorf("waiting for %s: %w", hash, err)
	}
	return hash, nil
}
