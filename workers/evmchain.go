package workers

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/EVMRPC"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/config"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/convert"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/redis"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
)

// EVMChain adapts the EVM bridge contract to the pipeline interfaces.
// It is the scan/verify side of evm->aptos and the release side of
// aptos->evm.
type EVMChain struct{}

func NewEVMChain() *EVMChain {
	return &EVMChain{}
}

func (c *EVMChain) Name() string {
	return config.EVMChains[config.Config.EVM.ChainID].Name
}

func (c *EVMChain) ChainKey() types.ChainType {
	return types.CHAINKEY_EVM
}

func (c *EVMChain) contract() common.Address {
	return common.HexToAddress(config.Config.EVM.BridgeContract)
}

func (c *EVMChain) Checkpoint() string {
	block, err := redis.GetEVMScannedBlock(config.Config.EVM.ChainID)
	if err != nil {
		return "unknown"
	}
	return "block " + strconv.Itoa(block)
}

// symbolByEVMToken maps an ERC-20 address back to its configured
// symbol.
func symbolByEVMToken(addr common.Address) (string, bool) {
	for symbol, tc := range config.Config.Tokens {
		if common.HexToAddress(tc.EVMAddress) == addr {
			return symbol, true
		}
	}
	return "", false
}

func evmTokenBySymbol(symbol string) (common.Address, bool) {
	tc, ok := config.Config.Tokens[symbol]
	if !ok {
		return common.Address{}, false
	}
	return common.HexToAddress(tc.EVMAddress), true
}

// evmLogReader is the slice of chain and checkpoint access the windowed
// scan needs. Narrow so the window arithmetic can be exercised without
// an RPC endpoint.
type evmLogReader interface {
	LatestBlock(ctx context.Context) (uint64, error)
	ReadWindow(ctx context.Context, from, to int64) ([]types.BridgeRequest, error)
	ScannedBlock() (int, error)
	SetScannedBlock(block int) error
}

// scanEVMWindows walks [checkpoint-safetyWindow+1, latest-minConfirmations]
// in windowSize-block windows. The checkpoint advances per successfully
// read window; events found before an error are still returned, so a
// query failure leaves the remainder for the next cycle without losing
// anything. The safety window re-scans recent blocks every cycle;
// duplicates fall out at the tracker.
func scanEVMWindows(ctx context.Context, r evmLogReader, minConfirmations, safetyWindow, windowSize int64) ([]types.BridgeRequest, error) {
	scanned, err := r.ScannedBlock()
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}

	latest, err := r.LatestBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_blockNumber: %w", err)
	}

	head := int64(latest) - minConfirmations
	if head < 0 {
		return nil, nil
	}

	var from int64
	if scanned == -1 {
		from = head - safetyWindow
	} else {
		from = int64(scanned) - safetyWindow + 1
	}
	if from < 0 {
		from = 0
	}

	var out []types.BridgeRequest
	for ; from <= head; from += windowSize {
		to := from + windowSize - 1
		if to > head {
			to = head
		}

		events, err := r.ReadWindow(ctx, from, to)
		if err != nil {
			// checkpoint stays at the last good window
			return out, fmt.Errorf("scanning blocks %d-%d: %w", from, to, err)
		}
		out = append(out, events...)

		if err := r.SetScannedBlock(int(to)); err != nil {
			return out, fmt.Errorf("persisting checkpoint: %w", err)
		}
	}
	return out, nil
}

// chainLogReader backs the windowed scan with the real RPC and redis
// checkpoint.
type chainLogReader struct {
	chainId  int
	contract common.Address
}

func (r *chainLogReader) LatestBlock(ctx context.Context) (uint64, error) {
	return EVMRPC.WithClient(r.chainId, func(client *ethclient.Client) (uint64, error) {
		return client.BlockNumber(ctx)
	})
}

func (r *chainLogReader) ReadWindow(ctx context.Context, from, to int64) ([]types.BridgeRequest, error) {
	events, err := EVMRPC.ScanBridgeRequests(ctx, r.chainId, r.contract, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]types.BridgeRequest, 0, len(events))
	for _, ev := range events {
		symbol, ok := symbolByEVMToken(ev.Token)
		if !ok {
			log.Printf("Skipping request %s with unsupported token %s", hexutil.Encode(ev.RequestID[:]), ev.Token.Hex())
			continue
		}
		out = append(out, types.BridgeRequest{
			RequestID:    hexutil.Encode(ev.RequestID[:]),
			SourceChain:  types.CHAINKEY_EVM,
			DestChain:    types.CHAINKEY_APTOS,
			Initiator:    ev.User.Hex(),
			DestAddress:  hexutil.Encode(ev.DestinationAddress[:]),
			Amount:       ev.Amount.String(),
			Token:        symbol,
			TsCreated:    ev.Timestamp.Int64(),
			SourceTxHash: ev.TxHash,
		})
	}
	return out, nil
}

func (r *chainLogReader) ScannedBlock() (int, error) {
	return redis.GetEVMScannedBlock(r.chainId)
}

func (r *chainLogReader) SetScannedBlock(block int) error {
	return redis.SetEVMScannedBlock(r.chainId, block)
}

func (c *EVMChain) ScanRequests(ctx context.Context) ([]types.BridgeRequest, error) {
	chainId := config.Config.EVM.ChainID
	chainCfg := config.EVMChains[chainId]
	reader := &chainLogReader{chainId: chainId, contract: c.contract()}
	return scanEVMWindows(ctx, reader,
		int64(chainCfg.MinConfirmations), int64(chainCfg.SafetyWindow), config.EVM_SCAN_WINDOW)
}

func parseRequestID(requestID string) ([32]byte, error) {
	var id [32]byte
	b, err := hexutil.Decode(requestID)
	if err != nil || len(b) != 32 {
		return id, fmt.Errorf("malformed request id %q", requestID)
	}
	copy(id[:], b)
	return id, nil
}

func (c *EVMChain) GetRequest(ctx context.Context, requestID string) (*types.EscrowRecord, error) {
	id, err := parseRequestID(requestID)
	if err != nil {
		return nil, err
	}

	rec, err := EVMRPC.GetRequest(ctx, config.Config.EVM.ChainID, c.contract(), id)
	if err != nil {
		return nil, err
	}

	symbol, _ := symbolByEVMToken(rec.Token)
	return &types.EscrowRecord{
		Exists:    rec.Exists,
		Amount:    rec.Amount,
		Token:     symbol,
		Recipient: hexutil.Encode(rec.Recipient[:]),
		Processed: rec.Processed,
	}, nil
}

// ValidateAddress accepts a native 20-byte address or the zero-padded
// 32-byte form carried by Move-side events.
func (c *EVMChain) ValidateAddress(address string) error {
	if _, err := c.recipient(address); err != nil {
		return err
	}
	return nil
}

func (c *EVMChain) recipient(address string) (common.Address, error) {
	if convert.ValidEVMAddress(address) {
		return common.HexToAddress(address), nil
	}
	evm, err := convert.MoveToEVM(address)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(evm), nil
}

func (c *EVMChain) GetReserves(ctx context.Context, token string) (*types.Reserves, error) {
	addr, ok := evmTokenBySymbol(token)
	if !ok {
		return nil, fmt.Errorf("unsupported token %q", token)
	}

	state, err := EVMRPC.GetReserves(ctx, config.Config.EVM.ChainID, c.contract(), addr)
	if err != nil {
		return nil, err
	}
	return &types.Reserves{
		Balance:       state.Balance,
		TotalIn:       state.TotalBridgedIn,
		TotalOut:      state.TotalBridgedOut,
		FeesCollected: state.FeesCollected,
	}, nil
}

// Release submits the payout and blocks until the receipt shows up or
// the polling budget runs out.
func (c *EVMChain) Release(ctx context.Context, req *types.BridgeRequest) (string, error) {
	id, err := parseRequestID(req.RequestID)
	if err != nil {
		return "", err
	}
	recipient, err := c.recipient(req.DestAddress)
	if err != nil {
		return "", err
	}
	tokenAddr, ok := evmTokenBySymbol(req.Token)
	if !ok {
		return "", fmt.Errorf("unsupported token %q", req.Token)
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		return "", fmt.Errorf("malformed amount %q", req.Amount)
	}

	chainId := config.Config.EVM.ChainID

	// dry run first: a deterministic revert must be classified, not
	// resubmitted every cycle
	if err := EVMRPC.CallRelease(ctx, chainId, c.contract(), id, recipient, amount, tokenAddr); err != nil {
		reason := strings.ToLower(err.Error())
		if strings.Contains(reason, "already processed") {
			return "", ErrAlreadyProcessed
		}
		if strings.Contains(reason, "execution reverted") || strings.Contains(reason, "revert") {
			return "", fmt.Errorf("release dry run: %s: %w", err.Error(), ErrReleaseReverted)
		}
		return "", err
	}

	tx, err := EVMRPC.Release(chainId, c.contract(), id, recipient, amount, tokenAddr)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already processed") {
			return "", ErrAlreadyProcessed
		}
		return "", err
	}

	receipt, err := EVMRPC.WaitMined(ctx, chainId, tx.Hash(),
		config.Config.ConfirmRounds, time.Duration(config.Config.ConfirmInterval)*time.Second)
	if err != nil {
		// unknown outcome: the next attempt leans on the contract's
		// own replay rejection
		return "", fmt.Errorf("waiting for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status == 0 {
		return "", fmt.Errorf("release transaction %s reverted on-chain: %w", tx.Hash().Hex(), ErrReleaseReverted)
	}
	return tx.Hash().Hex(), nil
}
