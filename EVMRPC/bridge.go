package EVMRPC

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/config"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Bridge contract surface used by the relayer: the creation event, the
// canonical request/reserve views and the relayer-only release call.
const bridgeABIJSON = `[
{"type":"event","name":"BridgeRequestCreated","inputs":[
	{"name":"requestId","type":"bytes32","indexed":true},
	{"name":"user","type":"address","indexed":true},
	{"name":"destinationChain","type":"string","indexed":false},
	{"name":"destinationAddress","type":"bytes32","indexed":false},
	{"name":"amount","type":"uint256","indexed":false},
	{"name":"token","type":"address","indexed":false},
	{"name":"timestamp","type":"uint256","indexed":false}]},
{"type":"function","name":"getRequest","stateMutability":"view",
	"inputs":[{"name":"requestId","type":"bytes32"}],
	"outputs":[
		{"name":"exists","type":"bool"},
		{"name":"amount","type":"uint256"},
		{"name":"token","type":"address"},
		{"name":"recipient","type":"bytes32"},
		{"name":"processed","type":"bool"}]},
{"type":"function","name":"getReserves","stateMutability":"view",
	"inputs":[{"name":"token","type":"address"}],
	"outputs":[
		{"name":"balance","type":"uint256"},
		{"name":"totalBridgedIn","type":"uint256"},
		{"name":"totalBridgedOut","type":"uint256"},
		{"name":"feesCollected","type":"uint256"}]},
{"type":"function","name":"release","stateMutability":"nonpayable",
	"inputs":[
		{"name":"requestId","type":"bytes32"},
		{"name":"recipient","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"token","type":"address"}],
	"outputs":[]}
]`

var bridgeABI = mustParseABI(bridgeABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("bad bridge ABI: %s", err))
	}
	return parsed
}

// BridgeEvent is one decoded BridgeRequestCreated log.
type BridgeEvent struct {
	RequestID          [32]byte
	User               common.Address
	DestinationChain   string
	DestinationAddress [32]byte
	Amount             *big.Int
	Token              common.Address
	Timestamp          *big.Int
	TxHash             string
	BlockNumber        uint64
}

// RequestRecord is the raw result of getRequest.
type RequestRecord struct {
	Exists    bool
	Amount    *big.Int
	Token     common.Address
	Recipient [32]byte
	Processed bool
}

// ReserveState is the raw result of getReserves.
type ReserveState struct {
	Balance         *big.Int
	TotalBridgedIn  *big.Int
	TotalBridgedOut *big.Int
	FeesCollected   *big.Int
}

// ErrUnknownOutcome marks a submitted transaction whose receipt never
// showed up inside the polling budget. Not a confirmed failure.
var ErrUnknownOutcome = errors.New("transaction outcome unknown after polling budget")

func boundContract(contract common.Address, client *ethclient.Client) *bind.BoundContract {
	return bind.NewBoundContract(contract, bridgeABI, client, client, client)
}

// ScanBridgeRequests returns the creation events observed in
// [fromBlock, toBlock]. The caller keeps windows bounded; re-running an
// overlapping range is harmless because the tracker drops duplicates.
func ScanBridgeRequests(ctx context.Context, chainId int, contract common.Address, fromBlock, toBlock int64) ([]BridgeEvent, error) {
	logs, err := WithClient(chainId, func(client *ethclient.Client) ([]ethtypes.Log, error) {
		return client.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: big.NewInt(fromBlock),
			ToBlock:   big.NewInt(toBlock),
			Addresses: []common.Address{contract},
			Topics:    [][]common.Hash{{bridgeABI.Events["BridgeRequestCreated"].ID}},
		})
	})
	if err != nil {
		return nil, err
	}

	events := make([]BridgeEvent, 0, len(logs))
	for _, l := range logs {
		if l.Removed || len(l.Topics) < 3 {
			continue
		}
		var parsed struct {
			DestinationChain   string
			DestinationAddress [32]byte
			Amount             *big.Int
			Token              common.Address
			Timestamp          *big.Int
		}
		if err := bridgeABI.UnpackIntoInterface(&parsed, "BridgeRequestCreated", l.Data); err != nil {
			log.Printf("Error unpacking BridgeRequestCreated log %s: %s", l.TxHash.Hex(), err.Error())
			continue
		}
		ev := BridgeEvent{
			DestinationChain:   parsed.DestinationChain,
			DestinationAddress: parsed.DestinationAddress,
			Amount:             parsed.Amount,
			Token:              parsed.Token,
			Timestamp:          parsed.Timestamp,
		}
		copy(ev.RequestID[:], l.Topics[1].Bytes())
		ev.User = common.BytesToAddress(l.Topics[2].Bytes())
		ev.TxHash = l.TxHash.Hex()
		ev.BlockNumber = l.BlockNumber
		events = append(events, ev)
	}
	return events, nil
}

// GetRequest reads the canonical on-chain record for a request id.
func GetRequest(ctx context.Context, chainId int, contract common.Address, requestID [32]byte) (*RequestRecord, error) {
	return WithClient(chainId, func(client *ethclient.Client) (*RequestRecord, error) {
		var out []interface{}
		err := boundContract(contract, client).Call(&bind.CallOpts{Context: ctx}, &out, "getRequest", requestID)
		if err != nil {
			return nil, err
		}
		if len(out) != 5 {
			return nil, fmt.Errorf("getRequest returned %d values", len(out))
		}
		return &RequestRecord{
			Exists:    out[0].(bool),
			Amount:    out[1].(*big.Int),
			Token:     out[2].(common.Address),
			Recipient: out[3].([32]byte),
			Processed: out[4].(bool),
		}, nil
	})
}

// GetReserves reads the per-asset reserve counters.
func GetReserves(ctx context.Context, chainId int, contract common.Address, token common.Address) (*ReserveState, error) {
	return WithClient(chainId, func(client *ethclient.Client) (*ReserveState, error) {
		var out []interface{}
		err := boundContract(contract, client).Call(&bind.CallOpts{Context: ctx}, &out, "getReserves", token)
		if err != nil {
			return nil, err
		}
		if len(out) != 4 {
			return nil, fmt.Errorf("getReserves returned %d values", len(out))
		}
		return &ReserveState{
			Balance:         out[0].(*big.Int),
			TotalBridgedIn:  out[1].(*big.Int),
			TotalBridgedOut: out[2].(*big.Int),
			FeesCollected:   out[3].(*big.Int),
		}, nil
	})
}

// CallRelease dry-runs the release as an eth_call from the relayer
// address. Transact with a fixed gas limit skips estimation and never
// surfaces a revert reason, so this is where a deterministic contract
// rejection (replay, paused bridge) is told apart from transport
// trouble before any gas is spent.
func CallRelease(ctx context.Context, chainId int, contract common.Address, requestID [32]byte, recipient common.Address, amount *big.Int, token common.Address) error {
	_, err := WithClient(chainId, func(client *ethclient.Client) (struct{}, error) {
		var out []interface{}
		err := boundContract(contract, client).Call(&bind.CallOpts{
			Context: ctx,
			From:    common.HexToAddress(config.Config.EVM.PublicAddress),
		}, &out, "release", requestID, recipient, amount, token)
		return struct{}{}, err
	})
	return err
}

// Release submits the payout transaction, retrying across the RPC list.
func Release(chainId int, contract common.Address, requestID [32]byte, recipient common.Address, amount *big.Int, token common.Address) (*ethtypes.Transaction, error) {
	var tx *ethtypes.Transaction

	var reterr error
	for i := 0; i < config.EVM_RETRIES; i++ {
		client := GetClient(chainId, i)
		if client == nil {
			reterr = errors.New("no EVM RPC endpoint reachable")
			continue
		}

		nonce, err := client.PendingNonceAt(context.Background(), common.HexToAddress(config.Config.EVM.PublicAddress))
		if err != nil {
			reterr = fmt.Errorf("error getting nonce for wallet: %s", err)
			log.Print(reterr.Error())
			client.Close()
			continue
		}

		gasPrice, err := client.SuggestGasPrice(context.Background())
		if err != nil {
			reterr = fmt.Errorf("error getting suggested gas price: %s", err)
			log.Print(reterr.Error())
			client.Close()
			continue
		}

		privateKey, err := crypto.HexToECDSA(config.Config.EVM.PrivateKey)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("error instantiating private key: %s", err)
		}
		auth, err := bind.NewKeyedTransactorWithChainID(privateKey, big.NewInt(int64(chainId)))
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("error instantiating contract call: %s", err)
		}

		auth.Nonce = big.NewInt(int64(nonce))
		auth.Value = big.NewInt(0)
		auth.GasLimit = uint64(200000)
		if chainId == 1 {
			auth.GasPrice = gasPrice
		} else {
			auth.GasPrice = gasPrice.Mul(gasPrice, big.NewInt(2))
		}

		tx, err = boundContract(contract, client).Transact(auth, "release", requestID, recipient, amount, token)
		client.Close()
		if err != nil {
			reterr = fmt.Errorf("error calling release method: %s", err)
			log.Print(reterr.Error())
			continue
		}

		return tx, nil
	}

	return tx, reterr
}

// WaitMined polls for the receipt a bounded number of rounds. Running
// out of budget yields ErrUnknownOutcome, never a confirmed failure.
func WaitMined(ctx context.Context, chainId int, txHash common.Hash, rounds int, interval time.Duration) (*ethtypes.Receipt, error) {
	for i := 0; i < rounds; i++ {
		receipt, err := WithClient(chainId, func(client *ethclient.Client) (*ethtypes.Receipt, error) {
			return client.TransactionReceipt(ctx, txHash)
		})
		if err == nil && receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, ErrUnknownOutcome
}
