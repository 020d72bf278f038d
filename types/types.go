package types

import "math/big"

// Chain keys are stable integers used in redis keys and config lookups.
// The EVM side is keyed by its chain id elsewhere; these two constants
// only distinguish the two ledgers the relayer bridges.

type ChainType int

const CHAINKEY_EVM ChainType = 0
const CHAINKEY_APTOS ChainType = 1

func (c ChainType) String() string {
	if c == CHAINKEY_APTOS {
		return "aptos"
	}
	return "evm"
}

// BridgeRequest is the unit of cross-chain work as observed from a
// creation event. RequestID is derived on chain from public data and is
// never chosen by the relayer.
type BridgeRequest struct {
	RequestID    string // 0x-prefixed 32-byte hex
	SourceChain  ChainType
	DestChain    ChainType
	Initiator    string
	DestAddress  string // destination-chain format, converted at the boundary
	Amount       string // net amount in smallest units, decimal string
	Token        string // symbol from the supported-asset set
	TsCreated    int64
	SourceTxHash string
}

// EscrowRecord is the canonical on-chain record of a request, read back
// by the lock verifier before any release is authorized.
type EscrowRecord struct {
	Exists    bool
	Amount    *big.Int
	Token     string
	Recipient string
	Processed bool
}

// Reserves mirrors the per-asset reserve counters of the destination
// bridge contract. The relayer only observes these; the authoritative
// balance check happens inside the contract's own release transaction.
type Reserves struct {
	Balance       *big.Int
	TotalIn       *big.Int
	TotalOut      *big.Int
	FeesCollected *big.Int
}

// Tracker record states. Transitions are monotonic except the retry
// edge: a retryable record keeps its state and drops its claim.
const (
	StatePending  = "pending"
	StateVerified = "verified"
	StateReleased = "released"
	StateFailed   = "failed"
)

// TrackerRecord is the processing ledger entry for one request.
type TrackerRecord struct {
	Request    BridgeRequest
	State      string
	Attempts   int
	LastError  string
	DestTxHash string
	TsFound    int64
	TsUpdated  int64
}

// Terminal reports whether a record may never be claimed again.
func (r *TrackerRecord) Terminal() bool {
	return r.State == StateReleased || r.State == StateFailed
}

var RedisStateSets = map[string]string{
	StatePending:  "bridgereq:pending",  // claimed or awaiting retry
	StateVerified: "bridgereq:verified", // source escrow reconfirmed
	StateReleased: "bridgereq:released", // destination payout confirmed
	StateFailed:   "bridgereq:failed",   // terminal, operator review
}

// PipelineStatus is one direction's slice of the status report.
type PipelineStatus struct {
	Direction  string `json:"direction"`
	RunID      string `json:"runId"`
	Checkpoint string `json:"checkpoint"`
	LastCycle  int64  `json:"lastCycle"`
	LastError  string `json:"lastError,omitempty"`
}

// RelayerStatus is the point-in-time report served by the HTTP worker.
type RelayerStatus struct {
	InstanceID string           `json:"instanceId"`
	Pipelines  []PipelineStatus `json:"pipelines"`
	Counts     map[string]int   `json:"counts"`
}
