package escrow

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// In-process model of the on-chain HTLC escrow. The contracts are
// external; this model pins down the state machine the relayer assumes
// when deciding whether a complete or refund is even worth submitting.

type SwapStatus uint8

const (
	SwapStatusActive    SwapStatus = 0
	SwapStatusCompleted SwapStatus = 1
	SwapStatusRefunded  SwapStatus = 2
)

// Timelock bounds accepted by initiate, and the safety margin between
// the two legs: the side that commits first locks for 24h, the side
// that commits second for 12h, so the first mover can always recover
// before the counterparty leg expires.
const (
	MinTimelock    = 1 * time.Hour
	MaxTimelock    = 48 * time.Hour
	SourceTimelock = 24 * time.Hour
	DestTimelock   = 12 * time.Hour
)

var (
	ErrTimelockRange    = errors.New("timelock outside accepted range")
	ErrZeroAmount       = errors.New("amount must be positive")
	ErrDuplicateSwap    = errors.New("swap id already exists")
	ErrUnsupportedToken = errors.New("unsupported token")
	ErrBadSecret        = errors.New("secret does not match hashlock")
	ErrNotActive        = errors.New("swap is not active")
	ErrExpired          = errors.New("timelock expired")
	ErrNotExpired       = errors.New("timelock not yet expired")
	ErrNotInitiator     = errors.New("caller is not the initiator")
)

// CompleteEligible and RefundEligible partition time: for any instant
// exactly one of them holds for a given timelock.

func CompleteEligible(now, timelock int64) bool {
	return now <= timelock
}

func RefundEligible(now, timelock int64) bool {
	return now > timelock
}

// HTLCSwap is one escrow on one ledger.
type HTLCSwap struct {
	ID        string
	Initiator string
	Recipient string
	Amount    *big.Int // net, after fee deduction
	Token     string
	Hashlock  [32]byte
	Timelock  int64 // unix seconds, absolute
	Status    SwapStatus
	Secret    []byte // populated by Complete; public from then on
}

// HTLCLedger holds the swaps of one chain's escrow contract.
type HTLCLedger struct {
	feeBasisPoints  int
	feeCollected    *big.Int
	supportedTokens map[string]bool
	swaps           map[string]*HTLCSwap
	now             func() int64
}

func NewHTLCLedger(feeBasisPoints int, tokens []string) *HTLCLedger {
	supported := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		supported[t] = true
	}
	return &HTLCLedger{
		feeBasisPoints:  feeBasisPoints,
		feeCollected:    big.NewInt(0),
		supportedTokens: supported,
		swaps:           make(map[string]*HTLCSwap),
		now:             func() int64 { return time.Now().Unix() },
	}
}

// SetClock overrides the time source. Tests drive the timelock windows
// with it.
func (l *HTLCLedger) SetClock(now func() int64) {
	l.now = now
}

// Initiate escrows amount minus the protocol fee under a hashlock. The
// fee is routed to the fee recipient immediately, not at completion.
func (l *HTLCLedger) Initiate(initiator, recipient string, amount *big.Int, token string, hashlock [32]byte, timelock int64) (*HTLCSwap, error) {
	now := l.now()
	if timelock < now+int64(MinTimelock.Seconds()) || timelock > now+int64(MaxTimelock.Seconds()) {
		return nil, ErrTimelockRange
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if !l.supportedTokens[token] {
		return nil, ErrUnsupportedToken
	}

	id := DeriveSwapID(hashlock, []byte(initiator), timelock)
	if _, ok := l.swaps[id]; ok {
		return nil, ErrDuplicateSwap
	}

	net, fee := SplitFee(amount, l.feeBasisPoints)
	l.feeCollected.Add(l.feeCollected, fee)

	swap := &HTLCSwap{
		ID:        id,
		Initiator: initiator,
		Recipient: recipient,
		Amount:    net,
		Token:     token,
		Hashlock:  hashlock,
		Timelock:  timelock,
		Status:    SwapStatusActive,
	}
	l.swaps[id] = swap
	return swap, nil
}

// Complete pays the recipient if the preimage matches and the window is
// still open. Submitting the secret makes it permanently public, which
// is the signal that lets the counterpart leg be completed too.
func (l *HTLCLedger) Complete(id string, secret [32]byte) error {
	swap, ok := l.swaps[id]
	if !ok {
		return fmt.Errorf("swap %s: %w", id, ErrNotActive)
	}
	if swap.Status != SwapStatusActive {
		return ErrNotActive
	}
	if !CompleteEligible(l.now(), swap.Timelock) {
		return ErrExpired
	}
	want := Hashlock(secret)
	if subtle.ConstantTimeCompare(want[:], swap.Hashlock[:]) != 1 {
		return ErrBadSecret
	}
	swap.Status = SwapStatusCompleted
	swap.Secret = append([]byte(nil), secret[:]...)
	return nil
}

// Refund returns the escrowed amount to the initiator after expiry.
func (l *HTLCLedger) Refund(id, caller string) error {
	swap, ok := l.swaps[id]
	if !ok {
		return fmt.Errorf("swap %s: %w", id, ErrNotActive)
	}
	if swap.Status == SwapStatusRefunded {
		return errors.New("already refunded")
	}
	if swap.Status != SwapStatusActive {
		return ErrNotActive
	}
	if caller != swap.Initiator {
		return ErrNotInitiator
	}
	if !RefundEligible(l.now(), swap.Timelock) {
		return ErrNotExpired
	}
	swap.Status = SwapStatusRefunded
	return nil
}

func (l *HTLCLedger) Get(id string) (*HTLCSwap, bool) {
	swap, ok := l.swaps[id]
	return swap, ok
}

func (l *HTLCLedger) FeesCollected() *big.Int {
	return new(big.Int).Set(l.feeCollected)
}
