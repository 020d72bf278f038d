package escrow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitFeeTenBasisPoints(t *testing.T) {
	// 5 units of a 6-decimal asset at 0.1%
	net, fee := SplitFee(big.NewInt(5_000_000), 10)
	require.Equal(t, int64(4_995_000), net.Int64())
	require.Equal(t, int64(5_000), fee.Int64())
}

func TestSplitFeeZeroBasisPoints(t *testing.T) {
	net, fee := SplitFee(big.NewInt(123456), 0)
	require.Equal(t, int64(123456), net.Int64())
	require.Zero(t, fee.Int64())
}

func TestHashlockMatchesSecret(t *testing.T) {
	secret, err := NewSecret()
	require.NoError(t, err)

	h := Hashlock(secret)
	require.Equal(t, h, Hashlock(secret))

	var other [32]byte
	copy(other[:], secret[:])
	other[0] ^= 0x01
	require.NotEqual(t, h, Hashlock(other))
}

func TestDeriveRequestIDDeterministic(t *testing.T) {
	sender := []byte{0x01, 0x02, 0x03}
	a := DeriveRequestID(sender, "aptos", big.NewInt(1000), 1700000000)
	b := DeriveRequestID(sender, "aptos", big.NewInt(1000), 1700000000)
	require.Equal(t, a, b)
	require.Len(t, a, 2+64)

	c := DeriveRequestID(sender, "aptos", big.NewInt(1001), 1700000000)
	require.NotEqual(t, a, c)
}

func TestTimelockWindowsDisjoint(t *testing.T) {
	const timelock = int64(1_000_000)
	for _, now := range []int64{0, timelock - 1, timelock, timelock + 1, timelock * 2} {
		complete := CompleteEligible(now, timelock)
		refund := RefundEligible(now, timelock)
		require.NotEqual(t, complete, refund, "now=%d", now)
	}
}

func newTestLedger(now int64) *HTLCLedger {
	l := NewHTLCLedger(10, []string{"mUSDC"})
	l.SetClock(func() int64 { return now })
	return l
}

func TestInitiateEscrowsNetAmount(t *testing.T) {
	now := int64(1_700_000_000)
	l := newTestLedger(now)

	secret, _ := NewSecret()
	swap, err := l.Initiate("alice", "bob", big.NewInt(5_000_000), "mUSDC", Hashlock(secret), now+int64(SourceTimelock.Seconds()))
	require.NoError(t, err)
	require.Equal(t, int64(4_995_000), swap.Amount.Int64())
	require.Equal(t, int64(5_000), l.FeesCollected().Int64())
	require.Equal(t, SwapStatusActive, swap.Status)
}

func TestInitiateRejections(t *testing.T) {
	now := int64(1_700_000_000)
	l := newTestLedger(now)
	secret, _ := NewSecret()
	hashlock := Hashlock(secret)
	timelock := now + int64(SourceTimelock.Seconds())

	_, err := l.Initiate("alice", "bob", big.NewInt(0), "mUSDC", hashlock, timelock)
	require.ErrorIs(t, err, ErrZeroAmount)

	_, err = l.Initiate("alice", "bob", big.NewInt(100), "DOGE", hashlock, timelock)
	require.ErrorIs(t, err, ErrUnsupportedToken)

	_, err = l.Initiate("alice", "bob", big.NewInt(100), "mUSDC", hashlock, now+60)
	require.ErrorIs(t, err, ErrTimelockRange)

	_, err = l.Initiate("alice", "bob", big.NewInt(100), "mUSDC", hashlock, now+int64(MaxTimelock.Seconds())+1)
	require.ErrorIs(t, err, ErrTimelockRange)

	_, err = l.Initiate("alice", "bob", big.NewInt(100), "mUSDC", hashlock, timelock)
	require.NoError(t, err)
	_, err = l.Initiate("alice", "bob", big.NewInt(100), "mUSDC", hashlock, timelock)
	require.ErrorIs(t, err, ErrDuplicateSwap)
}

func TestCompleteRequiresMatchingSecret(t *testing.T) {
	now := int64(1_700_000_000)
	l := newTestLedger(now)
	secret, _ := NewSecret()
	swap, err := l.Initiate("alice", "bob", big.NewInt(1_000_000), "mUSDC", Hashlock(secret), now+int64(DestTimelock.Seconds()))
	require.NoError(t, err)

	var wrong [32]byte
	require.ErrorIs(t, l.Complete(swap.ID, wrong), ErrBadSecret)

	require.NoError(t, l.Complete(swap.ID, secret))
	got, _ := l.Get(swap.ID)
	require.Equal(t, SwapStatusCompleted, got.Status)
	require.Equal(t, secret[:], got.Secret)

	// second attempt hits the state guard, not the secret check
	require.ErrorIs(t, l.Complete(swap.ID, secret), ErrNotActive)
}

func TestCompleteRejectedAfterExpiry(t *testing.T) {
	now := int64(1_700_000_000)
	l := newTestLedger(now)
	secret, _ := NewSecret()
	timelock := now + int64(DestTimelock.Seconds())
	swap, err := l.Initiate("alice", "bob", big.NewInt(1_000_000), "mUSDC", Hashlock(secret), timelock)
	require.NoError(t, err)

	l.SetClock(func() int64 { return timelock + 1 })
	require.ErrorIs(t, l.Complete(swap.ID, secret), ErrExpired)
}

func TestRefundWindows(t *testing.T) {
	now := int64(1_700_000_000)
	l := newTestLedger(now)
	secret, _ := NewSecret()
	timelock := now + int64(SourceTimelock.Seconds())
	swap, err := l.Initiate("alice", "bob", big.NewInt(1_000_000), "mUSDC", Hashlock(secret), timelock)
	require.NoError(t, err)

	// before expiry: rejected
	require.ErrorIs(t, l.Refund(swap.ID, "alice"), ErrNotExpired)

	l.SetClock(func() int64 { return timelock + 1 })

	// wrong caller: rejected
	require.ErrorIs(t, l.Refund(swap.ID, "mallory"), ErrNotInitiator)

	// after expiry: succeeds exactly once
	require.NoError(t, l.Refund(swap.ID, "alice"))
	err = l.Refund(swap.ID, "alice")
	require.EqualError(t, err, "already refunded")
}

func TestReservePoolConservation(t *testing.T) {
	p := NewReservePool()
	p.Fund("mUSDC", big.NewInt(10_000_000))

	net := p.Deposit("mUSDC", big.NewInt(5_000_000), 10)
	require.Equal(t, int64(4_995_000), net.Int64())

	before, _, _, _ := p.Snapshot("mUSDC")
	require.NoError(t, p.Release("mUSDC", big.NewInt(4_995_000)))
	after, totalIn, totalOut, fees := p.Snapshot("mUSDC")

	require.Equal(t, new(big.Int).Sub(before, big.NewInt(4_995_000)), after)
	require.Equal(t, int64(4_995_000), totalIn.Int64())
	require.Equal(t, int64(4_995_000), totalOut.Int64())
	require.Equal(t, int64(5_000), fees.Int64())

	// totalIn minus totalOut equals what deposits left behind
	require.Equal(t, int64(0), new(big.Int).Sub(totalIn, totalOut).Int64())
}

func TestReservePoolNeverNegative(t *testing.T) {
	p := NewReservePool()
	p.Fund("mUSDC", big.NewInt(100))

	err := p.Release("mUSDC", big.NewInt(101))
	require.ErrorIs(t, err, ErrInsufficientReserve)

	balance, _, totalOut, _ := p.Snapshot("mUSDC")
	require.Equal(t, int64(100), balance.Int64())
	require.Zero(t, totalOut.Int64())
}
