package tracker

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/types"

	"github.com/stretchr/testify/require"
)

func testRequest(id string) *types.BridgeRequest {
	return &types.BridgeRequest{
		RequestID:    id,
		SourceChain:  types.CHAINKEY_EVM,
		DestChain:    types.CHAINKEY_APTOS,
		Initiator:    "0x2bA64EFB7A4Ec8983E22A49c81fa216AC33f383A",
		DestAddress:  "0x0000000000000000000000002ba64efb7a4ec8983e22a49c81fa216ac33f383a",
		Amount:       "4995000",
		Token:        "mUSDC",
		TsCreated:    1_700_000_000,
		SourceTxHash: "0xabc",
	}
}

func TestClaimIsExclusive(t *testing.T) {
	tr := NewMemory()
	req := testRequest("0x01")

	require.True(t, tr.TryClaim(req))
	// replayed sighting of the same creation event
	require.False(t, tr.TryClaim(req))

	rec, ok := tr.Status(req.RequestID)
	require.True(t, ok)
	require.Equal(t, types.StatePending, rec.State)
	require.Equal(t, 1, rec.Attempts)
}

func TestReleasedIsTerminal(t *testing.T) {
	tr := NewMemory()
	req := testRequest("0x02")

	require.True(t, tr.TryClaim(req))
	require.NoError(t, tr.MarkVerified(req.RequestID))
	require.NoError(t, tr.MarkReleased(req.RequestID, "0xdst"))

	// N replays after payout: never claimable again
	for i := 0; i < 5; i++ {
		require.False(t, tr.TryClaim(req))
	}

	rec, _ := tr.Status(req.RequestID)
	require.Equal(t, types.StateReleased, rec.State)
	require.Equal(t, "0xdst", rec.DestTxHash)
}

func TestRetryReleasesClaimAndKeepsState(t *testing.T) {
	tr := NewMemory()
	req := testRequest("0x03")

	require.True(t, tr.TryClaim(req))
	require.NoError(t, tr.MarkVerified(req.RequestID))
	require.NoError(t, tr.MarkRetry(req.RequestID, "insufficient reserve balance"))

	rec, _ := tr.Status(req.RequestID)
	require.Equal(t, types.StateVerified, rec.State)
	require.Equal(t, "insufficient reserve balance", rec.LastError)

	// next cycle may claim again, attempts accumulate
	require.True(t, tr.TryClaim(req))
	rec, _ = tr.Status(req.RequestID)
	require.Equal(t, 2, rec.Attempts)
}

func TestFailedIsTerminal(t *testing.T) {
	tr := NewMemory()
	req := testRequest("0x04")

	require.True(t, tr.TryClaim(req))
	require.NoError(t, tr.MarkFailed(req.RequestID, "amount mismatch: event 100, record 99"))

	require.False(t, tr.TryClaim(req))
	rec, _ := tr.Status(req.RequestID)
	require.Equal(t, types.StateFailed, rec.State)
	require.Contains(t, rec.LastError, "amount mismatch")
}

func TestMarkUnknownRequest(t *testing.T) {
	tr := NewMemory()
	require.Error(t, tr.MarkVerified("0xdeadbeef"))
}

func TestConcurrentClaimSingleWinner(t *testing.T) {
	tr := NewMemory()
	req := testRequest("0x05")

	const workers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.TryClaim(req) {
				wins <- true
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	require.Equal(t, 1, won)
}

func TestCountsAndListByState(t *testing.T) {
	tr := NewMemory()
	for i := 0; i < 3; i++ {
		req := testRequest(fmt.Sprintf("0x1%d", i))
		require.True(t, tr.TryClaim(req))
	}
	require.NoError(t, tr.MarkVerified("0x10"))
	require.NoError(t, tr.MarkRetry("0x10", "rpc timeout"))
	require.NoError(t, tr.MarkFailed("0x11", "token mismatch"))

	counts := tr.Counts()
	require.Equal(t, 1, counts[types.StatePending])
	require.Equal(t, 1, counts[types.StateVerified])
	require.Equal(t, 1, counts[types.StateFailed])
	require.Equal(t, 0, counts[types.StateReleased])

	verified := tr.ListByState(types.StateVerified)
	require.Len(t, verified, 1)
	require.Equal(t, "0x10", verified[0].Request.RequestID)

	// 0x12 is still claimed by its in-flight attempt, not listed
	require.Empty(t, tr.ListByState(types.StatePending))
}
