package workers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/types"

	"github.com/stretchr/testify/require"
)

type fakeLogReader struct {
	latest     uint64
	latestErr  error
	scanned    int
	scannedErr error

	eventBlocks map[int64]string // block -> request id observed there
	windowErrs  map[int64]error  // window start -> injected failure

	windows     [][2]int64
	checkpoints []int
}

func (f *fakeLogReader) LatestBlock(ctx context.Context) (uint64, error) {
	return f.latest, f.latestErr
}

func (f *fakeLogReader) ReadWindow(ctx context.Context, from, to int64) ([]types.BridgeRequest, error) {
	f.windows = append(f.windows, [2]int64{from, to})
	if err := f.windowErrs[from]; err != nil {
		return nil, err
	}
	var out []types.BridgeRequest
	for block := from; block <= to; block++ {
		if id, ok := f.eventBlocks[block]; ok {
			out = append(out, request(id, "100"))
		}
	}
	return out, nil
}

func (f *fakeLogReader) ScannedBlock() (int, error) {
	return f.scanned, f.scannedErr
}

func (f *fakeLogReader) SetScannedBlock(block int) error {
	f.scanned = block
	f.checkpoints = append(f.checkpoints, block)
	return nil
}

func TestScanFreshCheckpointStartsAtSafetyWindow(t *testing.T) {
	r := &fakeLogReader{latest: 105, scanned: -1}

	_, err := scanEVMWindows(context.Background(), r, 3, 10, 20)

	require.NoError(t, err)
	// head is confirmation-adjusted, the start backs off a full safety
	// window from it
	require.Equal(t, [][2]int64{{92, 102}}, r.windows)
	require.Equal(t, []int{102}, r.checkpoints)
}

func TestScanStartClampsAtGenesis(t *testing.T) {
	r := &fakeLogReader{latest: 5, scanned: -1}

	_, err := scanEVMWindows(context.Background(), r, 0, 10, 20)

	require.NoError(t, err)
	require.Equal(t, [][2]int64{{0, 5}}, r.windows)
}

func TestScanWindowsBoundedAndCheckpointAdvancesPerWindow(t *testing.T) {
	r := &fakeLogReader{
		latest:      99,
		scanned:     10,
		eventBlocks: map[int64]string{30: "0xr1"},
	}

	reqs, err := scanEVMWindows(context.Background(), r, 0, 5, 20)

	require.NoError(t, err)
	require.Equal(t, [][2]int64{{6, 25}, {26, 45}, {46, 65}, {66, 85}, {86, 99}}, r.windows)
	require.Equal(t, []int{25, 45, 65, 85, 99}, r.checkpoints)
	require.Len(t, reqs, 1)
	require.Equal(t, "0xr1", reqs[0].RequestID)
}

func TestScanErrorFreezesCheckpointAndKeepsPartialResults(t *testing.T) {
	r := &fakeLogReader{
		latest:      99,
		scanned:     10,
		eventBlocks: map[int64]string{10: "0xr1", 70: "0xr2"},
		windowErrs:  map[int64]error{46: errors.New("rpc timeout")},
	}

	reqs, err := scanEVMWindows(context.Background(), r, 0, 5, 20)

	// events before the failure are delivered, the checkpoint stays at
	// the last good window
	require.ErrorContains(t, err, "scanning blocks 46-65")
	require.Len(t, reqs, 1)
	require.Equal(t, "0xr1", reqs[0].RequestID)
	require.Equal(t, []int{25, 45}, r.checkpoints)
	require.Equal(t, 45, r.scanned)

	// node back up: the next cycle resumes behind the frozen checkpoint
	// and picks up the event the failed window hid
	delete(r.windowErrs, 46)
	r.windows, r.checkpoints = nil, nil

	reqs, err = scanEVMWindows(context.Background(), r, 0, 5, 20)

	require.NoError(t, err)
	require.Equal(t, [][2]int64{{41, 60}, {61, 80}, {81, 99}}, r.windows)
	require.Len(t, reqs, 1)
	require.Equal(t, "0xr2", reqs[0].RequestID)
	require.Equal(t, 99, r.scanned)
}

func TestScanRescansSafetyWindowWhenCaughtUp(t *testing.T) {
	r := &fakeLogReader{latest: 99, scanned: 99}

	_, err := scanEVMWindows(context.Background(), r, 0, 5, 20)

	require.NoError(t, err)
	require.Equal(t, [][2]int64{{95, 99}}, r.windows)
}

func TestScanSkipsWhenHeadBehindConfirmations(t *testing.T) {
	r := &fakeLogReader{latest: 2, scanned: -1}

	reqs, err := scanEVMWindows(context.Background(), r, 5, 10, 20)

	require.NoError(t, err)
	require.Empty(t, reqs)
	require.Empty(t, r.windows)
	require.Empty(t, r.checkpoints)
}

func TestScanCheckpointReadErrorScansNothing(t *testing.T) {
	r := &fakeLogReader{latest: 99, scannedErr: fmt.Errorf("connection refused")}

	_, err := scanEVMWindows(context.Background(), r, 0, 5, 20)

	require.ErrorContains(t, err, "reading checkpoint")
	require.Empty(t, r.windows)
	require.Empty(t, r.checkpoints)
}
