// Package tracker is the relayer's de-duplication ledger. It is the
// sole source of the at-most-once payout guarantee: every pipeline
// consults TryClaim before any destination-chain write.
package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/types"
)

// Tracker maps a request id to its processing state. Claims are
// atomic; the two direction pipelines never claim the same id but the
// operation must stay safe if more workers are added.
type Tracker interface {
	// TryClaim returns true only when the caller may process the
	// request now: first sighting, or a non-terminal record whose
	// claim was released for retry. Attempts are counted per claim.
	TryClaim(req *types.BridgeRequest) bool

	MarkVerified(requestID string) error
	MarkReleased(requestID, destTxHash string) error

	// MarkRetry ends the attempt without a terminal state: the claim
	// is released and the record keeps its state so a later cycle can
	// pick it up once conditions change.
	MarkRetry(requestID, reason string) error

	// MarkFailed is terminal: verification mismatches and other
	// failures that would repeat identically are parked for operator
	// review, never auto-retried blindly.
	MarkFailed(requestID, reason string) error

	Status(requestID string) (*types.TrackerRecord, bool)
	ListByState(state string) []*types.TrackerRecord
	Counts() map[string]int
}

// Memory is the in-process implementation, used in tests and for
// ephemeral runs without redis.
type Memory struct {
	mu      sync.Mutex
	records map[string]*types.TrackerRecord
	claimed map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]*types.TrackerRecord),
		claimed: make(map[string]bool),
	}
}

func (m *Memory) TryClaim(req *types.BridgeRequest) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := req.RequestID
	rec, ok := m.records[id]
	if ok {
		if rec.Terminal() || m.claimed[id] {
			return false
		}
		m.claimed[id] = true
		rec.Attempts++
		rec.TsUpdated = time.Now().Unix()
		return true
	}

	m.records[id] = &types.TrackerRecord{
		Request:   *req,
		State:     types.StatePending,
		Attempts:  1,
		TsFound:   time.Now().Unix(),
		TsUpdated: time.Now().Unix(),
	}
	m.claimed[id] = true
	return true
}

func (m *Memory) update(requestID string, fn func(rec *types.TrackerRecord)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[requestID]
	if !ok {
		return fmt.Errorf("unknown request %s", requestID)
	}
	fn(rec)
	rec.TsUpdated = time.Now().Unix()
	return nil
}

func (m *Memory) MarkVerified(requestID string) error {
	return m.update(requestID, func(rec *types.TrackerRecord) {
		rec.State = types.StateVerified
	})
}

func (m *Memory) MarkReleased(requestID, destTxHash string) error {
	return m.update(requestID, func(rec *types.TrackerRecord) {
		rec.State = types.StateReleased
		rec.DestTxHash = destTxHash
		rec.LastError = ""
		delete(m.claimed, requestID)
	})
}

func (m *Memory) MarkRetry(requestID, reason string) error {
	return m.update(requestID, func(rec *types.TrackerRecord) {
		rec.LastError = reason
		delete(m.claimed, requestID)
	})
}

func (m *Memory) MarkFailed(requestID, reason string) error {
	return m.update(requestID, func(rec *types.TrackerRecord) {
		rec.State = types.StateFailed
		rec.LastError = reason
		delete(m.claimed, requestID)
	})
}

func (m *Memory) Status(requestID string) (*types.TrackerRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[requestID]
	if !ok {
		return nil, false
	}
	cp := *rec
	return &cp, true
}

func (m *Memory) ListByState(state string) []*types.TrackerRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*types.TrackerRecord
	for _, rec := range m.records {
		if rec.State == state && !m.claimed[rec.Request.RequestID] {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out
}

func (m *Memory) Counts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := map[string]int{
		types.StatePending:  0,
		types.StateVerified: 0,
		types.StateReleased: 0,
		types.StateFailed:   0,
	}
	for _, rec := range m.records {
		counts[rec.State]++
	}
	return counts
}
