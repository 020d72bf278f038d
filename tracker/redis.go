package tracker

import (
	"log"
	"time"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/redis"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/types"
)

// Redis persists the ledger through the shared redis pool so the
// at-most-once guarantee survives relayer restarts. Claims use SETNX;
// record state moves between per-state sets.
type Redis struct{}

func NewRedis() *Redis {
	return &Redis{}
}

func (r *Redis) TryClaim(req *types.BridgeRequest) bool {
	rec, err := redis.GetTrackerRecord(req.RequestID)
	if err != nil {
		// treat storage trouble as "not claimable now": the scanner
		// will surface the same event again next cycle
		return false
	}
	if rec != nil && rec.Terminal() {
		return false
	}

	ok, err := redis.TryClaim(req.RequestID)
	if err != nil || !ok {
		return false
	}

	if rec == nil {
		rec = &types.TrackerRecord{
			Request: *req,
			State:   types.StatePending,
			TsFound: time.Now().Unix(),
		}
	}
	rec.Attempts++
	rec.TsUpdated = time.Now().Unix()

	if err := redis.UpsertTrackerRecord(rec); err != nil {
		log.Printf("error persisting tracker record %s: %s", req.RequestID, err.Error())
		redis.ReleaseClaim(req.RequestID)
		return false
	}
	return true
}

func (r *Redis) mutate(requestID string, releaseClaim bool, fn func(rec *types.TrackerRecord)) error {
	rec, err := redis.GetTrackerRecord(requestID)
	if err != nil {
		return err
	}
	if rec == nil {
		return errUnknownRequest(requestID)
	}

	prevState := rec.State
	fn(rec)
	rec.TsUpdated = time.Now().Unix()

	if err := redis.ChangeTrackerRecordState(rec, prevState); err != nil {
		// the attempt is over either way; holding the claim through a
		// persistence error would block every retry until the lease
		// expires
		if releaseClaim {
			redis.ReleaseClaim(requestID)
		}
		return err
	}
	if releaseClaim {
		return redis.ReleaseClaim(requestID)
	}
	return nil
}

func (r *Redis) MarkVerified(requestID string) error {
	return r.mutate(requestID, false, func(rec *types.TrackerRecord) {
		rec.State = types.StateVerified
	})
}

func (r *Redis) MarkReleased(requestID, destTxHash string) error {
	return r.mutate(requestID, true, func(rec *types.TrackerRecord) {
		rec.State = types.StateReleased
		rec.DestTxHash = destTxHash
		rec.LastError = ""
	})
}

func (r *Redis) MarkRetry(requestID, reason string) error {
	return r.mutate(requestID, true, func(rec *types.TrackerRecord) {
		rec.LastError = reason
	})
}

func (r *Redis) MarkFailed(requestID, reason string) error {
	return r.mutate(requestID, true, func(rec *types.TrackerRecord) {
		rec.State = types.StateFailed
		rec.LastError = reason
	})
}

func (r *Redis) Status(requestID string) (*types.TrackerRecord, bool) {
	rec, err := redis.GetTrackerRecord(requestID)
	if err != nil || rec == nil {
		return nil, false
	}
	return rec, true
}

func (r *Redis) ListByState(state string) []*types.TrackerRecord {
	recs, err := redis.FindAllTrackerRecordsByState(state)
	if err != nil {
		log.Printf("error listing tracker records by state %s: %s", state, err.Error())
		return nil
	}
	return recs
}

func (r *Redis) Counts() map[string]int {
	counts, err := redis.CountTrackerRecords()
	if err != nil {
		log.Printf("error counting tracker records: %s", err.Error())
		return map[string]int{}
	}
	return counts
}

type errUnknownRequest string

func (e errUnknownRequest) Error() string {
	return "unknown request " + string(e)
}
