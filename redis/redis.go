package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/config"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/types"

	"github.com/gomodule/redigo/redis"
)

var pool *redis.Pool

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

func Init() {
	redisAddr := fmt.Sprintf("%s:%d", config.Config.Server.RedisHost, config.Config.Server.RedisPort)
	pool = &redis.Pool{
		MaxIdle: 5,
		Dial:    func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr, timeoutDialOptions()...) },
	}
}

// Ping verifies connectivity at startup; without persistence the
// relayer does not start.
func Ping() error {
	conn := pool.Get()
	defer conn.Close()

	_, err := conn.Do("PING")
	return err
}

// Scan checkpoints. The EVM side stores the last scanned block number,
// the Aptos side the highest seen ledger version.

func GetEVMScannedBlock(chainID int) (int, error) {
	conn := pool.Get()
	defer conn.Close()

	blockHeight, err := redis.Int(conn.Do("GET", fmt.Sprintf("chainBlockScanned:%d", chainID)))
	if err == nil {
		return blockHeight, nil
	}

	if errors.Is(err, redis.ErrNil) {
		return -1, nil
	}

	log.Printf("error Redis get: %s", err.Error())
	return -1, err
}

func SetEVMScannedBlock(chainID int, blockHeight int) error {
	conn := pool.Get()
	defer conn.Close()

	_, err := conn.Do("SET", fmt.Sprintf("chainBlockScanned:%d", chainID), blockHeight)
	if err != nil {
		log.Printf("error Redis set: %s", err.Error())
		return err
	}

	return nil
}

func GetAptosLedgerVersion() (int64, error) {
	conn := pool.Get()
	defer conn.Close()

	version, err := redis.Int64(conn.Do("GET", "aptosLedgerVersion"))
	if err == nil {
		return version, nil
	}

	if errors.Is(err, redis.ErrNil) {
		return -1, nil
	}

	log.Printf("error Redis get: %s", err.Error())
	return -1, err
}

func SetAptosLedgerVersion(version int64) error {
	conn := pool.Get()
	defer conn.Close()

	_, err := conn.Do("SET", "aptosLedgerVersion", version)
	if err != nil {
		log.Printf("error Redis set: %s", err.Error())
		return err
	}

	return nil
}

// TryClaim takes the processing claim for a request id. Returns true
// only for the first claimant; the claim is dropped by ReleaseClaim
// when an attempt ends without a terminal state. The claim is a lease,
// not a lock: if the relayer crashes or redis errors swallow the
// release, expiry makes the request claimable again.
func TryClaim(requestID string) (bool, error) {
	conn := pool.Get()
	defer conn.Close()

	reply, err := conn.Do("SET", "claim:"+requestID, 1, "NX", "EX", config.CLAIM_LEASE_SECONDS)
	if err != nil {
		log.Printf("error Redis SET NX: %s", err.Error())
		return false, err
	}

	return reply != nil, nil
}

func ReleaseClaim(requestID string) error {
	conn := pool.Get()
	defer conn.Close()

	_, err := conn.Do("DEL", "claim:"+requestID)
	if err != nil {
		log.Printf("error Redis DEL: %s", err.Error())
	}
	return err
}

// Tracker records live under a direct id key plus one redis set per
// state for cheap listing. Unlike scan checkpoints these are the
// relayer's at-most-once ledger and survive restarts.

func recordKey(requestID string) string {
	return "bridgereq:id:" + requestID
}

func GetTrackerRecord(requestID string) (*types.TrackerRecord, error) {
	conn := pool.Get()
	defer conn.Close()

	raw, err := redis.Bytes(conn.Do("GET", recordKey(requestID)))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		log.Printf("error Redis GET: %s", err.Error())
		return nil, err
	}

	var rec types.TrackerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("cannot unmarshal tracker record: %s", err.Error())
	}
	return &rec, nil
}

func UpsertTrackerRecord(rec *types.TrackerRecord) error {
	conn := pool.Get()
	defer conn.Close()

	if rec == nil {
		return errors.New("null object to store")
	}
	if rec.State == "" {
		return errors.New("tracker record cannot have empty state")
	}
	if _, ok := types.RedisStateSets[rec.State]; !ok {
		return fmt.Errorf("unknown tracker state %q", rec.State)
	}

	recJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cannot marshal tracker record to JSON: %s", err.Error())
	}

	_, err = conn.Do("SET", recordKey(rec.Request.RequestID), recJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	// also add the id to the corresponding state SET
	_, err = conn.Do("SADD", types.RedisStateSets[rec.State], rec.Request.RequestID)
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}

	return nil
}

// ChangeTrackerRecordState moves the record between state sets and
// rewrites the direct key.
func ChangeTrackerRecordState(rec *types.TrackerRecord, prevState string) error {
	conn := pool.Get()
	defer conn.Close()

	if rec == nil {
		return errors.New("null object to store")
	}
	if rec.State == "" {
		return errors.New("tracker record cannot have empty state")
	}

	if prevState != "" && prevState != rec.State {
		_, err := conn.Do("SREM", types.RedisStateSets[prevState], rec.Request.RequestID)
		if err != nil {
			log.Printf("error Redis SREM: %s", err.Error())
			return err
		}
	}

	recJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cannot marshal tracker record to JSON: %s", err.Error())
	}

	_, err = conn.Do("SET", recordKey(rec.Request.RequestID), recJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	_, err = conn.Do("SADD", types.RedisStateSets[rec.State], rec.Request.RequestID)
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}

	return nil
}

func FindAllTrackerRecordsByState(state string) ([]*types.TrackerRecord, error) {
	conn := pool.Get()
	defer conn.Close()

	if _, ok := types.RedisStateSets[state]; !ok {
		return nil, errors.New("redis key not found for state")
	}

	recs := make([]*types.TrackerRecord, 0)

	var cursor int64
	for {
		values, err := redis.Values(conn.Do("SSCAN", types.RedisStateSets[state], cursor))
		if err != nil {
			return nil, err
		}

		var ids []string
		_, err = redis.Scan(values, &cursor, &ids)
		if err != nil {
			return nil, err
		}

		for _, id := range ids {
			raw, err := redis.Bytes(conn.Do("GET", recordKey(id)))
			if errors.Is(err, redis.ErrNil) {
				// record expired or removed, drop the stale set member
				conn.Do("SREM", types.RedisStateSets[state], id)
				continue
			}
			if err != nil {
				log.Printf("error Redis GET: %s", err.Error())
				return nil, err
			}

			var rec types.TrackerRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, err
			}
			if rec.State == state {
				recs = append(recs, &rec)
			}
		}

		if cursor == 0 {
			break
		}
	}

	return recs, nil
}

func CountTrackerRecords() (map[string]int, error) {
	conn := pool.Get()
	defer conn.Close()

	counts := make(map[string]int, len(types.RedisStateSets))
	for state, key := range types.RedisStateSets {
		n, err := redis.Int(conn.Do("SCARD", key))
		if err != nil && !errors.Is(err, redis.ErrNil) {
			return nil, err
		}
		counts[state] = n
	}
	return counts, nil
}
