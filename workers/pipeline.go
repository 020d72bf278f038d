package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/tracker"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/types"
)

// RequestSource is the chain a pipeline scans and verifies against.
type RequestSource interface {
	Name() string
	ChainKey() types.ChainType
	Checkpoint() string
	// ScanRequests returns creation events observed since the stored
	// checkpoint. Events found before an error are still returned;
	// the checkpoint is only advanced over successfully scanned
	// ranges, so nothing is silently skipped.
	ScanRequests(ctx context.Context) ([]types.BridgeRequest, error)
	// GetRequest reads the canonical on-chain escrow record, not the
	// event that announced it.
	GetRequest(ctx context.Context, requestID string) (*types.EscrowRecord, error)
}

// RequestDestination is the chain a pipeline pays out on.
type RequestDestination interface {
	Name() string
	// ValidateAddress rejects malformed destination identifiers
	// before a transaction is burnt on a guaranteed revert.
	ValidateAddress(address string) error
	GetReserves(ctx context.Context, token string) (*types.Reserves, error)
	// Release submits the payout and waits for finality. It returns
	// the destination tx hash on confirmed success.
	Release(ctx context.Context, req *types.BridgeRequest) (string, error)
}

// ErrAlreadyProcessed is returned by a destination whose contract
// rejected the release as a replay. Defense in depth behind the
// tracker: the payout already happened, the record is terminal.
var ErrAlreadyProcessed = errors.New("request already processed on destination")

// ErrReleaseReverted marks a release the destination contract rejected
// deterministically. Resubmitting burns gas on the same revert, so the
// record is parked instead of retried.
var ErrReleaseReverted = errors.New("release rejected by destination contract")

// Pipeline is one direction of the relayer: scan, claim, verify,
// release, sequentially. Two pipelines run concurrently and share the
// tracker; they touch disjoint request ids and disjoint chains.
type Pipeline struct {
	Direction string
	RunID     string
	Source    RequestSource
	Dest      RequestDestination
	Tracker   tracker.Tracker
	Verifier  *LockVerifier
	Interval  time.Duration
	Metrics   *Metrics

	MinAmount *big.Int // nil disables the bound
	MaxAmount *big.Int

	mu        sync.Mutex
	lastError string
	lastCycle int64
}

func (p *Pipeline) setLastError(msg string) {
	p.mu.Lock()
	p.lastError = msg
	p.mu.Unlock()
}

// Status returns this direction's slice of the relayer status report.
func (p *Pipeline) Status() types.PipelineStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return types.PipelineStatus{
		Direction:  p.Direction,
		RunID:      p.RunID,
		Checkpoint: p.Source.Checkpoint(),
		LastCycle:  p.lastCycle,
		LastError:  p.lastError,
	}
}

// Run loops until the context is cancelled. Network calls are the only
// suspension points; nothing here blocks the other direction.
func (p *Pipeline) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[%s] pipeline stopped", p.Direction)
			return
		case <-ticker.C:
			p.RunCycle(ctx)
		}
	}
}

// RunCycle performs one scan-and-process pass.
func (p *Pipeline) RunCycle(ctx context.Context) {
	reqs, scanErr := p.Source.ScanRequests(ctx)
	if scanErr != nil {
		// transient I/O: checkpoint stays put, retry next poll
		log.Printf("[%s] scan error: %s", p.Direction, scanErr.Error())
		p.setLastError(fmt.Sprintf("scan: %s", scanErr.Error()))
	}

	// re-queue retryable records from earlier cycles (released claims
	// whose condition may have changed, e.g. reserves topped up)
	for _, state := range []string{types.StateVerified, types.StatePending} {
		for _, rec := range p.Tracker.ListByState(state) {
			if rec.Request.SourceChain == p.Source.ChainKey() {
				reqs = append(reqs, rec.Request)
			}
		}
	}

	// the overlap re-scan and the retry requeue can both carry the same
	// id; one attempt per request per cycle
	seen := make(map[string]bool, len(reqs))
	for i := range reqs {
		req := reqs[i]
		if seen[req.RequestID] {
			continue
		}
		seen[req.RequestID] = true
		if !p.Tracker.TryClaim(&req) {
			continue
		}
		if err := p.process(ctx, &req); err != nil {
			log.Printf("[%s] request %s: %s", p.Direction, req.RequestID, err.Error())
			p.setLastError(fmt.Sprintf("request %s: %s", req.RequestID, err.Error()))
		}
	}

	p.mu.Lock()
	p.lastCycle = time.Now().Unix()
	p.mu.Unlock()
}

// process drives one claimed request to a terminal or retryable state.
// Every exit path records the outcome in the tracker; a claimed record
// is never abandoned.
func (p *Pipeline) process(ctx context.Context, req *types.BridgeRequest) error {
	fail := func(reason string) error {
		if err := p.Tracker.MarkFailed(req.RequestID, reason); err != nil {
			log.Printf("[%s] marking %s failed: %s", p.Direction, req.RequestID, err.Error())
		}
		p.count("failed")
		return errors.New(reason)
	}
	retry := func(reason string) error {
		if err := p.Tracker.MarkRetry(req.RequestID, reason); err != nil {
			log.Printf("[%s] marking %s for retry: %s", p.Direction, req.RequestID, err.Error())
		}
		p.count("retry")
		return errors.New(reason)
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return fail(fmt.Sprintf("malformed amount %q", req.Amount))
	}
	if p.MinAmount != nil && amount.Cmp(p.MinAmount) < 0 {
		return fail(fmt.Sprintf("amount %s below minimum %s", amount, p.MinAmount))
	}
	if p.MaxAmount != nil && amount.Cmp(p.MaxAmount) > 0 {
		return fail(fmt.Sprintf("amount %s above maximum %s", amount, p.MaxAmount))
	}

	if err := p.Dest.ValidateAddress(req.DestAddress); err != nil {
		return fail(fmt.Sprintf("malformed destination address: %s", err.Error()))
	}

	// reconfirm the source escrow before authorizing anything
	ok, reason, err := p.Verifier.Verify(ctx, req)
	if err != nil {
		return retry(fmt.Sprintf("verify: %s", err.Error()))
	}
	if !ok {
		// would fail identically on unchanged state; parked for
		// operator review, never auto-retried blindly
		return fail(fmt.Sprintf("verification failed: %s", reason))
	}
	if err := p.Tracker.MarkVerified(req.RequestID); err != nil {
		return retry(fmt.Sprintf("tracker: %s", err.Error()))
	}

	// observe reserves to skip a doomed submission; the authoritative
	// check is inside the contract's own transaction
	reserves, err := p.Dest.GetReserves(ctx, req.Token)
	if err != nil {
		return retry(fmt.Sprintf("reserves: %s", err.Error()))
	}
	if p.Metrics != nil {
		bal, _ := new(big.Float).SetInt(reserves.Balance).Float64()
		p.Metrics.SetReserveBalance(p.Dest.Name(), req.Token, bal)
	}
	if reserves.Balance.Cmp(amount) < 0 {
		return retry(fmt.Sprintf("insufficient reserve balance: have %s, need %s", reserves.Balance, amount))
	}

	destTx, err := p.Dest.Release(ctx, req)
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			// the contract's replay guard fired; the payout exists
			return fail(err.Error())
		}
		if errors.Is(err, ErrReleaseReverted) {
			// a confirmed revert repeats identically on resubmission
			return fail(err.Error())
		}
		return retry(fmt.Sprintf("release: %s", err.Error()))
	}

	if err := p.Tracker.MarkReleased(req.RequestID, destTx); err != nil {
		return retry(fmt.Sprintf("tracker: %s", err.Error()))
	}
	p.count("released")
	log.Printf("[%s] released %s %s to %s, tx %s", p.Direction, req.Amount, req.Token, req.DestAddress, destTx)
	return nil
}

func (p *Pipeline) count(result string) {
	if p.Metrics != nil {
		p.Metrics.IncProcessed(p.Direction, result)
	}
}
