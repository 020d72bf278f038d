package workers

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/types"
)

// LockVerifier reconfirms a source escrow against its canonical
// on-chain record before any release is authorized. Events can in
// principle be stale or spoofed; the stored record cannot.
type LockVerifier struct {
	Source RequestSource
}

// Verify returns ok=false with a reason for a mismatch, or a non-nil
// error for transient read failures that warrant a retry.
func (v *LockVerifier) Verify(ctx context.Context, req *types.BridgeRequest) (ok bool, reason string, err error) {
	rec, err := v.Source.GetRequest(ctx, req.RequestID)
	if err != nil {
		return false, "", fmt.Errorf("reading source escrow: %w", err)
	}

	if rec == nil || !rec.Exists {
		return false, "no on-chain record for request", nil
	}
	if rec.Processed {
		return false, "source record already marked processed", nil
	}

	claimed, good := new(big.Int).SetString(req.Amount, 10)
	if !good {
		return false, fmt.Sprintf("malformed claimed amount %q", req.Amount), nil
	}
	if rec.Amount == nil || rec.Amount.Cmp(claimed) != 0 {
		return false, fmt.Sprintf("amount mismatch: event %s, record %v", claimed, rec.Amount), nil
	}
	if rec.Token != req.Token {
		return false, fmt.Sprintf("token mismatch: event %s, record %s", req.Token, rec.Token), nil
	}
	return true, "", nil
}
