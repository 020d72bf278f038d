package workers

import (
	"context"
	"math/big"
	"time"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/config"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/tracker"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/types"

	"github.com/google/uuid"
)

// Coordinator owns the two direction pipelines and the shared tracker,
// and is the single thing the HTTP worker reports on.
type Coordinator struct {
	InstanceID string
	Tracker    tracker.Tracker
	EVM        *EVMChain
	Aptos      *AptosChain
	Metrics    *Metrics
	Pipelines  []*Pipeline
}

func NewCoordinator(tr tracker.Tracker) *Coordinator {
	evm := NewEVMChain()
	aptos := NewAptosChain()
	metrics := NewMetrics()
	interval := time.Duration(config.Config.PollInterval) * time.Second

	minAmount, _ := new(big.Int).SetString(config.Config.MinAmount, 10)
	maxAmount, _ := new(big.Int).SetString(config.Config.MaxAmount, 10)

	newPipeline := func(direction string, src RequestSource, dst RequestDestination) *Pipeline {
		return &Pipeline{
			Direction: direction,
			RunID:     uuid.New().String(),
			Source:    src,
			Dest:      dst,
			Tracker:   tr,
			Verifier:  &LockVerifier{Source: src},
			Interval:  interval,
			Metrics:   metrics,
			MinAmount: minAmount,
			MaxAmount: maxAmount,
		}
	}

	return &Coordinator{
		InstanceID: uuid.New().String(),
		Tracker:    tr,
		EVM:        evm,
		Aptos:      aptos,
		Metrics:    metrics,
		Pipelines: []*Pipeline{
			newPipeline("evm->aptos", evm, aptos),
			newPipeline("aptos->evm", aptos, evm),
		},
	}
}

// Run starts both pipelines. They share nothing but the tracker and
// return when the context is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	for _, p := range c.Pipelines {
		go p.Run(ctx)
	}
}

// Status is the point-in-time report served over HTTP.
func (c *Coordinator) Status() types.RelayerStatus {
	status := types.RelayerStatus{
		InstanceID: c.InstanceID,
		Counts:     c.Tracker.Counts(),
	}
	for _, p := range c.Pipelines {
		status.Pipelines = append(status.Pipelines, p.Status())
	}
	return status
}
