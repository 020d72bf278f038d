package escrow

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
)

var ErrInsufficientReserve = errors.New("insufficient reserve balance")

// ReservePool models the per-asset reserve counters of the bridge
// contract. Balance only grows through Fund/Deposit and only shrinks
// through a successful Release; the balance check happens before the
// mutation so the pool can never go negative.
type ReservePool struct {
	mu     sync.Mutex
	assets map[string]*reserveEntry
}

type reserveEntry struct {
	balance       *big.Int
	totalIn       *big.Int
	totalOut      *big.Int
	feesCollected *big.Int
}

func NewReservePool() *ReservePool {
	return &ReservePool{assets: make(map[string]*reserveEntry)}
}

func (p *ReservePool) entry(token string) *reserveEntry {
	e, ok := p.assets[token]
	if !ok {
		e = &reserveEntry{
			balance:       big.NewInt(0),
			totalIn:       big.NewInt(0),
			totalOut:      big.NewInt(0),
			feesCollected: big.NewInt(0),
		}
		p.assets[token] = e
	}
	return e
}

// Fund adds operator liquidity without counting it as bridged volume.
func (p *ReservePool) Fund(token string, amount *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entry(token)
	e.balance.Add(e.balance, amount)
}

// Deposit credits an incoming bridge transfer, splitting off the fee.
func (p *ReservePool) Deposit(token string, amount *big.Int, feeBasisPoints int) (net *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	net, fee := SplitFee(amount, feeBasisPoints)
	e := p.entry(token)
	e.balance.Add(e.balance, net)
	e.totalIn.Add(e.totalIn, net)
	e.feesCollected.Add(e.feesCollected, fee)
	return net
}

// Release pays out from reserves. The balance is checked before any
// counter is touched.
func (p *ReservePool) Release(token string, amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entry(token)
	if e.balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientReserve, e.balance, amount)
	}
	e.balance.Sub(e.balance, amount)
	e.totalOut.Add(e.totalOut, amount)
	return nil
}

// Snapshot returns a copy of the counters for one asset.
func (p *ReservePool) Snapshot(token string) (balance, totalIn, totalOut, fees *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entry(token)
	return new(big.Int).Set(e.balance), new(big.Int).Set(e.totalIn),
		new(big.Int).Set(e.totalOut), new(big.Int).Set(e.feesCollected)
}
