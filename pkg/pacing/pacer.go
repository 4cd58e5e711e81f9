package pacing

import (
	"context"
	"math/rand"
	"time"
)

// Pacer spaces outbound source calls: every call waits base plus a
// uniform random jitter, and every batchSize-th call waits an extra
// batchDelay. This is advisory pacing against an undocumented throttle,
// not a token bucket; it assumes a single collection flow at a time.
type Pacer struct {
	base       time.Duration
	jitter     time.Duration
	batchDelay time.Duration
	batchSize  int

	calls int
}

func NewPacer(base, jitter, batchDelay time.Duration, batchSize int) *Pacer {
	return &Pacer{
		base:       base,
		jitter:     jitter,
		batchDelay: batchDelay,
		batchSize:  batchSize,
	}
}

// Wait blocks for the delay due before the next source call.
func (p *Pacer) Wait(ctx context.Context) error {
	d := p.base
	if p.jitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.jitter)))
	}

	p.calls++
	if p.batchSize > 0 && p.calls%p.batchSize == 0 {
		d += p.batchDelay
	}

	return sleep(ctx, d)
}

// Calls reports how many waits have been issued so far.
func (p *Pacer) Calls() int {
	return p.calls
}
