package pacing

import (
	"context"
	"testing"
	"time"
)

// go test -v --run TestPacerBatchDelay
func TestPacerBatchDelay(t *testing.T) {
	// Batch pause of 30ms after every 2 calls; base/jitter kept at zero so
	// only batch boundaries cost time.
	p := NewPacer(0, 0, 30*time.Millisecond, 2)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("wait failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	if elapsed < 30*time.Millisecond {
		t.Errorf("expected batch delay after 2 calls, elapsed only %v", elapsed)
	}
	if p.Calls() != 2 {
		t.Errorf("expected 2 recorded calls, got %d", p.Calls())
	}
}

// go test -v --run TestPacerBaseDelay
func TestPacerBaseDelay(t *testing.T) {
	p := NewPacer(20*time.Millisecond, 0, 0, 0)

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected at least base delay, elapsed %v", elapsed)
	}
}

// go test -v --run TestPacerContextCancel
func TestPacerContextCancel(t *testing.T) {
	p := NewPacer(time.Minute, 0, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Wait(ctx); err == nil {
		t.Error("expected error on canceled context")
	}
}
