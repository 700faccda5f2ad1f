package core

// gate.go implements the request serializer.
//
// Every operation on the workbook, reads included, runs while holding the
// gate. The gate is a one-slot semaphore: a caller waits up to maxWait for
// the slot and fails with ErrLockTimeout when it does not get it. Once held,
// an operation runs to completion and releases the slot unconditionally.

import (
	"context"
	"sync"
	"time"
)

// DefaultLockWait is how long a caller waits for the gate before giving up.
const DefaultLockWait = 30 * time.Second

// Gate serializes access to the workbook.
type Gate struct {
	slot    chan struct{}
	maxWait time.Duration

	mu       sync.RWMutex
	held     bool
	heldBy   string
	since    time.Time
	timeouts int64
}

// NewGate returns a gate whose Acquire waits at most maxWait.
func NewGate(maxWait time.Duration) *Gate {
	if maxWait <= 0 {
		maxWait = DefaultLockWait
	}
	return &Gate{
		slot:    make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Acquire takes the gate on behalf of op. It returns ErrLockTimeout when the
// wait expires, or the context error when ctx ends first.
// The caller MUST call Release after a successful Acquire (use defer).
func (g *Gate) Acquire(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := time.NewTimer(g.maxWait)
	defer timer.Stop()

	select {
	case g.slot <- struct{}{}:
		g.mu.Lock()
		g.held = true
		g.heldBy = op
		g.since = time.Now()
		g.mu.Unlock()
		return nil

	case <-timer.C:
		g.mu.Lock()
		g.timeouts++
		g.mu.Unlock()
		return ErrLockTimeout

	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the gate.
func (g *Gate) Release() {
	g.mu.Lock()
	g.held = false
	g.heldBy = ""
	g.since = time.Time{}
	g.mu.Unlock()

	<-g.slot
}

// Do runs fn while holding the gate.
func (g *Gate) Do(ctx context.Context, op string, fn func() error) error {
	if err := g.Acquire(ctx, op); err != nil {
		return err
	}
	defer g.Release()
	return fn()
}

// GateStatus is a snapshot of the gate for monitoring.
type GateStatus struct {
	Held     bool          `json:"held"`
	HeldBy   string        `json:"heldBy,omitempty"`
	HeldFor  time.Duration `json:"heldFor,omitempty"`
	MaxWait  time.Duration `json:"maxWait"`
	Timeouts int64         `json:"timeouts"`
}

// Status returns the current gate state.
func (g *Gate) Status() GateStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()

	st := GateStatus{
		Held:     g.held,
		HeldBy:   g.heldBy,
		MaxWait:  g.maxWait,
		Timeouts: g.timeouts,
	}
	if g.held {
		st.HeldFor = time.Since(g.since)
	}
	return st
}

// WaitForIdle blocks until the gate is free or ctx ends.
// Used during shutdown to let the running operation finish.
func (g *Gate) WaitForIdle(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.mu.RLock()
			held := g.held
			g.mu.RUnlock()
			if !held {
				return nil
			}
		}
	}
}
