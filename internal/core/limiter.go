package core

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
)

// ErrTooManyExports is returned when every export slot is held and the wait
// expires.
var ErrTooManyExports = errors.New("too many exports in progress, please try again later")

// DefaultMaxConcurrentExports is the default limit for parallel runs.
const DefaultMaxConcurrentExports = 1

// DefaultMaxWaitTime is how long Acquire waits for a slot.
const DefaultMaxWaitTime = 30 * time.Second

// ExportLimiter hands out export slots, each held by one run ID.
type ExportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu      sync.Mutex
	running map[string]time.Time
	idle    chan struct{} // closed while no run holds a slot
}

// NewExportLimiter allows at most maxConcurrent runs at once. Acquire gives
// up after maxWait.
func NewExportLimiter(maxConcurrent int, maxWait time.Duration) *ExportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentExports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	idle := make(chan struct{})
	close(idle)
	return &ExportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		running: make(map[string]time.Time),
		idle:    idle,
	}
}

// Acquire waits for a slot for runID. The returned release frees it and is
// safe to call more than once.
func (l *ExportLimiter) Acquire(ctx context.Context, runID string) (release func(), err error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slots <- struct{}{}:
		return l.hold(runID), nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrTooManyExports
	}
}

// TryAcquire takes a slot for runID only if one is free now.
func (l *ExportLimiter) TryAcquire(runID string) (release func(), ok bool) {
	select {
	case l.slots <- struct{}{}:
		return l.hold(runID), true
	default:
		return nil, false
	}
}

func (l *ExportLimiter) hold(runID string) func() {
	l.mu.Lock()
	if len(l.running) == 0 {
		l.idle = make(chan struct{})
	}
	l.running[runID] = time.Now()
	l.mu.Unlock()

	return sync.OnceFunc(func() {
		l.mu.Lock()
		delete(l.running, runID)
		if len(l.running) == 0 {
			close(l.idle)
		}
		l.mu.Unlock()
		<-l.slots
	})
}

// WaitForDrain blocks until no run holds a slot or ctx ends.
func (l *ExportLimiter) WaitForDrain(ctx context.Context) error {
	for {
		l.mu.Lock()
		idle, done := l.idle, len(l.running) == 0
		l.mu.Unlock()
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}
	}
}

// LimiterStatus is a snapshot of the slots for the health endpoint.
type LimiterStatus struct {
	Active        int      `json:"active"`
	Available     int      `json:"available"`
	MaxConcurrent int      `json:"max_concurrent"`
	Running       []string `json:"running,omitempty"` // oldest first
}

// Status reports which runs hold slots.
func (l *ExportLimiter) Status() LimiterStatus {
	l.mu.Lock()
	ids := make([]string, 0, len(l.running))
	for id := range l.running {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		if c := l.running[a].Compare(l.running[b]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	l.mu.Unlock()

	return LimiterStatus{
		Active:        len(ids),
		Available:     cap(l.slots) - len(ids),
		MaxConcurrent: cap(l.slots),
		Running:       ids,
	}
}
