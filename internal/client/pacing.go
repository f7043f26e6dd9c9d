package client

import (
	"sync"
	"time"
)

// OpKind identifies one API operation for pacing purposes.
type OpKind string

const (
	OpList   OpKind = "list"
	OpGet    OpKind = "get"
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
	OpStats  OpKind = "stats"
	OpBudget OpKind = "budget"
)

// Default minimum spacings between consecutive sends of the same
// operation kind. Aggregation endpoints get a wider gap than plain CRUD.
const (
	DefaultSpacing      = 50 * time.Millisecond
	DefaultStatsSpacing = 100 * time.Millisecond
)

// PacingPolicy imposes a minimum spacing between consecutive sends of the
// same operation kind, lowering the chance of tripping the backend's rate
// limiter. It is best-effort only: independent clients or processes are
// not coordinated by it.
type PacingPolicy struct {
	mu       sync.Mutex
	spacing  map[OpKind]time.Duration
	fallback time.Duration
	lastSend map[OpKind]time.Time
}

// NewPacingPolicy returns a policy with the default per-kind spacings.
func NewPacingPolicy() *PacingPolicy {
	return &PacingPolicy{
		spacing: map[OpKind]time.Duration{
			OpStats:  DefaultStatsSpacing,
			OpBudget: DefaultStatsSpacing,
		},
		fallback: DefaultSpacing,
		lastSend: make(map[OpKind]time.Time),
	}
}

// SetSpacing overrides the minimum spacing for one operation kind.
func (p *PacingPolicy) SetSpacing(kind OpKind, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spacing[kind] = d
}

// BeforeSend blocks until at least the configured spacing has elapsed
// since the previous send of the same kind, then records this send.
func (p *PacingPolicy) BeforeSend(kind OpKind) {
	p.mu.Lock()
	minGap, ok := p.spacing[kind]
	if !ok {
		minGap = p.fallback
	}
	wait := time.Duration(0)
	if last, ok := p.lastSend[kind]; ok {
		if elapsed := time.Since(last); elapsed < minGap {
			wait = minGap - elapsed
		}
	}
	p.lastSend[kind] = time.Now().Add(wait)
	p.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}
