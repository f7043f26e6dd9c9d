package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPacingSpacesSameKind(t *testing.T) {
	p := NewPacingPolicy()
	p.SetSpacing(OpList, 30*time.Millisecond)

	start := time.Now()
	p.BeforeSend(OpList)
	p.BeforeSend(OpList)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond, "second send of the same kind must wait out the gap")
}

func TestPacingFirstSendIsImmediate(t *testing.T) {
	p := NewPacingPolicy()
	p.SetSpacing(OpList, time.Second)

	start := time.Now()
	p.BeforeSend(OpList)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacingKindsAreIndependent(t *testing.T) {
	p := NewPacingPolicy()
	p.SetSpacing(OpList, time.Second)
	p.SetSpacing(OpStats, time.Millisecond)

	p.BeforeSend(OpList)

	// A different kind is not held back by the list send.
	start := time.Now()
	p.BeforeSend(OpStats)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacingFallbackForUnknownKind(t *testing.T) {
	p := NewPacingPolicy()

	start := time.Now()
	p.BeforeSend(OpDelete)
	p.BeforeSend(OpDelete)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, DefaultSpacing, "unconfigured kinds use the fallback spacing")
}

func TestPacingDefaults(t *testing.T) {
	p := NewPacingPolicy()
	assert.Equal(t, DefaultStatsSpacing, p.spacing[OpStats])
	assert.Equal(t, DefaultStatsSpacing, p.spacing[OpBudget])
	assert.Equal(t, DefaultSpacing, p.fallback)
}
