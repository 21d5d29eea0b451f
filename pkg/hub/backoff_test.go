package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(BackoffConfig{})
	assert.Equal(t, InitialBackoff, b.Current())
	assert.Zero(t, b.Attempts())
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: 100 * time.Millisecond, Max: 400 * time.Millisecond, Jitter: -1})

	want := []time.Duration{100, 200, 400, 400, 400}
	for i, w := range want {
		assert.Equal(t, w*time.Millisecond, b.Next(), "attempt %d", i+1)
	}
	assert.Equal(t, 5, b.Attempts())
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: 100 * time.Millisecond, Max: 100 * time.Millisecond, Jitter: 0.5})

	for i := 0; i < 50; i++ {
		d := b.Next()
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: 10 * time.Millisecond, Jitter: -1})
	b.Next()
	b.Next()
	assert.Equal(t, 40*time.Millisecond, b.Current())

	b.Reset()
	assert.Equal(t, 10*time.Millisecond, b.Current())
	assert.Zero(t, b.Attempts())
}

func TestBackoffMaxBelowInitial(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: time.Second, Max: time.Millisecond, Jitter: -1})
	assert.Equal(t, time.Second, b.Next())
	assert.Equal(t, time.Second, b.Next())
}
