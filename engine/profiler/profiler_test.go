package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsAfterInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithInterval(time.Second), WithClock(clock.now), WithTopPasses(1))

	frame := []renderer.PassTiming{
		{Name: "base", Duration: 4 * time.Millisecond, Draws: 3},
		{Name: "bloom", Duration: 2 * time.Millisecond, Draws: 1},
	}
	for range 3 {
		clock.t = clock.t.Add(250 * time.Millisecond)
		assert.False(t, p.Tick(frame))
	}
	clock.t = clock.t.Add(250 * time.Millisecond)
	require.True(t, p.Tick(frame))

	stats := p.Last()
	assert.Equal(t, 4, stats.Frames)
	assert.InDelta(t, 4.0, stats.FPS, 1e-9)
	require.Len(t, stats.Passes, 2)
	assert.Equal(t, PassStat{Name: "base", Mean: 4 * time.Millisecond, Draws: 3}, stats.Passes[0])
	assert.Equal(t, "bloom", stats.Passes[1].Name)

	// totals reset with the interval
	clock.t = clock.t.Add(time.Second)
	require.True(t, p.Tick(nil))
	assert.Empty(t, p.Last().Passes)
	assert.Equal(t, 1, p.Last().Frames)
}
