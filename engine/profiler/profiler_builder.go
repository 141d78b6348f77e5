package profiler

import "time"

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often stats are logged.
// Default: 1 second.
//
// Parameters:
//   - d: the reporting interval
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval option
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithTopPasses sets how many of the slowest passes are logged.
// Default: 3.
//
// Parameters:
//   - n: the number of passes
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the option
func WithTopPasses(n int) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.topPasses = n
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
