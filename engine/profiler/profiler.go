package profiler

import (
	"runtime"
	"sort"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"go.uber.org/zap"
)

// Stats is one reporting interval of the profiler.
type Stats struct {
	FPS         float64
	Frames      int
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
	// Passes holds the mean duration per frame of each pass, slowest first.
	Passes []PassStat
}

// PassStat is the mean per-frame cost of one pass over an interval.
type PassStat struct {
	Name  string
	Mean  time.Duration
	Draws int
}

// Profiler tracks frame rate, memory statistics and pass timings.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	topPasses      int
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	passTotals map[string]time.Duration
	passDraws  map[string]int
	last       Stats
	now        func() time.Time
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second and the three slowest passes are reported.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		topPasses:      3,
		passTotals:     make(map[string]time.Duration),
		passDraws:      make(map[string]int),
		now:            time.Now,
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with the pass timings of that frame.
// Logs performance statistics when the update interval has elapsed.
//
// Parameters:
//   - timings: the pass timings of the frame, as returned by Renderer.Timings
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(timings []renderer.PassTiming) bool {
	p.frameCount++
	for _, t := range timings {
		p.passTotals[t.Name] += t.Duration
		p.passDraws[t.Name] = t.Draws
	}

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	stats := Stats{
		FPS:     float64(p.frameCount) / elapsed.Seconds(),
		Frames:  p.frameCount,
		HeapMB:  float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:   float64(p.memStats.Sys) / 1024 / 1024,
		GCCount: p.memStats.NumGC,
	}
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	stats.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 pauses
	if gcCount := p.memStats.NumGC; gcCount > 0 {
		stats.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			stats.MaxPauseUs = max(stats.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	for name, total := range p.passTotals {
		stats.Passes = append(stats.Passes, PassStat{
			Name:  name,
			Mean:  total / time.Duration(p.frameCount),
			Draws: p.passDraws[name],
		})
	}
	sort.Slice(stats.Passes, func(i, j int) bool {
		if stats.Passes[i].Mean != stats.Passes[j].Mean {
			return stats.Passes[i].Mean > stats.Passes[j].Mean
		}
		return stats.Passes[i].Name < stats.Passes[j].Name
	})

	fields := []zap.Field{
		zap.Float64("fps", stats.FPS),
		zap.Float64("heap_mb", stats.HeapMB),
		zap.Float64("alloc_rate_mb", stats.AllocRateMB),
		zap.Uint32("gc", stats.GCCount),
		zap.Uint64("gc_last_us", stats.LastPauseUs),
		zap.Uint64("gc_max_us", stats.MaxPauseUs),
		zap.Float64("sys_mb", stats.SysMB),
	}
	for i, ps := range stats.Passes {
		if i >= p.topPasses {
			break
		}
		fields = append(fields, zap.Duration("slow_"+ps.Name, ps.Mean))
	}
	common.Logger().Info("profiler", fields...)

	p.last = stats
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = stats.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	clear(p.passTotals)
	clear(p.passDraws)
	return true
}

// Last returns the stats of the most recent reporting interval.
func (p *Profiler) Last() Stats {
	return p.last
}
