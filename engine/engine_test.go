package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/render_target"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/temporal"
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newMill(t *testing.T, toggles toggle.Set) (renderer.Renderer, *config.Pipeline) {
	t.Helper()
	cam := camera.NewCamera(camera.WithLookAt([3]float32{0, -8, 4}, [3]float32{0, 0, 0}, [3]float32{0, 0, 1}))
	r := renderer.NewRenderer(renderer.BackendTypeSoftware, nil,
		renderer.WithSize(16, 12),
		renderer.WithWorkers(2),
		renderer.WithCamera(cam),
	)
	t.Cleanup(r.Release)

	scene.NewNode("water",
		scene.WithMesh(scene.NewPlaneMesh(6, 6, [4]float32{0.2, 0.4, 0.6, 1})),
		scene.WithParent(r.SceneRoot()),
		scene.WithTag("geometryBuffer1", "isWater"),
	)

	desc, err := config.Default()
	require.NoError(t, err)
	p, err := config.Assemble(context.Background(), r, desc, config.WithToggleSet(toggles))
	require.NoError(t, err)
	p.TagScene(r.SceneRoot())
	return r, p
}

func TestFrameAdvancesTemporalState(t *testing.T) {
	toggles := toggle.NewSet()
	r, p := newMill(t, toggles)
	clock := &fakeClock{t: time.Unix(100, 0)}
	e := NewEngine(WithRenderer(r), WithPipeline(p), WithToggles(toggles), WithClock(clock.now))

	require.NoError(t, e.Frame(context.Background()))
	first := r.Camera().Transform()

	r.Camera().LookAt([3]float32{3, -6, 4}, [3]float32{0, 0, 0}, [3]float32{0, 0, 1})
	clock.t = clock.t.Add(500 * time.Millisecond)
	require.NoError(t, e.Frame(context.Background()))

	assert.Equal(t, uint64(2), r.Frame())
	assert.Equal(t, uint64(2), e.Temporal().Frame())
	assert.Equal(t, first, e.Temporal().Previous())
	assert.Equal(t, r.Camera().Transform(), e.Temporal().Current())

	prev, ok := p.Pass("motionBlur").Input(temporal.InputPreviousViewWorld)
	require.True(t, ok)
	assert.Equal(t, first[:], prev.Values)

	frameTime, ok := p.Pass("filmGrain").Input(config.InputFrameTime)
	require.True(t, ok)
	assert.InDelta(t, 0.5, frameTime.Values[0], 1e-6)

	lens, ok := p.Pass("reflectionUv").Input(config.InputLensProjection)
	if ok {
		proj := r.Camera().ProjectionMatrix()
		assert.Equal(t, proj[:], lens.Values)
	}
}

func TestFrameAppliesTogglesBetweenFrames(t *testing.T) {
	toggles := toggle.NewSet()
	r, p := newMill(t, toggles)
	e := NewEngine(WithRenderer(r), WithPipeline(p), WithToggles(toggles))

	require.NoError(t, e.Frame(context.Background()))
	fogInput := toggle.InputName(toggle.Fog)
	v, ok := p.Pass("fog").Input(fogInput)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 1}, v.Values)

	require.NoError(t, toggles.Set(toggle.Fog, false))
	// queued, not yet visible
	v, _ = p.Pass("fog").Input(fogInput)
	assert.Equal(t, []float32{1, 1}, v.Values)

	require.NoError(t, e.Frame(context.Background()))
	v, _ = p.Pass("fog").Input(fogInput)
	assert.Equal(t, []float32{0, 0}, v.Values)
	assert.Zero(t, toggles.Pending())
}

func TestRunFramesTicksProfiler(t *testing.T) {
	toggles := toggle.NewSet()
	r, p := newMill(t, toggles)
	clock := &fakeClock{t: time.Unix(0, 0)}
	prof := profiler.NewProfiler(profiler.WithInterval(time.Second), profiler.WithClock(clock.now))
	e := NewEngine(WithRenderer(r), WithPipeline(p), WithToggles(toggles), WithProfiler(prof), WithProfiling(true))

	require.NoError(t, e.RunFrames(context.Background(), 3))
	clock.t = clock.t.Add(2 * time.Second)
	require.NoError(t, e.Frame(context.Background()))

	stats := prof.Last()
	assert.Equal(t, 4, stats.Frames)
	assert.Len(t, stats.Passes, len(p.Passes()))
}

func TestFrameErrors(t *testing.T) {
	e := NewEngine()
	assert.ErrorIs(t, e.Frame(context.Background()), ErrNoRenderer)
	assert.ErrorIs(t, e.Run(), ErrNoWindow)

	toggles := toggle.NewSet()
	r, p := newMill(t, toggles)
	e = NewEngine(WithRenderer(r), WithPipeline(p))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.RunFrames(ctx, 2), context.Canceled)
	assert.Zero(t, r.Frame())
}

func TestSetTickRate(t *testing.T) {
	e := NewEngine(WithTickRate(30)).(*engine)
	assert.Equal(t, time.Second/30, e.engineTickRate)

	e.SetTickRate(0)
	assert.Equal(t, time.Second/60, e.engineTickRate)

	e.SetRenderFrameLimit(120)
	assert.Equal(t, time.Second/120, e.renderFrameLimit)
	e.SetRenderFrameLimit(-1)
	assert.Zero(t, e.renderFrameLimit)
}

const valueFragment = `//@oxy:include varyings
//@oxy:kernel %s

struct Inputs {
    value: vec4<f32>,
};

@group(0) @binding(0) var<uniform> inputs: Inputs;

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return inputs.value;
}
`

func TestEnqueuedUpdatesWaitForFrameEnd(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	kernels := shader.NewKernelRegistry()
	kernels.Register("hold", func(f *shader.Fragment) {
		once.Do(func() { close(started) })
		<-release
		f.Out[0] = f.Vec4("value")
	})
	kernels.Register("value", func(f *shader.Fragment) {
		f.Out[0] = f.Vec4("value")
	})

	r := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithSize(4, 4), renderer.WithWorkers(2), renderer.WithKernels(kernels))
	t.Cleanup(r.Release)

	addPass := func(name, kernel string, key int) pipeline.Pass {
		rt, err := r.Targets().Create(render_target.Config{Name: name, Format: texture.RGBA32F()})
		require.NoError(t, err)
		prog, err := r.Compiler().Compile(renderer.SceneVertexSource, fmt.Sprintf(valueFragment, kernel))
		require.NoError(t, err)
		p := pipeline.NewPass(name, pipeline.WithInput("value", shader.Vec4(0.1, 0, 0, 1)))
		require.NoError(t, p.Bind(rt, prog, key))
		require.NoError(t, r.AddPass(p))
		return p
	}
	a := addPass("a", "hold", 1)
	b := addPass("b", "value", 2)

	e := NewEngine(WithRenderer(r))
	done := make(chan error, 1)
	go func() { done <- e.Frame(context.Background()) }()

	<-started
	e.Enqueue(func() {
		a.SetInput("value", shader.Vec4(0.9, 0, 0, 1))
		b.SetInput("value", shader.Vec4(0.9, 0, 0, 1))
	})
	close(release)
	require.NoError(t, <-done)

	assert.InDelta(t, 0.1, a.Target().Texture(0).At(1, 1)[0], 1e-6)
	assert.InDelta(t, 0.1, b.Target().Texture(0).At(1, 1)[0], 1e-6)

	require.NoError(t, e.Frame(context.Background()))
	assert.InDelta(t, 0.9, a.Target().Texture(0).At(1, 1)[0], 1e-6)
	assert.InDelta(t, 0.9, b.Target().Texture(0).At(1, 1)[0], 1e-6)
}

func TestProfilerToggleIsSafeDuringFrames(t *testing.T) {
	toggles := toggle.NewSet()
	r, p := newMill(t, toggles)
	e := NewEngine(WithRenderer(r), WithPipeline(p), WithToggles(toggles))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 50 {
			if i%2 == 0 {
				e.EnableProfiler()
			} else {
				e.DisableProfiler()
			}
		}
	}()
	require.NoError(t, e.RunFrames(context.Background(), 2))
	wg.Wait()
}
