package renderer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/render_target"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fillFragment = `//@oxy:include varyings
//@oxy:kernel fill

struct Inputs {
    value: vec4<f32>,
};

@group(0) @binding(0) var<uniform> inputs: Inputs;

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return inputs.value;
}
`

const scaleFragment = `//@oxy:include varyings
//@oxy:kernel scale

struct Inputs {
    factor: f32,
};

@group(0) @binding(0) var<uniform> inputs: Inputs;
@group(1) @binding(0) var source: texture_2d<f32>;

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let size = vec2<f32>(textureDimensions(source));
    let c = textureLoad(source, vec2<i32>(in.uv * size), 0);
    return vec4<f32>(c.rgb * inputs.factor, c.a);
}
`

const albedoFragment = `//@oxy:include varyings
//@oxy:kernel albedo

struct Inputs {
    albedo: vec4<f32>,
};

@group(0) @binding(0) var<uniform> inputs: Inputs;

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return inputs.albedo;
}
`

func testKernels() shader.KernelRegistry {
	k := shader.NewKernelRegistry()
	k.Register("fill", func(f *shader.Fragment) {
		f.Out[0] = f.Vec4("value")
	})
	k.Register("scale", func(f *shader.Fragment) {
		size := f.TextureSize("source")
		c := f.Load("source", int(f.UV[0]*size[0]), int(f.UV[1]*size[1]))
		s := f.Float("factor")
		f.Out[0] = [4]float32{c[0] * s, c[1] * s, c[2] * s, c[3]}
	})
	k.Register("albedo", func(f *shader.Fragment) {
		f.Out[0] = f.Vec4("albedo")
	})
	return k
}

func newTestRenderer(t *testing.T, options ...RendererBuilderOption) Renderer {
	t.Helper()
	main := camera.NewCamera(camera.WithLookAt([3]float32{0, 0, 5}, [3]float32{0, 0, 0}, [3]float32{0, 1, 0}))
	opts := append([]RendererBuilderOption{
		WithSize(16, 16),
		WithWorkers(3),
		WithKernels(testKernels()),
		WithCamera(main),
	}, options...)
	r := NewRenderer(BackendTypeSoftware, nil, opts...)
	t.Cleanup(r.Release)
	return r
}

func compile(t *testing.T, r Renderer, fragment string) shader.Program {
	t.Helper()
	prog, err := r.Compiler().Compile(SceneVertexSource, fragment)
	require.NoError(t, err)
	return prog
}

// addPass creates a target, binds a pass to it and adds it to the graph.
func addPass(t *testing.T, r Renderer, cfg render_target.Config, fragment string, key int, opts ...pipeline.PassBuilderOption) pipeline.Pass {
	t.Helper()
	rt, err := r.Targets().Create(cfg)
	require.NoError(t, err)
	p := pipeline.NewPass(cfg.Name, opts...)
	require.NoError(t, p.Bind(rt, compile(t, r, fragment), key))
	require.NoError(t, r.AddPass(p))
	return p
}

func quadTarget(name string) render_target.Config {
	return render_target.Config{Name: name, Format: texture.RGBA32F()}
}

func TestTwoPassScenario(t *testing.T) {
	r := newTestRenderer(t)

	a := addPass(t, r, quadTarget("a"), fillFragment, 1,
		pipeline.WithInput("value", shader.Vec4(0.25, 0.25, 0.25, 1)))
	b := addPass(t, r, quadTarget("b"), scaleFragment, 2,
		pipeline.WithInput("source", shader.Tex(a.Target().Texture(0))),
		pipeline.WithInput("factor", shader.Float(2)))
	require.NoError(t, r.Present(b.Target(), 0))

	require.NoError(t, r.Run(context.Background()))

	out := b.Target().Texture(0)
	for y := range out.Height() {
		for x := range out.Width() {
			assert.InDelta(t, 0.5, out.At(x, y)[0], 1e-6, "texel %d,%d", x, y)
		}
	}

	screen := r.Backend().Screen()
	require.NotNil(t, screen)
	assert.InDelta(t, 0.5, screen.At(8, 8)[1], 1.0/255)

	img, err := r.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint8(128), img.NRGBAAt(3, 3).R)

	timings := r.Timings()
	require.Len(t, timings, 2)
	assert.Equal(t, "a", timings[0].Name)
	assert.Equal(t, 1, timings[0].Draws)
	assert.Equal(t, uint64(1), r.Frame())
}

func TestPresentReplacesPreviousQuad(t *testing.T) {
	r := newTestRenderer(t)
	a := addPass(t, r, quadTarget("a"), fillFragment, 1, pipeline.WithInput("value", shader.Vec4(1, 0, 0, 1)))
	b := addPass(t, r, quadTarget("b"), fillFragment, 2, pipeline.WithInput("value", shader.Vec4(0, 0, 1, 1)))

	_, err := r.Snapshot()
	assert.ErrorIs(t, err, ErrNothingPresented)

	require.NoError(t, r.Present(a.Target(), 0))
	require.NoError(t, r.Present(b.Target(), 0))
	assert.Len(t, r.DisplayRoot().Children(), 1)

	presented, slot, ok := r.Presented()
	require.True(t, ok)
	assert.Equal(t, b.Target(), presented)
	assert.Equal(t, 0, slot)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, [4]float32{0, 0, 1, 1}, r.Backend().Screen().At(5, 5))

	assert.ErrorIs(t, r.Present(a.Target(), 1), ErrInvalidSlot)
	assert.Len(t, r.DisplayRoot().Children(), 1)

	r.HidePresented()
	assert.Empty(t, r.DisplayRoot().Children())
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, [4]float32{0, 0, 0, 1}, r.Backend().Screen().At(5, 5))
}

func TestOrderingViolationStopsFrame(t *testing.T) {
	r := newTestRenderer(t)
	a := addPass(t, r, quadTarget("a"), fillFragment, 5, pipeline.WithInput("value", shader.Vec4(0.25, 0, 0, 1)))
	b := addPass(t, r, quadTarget("b"), scaleFragment, 5,
		pipeline.WithInput("source", shader.Tex(a.Target().Texture(0))),
		pipeline.WithInput("factor", shader.Float(2)))

	err := r.Run(context.Background())
	var violation *OrderingViolation
	require.ErrorAs(t, err, &violation)
	require.Len(t, violation.Edges, 1)
	assert.Equal(t, OrderingEdge{Producer: "a", Consumer: "b", ProducerKey: 5, ConsumerKey: 5, Input: "source"}, violation.Edges[0])
	assert.Equal(t, uint64(0), r.Frame())
	assert.Equal(t, float32(0), b.Target().Texture(0).At(0, 0)[0])

	b.SetOrderKey(6)
	require.NoError(t, r.Validate())
	require.NoError(t, r.Run(context.Background()))
	assert.InDelta(t, 0.5, b.Target().Texture(0).At(0, 0)[0], 1e-6)

	a.SetOrderKey(9)
	assert.ErrorAs(t, r.Run(context.Background()), &violation)
}

func TestOrderingAssertionsDisabled(t *testing.T) {
	r := newTestRenderer(t, WithOrderingAssertions(false))
	a := addPass(t, r, quadTarget("a"), fillFragment, 2, pipeline.WithInput("value", shader.Vec4(0.25, 0, 0, 1)))
	b := addPass(t, r, quadTarget("b"), scaleFragment, 1,
		pipeline.WithInput("source", shader.Tex(a.Target().Texture(0))),
		pipeline.WithInput("factor", shader.Float(2)))

	require.NoError(t, r.Run(context.Background()))
	// b ran first and read a's cleared attachment.
	assert.Equal(t, float32(0), b.Target().Texture(0).At(0, 0)[0])
	assert.Error(t, r.Validate())
}

func TestAssignOrderKeys(t *testing.T) {
	r := newTestRenderer(t)
	c := addPass(t, r, quadTarget("c"), fillFragment, 0, pipeline.WithInput("value", shader.Vec4(1, 1, 1, 1)))
	b := addPass(t, r, quadTarget("b"), scaleFragment, 0,
		pipeline.WithInput("source", shader.Tex(c.Target().Texture(0))),
		pipeline.WithInput("factor", shader.Float(1)))
	a := addPass(t, r, quadTarget("a"), scaleFragment, 0,
		pipeline.WithInput("source", shader.Tex(b.Target().Texture(0))),
		pipeline.WithInput("factor", shader.Float(1)))
	d := addPass(t, r, quadTarget("d"), fillFragment, 0,
		pipeline.WithInput("value", shader.Vec4(0, 0, 0, 1)),
		pipeline.WithAfter("a"))

	require.Error(t, r.Validate())
	require.NoError(t, r.AssignOrderKeys())
	require.NoError(t, r.Validate())

	assert.Equal(t, 1, c.OrderKey())
	assert.Equal(t, 2, b.OrderKey())
	assert.Equal(t, 3, a.OrderKey())
	assert.Equal(t, 4, d.OrderKey())

	names := make([]string, 0, 4)
	for _, p := range r.Passes() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"c", "b", "a", "d"}, names)
}

func TestAssignOrderKeysCycle(t *testing.T) {
	r := newTestRenderer(t)
	rtA, err := r.Targets().Create(quadTarget("a"))
	require.NoError(t, err)
	rtB, err := r.Targets().Create(quadTarget("b"))
	require.NoError(t, err)

	a := pipeline.NewPass("a", pipeline.WithInput("source", shader.Tex(rtB.Texture(0))))
	b := pipeline.NewPass("b", pipeline.WithInput("source", shader.Tex(rtA.Texture(0))))
	require.NoError(t, a.Bind(rtA, compile(t, r, scaleFragment), 1))
	require.NoError(t, b.Bind(rtB, compile(t, r, scaleFragment), 2))
	require.NoError(t, r.AddPass(a))
	require.NoError(t, r.AddPass(b))

	err = r.AssignOrderKeys()
	var violation *OrderingViolation
	require.ErrorAs(t, err, &violation)
	assert.ElementsMatch(t, []string{"a", "b"}, violation.Cycle)
	assert.Equal(t, 1, a.OrderKey())
}

func TestEqualKeysRunInInsertionOrder(t *testing.T) {
	r := newTestRenderer(t)
	addPass(t, r, quadTarget("second"), fillFragment, 3, pipeline.WithInput("value", shader.Vec4(1, 0, 0, 1)))
	addPass(t, r, quadTarget("first"), fillFragment, 1, pipeline.WithInput("value", shader.Vec4(0, 1, 0, 1)))
	addPass(t, r, quadTarget("third"), fillFragment, 3, pipeline.WithInput("value", shader.Vec4(0, 0, 1, 1)))

	require.NoError(t, r.Run(context.Background()))
	timings := r.Timings()
	require.Len(t, timings, 3)
	assert.Equal(t, "first", timings[0].Name)
	assert.Equal(t, "second", timings[1].Name)
	assert.Equal(t, "third", timings[2].Name)
}

func TestTagIsolation(t *testing.T) {
	r := newTestRenderer(t)

	left := scene.NewNode("left", scene.WithMesh(scene.NewQuadMesh()), scene.WithPosition(-1, 0, 0), scene.WithScale(0.5, 0.5, 0.5))
	right := scene.NewNode("right", scene.WithMesh(scene.NewQuadMesh()), scene.WithPosition(1, 0, 0), scene.WithScale(0.5, 0.5, 0.5))
	left.ReparentTo(r.SceneRoot())
	right.ReparentTo(r.SceneRoot())

	red := shader.Vec4(1, 0, 0, 1)
	geometry := addPass(t, r, render_target.Config{Name: "geometry", Format: texture.RGBA32F(), UsesFullScene: true},
		albedoFragment, 1, pipeline.WithInput("albedo", red))
	other := addPass(t, r, render_target.Config{Name: "other", Format: texture.RGBA32F(), UsesFullScene: true},
		albedoFragment, 1, pipeline.WithInput("albedo", red))

	r.Registry().ResolveTagState("geometry", "isWater",
		material.NewMaterial("water", material.WithInput("albedo", shader.Vec4(0, 0, 1, 1))))
	r.Registry().Tag(right, "geometry", "isWater")

	require.NoError(t, r.Run(context.Background()))

	g := geometry.Target().Texture(0)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, g.At(4, 8))
	assert.Equal(t, [4]float32{0, 0, 1, 1}, g.At(11, 8))
	assert.Equal(t, [4]float32{0, 0, 0, 0}, g.At(0, 0))

	o := other.Target().Texture(0)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, o.At(4, 8))
	assert.Equal(t, [4]float32{1, 0, 0, 1}, o.At(11, 8))

	geometry.SetInput("albedo", shader.Vec4(0, 1, 0, 1))
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, [4]float32{0, 1, 0, 1}, g.At(4, 8))
	assert.Equal(t, [4]float32{0, 0, 1, 1}, g.At(11, 8))
}

func TestCameraMaskHidesNodes(t *testing.T) {
	r := newTestRenderer(t)
	smoke := scene.NewNode("smoke", scene.WithMesh(scene.NewQuadMesh()), scene.WithHidden(scene.MaskBit(1)))
	smoke.ReparentTo(r.SceneRoot())

	base := addPass(t, r, render_target.Config{Name: "base", Format: texture.RGBA32F(), UsesFullScene: true},
		albedoFragment, 1, pipeline.WithInput("albedo", shader.Vec4(1, 1, 1, 1)), pipeline.WithCameraMask(scene.MaskBit(1)))
	all := addPass(t, r, render_target.Config{Name: "all", Format: texture.RGBA32F(), UsesFullScene: true},
		albedoFragment, 1, pipeline.WithInput("albedo", shader.Vec4(1, 1, 1, 1)), pipeline.WithCameraMask(scene.MaskBit(2)))

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, [4]float32{0, 0, 0, 0}, base.Target().Texture(0).At(8, 8))
	assert.Equal(t, [4]float32{1, 1, 1, 1}, all.Target().Texture(0).At(8, 8))
}

func TestDepthTestKeepsNearestSurface(t *testing.T) {
	r := newTestRenderer(t)
	far := scene.NewNode("far", scene.WithMesh(scene.NewQuadMesh()), scene.WithPosition(0, 0, -1))
	near := scene.NewNode("near", scene.WithMesh(scene.NewQuadMesh()), scene.WithPosition(0, 0, 1))
	near.ReparentTo(r.SceneRoot())
	far.ReparentTo(r.SceneRoot())

	p := addPass(t, r, render_target.Config{Name: "geometry", Format: texture.RGBA32F(), UsesFullScene: true},
		albedoFragment, 1, pipeline.WithInput("albedo", shader.Vec4(1, 0, 0, 1)))
	r.Registry().ResolveTagState("geometry", "far", material.NewMaterial("far", material.WithInput("albedo", shader.Vec4(0, 1, 0, 1))))
	r.Registry().Tag(far, "geometry", "far")

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, [4]float32{1, 0, 0, 1}, p.Target().Texture(0).At(8, 8))
}

func TestRunChecksContext(t *testing.T) {
	r := newTestRenderer(t)
	addPass(t, r, quadTarget("a"), fillFragment, 1, pipeline.WithInput("value", shader.Vec4(1, 1, 1, 1)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
	assert.Equal(t, uint64(0), r.Frame())
}

func TestAddPassErrors(t *testing.T) {
	r := newTestRenderer(t)
	assert.ErrorIs(t, r.AddPass(pipeline.NewPass("loose")), ErrPassNotBound)

	a := addPass(t, r, quadTarget("a"), fillFragment, 1)

	dup := pipeline.NewPass("a")
	rt, err := r.Targets().Create(quadTarget("other"))
	require.NoError(t, err)
	require.NoError(t, dup.Bind(rt, compile(t, r, fillFragment), 2))
	assert.ErrorIs(t, r.AddPass(dup), ErrDuplicatePass)

	shared := pipeline.NewPass("shared")
	require.NoError(t, shared.Bind(a.Target(), compile(t, r, fillFragment), 2))
	assert.ErrorIs(t, r.AddPass(shared), ErrTargetInUse)

	assert.Equal(t, a, r.Pass("a"))
	assert.Nil(t, r.Pass("shared"))
}

func TestCompileErrors(t *testing.T) {
	r := newTestRenderer(t)
	_, err := r.Compiler().Compile(SceneVertexSource, `//@oxy:include varyings
//@oxy:kernel nope

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`)
	var compileErr *shader.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.ErrorIs(t, err, shader.ErrUnknownKernel)
}

func TestResizeReachesTargetsAndCamera(t *testing.T) {
	r := newTestRenderer(t)
	a := addPass(t, r, quadTarget("a"), fillFragment, 1, pipeline.WithInput("value", shader.Vec4(1, 1, 1, 1)))
	tex := a.Target().Texture(0)

	require.NoError(t, r.Resize(32, 8))
	w, h := r.Size()
	assert.Equal(t, 32, w)
	assert.Equal(t, 8, h)
	assert.Same(t, tex, a.Target().Texture(0))
	assert.Equal(t, 32, tex.Width())
	assert.InDelta(t, 4, r.Camera().Aspect(), 1e-6)

	require.NoError(t, r.Present(a.Target(), 0))
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 32, r.Backend().Screen().Width())
	assert.Equal(t, [4]float32{1, 1, 1, 1}, r.Backend().Screen().At(31, 7))
}

func TestBufferViewer(t *testing.T) {
	r := newTestRenderer(t)
	a := addPass(t, r, quadTarget("a"), fillFragment, 1)
	b := addPass(t, r, render_target.Config{Name: "b", Format: texture.RGBA32F(), AuxCount: 1}, fillFragment, 2)

	v := NewBufferViewer(r,
		BufferEntry{Name: "a", Target: a.Target(), Slot: 0},
		BufferEntry{Name: "b", Target: b.Target(), Slot: 0},
		BufferEntry{Name: "b.aux0", Target: b.Target(), Slot: 1},
	)
	assert.True(t, v.Hidden())

	require.NoError(t, v.Next())
	cur, ok := v.Current()
	require.True(t, ok)
	assert.Equal(t, "b", cur.Name)
	_, slot, _ := r.Presented()
	assert.Equal(t, 0, slot)

	require.NoError(t, v.Next())
	_, slot, _ = r.Presented()
	assert.Equal(t, 1, slot)

	require.NoError(t, v.Next())
	cur, _ = v.Current()
	assert.Equal(t, "a", cur.Name)

	require.NoError(t, v.Previous())
	cur, _ = v.Current()
	assert.Equal(t, "b.aux0", cur.Name)
	assert.Len(t, r.DisplayRoot().Children(), 1)

	v.Hide()
	assert.True(t, v.Hidden())
	_, _, ok = r.Presented()
	assert.False(t, ok)
}

func TestSaveSnapshot(t *testing.T) {
	r := newTestRenderer(t)
	a := addPass(t, r, quadTarget("a"), fillFragment, 1, pipeline.WithInput("value", shader.Vec4(0, 1, 0, 1)))
	require.NoError(t, r.Present(a.Target(), 0))
	require.NoError(t, r.Run(context.Background()))

	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, r.SaveSnapshot(path))
	assert.FileExists(t, path)

	scaled, err := r.SnapshotScaled(4, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, scaled.Bounds().Dx())
	assert.Equal(t, uint8(255), scaled.NRGBAAt(2, 2).G)
}
