package config

import (
	"context"
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/temporal"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T) renderer.Renderer {
	t.Helper()
	cam := camera.NewCamera(camera.WithLookAt([3]float32{0, -8, 4}, [3]float32{0, 0, 0}, [3]float32{0, 0, 1}))
	r := renderer.NewRenderer(renderer.BackendTypeSoftware, nil,
		renderer.WithSize(24, 16),
		renderer.WithWorkers(2),
		renderer.WithCamera(cam),
	)
	t.Cleanup(r.Release)
	return r
}

func names[T interface{ Name() string }](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name()
	}
	return out
}

func TestAssembleDefault(t *testing.T) {
	r := newRenderer(t)
	water := scene.NewNode("water",
		scene.WithMesh(scene.NewPlaneMesh(6, 6, [4]float32{0.2, 0.4, 0.6, 1})),
		scene.WithParent(r.SceneRoot()),
		scene.WithTag("geometryBuffer1", "isWater"),
	)
	scene.NewNode("ground",
		scene.WithMesh(scene.NewBoxMesh(2, 2, 1, [4]float32{0.5, 0.4, 0.3, 1})),
		scene.WithParent(r.SceneRoot()),
	)

	desc, err := Default()
	require.NoError(t, err)
	toggles := toggle.NewSet()
	p, err := Assemble(context.Background(), r, desc, WithToggleSet(toggles), WithSeed(7))
	require.NoError(t, err)

	assert.Len(t, p.Passes(), len(desc.Passes))
	assert.Len(t, r.Passes(), len(desc.Passes))
	assert.Equal(t, len(desc.Viewer), p.Viewer().Len())

	target, slot, ok := r.Presented()
	require.True(t, ok)
	assert.Equal(t, "chromaticAberration", target.Name())
	assert.Equal(t, 0, slot)

	assert.Equal(t, 1, p.TagScene(r.SceneRoot()))
	tag, ok := r.Registry().TagOf(water, "geometryBuffer1")
	require.True(t, ok)
	assert.Equal(t, "isWater", tag)

	assert.Contains(t, names(p.ToggleReceivers()), "fog")
	assert.Contains(t, names(p.ToggleReceivers()), "base")
	assert.NotContains(t, names(p.ToggleReceivers()), "gammaCorrection")
	assert.Contains(t, names(p.ToggleReceivers()), "chromaticAberration")
	assert.ElementsMatch(t, []string{"base", "foam", "motionBlur"}, names(p.TemporalReceivers()))
	assert.ElementsMatch(t, []string{"geometryBuffer1", "filmGrain"}, names(p.Declaring(InputFrameTime)))

	// globals reach only the passes declaring them; pass inputs win over globals
	fog := p.Pass("fog")
	nearFar, ok := fog.Input("nearFar")
	require.True(t, ok)
	assert.Equal(t, []float32{8, 40}, nearFar.Values)
	nearFar, ok = p.Pass("outline").Input("nearFar")
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, 100}, nearFar.Values)
	_, ok = p.Pass("sharpen").Input("gamma")
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"depthOfField", "chromaticAberration"}, names(p.Declaring("mouseFocusPoint")))
	for _, name := range []string{"geometryBuffer0", "geometryBuffer1", "base"} {
		assert.Contains(t, p.Pass(name).WatchedToggles(), toggle.NormalMaps, name)
		_, ok = p.Pass(name).Input("normalMapTexture")
		assert.True(t, ok, name)
	}

	// toggles were broadcast at assembly
	fogEnabled, ok := fog.Input(toggle.InputName(toggle.Fog))
	require.True(t, ok)
	on, err := toggles.Enabled(toggle.Fog)
	require.NoError(t, err)
	assert.Equal(t, toggle.Value(on), fogEnabled)

	lens, ok := p.Pass("ssao").Input(InputLensProjection)
	require.True(t, ok)
	assert.Len(t, lens.Values, 16)
	samples, ok := p.Pass("ssao").Input("samples")
	require.True(t, ok)
	assert.NotEmpty(t, samples.Values)

	state := temporal.NewState(temporal.WithReceivers(p.TemporalReceivers()...))
	state.AdvanceFrame(r.Camera().Transform())
	_, ok = p.Pass("motionBlur").Input(temporal.InputPreviousWorldView)
	assert.True(t, ok)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, uint64(1), r.Frame())

	gb1 := p.Pass("geometryBuffer1").Target()
	assert.Equal(t, 5, gb1.AttachmentCount())
	covered := false
	for y := range 16 {
		for x := range 24 {
			if gb1.Texture(3).At(x, y)[3] > 0 {
				covered = true
			}
		}
	}
	assert.True(t, covered, "water should mark the refraction mask")
}

func TestAssembleAutoOrder(t *testing.T) {
	const doc = `
format_version: "1.0.0"
passes:
  - name: final
    effect: gamma-correction
    order: { auto: true }
    inputs:
      colorTexture: blur
  - name: blur
    effect: box-blur
    order: { auto: true }
    inputs:
      parameters: [1, 1]
      colorTexture: source
  - name: source
    effect: passthrough
    order: { auto: true }
    inputs:
      colorTexture: { texture: "builtin:noise" }
present:
  pass: final
`
	desc, err := Decode(".yaml", []byte(doc))
	require.NoError(t, err)

	r := newRenderer(t)
	p, err := Assemble(context.Background(), r, desc)
	require.NoError(t, err)

	source, blur, final := p.Pass("source"), p.Pass("blur"), p.Pass("final")
	assert.Less(t, source.OrderKey(), blur.OrderKey())
	assert.Less(t, blur.OrderKey(), final.OrderKey())
	assert.Equal(t, []string{"source", "blur", "final"}, names(r.Passes()))
	require.NoError(t, r.Run(context.Background()))
}

func TestAssembleOrderingViolation(t *testing.T) {
	const doc = `
format_version = "1.0.0"

[[passes]]
name = "consumer"
effect = "passthrough"
order = { key = 1 }
inputs = { colorTexture = "producer" }

[[passes]]
name = "producer"
effect = "passthrough"
order = { key = 2 }
inputs = { colorTexture = { texture = "builtin:noise" } }
`
	desc, err := Decode(".toml", []byte(doc))
	require.NoError(t, err)

	_, err = Assemble(context.Background(), newRenderer(t), desc)
	var violation *renderer.OrderingViolation
	require.True(t, errors.As(err, &violation))
	require.Len(t, violation.Edges, 1)
	assert.Equal(t, "producer", violation.Edges[0].Producer)
	assert.Equal(t, "consumer", violation.Edges[0].Consumer)
}

func TestAssembleInputErrors(t *testing.T) {
	build := func(input string) error {
		doc := `
format_version = "1.0.0"

[[passes]]
name = "source"
effect = "passthrough"

[[passes]]
name = "sink"
effect = "passthrough"
inputs = { colorTexture = ` + input + ` }
`
		desc, err := Decode(".toml", []byte(doc))
		require.NoError(t, err)
		_, err = Assemble(context.Background(), newRenderer(t), desc)
		return err
	}

	assert.ErrorIs(t, build(`"ghost"`), ErrUnknownPass)
	assert.ErrorIs(t, build(`"source#3"`), ErrInvalidInput)
	assert.Error(t, build(`{ texture = "builtin:missing" }`))
}

func TestAssembleUnknownEffect(t *testing.T) {
	desc, err := Decode(".toml", []byte(`
format_version = "1.0.0"

[[passes]]
name = "x"
effect = "lens-flare"
`))
	require.NoError(t, err)
	_, err = Assemble(context.Background(), newRenderer(t), desc)
	assert.Error(t, err)
}

func TestTagSceneIgnoresUnknownTags(t *testing.T) {
	r := newRenderer(t)
	desc, err := Default()
	require.NoError(t, err)
	p, err := Assemble(context.Background(), r, desc)
	require.NoError(t, err)

	root := scene.NewNode("root")
	smoke := scene.NewNode("smoke", scene.WithParent(root), scene.WithTag("geometryBuffer2", "isSmoke"))
	odd := scene.NewNode("odd", scene.WithParent(root), scene.WithTag("geometryBuffer2", "isLava"))
	scene.NewNode("plain", scene.WithParent(root))

	assert.Equal(t, 1, p.TagScene(root))
	_, ok := r.Registry().TagOf(smoke, "geometryBuffer2")
	assert.True(t, ok)
	_, ok = r.Registry().TagOf(odd, "geometryBuffer2")
	assert.False(t, ok)
	assert.Equal(t, 0, p.TagScene(nil))
}

func TestApplyCamera(t *testing.T) {
	cam := camera.NewCamera()
	spec := CameraSpec{Phi: 60, Theta: 30, Radius: 10, LookAt: [3]float32{1, 2, 3}, Fov: 45, Near: 0.5, Far: 50}
	ApplyCamera(cam, spec)

	want := camera.SphericalPosition(10, 60, 30, spec.LookAt)
	got := cam.Position()
	for i := range 3 {
		assert.InDelta(t, want[i], got[i], 1e-4)
	}
	assert.Equal(t, spec.LookAt, cam.Target())
	assert.InDelta(t, 0.785398, cam.Fov(), 1e-5)
	near, far := cam.NearFar()
	assert.Equal(t, float32(0.5), near)
	assert.Equal(t, float32(50), far)

	before := cam.Position()
	ApplyCamera(cam, CameraSpec{})
	assert.Equal(t, before, cam.Position())
}
