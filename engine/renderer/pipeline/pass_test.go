package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/render_target"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTarget(t *testing.T, f render_target.Factory, name string, fullScene bool) render_target.RenderTarget {
	t.Helper()
	rt, err := f.Create(render_target.Config{Name: name, Format: texture.RGBA8(), AuxCount: 1, UsesFullScene: fullScene})
	require.NoError(t, err)
	return rt
}

func newFactory() render_target.Factory {
	return render_target.NewFactory(render_target.NewMemoryAllocator(), camera.NewCamera(), render_target.WithSize(4, 4))
}

func TestBindInstallsDefaultState(t *testing.T) {
	f := newFactory()
	rt := newTarget(t, f, "blur", false)
	prog := shader.NewProgram("", "", shader.Reflection{Kernel: "blur"})

	p := NewPass("blur", WithInput("size", shader.Float(2)))
	p.SetInput("separation", shader.Float(1))
	assert.Nil(t, p.DefaultState())
	assert.False(t, p.Bound())

	require.NoError(t, p.Bind(rt, prog, 7))
	assert.True(t, p.Bound())
	assert.Equal(t, 7, p.OrderKey())

	state := p.DefaultState()
	require.NotNil(t, state)
	assert.Same(t, prog, state.Program())
	assert.False(t, state.DepthTest())
	in, ok := state.Input("size")
	require.True(t, ok)
	assert.Equal(t, float32(2), in.Component(0))
	_, ok = state.Input("separation")
	assert.True(t, ok)

	p.SetInput("size", shader.Float(5))
	in, _ = p.DefaultState().Input("size")
	assert.Equal(t, float32(5), in.Component(0))

	assert.ErrorIs(t, p.Bind(rt, prog, 8), ErrAlreadyBound)
}

func TestBindRejectsMissingArguments(t *testing.T) {
	f := newFactory()
	rt := newTarget(t, f, "a", false)
	prog := shader.NewProgram("", "", shader.Reflection{Kernel: "a"})

	assert.ErrorIs(t, NewPass("x").Bind(nil, prog, 1), ErrNilTarget)
	assert.ErrorIs(t, NewPass("y").Bind(rt, nil, 1), ErrNilProgram)
}

func TestDependenciesFromTextureInputs(t *testing.T) {
	f := newFactory()
	gbuf := newTarget(t, f, "geometry", true)
	base := newTarget(t, f, "base", false)
	out := newTarget(t, f, "combine", false)
	lut := texture.NewTexture("lut", 2, 2, texture.RGBA8())

	p := NewPass("combine",
		WithInput("positionTexture", shader.Tex(gbuf.Texture(0))),
		WithInput("normalTexture", shader.Tex(gbuf.Texture(1))),
		WithInput("baseTexture", shader.Tex(base.Texture(0))),
		WithInput("lookupTableTexture", shader.Tex(lut)),
		WithInput("gamma", shader.Float(2.2)),
	)
	require.NoError(t, p.Bind(out, shader.NewProgram("", "", shader.Reflection{Kernel: "combine"}), 3))
	assert.Equal(t, []string{"base", "geometry"}, p.Dependencies())
}

func TestOptionsExposed(t *testing.T) {
	f := newFactory()
	rt := newTarget(t, f, "geometry", true)
	p := NewPass("geometry",
		WithCameraMask(scene.MaskBit(1)),
		WithToggles("ssao", "fog"),
		WithTemporalInputs(),
		WithAfter("shadow"),
		WithState(material.WithCullMode(material.CullBack)),
	)
	require.NoError(t, p.Bind(rt, shader.NewProgram("", "", shader.Reflection{Kernel: "geometry"}), 1))

	mask, ok := p.CameraMask()
	assert.True(t, ok)
	assert.Equal(t, scene.MaskBit(1), mask)
	assert.Equal(t, scene.MaskBit(1), rt.Camera().Mask())
	assert.Equal(t, []string{"ssao", "fog"}, p.WatchedToggles())
	assert.True(t, p.WantsTemporal())
	assert.Equal(t, []string{"shadow"}, p.After())
	assert.True(t, p.DefaultState().DepthTest())
	assert.Equal(t, material.CullBack, p.DefaultState().CullMode())
}
