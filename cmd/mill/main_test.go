package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	o, err := parseOptions([]string{"-frames", "3", "-out", "x.png", "-v"})
	require.NoError(t, err)
	assert.Equal(t, 3, o.frames)
	assert.Equal(t, "software", o.backend)
	assert.Equal(t, "x.png", o.out)
	assert.True(t, o.verbose)

	o, err = parseOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, "wgpu", o.backend)

	_, err = parseOptions([]string{"-backend", "vulkan"})
	assert.Error(t, err)
	_, err = parseOptions([]string{"-width", "0"})
	assert.Error(t, err)
}

func TestBuildMillTagsWaterAndSmoke(t *testing.T) {
	root := scene.NewNode("render")
	m := buildMill(root, 5, 3)
	require.Len(t, m.smoke, 5)

	tag, ok := m.water.Tag(geometryBuffer1)
	require.True(t, ok)
	assert.Equal(t, "isWater", tag)
	tag, ok = m.water.Tag(basePass)
	require.True(t, ok)
	assert.Equal(t, "isWater", tag)

	for _, puff := range m.smoke {
		tag, ok := puff.Tag(geometryBuffer2)
		require.True(t, ok)
		assert.Equal(t, "isSmoke", tag)
		assert.False(t, puff.VisibleTo(scene.MaskBit(maskPositions)))
		assert.False(t, puff.VisibleTo(scene.MaskBit(maskWater)))
		assert.True(t, puff.VisibleTo(scene.MaskBit(3)))
	}
	assert.NotNil(t, root.Find("chimney"))
}

func TestAnimateReturnsSmokeToChimney(t *testing.T) {
	m := buildMill(scene.NewNode("render"), 1, 1)
	puff := m.smoke[0]
	puff.SetPosition(m.chimney[0], m.chimney[1], smokeCeiling-0.01)

	m.animate(0.1)
	assert.Equal(t, m.chimney, puff.Position())

	m.animate(1)
	p := puff.Position()
	assert.InDelta(t, m.chimney[2]+smokeRise, p[2], 1e-5)
	assert.Greater(t, p[0], m.chimney[0])
}

func TestToggleSmoke(t *testing.T) {
	m := buildMill(scene.NewNode("render"), 2, 1)

	assert.False(t, m.toggleSmoke())
	for _, puff := range m.smoke {
		assert.False(t, puff.VisibleTo(scene.MaskBit(3)))
	}

	assert.True(t, m.toggleSmoke())
	for _, puff := range m.smoke {
		assert.True(t, puff.VisibleTo(scene.MaskBit(3)))
		assert.False(t, puff.VisibleTo(scene.MaskBit(maskPositions)))
	}
}

func TestLightReceiversFollowDeclarations(t *testing.T) {
	r := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithSize(8, 8))
	t.Cleanup(r.Release)
	desc, err := loadDescription("")
	require.NoError(t, err)
	p, err := config.Assemble(context.Background(), r, desc)
	require.NoError(t, err)

	sky := light.NewSky(light.WithAngle(light.MiddayAngle))
	receivers := lightReceivers(p)
	require.Len(t, receivers(light.InputSunPosition), len(p.Declaring(light.InputSunPosition)))
	sky.Push(receivers)

	for _, pass := range p.Declaring(light.InputSunPosition) {
		in, ok := pass.Input(light.InputSunPosition)
		require.True(t, ok)
		assert.InDelta(t, light.MiddayAngle, in.Values[0], 1e-5)
	}
}

func TestFocusPoint(t *testing.T) {
	size := func() (int, int) { return 200, 100 }
	u, v := focusPoint(50, 25, size)
	assert.InDelta(t, 0.25, u, 1e-6)
	assert.InDelta(t, 0.75, v, 1e-6)

	u, v = focusPoint(-10, 500, size)
	assert.Zero(t, u)
	assert.Zero(t, v)

	u, v = focusPoint(1, 1, func() (int, int) { return 0, 0 })
	assert.Equal(t, float32(0.5), u)
	assert.Equal(t, float32(0.5), v)
}

func TestControls(t *testing.T) {
	r := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithSize(8, 8))
	t.Cleanup(r.Release)

	cam := camera.NewCamera()
	cam.SetController(camera.NewOrbitController(camera.WithRadius(10), camera.WithPhi(60), camera.WithTheta(0)))
	toggles := toggle.NewSet()
	focus := pipeline.NewPass("depthOfField")
	aberration := pipeline.NewPass("chromaticAberration")
	restored := 0
	sky := light.NewSky(light.WithAnimation(false))
	smokeFlips := 0
	c := newControls(toggles, renderer.NewBufferViewer(r), func() error { restored++; return nil }, []pipeline.Pass{focus, aberration}, cam,
		func() (int, int) { return 100, 100 }, sky, func() bool { smokeFlips++; return smokeFlips%2 == 0 })

	c.keyDown(common.KeyP)
	assert.Equal(t, 1, toggles.Pending())
	changed := toggles.Apply()
	assert.Equal(t, []string{toggle.Fog}, changed)

	// unbound keys queue nothing
	c.keyDown(common.KeyZ)
	assert.Zero(t, toggles.Pending())

	c.mouseDown(window.MouseLeft, 25, 75)
	in, ok := focus.Input(inputFocusPoint)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{0.25, 0.25}, in.Values, 1e-6)
	in, ok = aberration.Input(inputFocusPoint)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{0.25, 0.25}, in.Values, 1e-6)

	theta := cam.Controller().Theta()
	c.mouseMove(40, 40)
	assert.Equal(t, theta, cam.Controller().Theta())
	c.mouseDown(window.MouseMiddle, 10, 10)
	c.mouseMove(40, 10)
	assert.NotEqual(t, theta, cam.Controller().Theta())
	c.mouseUp(window.MouseMiddle, 40, 10)
	assert.False(t, c.dragging)

	// Tab with an empty viewer shows nothing, a second Tab restores the pipeline output
	c.keyDown(common.KeyTab)
	c.keyDown(common.KeyTab)
	assert.LessOrEqual(t, restored, 1)

	c.keyDown(common.Key1)
	assert.Equal(t, float32(light.MiddayAngle), sky.Angle())
	c.keyDown(common.Key2)
	assert.Equal(t, float32(light.MidnightAngle), sky.Angle())
	c.keyDown(common.KeySlash)
	assert.True(t, sky.Animating())
	c.keyDown(common.Key5)
	assert.Equal(t, 1, smokeFlips)
	assert.Zero(t, toggles.Pending())

	before := cam.Controller().Radius()
	c.hold(common.KeyW, true)
	c.tick(0.016)
	c.hold(common.KeyW, false)
	assert.Equal(t, before, cam.Controller().Radius())
}

func TestRunHeadlessWritesSnapshot(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mill.png")
	o, err := parseOptions([]string{"-frames", "2", "-out", out, "-width", "32", "-height", "20", "-smoke", "3"})
	require.NoError(t, err)

	require.NoError(t, run(o))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunHeadlessWithToggleFile(t *testing.T) {
	dir := t.TempDir()
	toggles := filepath.Join(dir, "toggles.toml")
	require.NoError(t, os.WriteFile(toggles, []byte("fog = false\nmotionBlur = true\n"), 0o644))
	out := filepath.Join(dir, "mill.png")

	o, err := parseOptions([]string{"-frames", "1", "-out", out, "-width", "16", "-height", "12", "-toggles", toggles})
	require.NoError(t, err)
	require.NoError(t, run(o))
	assert.FileExists(t, out)
}
