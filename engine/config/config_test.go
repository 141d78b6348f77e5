package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoPassYAML = `
format_version: "1.2.0"
name: two-pass
templates:
  float:
    format: rgba32f
    clears:
      - color: [0, 0, 0, 1]
      - enabled: false
passes:
  - name: fill
    effect: passthrough
    target:
      extends: float
      aux: 1
    order:
      key: 3
  - name: halve
    effect: scale
    inputs:
      parameters: [0.5, 0]
      colorTexture: fill#1
present:
  pass: halve
`

func TestDefaultDescription(t *testing.T) {
	desc, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "mill", desc.Name)
	assert.Equal(t, "chromaticAberration", desc.Present.Pass)
	assert.NotEmpty(t, desc.Viewer)

	gb1, ok := desc.Pass("geometryBuffer1")
	require.True(t, ok)
	require.NotNil(t, gb1.Target.Format)
	assert.Equal(t, "rgba32f", *gb1.Target.Format)
	require.NotNil(t, gb1.Target.Aux)
	assert.Equal(t, 4, *gb1.Target.Aux)
	require.NotNil(t, gb1.Target.UsesFullScene)
	assert.True(t, *gb1.Target.UsesFullScene)
	assert.Contains(t, gb1.Tags, "isWater")

	// base extends scene, which extends hdr
	base, ok := desc.Pass("base")
	require.True(t, ok)
	require.NotNil(t, base.Target.Format)
	assert.Equal(t, "rgba16f", *base.Target.Format)
	assert.True(t, *base.Target.UsesFullScene)
	assert.Empty(t, base.Target.Extends)
}

func TestDecodeYAML(t *testing.T) {
	desc, err := Decode(".yml", []byte(twoPassYAML))
	require.NoError(t, err)
	require.Len(t, desc.Passes, 2)

	fill := desc.Passes[0]
	assert.Equal(t, "rgba32f", *fill.Target.Format)
	assert.Equal(t, 1, *fill.Target.Aux)
	require.Len(t, fill.Target.Clears, 2)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, fill.Target.Clears[0].Color)
	require.NotNil(t, fill.Target.Clears[1].Enabled)
	assert.False(t, *fill.Target.Clears[1].Enabled)
	assert.Equal(t, 3, *fill.Order.Key)

	inputs, err := parseInputs(desc.Passes[1].Inputs)
	require.NoError(t, err)
	assert.Equal(t, inputSpec{kind: inputTarget, target: "fill", slot: 1}, inputs["colorTexture"])
	assert.Equal(t, []float32{0.5, 0}, inputs["parameters"].numbers)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoPassYAML), 0o644))

	desc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "two-pass", desc.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	ini := filepath.Join(t.TempDir(), "pipeline.ini")
	require.NoError(t, os.WriteFile(ini, []byte(twoPassYAML), 0o644))
	_, err = Load(ini)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, CheckVersion("1.0.0"))
	assert.NoError(t, CheckVersion("1.7.3"))
	assert.ErrorIs(t, CheckVersion("2.0.0"), ErrUnsupportedVersion)
	assert.ErrorIs(t, CheckVersion("0.9.0"), ErrUnsupportedVersion)
	assert.ErrorIs(t, CheckVersion(""), ErrUnsupportedVersion)
	assert.ErrorIs(t, CheckVersion("latest"), ErrUnsupportedVersion)
}

func TestValidateReferences(t *testing.T) {
	const doc = `
format_version = "1.0.0"

[[passes]]
name = "a"
effect = "passthrough"
after = ["ghost"]
target = { format = "rgb565" }

[[passes]]
name = "a"
effect = "passthrough"

[[passes]]
name = "b"

[present]
pass = "nowhere"
`
	_, err := Decode(".toml", []byte(doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPass)
	assert.ErrorIs(t, err, ErrDuplicatePass)
	assert.ErrorIs(t, err, ErrUnknownPixelFormat)
	assert.Contains(t, err.Error(), "no effect or fragment")
	assert.Contains(t, err.Error(), "nowhere")
}

func TestTemplates(t *testing.T) {
	t.Run("overlay keeps unset fields", func(t *testing.T) {
		const doc = `
format_version = "1.0.0"

[templates.base]
format = "rgba16f"
aux = 2
clears = [{ color = [1, 0, 0, 1] }, { color = [0, 1, 0, 1] }]

[templates.wide]
extends = "base"
aux = 4

[[passes]]
name = "p"
effect = "passthrough"
target = { extends = "wide", uses_full_scene = true }
`
		desc, err := Decode(".toml", []byte(doc))
		require.NoError(t, err)
		target := desc.Passes[0].Target
		assert.Equal(t, "rgba16f", *target.Format)
		assert.Equal(t, 4, *target.Aux)
		assert.True(t, *target.UsesFullScene)
		require.Len(t, target.Clears, 2)
		assert.Equal(t, [4]float32{0, 1, 0, 1}, target.Clears[1].Color)
	})

	t.Run("templates are not shared", func(t *testing.T) {
		const doc = `
format_version = "1.0.0"

[templates.base]
clears = [{ color = [1, 0, 0, 1] }]

[[passes]]
name = "a"
effect = "passthrough"
target = { extends = "base" }

[[passes]]
name = "b"
effect = "passthrough"
target = { extends = "base" }
`
		desc, err := Decode(".toml", []byte(doc))
		require.NoError(t, err)
		desc.Passes[0].Target.Clears[0].Color[0] = 0.25
		assert.Equal(t, float32(1), desc.Passes[1].Target.Clears[0].Color[0])
	})

	t.Run("unknown template", func(t *testing.T) {
		const doc = `
format_version = "1.0.0"

[[passes]]
name = "a"
effect = "passthrough"
target = { extends = "missing" }
`
		_, err := Decode(".toml", []byte(doc))
		assert.ErrorIs(t, err, ErrUnknownTemplate)
	})

	t.Run("cycle", func(t *testing.T) {
		const doc = `
format_version = "1.0.0"

[templates.x]
extends = "y"

[templates.y]
extends = "x"

[[passes]]
name = "a"
effect = "passthrough"
target = { extends = "x" }
`
		_, err := Decode(".toml", []byte(doc))
		require.ErrorIs(t, err, ErrUnknownTemplate)
		assert.Contains(t, err.Error(), "cycle")
	})
}

func TestPixelFormat(t *testing.T) {
	for _, name := range []string{"rgba8", "RGBA16F", "rgba32f", "srgba8"} {
		f, err := pixelFormat(&name)
		require.NoError(t, err, name)
		assert.NoError(t, f.Validate(), name)
	}

	f, err := pixelFormat(nil)
	require.NoError(t, err)
	assert.Equal(t, [4]int{8, 8, 8, 8}, f.Bits)

	bad := "r11g11b10"
	_, err = pixelFormat(&bad)
	assert.ErrorIs(t, err, ErrUnknownPixelFormat)
}
