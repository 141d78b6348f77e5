package config

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want inputSpec
	}{
		{"float", 0.5, inputSpec{kind: inputNumbers, numbers: []float32{0.5}}},
		{"toml integer", int64(3), inputSpec{kind: inputNumbers, numbers: []float32{3}}},
		{"yaml integer", 7, inputSpec{kind: inputNumbers, numbers: []float32{7}}},
		{"vector", []any{1.0, int64(2), 3}, inputSpec{kind: inputNumbers, numbers: []float32{1, 2, 3}}},
		{"target", "base", inputSpec{kind: inputTarget, target: "base"}},
		{"target slot", "geometryBuffer1#4", inputSpec{kind: inputTarget, target: "geometryBuffer1", slot: 4}},
		{"target table", map[string]any{"target": "base", "slot": int64(1)}, inputSpec{kind: inputTarget, target: "base", slot: 1}},
		{"texture", map[string]any{"texture": "builtin:noise"}, inputSpec{kind: inputAsset, asset: "builtin:noise"}},
		{"generated", map[string]any{"generate": GeneratedSSAOSamples}, inputSpec{kind: inputGenerated, generate: GeneratedSSAOSamples}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInput(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInputErrors(t *testing.T) {
	for name, raw := range map[string]any{
		"bool":            true,
		"empty array":     []any{},
		"mixed array":     []any{1.0, "x"},
		"empty reference": "#2",
		"bad slot":        "base#x",
		"negative slot":   map[string]any{"target": "base", "slot": -1},
		"fractional slot": map[string]any{"target": "base", "slot": 1.5},
		"unknown table":   map[string]any{"color": 1},
		"unknown gen":     map[string]any{"generate": "perlin"},
	} {
		_, err := parseInput(raw)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

func TestNumbersInput(t *testing.T) {
	assert.Equal(t, shader.Float(2), numbersInput([]float32{2}))
	assert.Equal(t, shader.Vec2(1, 2), numbersInput([]float32{1, 2}))
	assert.Equal(t, shader.FloatArray(1, 2, 3, 4, 5), numbersInput([]float32{1, 2, 3, 4, 5}))

	m := make([]float32, 16)
	m[0], m[15] = 1, 1
	in := numbersInput(m)
	assert.Equal(t, shader.InputKindMat4, in.Kind)
	assert.Equal(t, float32(1), in.Values[15])
}
