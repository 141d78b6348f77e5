package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampAndCoalesce(t *testing.T) {
	assert.Equal(t, 0, Clamp(-3, 0, 10))
	assert.Equal(t, 10, Clamp(12, 0, 10))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))

	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Zero(t, Coalesce(0, 0))
}

func TestNormalize3(t *testing.T) {
	n := Normalize3([3]float32{3, 0, 4})
	assert.InDeltaSlice(t, []float32{0.6, 0, 0.8}, n[:], 1e-6)
	assert.Equal(t, [3]float32{}, Normalize3([3]float32{}))
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	var view [16]float32
	LookAt(view[:], 0, 0, 5, 0, 0, 0, 0, 1, 0)

	p := TransformPoint(view[:], 0, 0, 0)
	assert.InDeltaSlice(t, []float32{0, 0, -5}, p[:], 1e-5)
	e := TransformPoint(view[:], 0, 0, 5)
	assert.InDeltaSlice(t, []float32{0, 0, 0}, e[:], 1e-5)
}

func TestInvert4(t *testing.T) {
	var m, inv, out [16]float32
	BuildModelMatrix(m[:], 1, 2, 3, 0.3, 0.2, 0.1, 2, 2, 2)
	require.True(t, Invert4(inv[:], m[:]))
	Mul4(out[:], m[:], inv[:])
	id := IdentityMatrix()
	assert.InDeltaSlice(t, id[:], out[:], 1e-5)

	var zero [16]float32
	assert.False(t, Invert4(inv[:], zero[:]))
}

func TestFrustumContainsSphere(t *testing.T) {
	var view, proj, vp [16]float32
	LookAt(view[:], 0, 0, 5, 0, 0, 0, 0, 1, 0)
	Perspective(proj[:], Radians(60), 1, 0.5, 50)
	Mul4(vp[:], proj[:], view[:])
	f := ExtractFrustumFromMatrix(vp[:])

	assert.True(t, f.ContainsSphere([3]float32{0, 0, 0}, 1))
	assert.False(t, f.ContainsSphere([3]float32{0, 0, 10}, 1), "behind the eye")
	assert.False(t, f.ContainsSphere([3]float32{0, 0, -100}, 1), "past the far plane")
	assert.False(t, f.ContainsSphere([3]float32{40, 0, 0}, 1))
	assert.True(t, f.ContainsSphere([3]float32{40, 0, 0}, 40), "overlapping the side plane")
}

func TestRadians(t *testing.T) {
	assert.InDelta(t, math32.Pi, Radians(180), 1e-6)
}
