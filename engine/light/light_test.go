package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	inputs map[string]shader.Input
}

func (r *recorder) SetInput(name string, value shader.Input) {
	if r.inputs == nil {
		r.inputs = map[string]shader.Input{}
	}
	r.inputs[name] = value
}

func TestNewLight(t *testing.T) {
	l := NewLight("key", LightTypeDirectional, WithDirection(0, 3, 4), WithColor([4]float32{1, 0.5, 0.25, 1}), WithIntensity(2))
	assert.Equal(t, "key", l.Name())
	assert.Equal(t, LightTypeDirectional, l.Type())
	dir := l.Direction()
	assert.InDeltaSlice(t, []float32{0, 0.6, 0.8}, dir[:], 1e-6)
	assert.Equal(t, [4]float32{2, 1, 0.5, 1}, l.Radiance())

	l.SetEnabled(false)
	assert.False(t, l.Enabled())
	assert.Equal(t, [4]float32{0, 0, 0, 1}, l.Radiance())

	d := NewLight("fill", LightTypeAmbient)
	assert.Equal(t, [3]float32{0, 0, -1}, d.Direction())
	assert.Equal(t, float32(1), d.Intensity())
}

func TestSkyMidday(t *testing.T) {
	s := NewSky(WithAngle(MiddayAngle), WithAnimation(false))

	assert.InDelta(t, 1, s.Sun().Intensity(), 1e-5)
	assert.Zero(t, s.Moon().Intensity())
	assert.False(t, s.Moon().Enabled())
	assert.Same(t, s.Sun(), s.Dominant())

	dir := s.Sun().Direction()
	assert.InDeltaSlice(t, []float32{0, 0, -1}, dir[:], 1e-5)
	c := s.Sun().Color()
	assert.InDeltaSlice(t, sunColorNoon[:], c[:], 1e-5)
}

func TestSkyMidnight(t *testing.T) {
	s := NewSky(WithAnimation(false))
	s.SetAngle(MidnightAngle)

	assert.InDelta(t, 1, s.Moon().Intensity(), 1e-5)
	assert.False(t, s.Sun().Enabled())
	assert.Same(t, s.Moon(), s.Dominant())

	dir := s.Moon().Direction()
	assert.InDeltaSlice(t, []float32{0, 0, -1}, dir[:], 1e-5)
	c := s.Moon().Color()
	assert.InDeltaSlice(t, moonColorDark[:], c[:], 1e-5)
}

func TestSkyAdvance(t *testing.T) {
	s := NewSky()
	require.True(t, s.Animating())
	require.Equal(t, float32(260), s.Angle())

	assert.True(t, s.Advance(1))
	assert.InDelta(t, 260-360.0/64.0, s.Angle(), 1e-4)

	assert.False(t, s.Advance(0))

	s.SetAngle(2)
	s.Advance(1)
	assert.Equal(t, float32(360), s.Angle())

	assert.False(t, s.ToggleAnimation())
	before := s.Angle()
	assert.False(t, s.Advance(1))
	assert.Equal(t, before, s.Angle())
}

func TestSkyPush(t *testing.T) {
	s := NewSky(WithAngle(MiddayAngle), WithAmbient([4]float32{0.2, 0.2, 0.2, 1}))

	fog := &recorder{}
	combine := &recorder{}
	declaring := func(name string) []Receiver {
		switch name {
		case InputSunPosition:
			return []Receiver{fog}
		case InputAmbientColor, InputLightColor, InputLightDirection:
			return []Receiver{combine}
		}
		return nil
	}
	s.Push(declaring)

	require.Contains(t, fog.inputs, InputSunPosition)
	assert.Equal(t, shader.InputKindVec2, fog.inputs[InputSunPosition].Kind)
	assert.InDelta(t, MiddayAngle, fog.inputs[InputSunPosition].Values[0], 1e-5)
	assert.NotContains(t, fog.inputs, InputLightColor)

	require.Len(t, combine.inputs, 3)
	assert.InDeltaSlice(t, []float32{0.2, 0.2, 0.2, 1}, combine.inputs[InputAmbientColor].Values, 1e-6)
	assert.InDeltaSlice(t, []float32{0.765, 0.573, 0.400, 1}, combine.inputs[InputLightColor].Values, 1e-4)
	assert.InDelta(t, -1, combine.inputs[InputLightDirection].Values[2], 1e-5)
}
