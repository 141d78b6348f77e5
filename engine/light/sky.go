package light

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/chewxy/math32"
)

// Input names pushed by Sky.Push.
const (
	InputSunPosition    = "sunPosition"
	InputLightDirection = "lightDirection"
	InputLightColor     = "lightColor"
	InputAmbientColor   = "ambientColor"
)

// Sun angles of the fixed times of day, in degrees of pivot pitch.
const (
	MiddayAngle   = 270
	MidnightAngle = 90
)

var (
	sunColorDusk  = [4]float32{0.612, 0.365, 0.306, 1}
	sunColorNoon  = [4]float32{0.765, 0.573, 0.400, 1}
	moonColorDark = [4]float32{0.392, 0.537, 0.571, 1}
)

// Receiver accepts pushed inputs. pipeline.Pass satisfies it.
type Receiver interface {
	SetInput(name string, value shader.Input)
}

// Sky drives the sun and the moon around a pivot and derives the light inputs of the passes.
//
// The sun angle is the pivot pitch in degrees: 270 is midday, 90 is midnight. The moon sits
// opposite the sun. Their shared color blends dusk, noon and moon colors by the sun height, and
// each is scaled by how far its body is above the horizon.
type Sky struct {
	mu *sync.Mutex

	sun     Light
	moon    Light
	ambient Light

	angle   float32
	heading float32
	speed   float32
	animate bool
}

// NewSky creates a Sky at the given options, animating by default.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Sky: the sky with its lights derived from the initial angle
func NewSky(options ...SkyBuilderOption) *Sky {
	s := &Sky{
		mu:      &sync.Mutex{},
		sun:     NewLight("sunlight", LightTypeDirectional, WithColor(sunColorNoon)),
		moon:    NewLight("moonlight", LightTypeDirectional, WithColor(moonColorDark)),
		ambient: NewLight("ambientLight", LightTypeAmbient, WithColor([4]float32{0.32, 0.34, 0.4, 1})),
		angle:   260,
		heading: 135,
		speed:   -360.0 / 64.0,
		animate: true,
	}
	for _, opt := range options {
		opt(s)
	}
	s.update()
	return s
}

// Sun returns the sun light.
func (s *Sky) Sun() Light {
	return s.sun
}

// Moon returns the moon light.
func (s *Sky) Moon() Light {
	return s.moon
}

// Ambient returns the ambient light.
func (s *Sky) Ambient() Light {
	return s.ambient
}

// Angle returns the sun angle in degrees, in [0, 360].
func (s *Sky) Angle() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angle
}

// Animating reports whether Advance moves the sun.
func (s *Sky) Animating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.animate
}

// ToggleAnimation flips sun animation and returns the new state.
func (s *Sky) ToggleAnimation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animate = !s.animate
	return s.animate
}

// Advance moves the sun by the animation speed when animating.
//
// Parameters:
//   - dt: elapsed seconds
//
// Returns:
//   - bool: true when the angle changed
func (s *Sky) Advance(dt float32) bool {
	s.mu.Lock()
	if !s.animate || dt == 0 {
		s.mu.Unlock()
		return false
	}
	a := s.angle + s.speed*dt
	if a > 360 {
		a = 0
	}
	if a < 0 {
		a = 360
	}
	s.angle = a
	s.mu.Unlock()
	s.update()
	return true
}

// SetAngle jumps the sun to an angle in degrees, e.g. MiddayAngle.
func (s *Sky) SetAngle(angle float32) {
	s.mu.Lock()
	s.angle = common.Clamp(angle, 0, 360)
	s.mu.Unlock()
	s.update()
}

// update recomputes the sun and moon from the angle.
func (s *Sky) update() {
	s.mu.Lock()
	p, h := s.angle, s.heading
	s.mu.Unlock()

	sinP := math32.Sin(common.Radians(p))
	mix := 1 - (sinP/2 + 0.5)
	sunColor := mixColor(sunColorDusk, sunColorNoon, mix)
	moonColor := mixColor(moonColorDark, sunColorDusk, mix)
	color := mixColor(moonColor, sunColor, mix)

	day := common.Clamp(-sinP, 0, 1)
	night := common.Clamp(sinP, 0, 1)

	sd := pivotDirection(h, p)
	s.sun.SetDirection(sd[0], sd[1], sd[2])
	s.sun.SetColor(color)
	s.sun.SetIntensity(day)
	s.sun.SetEnabled(day > 0)

	md := pivotDirection(h, p-180)
	s.moon.SetDirection(md[0], md[1], md[2])
	s.moon.SetColor(color)
	s.moon.SetIntensity(night)
	s.moon.SetEnabled(night > 0)
}

// Dominant returns the sun by day and the moon by night.
func (s *Sky) Dominant() Light {
	if s.sun.Intensity() >= s.moon.Intensity() {
		return s.sun
	}
	return s.moon
}

// Inputs returns the light inputs derived from the current angle.
//
// Returns:
//   - map[string]shader.Input: sunPosition, lightDirection, lightColor and ambientColor
func (s *Sky) Inputs() map[string]shader.Input {
	d := s.Dominant()
	dir := d.Direction()
	rad := d.Radiance()
	amb := s.ambient.Radiance()
	return map[string]shader.Input{
		InputSunPosition:    shader.Vec2(s.Angle(), 0),
		InputLightDirection: shader.Vec3(dir[0], dir[1], dir[2]),
		InputLightColor:     shader.Vec4(rad[0], rad[1], rad[2], rad[3]),
		InputAmbientColor:   shader.Vec4(amb[0], amb[1], amb[2], amb[3]),
	}
}

// Push sends every input to the receivers declaring it.
//
// Parameters:
//   - declaring: returns the receivers that read an input name
func (s *Sky) Push(declaring func(name string) []Receiver) {
	for name, in := range s.Inputs() {
		for _, r := range declaring(name) {
			r.SetInput(name, in)
		}
	}
}

// pivotDirection is the travel direction of a light on a pivot turned by heading around +z and
// pitched by pitch, shining along the pivot's local +y.
func pivotDirection(heading, pitch float32) [3]float32 {
	sh, ch := math32.Sincos(common.Radians(heading))
	sp, cp := math32.Sincos(common.Radians(pitch))
	return [3]float32{-cp * sh, cp * ch, sp}
}

func mixColor(a, b [4]float32, f float32) [4]float32 {
	var out [4]float32
	for i := range out {
		out[i] = a[i]*(1-f) + b[i]*f
	}
	return out
}
