package light

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for the sun and the moon. Affects all fragments uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypeAmbient represents a constant light reaching every fragment, scaled by occlusion.
	LightTypeAmbient
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.Mutex

	name      string
	lightType LightType
	direction [3]float32
	color     [4]float32
	intensity float32
	enabled   bool
}

// Light is a light source whose values reach the passes as shader inputs.
//
// The deferred pipeline shades in screen space, so lights are not scene nodes: the base, fog and
// combine passes read the dominant directional light and the ambient light from their inputs.
type Light interface {
	// Name returns the light name.
	Name() string

	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional or ambient)
	Type() LightType

	// Direction returns the normalized direction the light travels. Meaningless for ambient lights.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGBA color of the light, not scaled by intensity.
	Color() [4]float32

	// Intensity returns the scalar intensity multiplier for the light.
	Intensity() float32

	// Radiance returns the color scaled by intensity, or black when the light is disabled.
	// Alpha is kept at 1.
	//
	// Returns:
	//   - [4]float32: the scaled color
	Radiance() [4]float32

	// Enabled returns whether this light contributes.
	Enabled() bool

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - x, y, z: direction components (will be normalized)
	SetDirection(x, y, z float32)

	// SetColor sets the RGBA color of the light.
	SetColor(color [4]float32)

	// SetIntensity sets the scalar intensity multiplier.
	SetIntensity(intensity float32)

	// SetEnabled enables or disables the light.
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - name: the light name
//   - lightType: the kind of light to create
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(name string, lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:        &sync.Mutex{},
		name:      name,
		lightType: lightType,
		direction: [3]float32{0, 0, -1},
		color:     [4]float32{1, 1, 1, 1},
		intensity: 1.0,
		enabled:   true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Name() string {
	return l.name
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Direction() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *lightImpl) Color() [4]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) Radiance() [4]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return [4]float32{0, 0, 0, 1}
	}
	return [4]float32{l.color[0] * l.intensity, l.color[1] * l.intensity, l.color[2] * l.intensity, 1}
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direction = common.Normalize3([3]float32{x, y, z})
}

func (l *lightImpl) SetColor(color [4]float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = color
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}
