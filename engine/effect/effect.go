// Package effect holds the fragment programs of the deferred pipeline: each effect is a WGSL source
// for the wgpu backend and a Go kernel evaluating the same program on the software backend.
package effect

import (
	"embed"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
	"github.com/chewxy/math32"
)

//go:embed assets/*.wgsl
var assets embed.FS

// Gamma is the display gamma the pipeline encodes for.
const Gamma = 2.2

// Effect names. Each matches the kernel annotation of its WGSL source.
const (
	GeometryBuffer0       = "geometry-buffer-0"
	GeometryBuffer1       = "geometry-buffer-1"
	GeometryBuffer2       = "geometry-buffer-2"
	Base                  = "base"
	Fog                   = "fog"
	SSAO                  = "ssao"
	KuwaharaFilter        = "kuwahara-filter"
	ScreenSpaceRefraction = "screen-space-refraction"
	ScreenSpaceReflection = "screen-space-reflection"
	Refraction            = "refraction"
	Foam                  = "foam"
	ReflectionColor       = "reflection-color"
	BoxBlur               = "box-blur"
	Reflection            = "reflection"
	BaseCombine           = "base-combine"
	Sharpen               = "sharpen"
	Posterize             = "posterize"
	Bloom                 = "bloom"
	SceneCombine          = "scene-combine"
	Dilation              = "dilation"
	DepthOfField          = "depth-of-field"
	Outline               = "outline"
	Painterly             = "painterly"
	Pixelize              = "pixelize"
	MotionBlur            = "motion-blur"
	FilmGrain             = "film-grain"
	LookupTable           = "lookup-table"
	GammaCorrection       = "gamma-correction"
	ChromaticAberration   = "chromatic-aberration"
	Passthrough           = "passthrough"
	Scale                 = "scale"
)

// Effect is one fragment program of the catalog.
type Effect struct {
	// Name is the effect name and kernel annotation.
	Name string
	// Kernel evaluates the program on the software backend.
	Kernel shader.Kernel
	// Toggle names the feature toggle the effect reads, or "" when it has none.
	Toggle string
}

var catalog = map[string]Effect{
	GeometryBuffer0:       {Name: GeometryBuffer0, Kernel: geometryBuffer0},
	GeometryBuffer1:       {Name: GeometryBuffer1, Kernel: geometryBuffer1, Toggle: toggle.FlowMaps},
	GeometryBuffer2:       {Name: GeometryBuffer2, Kernel: geometryBuffer2},
	Base:                  {Name: Base, Kernel: base},
	Fog:                   {Name: Fog, Kernel: fog, Toggle: toggle.Fog},
	SSAO:                  {Name: SSAO, Kernel: ssao, Toggle: toggle.SSAO},
	KuwaharaFilter:        {Name: KuwaharaFilter, Kernel: kuwaharaFilter},
	ScreenSpaceRefraction: {Name: ScreenSpaceRefraction, Kernel: screenSpaceRefraction, Toggle: toggle.Refraction},
	ScreenSpaceReflection: {Name: ScreenSpaceReflection, Kernel: screenSpaceReflection, Toggle: toggle.Reflection},
	Refraction:            {Name: Refraction, Kernel: refraction},
	Foam:                  {Name: Foam, Kernel: foam},
	ReflectionColor:       {Name: ReflectionColor, Kernel: reflectionColor},
	BoxBlur:               {Name: BoxBlur, Kernel: boxBlur},
	Reflection:            {Name: Reflection, Kernel: reflection},
	BaseCombine:           {Name: BaseCombine, Kernel: baseCombine},
	Sharpen:               {Name: Sharpen, Kernel: sharpen, Toggle: toggle.Sharpen},
	Posterize:             {Name: Posterize, Kernel: posterize, Toggle: toggle.Posterize},
	Bloom:                 {Name: Bloom, Kernel: bloom, Toggle: toggle.Bloom},
	SceneCombine:          {Name: SceneCombine, Kernel: sceneCombine},
	Dilation:              {Name: Dilation, Kernel: dilation},
	DepthOfField:          {Name: DepthOfField, Kernel: depthOfField, Toggle: toggle.DepthOfField},
	Outline:               {Name: Outline, Kernel: outline, Toggle: toggle.Outline},
	Painterly:             {Name: Painterly, Kernel: painterly, Toggle: toggle.Painterly},
	Pixelize:              {Name: Pixelize, Kernel: pixelize, Toggle: toggle.Pixelize},
	MotionBlur:            {Name: MotionBlur, Kernel: motionBlur, Toggle: toggle.MotionBlur},
	FilmGrain:             {Name: FilmGrain, Kernel: filmGrain, Toggle: toggle.FilmGrain},
	LookupTable:           {Name: LookupTable, Kernel: lookupTable, Toggle: toggle.LookupTable},
	GammaCorrection:       {Name: GammaCorrection, Kernel: gammaCorrection},
	ChromaticAberration:   {Name: ChromaticAberration, Kernel: chromaticAberration, Toggle: toggle.ChromaticAberration},
	Passthrough:           {Name: Passthrough, Kernel: passthrough},
	Scale:                 {Name: Scale, Kernel: scale},
}

// Names returns every effect name, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a catalog entry.
//
// Parameters:
//   - name: the effect name
//
// Returns:
//   - Effect: the entry
//   - bool: false when no effect has that name
func Lookup(name string) (Effect, bool) {
	e, ok := catalog[name]
	return e, ok
}

// Source returns the WGSL fragment source of an effect.
//
// Parameters:
//   - name: the effect name
//
// Returns:
//   - string: the fragment source, to be compiled with renderer.SceneVertexSource
//   - error: an error if the effect does not exist
func Source(name string) (string, error) {
	if _, ok := catalog[name]; !ok {
		return "", fmt.Errorf("effect %q: %w", name, shader.ErrUnknownKernel)
	}
	data, err := assets.ReadFile("assets/" + name + ".wgsl")
	if err != nil {
		return "", fmt.Errorf("effect %q: %w", name, err)
	}
	return string(data), nil
}

// RegisterAll registers the kernel of every effect.
//
// Parameters:
//   - k: the kernel registry of the software backend
func RegisterAll(k shader.KernelRegistry) {
	for name, e := range catalog {
		k.Register(name, e.Kernel)
	}
}

// PiInput returns the "pi" input: (pi, pi / 180).
func PiInput() shader.Input {
	return shader.Vec2(math32.Pi, math32.Pi/180)
}

// GammaInput returns the "gamma" input: (gamma, 1 / gamma).
func GammaInput() shader.Input {
	return shader.Vec2(Gamma, 1/Gamma)
}

// enabled reads a feature toggle pushed to the pass. An unbound toggle reads as disabled, the
// same as a zeroed uniform on the GPU.
func enabled(f *shader.Fragment, name string) bool {
	return f.Vec2(toggle.InputName(name))[0] > 0.5
}

// texelUV reads the texel containing uv, clamped to the texture bounds.
func texelUV(f *shader.Fragment, name string, uv [2]float32) [4]float32 {
	size := f.TextureSize(name)
	return f.Load(name, int(math32.Floor(uv[0]*size[0])), int(math32.Floor(uv[1]*size[1])))
}

// texel reads the texel at the fragment's own pixel.
func texel(f *shader.Fragment, name string) [4]float32 {
	return f.Load(name, f.X, f.Y)
}

// daylight maps the sun angle in degrees to 1 at midday and 0 at midnight.
func daylight(f *shader.Fragment) float32 {
	sun := f.Vec2("sunPosition")
	return math32.Max(0, math32.Min(1, 0.5-0.5*math32.Sin(sun[0]*math32.Pi/180)))
}

func gamma(f *shader.Fragment) float32 {
	g := f.Vec2("gamma")[0]
	if g == 0 {
		return Gamma
	}
	return g
}
