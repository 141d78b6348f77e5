package loader

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
	"github.com/anthonynsimon/bild/adjust"
	"github.com/chewxy/math32"
)

// BuiltinPrefix marks a texture path that names a procedural texture instead of a file.
const BuiltinPrefix = "builtin:"

// Built-in texture names.
const (
	BuiltinBlank       = "blank"
	BuiltinStillFlow   = "still-flow"
	BuiltinUpFlow      = "up-flow"
	BuiltinFoamPattern = "foam-pattern"
	BuiltinNoise       = "noise"
	BuiltinLUTNeutral  = "lut-neutral"
	BuiltinLUTDay      = "lut-day"
	BuiltinLUTNight    = "lut-night"
	BuiltinFlatNormals = "flat-normals"
	BuiltinBumpNormals = "bump-normals"
	BuiltinWaveNormals = "wave-normals"
)

// LUTSize is the edge length of the lookup tables. A table is LUTSize slices of LUTSize x LUTSize
// texels laid side by side, blue selecting the slice.
const LUTSize = 16

const patternSize = 64

// ErrUnknownBuiltin is returned for a builtin: path naming no procedural texture.
var ErrUnknownBuiltin = errors.New("unknown builtin texture")

var builtins = map[string]func() texture.Texture{
	BuiltinBlank: func() texture.Texture {
		return solidTexture(BuiltinBlank, [4]float32{0, 0, 0, 0})
	},
	BuiltinStillFlow: func() texture.Texture {
		return solidTexture(BuiltinStillFlow, [4]float32{0.5, 0.5, 0, 1})
	},
	BuiltinUpFlow: func() texture.Texture {
		return solidTexture(BuiltinUpFlow, [4]float32{0.5, 0, 0, 1})
	},
	BuiltinFoamPattern: foamPattern,
	BuiltinNoise:       colorNoise,
	BuiltinLUTNeutral: func() texture.Texture {
		return lutTexture(BuiltinLUTNeutral, neutralLUT())
	},
	BuiltinLUTDay: func() texture.Texture {
		return lutTexture(BuiltinLUTDay, dayLUT())
	},
	BuiltinLUTNight: func() texture.Texture {
		return lutTexture(BuiltinLUTNight, nightLUT())
	},
	BuiltinFlatNormals: func() texture.Texture {
		return solidTexture(BuiltinFlatNormals, [4]float32{0.5, 0.5, 1, 1})
	},
	BuiltinBumpNormals: func() texture.Texture {
		return normalMap(BuiltinBumpNormals, 4, func(u, v float32) float32 {
			return 0.7*valueNoise(u, v, 8, 5) + 0.3*valueNoise(u, v, 16, 6)
		})
	},
	BuiltinWaveNormals: func() texture.Texture {
		return normalMap(BuiltinWaveNormals, 3, func(u, v float32) float32 {
			w := 0.5 + 0.5*math32.Sin(2*math32.Pi*(2*u+v))
			return 0.6*w + 0.4*valueNoise(u, v, 4, 9)
		})
	},
}

// Builtins returns the names of every procedural texture, sorted.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBuiltin reports whether path names a procedural texture.
func IsBuiltin(path string) bool {
	return strings.HasPrefix(path, BuiltinPrefix)
}

// Builtin creates a procedural texture.
//
// Parameters:
//   - name: the texture name, with or without BuiltinPrefix
//
// Returns:
//   - texture.Texture: a new texture
//   - error: ErrUnknownBuiltin
func Builtin(name string) (texture.Texture, error) {
	name = strings.TrimPrefix(name, BuiltinPrefix)
	mk, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBuiltin, name)
	}
	return mk(), nil
}

func solidTexture(name string, c [4]float32) texture.Texture {
	tex := texture.NewTexture(name, 1, 1, texture.RGBA32F(),
		texture.WithSampler(texture.Sampler{Filter: texture.FilterNearest, Wrap: texture.WrapRepeat}))
	tex.Fill(c)
	return tex
}

// hash2 is a deterministic integer hash mapped to [0, 1).
func hash2(x, y, seed uint32) float32 {
	h := x*374761393 + y*668265263 + seed*2246822519
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float32(h&0xffffff) / float32(0x1000000)
}

// valueNoise is tileable bilinear value noise over a cells x cells lattice.
func valueNoise(u, v float32, cells int, seed uint32) float32 {
	x, y := u*float32(cells), v*float32(cells)
	x0, y0 := int(math32.Floor(x)), int(math32.Floor(y))
	fx, fy := x-float32(x0), y-float32(y0)
	fx = fx * fx * (3 - 2*fx)
	fy = fy * fy * (3 - 2*fy)
	at := func(i, j int) float32 {
		return hash2(uint32((i%cells+cells)%cells), uint32((j%cells+cells)%cells), seed)
	}
	top := at(x0, y0)*(1-fx) + at(x0+1, y0)*fx
	bottom := at(x0, y0+1)*(1-fx) + at(x0+1, y0+1)*fx
	return top*(1-fy) + bottom*fy
}

// foamPattern is a tileable mask of foam streaks: two octaves of value noise thresholded into
// soft bands.
func foamPattern() texture.Texture {
	tex := texture.NewTexture(BuiltinFoamPattern, patternSize, patternSize, texture.RGBA32F(),
		texture.WithSampler(texture.Sampler{Filter: texture.FilterLinear, Wrap: texture.WrapRepeat}))
	for y := range patternSize {
		for x := range patternSize {
			u, v := float32(x)/patternSize, float32(y)/patternSize
			n := 0.65*valueNoise(u, v, 8, 1) + 0.35*valueNoise(u, v, 16, 2)
			f := math32.Max(0, math32.Min(1, (n-0.55)*5))
			tex.Set(x, y, [4]float32{f, f, f, 1})
		}
	}
	return tex
}

// colorNoise is per-texel white noise in every channel.
func colorNoise() texture.Texture {
	tex := texture.NewTexture(BuiltinNoise, patternSize, patternSize, texture.RGBA32F(),
		texture.WithSampler(texture.Sampler{Filter: texture.FilterNearest, Wrap: texture.WrapRepeat}))
	for y := range patternSize {
		for x := range patternSize {
			tex.Set(x, y, [4]float32{
				hash2(uint32(x), uint32(y), 11),
				hash2(uint32(x), uint32(y), 23),
				hash2(uint32(x), uint32(y), 37),
				1,
			})
		}
	}
	return tex
}

// normalMap encodes the tangent space normals of a tileable height field, xyz mapped to [0, 1].
func normalMap(name string, strength float32, height func(u, v float32) float32) texture.Texture {
	tex := texture.NewTexture(name, patternSize, patternSize, texture.RGBA32F(),
		texture.WithSampler(texture.Sampler{Filter: texture.FilterLinear, Wrap: texture.WrapRepeat}))
	const d = 1.0 / patternSize
	for y := range patternSize {
		for x := range patternSize {
			u, v := float32(x)*d, float32(y)*d
			// height change per texel, central differences
			du := (height(fract(u+d), v) - height(fract(u-d+1), v)) / 2
			dv := (height(u, fract(v+d)) - height(u, fract(v-d+1))) / 2
			nx, ny, nz := -du*strength, -dv*strength, float32(1)
			l := math32.Sqrt(nx*nx + ny*ny + nz*nz)
			tex.Set(x, y, [4]float32{nx/l*0.5 + 0.5, ny/l*0.5 + 0.5, nz/l*0.5 + 0.5, 1})
		}
	}
	return tex
}

func fract(x float32) float32 {
	return x - math32.Floor(x)
}

// neutralLUT is the identity table as an 8-bit image.
func neutralLUT() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, LUTSize*LUTSize, LUTSize))
	for b := range LUTSize {
		for g := range LUTSize {
			for r := range LUTSize {
				img.SetRGBA(b*LUTSize+r, g, color.RGBA{
					R: uint8(r * 255 / (LUTSize - 1)),
					G: uint8(g * 255 / (LUTSize - 1)),
					B: uint8(b * 255 / (LUTSize - 1)),
					A: 255,
				})
			}
		}
	}
	return img
}

// dayLUT grades the identity table warm and slightly punchier.
func dayLUT() *image.RGBA {
	img := adjust.Saturation(neutralLUT(), 0.15)
	img = adjust.Contrast(img, 0.08)
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		c.R = uint8(min(255, int(c.R)+8))
		c.B = uint8(max(0, int(c.B)-6))
		return c
	})
}

// nightLUT grades the identity table dark, desaturated and blue.
func nightLUT() *image.RGBA {
	img := adjust.Saturation(neutralLUT(), -0.4)
	img = adjust.Brightness(img, -0.2)
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		c.R = uint8(int(c.R) * 85 / 100)
		c.B = uint8(min(255, int(c.B)+18))
		return c
	})
}

func lutTexture(name string, img *image.RGBA) texture.Texture {
	return toTexture(name, img, convertOptions{
		format:  texture.RGBA8(),
		sampler: texture.Sampler{Filter: texture.FilterNearest, Wrap: texture.WrapClamp},
	})
}
