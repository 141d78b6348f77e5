package texture

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
)

// PixelFormat describes the storage format of a texture: bit depth per RGBA channel,
// fixed point versus floating point, and linear versus gamma-encoded color.
type PixelFormat struct {
	// Bits is the bit depth of the red, green, blue and alpha channels. A zero entry means the
	// channel is not stored (reads return 0 for color channels and 1 for alpha).
	Bits [4]int
	// Float selects floating point storage. Requires 16 or 32 bit channels.
	Float bool
	// SRGB stores color gamma-encoded. Requires 8 bit fixed point channels.
	SRGB bool
	// RGB drops the alpha channel; reads always return an alpha of 1.
	RGB bool
}

// RGBA8 returns the 8 bit per channel fixed point format.
func RGBA8() PixelFormat {
	return PixelFormat{Bits: [4]int{8, 8, 8, 8}}
}

// RGBA16F returns the 16 bit per channel floating point format.
func RGBA16F() PixelFormat {
	return PixelFormat{Bits: [4]int{16, 16, 16, 16}, Float: true}
}

// RGBA32F returns the 32 bit per channel floating point format.
func RGBA32F() PixelFormat {
	return PixelFormat{Bits: [4]int{32, 32, 32, 32}, Float: true}
}

// SRGBA8 returns the 8 bit per channel gamma-encoded format.
func SRGBA8() PixelFormat {
	return PixelFormat{Bits: [4]int{8, 8, 8, 8}, SRGB: true}
}

// Validate reports whether the channel depths and flags form a combination a backend can allocate.
//
// Returns:
//   - error: a description of the unsupported combination, or nil
func (f PixelFormat) Validate() error {
	if f.Bits[0] == 0 {
		return fmt.Errorf("pixel format %s: red channel must be stored", f)
	}
	for i, b := range f.Bits {
		switch b {
		case 0, 8, 16, 32:
		default:
			return fmt.Errorf("pixel format %s: channel %d has unsupported depth %d", f, i, b)
		}
		if f.Float && b == 8 {
			return fmt.Errorf("pixel format %s: float channels must be 16 or 32 bits", f)
		}
		if f.SRGB && b != 0 && b != 8 {
			return fmt.Errorf("pixel format %s: sRGB requires 8 bit channels", f)
		}
	}
	if f.SRGB && f.Float {
		return fmt.Errorf("pixel format %s: sRGB cannot be combined with float storage", f)
	}
	return nil
}

// MaxBits returns the widest channel depth of the format.
func (f PixelFormat) MaxBits() int {
	m := 0
	for _, b := range f.Bits {
		if b > m {
			m = b
		}
	}
	return m
}

// String renders the format in a compact form such as "rgba8", "rgba32f" or "srgba8".
func (f PixelFormat) String() string {
	prefix := "rgba"
	if f.RGB {
		prefix = "rgb"
	}
	if f.SRGB {
		prefix = "s" + prefix
	}
	suffix := ""
	if f.Float {
		suffix = "f"
	}
	if f.Bits[0] == f.Bits[1] && f.Bits[1] == f.Bits[2] && (f.RGB || f.Bits[2] == f.Bits[3]) {
		return fmt.Sprintf("%s%d%s", prefix, f.Bits[0], suffix)
	}
	return fmt.Sprintf("%s(%d,%d,%d,%d)%s", prefix, f.Bits[0], f.Bits[1], f.Bits[2], f.Bits[3], suffix)
}

// Quantize converts a linear color into the value a texture of this format would return
// after storing it: fixed point channels are clamped and rounded to their bit depth,
// sRGB channels round-trip through the gamma curve, 16 bit float channels lose precision
// and missing channels read back as their defaults.
//
// Parameters:
//   - c: the linear RGBA color being written
//
// Returns:
//   - [4]float32: the color as it would be read back
func (f PixelFormat) Quantize(c [4]float32) [4]float32 {
	var out [4]float32
	for i := 0; i < 4; i++ {
		bits := f.Bits[i]
		if i == 3 && f.RGB {
			bits = 0
		}
		if bits == 0 {
			if i == 3 {
				out[i] = 1
			}
			continue
		}
		v := c[i]
		switch {
		case f.Float && bits == 32:
			out[i] = v
		case f.Float && bits == 16:
			out[i] = roundHalf(v)
		case f.SRGB && i < 3:
			out[i] = SRGBToLinear(quantizeFixed(LinearToSRGB(v), bits))
		default:
			out[i] = quantizeFixed(v, bits)
		}
	}
	return out
}

func quantizeFixed(v float32, bits int) float32 {
	if math32.IsNaN(v) {
		return 0
	}
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	maxV := float32(uint32(1)<<uint(bits) - 1)
	if bits == 32 {
		maxV = float32(math.MaxUint32)
	}
	return math32.Round(v*maxV) / maxV
}

// roundHalf rounds a float32 to the nearest value representable as an IEEE 754 half.
func roundHalf(v float32) float32 {
	if math32.IsNaN(v) || math32.IsInf(v, 0) {
		return v
	}
	const maxHalf = 65504
	if v > maxHalf {
		return math32.Inf(1)
	}
	if v < -maxHalf {
		return math32.Inf(-1)
	}
	if v == 0 {
		return v
	}
	bits := math.Float32bits(v)
	exp := int((bits>>23)&0xff) - 127
	if exp < -14 {
		// Subnormal half: fixed quantum of 2^-24.
		q := float32(1.0 / (1 << 24))
		return math32.Round(v/q) * q
	}
	// Keep 10 mantissa bits, round to nearest even.
	const drop = 13
	mask := uint32(1)<<drop - 1
	half := uint32(1) << (drop - 1)
	rem := bits & mask
	bits &^= mask
	if rem > half || (rem == half && bits&(1<<drop) != 0) {
		bits += 1 << drop
	}
	return math.Float32frombits(bits)
}

// LinearToSRGB applies the sRGB transfer function to a linear channel value.
func LinearToSRGB(v float32) float32 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math32.Pow(v, 1/2.4) - 0.055
}

// SRGBToLinear inverts the sRGB transfer function.
func SRGBToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math32.Pow((v+0.055)/1.055, 2.4)
}
