package effect

import (
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
)

// SSAO kernel dimensions.
const (
	SSAOSampleCount = 8
	SSAONoiseSize   = 4
)

// SSAOSamples returns the hemisphere sample kernel pushed as the "samples" input. Samples lie in
// tangent space with z along the normal and cluster toward the origin.
//
// Parameters:
//   - rng: the random source; a fixed seed gives a reproducible kernel
//
// Returns:
//   - shader.Input: a Vec3Array of SSAOSampleCount samples
func SSAOSamples(rng *rand.Rand) shader.Input {
	samples := make([][3]float32, SSAOSampleCount)
	for i := range samples {
		s := common.Normalize3([3]float32{
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
			rng.Float32(),
		})
		s = scale3(s, rng.Float32())
		t := float32(i) / SSAOSampleCount
		samples[i] = scale3(s, mix(0.1, 1, t*t))
	}
	return shader.Vec3Array(samples...)
}

// SSAONoise returns the tiled rotation texture bound as "noiseTexture". Each texel is a random
// vector in the tangent plane.
//
// Parameters:
//   - rng: the random source
//
// Returns:
//   - texture.Texture: an SSAONoiseSize x SSAONoiseSize RGBA32F texture with nearest repeat sampling
func SSAONoise(rng *rand.Rand) texture.Texture {
	pixels := make([]float32, 0, SSAONoiseSize*SSAONoiseSize*4)
	for range SSAONoiseSize * SSAONoiseSize {
		pixels = append(pixels, rng.Float32()*2-1, rng.Float32()*2-1, 0, 1)
	}
	return texture.NewTexture("ssaoNoise", SSAONoiseSize, SSAONoiseSize, texture.RGBA32F(),
		texture.WithPixels(pixels),
		texture.WithSampler(texture.Sampler{Filter: texture.FilterNearest, Wrap: texture.WrapRepeat}),
	)
}

// NewRand returns the seeded random source used for reproducible SSAO kernels.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
