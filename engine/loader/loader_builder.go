package loader

import "github.com/Carmen-Shannon/oxy-deferred/engine/texture"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithFormat sets the pixel format of textures decoded from files. Defaults to RGBA8.
//
// Parameters:
//   - format: the pixel format
//
// Returns:
//   - LoaderBuilderOption: a function that applies the format option to a loader
func WithFormat(format texture.PixelFormat) LoaderBuilderOption {
	return func(l *loader) {
		l.convert.format = format
	}
}

// WithSampler sets the sampler of textures decoded from files. Defaults to linear clamp.
//
// Parameters:
//   - s: the sampler
//
// Returns:
//   - LoaderBuilderOption: a function that applies the sampler option to a loader
func WithSampler(s texture.Sampler) LoaderBuilderOption {
	return func(l *loader) {
		l.convert.sampler = s
	}
}

// WithMaxSize downscales images whose longer side exceeds size. Zero disables scaling.
//
// Parameters:
//   - size: the maximum width or height in pixels
//
// Returns:
//   - LoaderBuilderOption: a function that applies the size limit to a loader
func WithMaxSize(size int) LoaderBuilderOption {
	return func(l *loader) {
		l.convert.maxSize = size
	}
}

// WithLinearize decodes sRGB-encoded color channels to linear values on load.
func WithLinearize(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.convert.linearize = enabled
	}
}

// WithFlipY flips images vertically on load, for assets authored with a bottom-left origin.
func WithFlipY(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.convert.flipY = enabled
	}
}

// WithWorkers sets how many files LoadTextures decodes at once.
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = n
	}
}

// WithTexture pre-populates the texture cache.
//
// Parameters:
//   - key: the cache key
//   - tex: the texture
//
// Returns:
//   - LoaderBuilderOption: a function that applies the texture option to a loader
func WithTexture(key string, tex texture.Texture) LoaderBuilderOption {
	return func(l *loader) {
		l.textureCache[key] = tex
	}
}
