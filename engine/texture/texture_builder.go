package texture

// TextureBuilderOption is a functional option applied to a texture during construction via NewTexture.
type TextureBuilderOption func(*texture)

// WithProducer marks the texture as attachment slot of the named render target.
//
// Parameters:
//   - target: the producing render target name
//   - slot: the attachment slot (0 is the primary output)
//
// Returns:
//   - TextureBuilderOption: a function that applies the producer option to a texture
func WithProducer(target string, slot int) TextureBuilderOption {
	return func(t *texture) {
		t.producer = target
		t.slot = slot
	}
}

// WithSampler sets the initial sampling state. The default is nearest filtering with clamped edges.
//
// Parameters:
//   - s: the sampler
//
// Returns:
//   - TextureBuilderOption: a function that applies the sampler option to a texture
func WithSampler(s Sampler) TextureBuilderOption {
	return func(t *texture) {
		t.sampler = s
	}
}

// WithPixels supplies initial linear RGBA texel data. The slice must hold width*height*4 values
// and is used directly, without quantization.
//
// Parameters:
//   - pixels: the texel data
//
// Returns:
//   - TextureBuilderOption: a function that applies the pixel data option to a texture
func WithPixels(pixels []float32) TextureBuilderOption {
	return func(t *texture) {
		t.pixels = pixels
		t.cpuStorage = true
	}
}

// WithCPUStorage controls whether texel data is kept in host memory.
// GPU backends disable it for render target attachments.
//
// Parameters:
//   - enabled: false to skip host allocation
//
// Returns:
//   - TextureBuilderOption: a function that applies the storage option to a texture
func WithCPUStorage(enabled bool) TextureBuilderOption {
	return func(t *texture) {
		t.cpuStorage = enabled
		if !enabled {
			t.pixels = nil
		}
	}
}
