package texture

import (
	"sync"

	"github.com/chewxy/math32"
)

// FilterMode selects how a texture is sampled between texel centers.
type FilterMode int

const (
	// FilterNearest returns the texel containing the sample point.
	FilterNearest FilterMode = iota
	// FilterLinear blends the four nearest texels.
	FilterLinear
)

// WrapMode selects how coordinates outside [0, 1] are resolved.
type WrapMode int

const (
	// WrapClamp clamps coordinates to the edge texels.
	WrapClamp WrapMode = iota
	// WrapRepeat tiles the texture.
	WrapRepeat
)

// Sampler holds the sampling state of a texture.
type Sampler struct {
	Filter FilterMode
	Wrap   WrapMode
}

// texture is the implementation of the Texture interface.
type texture struct {
	mu *sync.Mutex

	name     string
	width    int
	height   int
	format   PixelFormat
	sampler  Sampler
	producer string
	slot     int

	// pixels holds linear RGBA texel values, four floats per texel, row 0 at the top.
	// Nil for textures that only live on a GPU.
	pixels     []float32
	cpuStorage bool

	handle any
}

// Texture is a two-dimensional RGBA image consumed as a shader input.
//
// Textures are created either by a render target (one per attachment slot, with Producer set to the
// target's name) or by the asset loader (Producer empty). Texture identity is stable for the life of
// the pipeline: resizing reallocates storage in place so that pass inputs bound at construction stay valid.
// Texel coordinates use the WebGPU convention: (0, 0) is the top-left texel and v grows downward.
type Texture interface {
	// Name returns the texture's debug name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Width returns the width in texels.
	//
	// Returns:
	//   - int: the width
	Width() int

	// Height returns the height in texels.
	//
	// Returns:
	//   - int: the height
	Height() int

	// Format returns the storage format.
	//
	// Returns:
	//   - PixelFormat: the format
	Format() PixelFormat

	// Sampler returns the sampling state used when the texture is read by a shader.
	//
	// Returns:
	//   - Sampler: the sampler
	Sampler() Sampler

	// SetSampler replaces the sampling state.
	//
	// Parameters:
	//   - s: the new sampler
	SetSampler(s Sampler)

	// Producer returns the name of the render target whose attachment this texture is,
	// or an empty string for textures supplied by the loader.
	//
	// Returns:
	//   - string: the producing render target name
	Producer() string

	// Slot returns the attachment slot within the producing render target (0 for the primary output).
	//
	// Returns:
	//   - int: the attachment slot
	Slot() int

	// HasCPUStorage reports whether the texture keeps texel data in host memory.
	//
	// Returns:
	//   - bool: true when Pixels, At, Set and Sample are usable
	HasCPUStorage() bool

	// Pixels returns the raw linear RGBA texel data (four floats per texel, rows top to bottom).
	// Returns nil if the texture has no CPU storage.
	//
	// Returns:
	//   - []float32: the texel data
	Pixels() []float32

	// At returns the texel at (x, y), clamped to the texture bounds.
	//
	// Parameters:
	//   - x, y: texel coordinates
	//
	// Returns:
	//   - [4]float32: the linear RGBA value
	At(x, y int) [4]float32

	// Set stores a texel, quantizing it to the texture's pixel format. Concurrent calls are safe
	// as long as they write distinct texels.
	//
	// Parameters:
	//   - x, y: texel coordinates (ignored if out of bounds)
	//   - c: the linear RGBA value
	Set(x, y int, c [4]float32)

	// Fill sets every texel to c, quantized to the pixel format.
	//
	// Parameters:
	//   - c: the linear RGBA value
	Fill(c [4]float32)

	// Sample reads the texture at normalized coordinates using its sampler.
	//
	// Parameters:
	//   - u, v: normalized coordinates, (0, 0) at the top-left corner
	//
	// Returns:
	//   - [4]float32: the filtered linear RGBA value, or zero if the texture has no CPU storage
	Sample(u, v float32) [4]float32

	// Resize reallocates storage for a new size. CPU storage is cleared to zero.
	//
	// Parameters:
	//   - width, height: the new size in texels
	Resize(width, height int)

	// Handle returns the backend-specific resource attached to this texture (for example a GPU texture view).
	//
	// Returns:
	//   - any: the handle, or nil
	Handle() any

	// SetHandle attaches a backend-specific resource to this texture.
	//
	// Parameters:
	//   - h: the handle
	SetHandle(h any)
}

var _ Texture = &texture{}

// NewTexture creates a texture of the given size and format.
// CPU storage is allocated unless WithCPUStorage(false) is supplied.
//
// Parameters:
//   - name: the debug name
//   - width, height: the size in texels
//   - format: the pixel format
//   - options: functional options
//
// Returns:
//   - Texture: the new texture
func NewTexture(name string, width, height int, format PixelFormat, options ...TextureBuilderOption) Texture {
	t := &texture{
		mu:         &sync.Mutex{},
		name:       name,
		width:      width,
		height:     height,
		format:     format,
		cpuStorage: true,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.cpuStorage && t.pixels == nil {
		t.pixels = make([]float32, width*height*4)
	}
	return t
}

func (t *texture) Name() string        { return t.name }
func (t *texture) Format() PixelFormat { return t.format }
func (t *texture) Producer() string    { return t.producer }
func (t *texture) Slot() int           { return t.slot }
func (t *texture) HasCPUStorage() bool { return t.cpuStorage }
func (t *texture) Pixels() []float32   { return t.pixels }

func (t *texture) Width() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width
}

func (t *texture) Height() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.height
}

func (t *texture) Sampler() Sampler {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sampler
}

func (t *texture) SetSampler(s Sampler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sampler = s
}

func (t *texture) At(x, y int) [4]float32 {
	if t.pixels == nil || t.width == 0 || t.height == 0 {
		return [4]float32{}
	}
	x = clampInt(x, 0, t.width-1)
	y = clampInt(y, 0, t.height-1)
	i := (y*t.width + x) * 4
	return [4]float32{t.pixels[i], t.pixels[i+1], t.pixels[i+2], t.pixels[i+3]}
}

func (t *texture) Set(x, y int, c [4]float32) {
	if t.pixels == nil || x < 0 || y < 0 || x >= t.width || y >= t.height {
		return
	}
	q := t.format.Quantize(c)
	i := (y*t.width + x) * 4
	t.pixels[i], t.pixels[i+1], t.pixels[i+2], t.pixels[i+3] = q[0], q[1], q[2], q[3]
}

func (t *texture) Fill(c [4]float32) {
	if t.pixels == nil {
		return
	}
	q := t.format.Quantize(c)
	for i := 0; i < len(t.pixels); i += 4 {
		t.pixels[i], t.pixels[i+1], t.pixels[i+2], t.pixels[i+3] = q[0], q[1], q[2], q[3]
	}
}

func (t *texture) Sample(u, v float32) [4]float32 {
	if t.pixels == nil || t.width == 0 || t.height == 0 {
		return [4]float32{}
	}
	if t.sampler.Wrap == WrapRepeat {
		u -= math32.Floor(u)
		v -= math32.Floor(v)
	}

	fx := u * float32(t.width)
	fy := v * float32(t.height)
	if t.sampler.Filter == FilterNearest {
		return t.fetch(int(math32.Floor(fx)), int(math32.Floor(fy)))
	}

	// Bilinear filtering between texel centers.
	fx -= 0.5
	fy -= 0.5
	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	ax := fx - float32(x0)
	ay := fy - float32(y0)

	c00 := t.fetch(x0, y0)
	c10 := t.fetch(x0+1, y0)
	c01 := t.fetch(x0, y0+1)
	c11 := t.fetch(x0+1, y0+1)

	var out [4]float32
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*ax
		bottom := c01[i] + (c11[i]-c01[i])*ax
		out[i] = top + (bottom-top)*ay
	}
	return out
}

// fetch reads a texel honoring the wrap mode.
func (t *texture) fetch(x, y int) [4]float32 {
	if t.sampler.Wrap == WrapRepeat {
		x = ((x % t.width) + t.width) % t.width
		y = ((y % t.height) + t.height) % t.height
	}
	return t.At(x, y)
}

func (t *texture) Resize(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.width = width
	t.height = height
	if t.cpuStorage {
		t.pixels = make([]float32, width*height*4)
	}
}

func (t *texture) Handle() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handle
}

func (t *texture) SetHandle(h any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handle = h
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
