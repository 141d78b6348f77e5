package shader

import (
	"sort"
	"sync"
)

// MaxOutputs is the maximum number of color attachments a fragment can write.
const MaxOutputs = 8

// Fragment is the per-pixel state handed to a Kernel by the software backend. The interpolated
// attributes mirror the VertexOutput varyings of the scene vertex stage.
type Fragment struct {
	// X and Y are the pixel coordinates, (0, 0) at the top-left of the target.
	X, Y int

	UV            [2]float32
	WorldPosition [3]float32
	WorldNormal   [3]float32
	ViewPosition  [3]float32
	ViewNormal    [3]float32
	Color         [4]float32

	// Depth is the fragment depth in [0, 1], written to the depth buffer when depth writes are enabled.
	Depth float32

	// Out holds the color written to each attachment slot. Slots past the target's attachment count are ignored.
	Out [MaxOutputs][4]float32

	// Discard drops the fragment entirely when set by the kernel.
	Discard bool

	inputs        map[string]Input
	width, height int
}

// Kernel evaluates a program's fragment stage for one pixel.
type Kernel func(f *Fragment)

// Reset prepares the fragment for a new pixel of a draw with the given inputs and target size.
//
// Parameters:
//   - inputs: the resolved inputs of the draw
//   - width, height: the target size in pixels
func (f *Fragment) Reset(inputs map[string]Input, width, height int) {
	*f = Fragment{inputs: inputs, width: width, height: height}
}

// Input returns the named input and whether it is bound.
func (f *Fragment) Input(name string) (Input, bool) {
	in, ok := f.inputs[name]
	return in, ok
}

// Float returns the first component of the named input, or 0 if unbound.
func (f *Fragment) Float(name string) float32 {
	return f.inputs[name].Component(0)
}

// Vec2 returns the named input as a two component vector.
func (f *Fragment) Vec2(name string) [2]float32 {
	in := f.inputs[name]
	return [2]float32{in.Component(0), in.Component(1)}
}

// Vec3 returns the named input as a three component vector.
func (f *Fragment) Vec3(name string) [3]float32 {
	in := f.inputs[name]
	return [3]float32{in.Component(0), in.Component(1), in.Component(2)}
}

// Vec4 returns the named input as a four component vector.
func (f *Fragment) Vec4(name string) [4]float32 {
	in := f.inputs[name]
	return [4]float32{in.Component(0), in.Component(1), in.Component(2), in.Component(3)}
}

// Mat4 returns the named input as a column-major matrix. An unbound input reads as the identity.
func (f *Fragment) Mat4(name string) [16]float32 {
	in, ok := f.inputs[name]
	if !ok || len(in.Values) < 16 {
		return [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	}
	var m [16]float32
	copy(m[:], in.Values)
	return m
}

// Vec3At returns element i of a Vec3Array input.
func (f *Fragment) Vec3At(name string, i int) [3]float32 {
	in := f.inputs[name]
	return [3]float32{in.Component(i * 3), in.Component(i*3 + 1), in.Component(i*3 + 2)}
}

// Sample reads the named texture input at normalized coordinates with the texture's sampler.
// Unbound inputs read as transparent black.
func (f *Fragment) Sample(name string, uv [2]float32) [4]float32 {
	in, ok := f.inputs[name]
	if !ok || in.Texture == nil {
		return [4]float32{}
	}
	return in.Texture.Sample(uv[0], uv[1])
}

// Load reads a texel of the named texture input by integer coordinates, clamped to its bounds.
func (f *Fragment) Load(name string, x, y int) [4]float32 {
	in, ok := f.inputs[name]
	if !ok || in.Texture == nil {
		return [4]float32{}
	}
	return in.Texture.At(x, y)
}

// TextureSize returns the size in texels of the named texture input.
func (f *Fragment) TextureSize(name string) [2]float32 {
	in, ok := f.inputs[name]
	if !ok || in.Texture == nil {
		return [2]float32{}
	}
	return [2]float32{float32(in.Texture.Width()), float32(in.Texture.Height())}
}

// Resolution returns the size in pixels of the target being rendered.
func (f *Fragment) Resolution() [2]float32 {
	return [2]float32{float32(f.width), float32(f.height)}
}

// kernelRegistry is the implementation of the KernelRegistry interface.
type kernelRegistry struct {
	mu      *sync.Mutex
	kernels map[string]Kernel
}

// KernelRegistry maps kernel names from "@oxy:kernel" annotations to their Go implementations.
type KernelRegistry interface {
	// Register adds or replaces a kernel.
	//
	// Parameters:
	//   - name: the annotation name
	//   - k: the kernel
	Register(name string, k Kernel)

	// Kernel looks up a kernel by name.
	//
	// Parameters:
	//   - name: the annotation name
	//
	// Returns:
	//   - Kernel: the kernel, or nil
	//   - bool: true if registered
	Kernel(name string) (Kernel, bool)

	// Names returns every registered name in sorted order.
	//
	// Returns:
	//   - []string: the names
	Names() []string
}

var _ KernelRegistry = &kernelRegistry{}

// NewKernelRegistry creates an empty KernelRegistry.
//
// Returns:
//   - KernelRegistry: the registry
func NewKernelRegistry() KernelRegistry {
	return &kernelRegistry{
		mu:      &sync.Mutex{},
		kernels: make(map[string]Kernel),
	}
}

func (r *kernelRegistry) Register(name string, k Kernel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kernels[name] = k
}

func (r *kernelRegistry) Kernel(name string) (Kernel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.kernels[name]
	return k, ok
}

func (r *kernelRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.kernels))
	for n := range r.kernels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
