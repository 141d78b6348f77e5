package renderer

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/render_target"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the CPU rasterizer. Programs run as Go kernels and every
	// attachment keeps CPU storage, which makes it the headless and test backend.
	BackendTypeSoftware
)

// String returns the backend name used in flags and logs.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeSoftware:
		return "software"
	default:
		return "wgpu"
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// DrawItem is one mesh submitted by a pass, with its resolved state.
type DrawItem struct {
	Node  scene.Node
	Mesh  *scene.Mesh
	Model [16]float32
	// State is the pass default state, or the default composed with the node's tag override.
	State material.Material
	// DepthTest and DepthWrite combine the state with the node's inherited depth attributes.
	DepthTest  bool
	DepthWrite bool
}

// PassJob is everything a backend needs to execute one pass.
type PassJob struct {
	// Pass is nil for the display job.
	Pass pipeline.Pass
	// Target is nil for the display job, which renders to the screen.
	Target     render_target.RenderTarget
	View       [16]float32
	Projection [16]float32
	Draws      []DrawItem
}

// RendererBackend is the interface every backend implements. The Renderer owns the graph and
// the frame sequencing; a backend only allocates attachments, compiles programs and executes the
// jobs it is handed, one at a time and in order.
type RendererBackend interface {
	render_target.Allocator

	// Compiler returns the program compiler of this backend.
	Compiler() shader.Compiler

	// Resize resizes the display surface.
	//
	// Parameters:
	//   - width, height: the new size in pixels
	//
	// Returns:
	//   - error: an error if the surface cannot be reconfigured
	Resize(width, height int) error

	// BeginFrame prepares a frame.
	BeginFrame() error

	// ExecutePass clears the job's target attachments as configured and draws every item.
	//
	// Parameters:
	//   - job: the pass to execute
	//
	// Returns:
	//   - error: a backend failure; the frame is aborted
	ExecutePass(job *PassJob) error

	// EndFrame renders the display job to the screen and presents it.
	//
	// Parameters:
	//   - display: the display job, or nil when nothing is presented
	//
	// Returns:
	//   - error: a backend failure
	EndFrame(display *PassJob) error

	// ReadPixels copies the linear RGBA texels of a texture.
	//
	// Parameters:
	//   - tex: the texture to read
	//
	// Returns:
	//   - []float32: four floats per texel, row 0 at the top
	//   - error: ErrReadbackUnsupported when the backend cannot read the texture back
	ReadPixels(tex texture.Texture) ([]float32, error)

	// Screen returns the texture holding the last presented frame, or nil when the display is a
	// GPU surface.
	Screen() texture.Texture

	// Release frees backend resources.
	Release()
}
