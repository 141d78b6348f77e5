package renderer

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/variant_registry"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithSize sets the initial display size. It overrides the window size.
//
// Parameters:
//   - width, height: the size in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.width, r.height = width, height
	}
}

// WithCamera sets the main scene camera. Scene targets render through clones of it.
//
// Parameters:
//   - cam: the main camera
//
// Returns:
//   - RendererBuilderOption: a function that applies the camera option to a renderer
func WithCamera(cam camera.Camera) RendererBuilderOption {
	return func(r *renderer) {
		r.mainCamera = cam
	}
}

// WithSceneRoot sets the root of the scene graph drawn by scene targets.
//
// Parameters:
//   - root: the scene root
//
// Returns:
//   - RendererBuilderOption: a function that applies the scene root option to a renderer
func WithSceneRoot(root scene.Node) RendererBuilderOption {
	return func(r *renderer) {
		r.sceneRoot = root
	}
}

// WithKernels sets the kernel registry used by the software backend.
//
// Parameters:
//   - kernels: the registry
//
// Returns:
//   - RendererBuilderOption: a function that applies the kernels option to a renderer
func WithKernels(kernels shader.KernelRegistry) RendererBuilderOption {
	return func(r *renderer) {
		r.kernels = kernels
	}
}

// WithRegistry sets the variant registry.
//
// Parameters:
//   - registry: the registry
//
// Returns:
//   - RendererBuilderOption: a function that applies the registry option to a renderer
func WithRegistry(registry variant_registry.Registry) RendererBuilderOption {
	return func(r *renderer) {
		r.registry = registry
	}
}

// WithOrderingAssertions enables or disables graph validation in Run. Enabled by default.
//
// Parameters:
//   - enabled: true to validate the graph whenever it changes
//
// Returns:
//   - RendererBuilderOption: a function that applies the assertion option to a renderer
func WithOrderingAssertions(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.assertions = enabled
	}
}

// WithWorkers sets how many row bands the software backend rasterizes in parallel.
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - RendererBuilderOption: a function that applies the workers option to a renderer
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.workers = max(n, 1)
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}
