package renderer

import (
	"context"
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/render_target"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/variant_registry"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
	"github.com/chewxy/math32"
	"go.uber.org/zap"
)

// PassTiming records how long a pass took in the last frame.
type PassTiming struct {
	Name     string
	OrderKey int
	Draws    int
	Duration time.Duration
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	kernels  shader.KernelRegistry
	factory  render_target.Factory
	registry variant_registry.Registry

	mainCamera  camera.Camera
	sceneRoot   scene.Node
	displayRoot scene.Node

	displayCamera  camera.Camera
	displayProgram shader.Program
	displayQuad    scene.Node
	displayState   material.Material
	presented      render_target.RenderTarget
	presentedSlot  int

	passes   []pipeline.Pass
	byName   map[string]pipeline.Pass
	byTarget map[string]pipeline.Pass

	assertions    bool
	validatedSig  string
	frame         uint64
	timings       []PassTiming
	width, height int

	// Pre-creation config collected from builder options
	workers              int
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
}

// Renderer is the pipeline graph: it owns the passes of a deferred pipeline and executes them once
// per frame in ascending order key, then shows the presented attachment on the display.
//
// The renderer also owns the collaborators every pass shares: the backend, its program compiler, the
// render target factory sized to the display, the variant registry, the main scene camera and the
// scene and display roots.
type Renderer interface {
	// BackendType returns the backend the renderer was created with.
	BackendType() RendererBackendType

	// Compiler returns the backend's program compiler.
	Compiler() shader.Compiler

	// Kernels returns the registry the software compiler resolves kernels from.
	Kernels() shader.KernelRegistry

	// Targets returns the render target factory.
	Targets() render_target.Factory

	// Registry returns the variant tag registry.
	Registry() variant_registry.Registry

	// Camera returns the main scene camera.
	Camera() camera.Camera

	// SceneRoot returns the root of the scene graph rendered by scene targets.
	SceneRoot() scene.Node

	// DisplayRoot returns the root holding the display quad.
	DisplayRoot() scene.Node

	// AddPass appends a bound pass to the graph and registers its default state.
	//
	// Parameters:
	//   - p: the pass
	//
	// Returns:
	//   - error: ErrPassNotBound, ErrDuplicatePass or ErrTargetInUse
	AddPass(p pipeline.Pass) error

	// Pass returns a pass by name, or nil.
	Pass(name string) pipeline.Pass

	// Passes returns the passes in execution order: ascending order key, ties in insertion order.
	Passes() []pipeline.Pass

	// Run executes every pass once. The context is only checked before the frame starts; once
	// begun, all passes run to completion. With ordering assertions enabled the graph is validated
	// on the first frame and after any change to keys or texture inputs.
	//
	// Parameters:
	//   - ctx: the frame context
	//
	// Returns:
	//   - error: the context error, an *OrderingViolation, or a wrapped pass failure
	Run(ctx context.Context) error

	// Present shows an attachment of a target on the display. A previously presented quad is
	// detached first, so exactly one display quad exists under DisplayRoot.
	//
	// Parameters:
	//   - target: the render target
	//   - slot: the attachment slot
	//
	// Returns:
	//   - error: ErrInvalidSlot
	Present(target render_target.RenderTarget, slot int) error

	// Presented returns the currently presented target and slot.
	Presented() (render_target.RenderTarget, int, bool)

	// HidePresented detaches the display quad.
	HidePresented()

	// Validate checks that every producer to consumer edge has a strictly increasing order key.
	//
	// Returns:
	//   - error: an *OrderingViolation listing every offending edge, or nil
	Validate() error

	// AssignOrderKeys replaces every pass's order key by its position in a topological sort of the
	// dependency graph (Kahn's algorithm; ready passes are taken by current key, then insertion order).
	//
	// Returns:
	//   - error: an *OrderingViolation naming the passes on a cycle
	AssignOrderKeys() error

	// Resize resizes the display surface, every render target, and the main camera's aspect ratio.
	//
	// Parameters:
	//   - width, height: the new size in pixels
	//
	// Returns:
	//   - error: the first allocation failure
	Resize(width, height int) error

	// Size returns the display size.
	Size() (width, height int)

	// Frame returns the number of frames run.
	Frame() uint64

	// Timings returns per-pass timings of the last frame in execution order.
	Timings() []PassTiming

	// Snapshot copies the presented attachment into an 8-bit image.
	//
	// Returns:
	//   - *image.NRGBA: the image, row 0 at the top
	//   - error: ErrNothingPresented, or ErrReadbackUnsupported from GPU backends
	Snapshot() (*image.NRGBA, error)

	// SnapshotScaled returns the snapshot resampled to width x height.
	SnapshotScaled(width, height int) (*image.NRGBA, error)

	// SaveSnapshot writes the snapshot to a PNG file.
	SaveSnapshot(path string) error

	// SetPresentMode sets the surface present mode. Ignored by the software backend.
	SetPresentMode(mode PresentMode)

	// Backend returns the backend.
	Backend() RendererBackend

	// Release frees backend resources.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend. The window supplies the surface
// descriptor and initial size for the wgpu backend; the software backend accepts a nil window and
// takes its size from WithSize.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - win: the window to present to, or nil for headless software rendering
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		byName:      make(map[string]pipeline.Pass),
		byTarget:    make(map[string]pipeline.Pass),
		assertions:  true,
		width:       800,
		height:      600,
		workers:     4,
	}
	if win != nil {
		r.width, r.height = win.Width(), win.Height()
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}
	if r.kernels == nil {
		r.kernels = shader.NewKernelRegistry()
	}
	if r.registry == nil {
		r.registry = variant_registry.NewRegistry()
	}
	if r.sceneRoot == nil {
		r.sceneRoot = scene.NewNode("render")
	}
	if r.mainCamera == nil {
		r.mainCamera = camera.NewCamera(camera.WithName("main"))
	}
	r.mainCamera.SetAspect(float32(r.width) / float32(max(r.height, 1)))
	r.kernels.Register(displayKernelName, displayKernel)

	switch backendType {
	case BackendTypeSoftware:
		r.backend = newSoftwareRendererBackend(r.kernels, r.width, r.height, r.workers)
	case BackendTypeWGPU:
		fallthrough
	default:
		if win == nil {
			panic("renderer: the wgpu backend requires a window")
		}
		r.backend = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, r.width, r.height)
		if r.pendingPresentMode != nil {
			r.backend.(*wgpuRendererBackend).SetPresentMode(*r.pendingPresentMode)
		}
	}

	r.factory = render_target.NewFactory(r.backend, r.mainCamera,
		render_target.WithSize(r.width, r.height),
		render_target.WithSceneRoot(r.sceneRoot),
	)

	r.displayRoot = scene.NewNode("render2d", scene.WithDepth(false, false))
	r.displayCamera = camera.NewOrthographicCamera(camera.WithName("display"))
	prog, err := r.backend.Compiler().Compile(SceneVertexSource, displayFragmentSource)
	if err != nil {
		panic(fmt.Sprintf("renderer: display program: %v", err))
	}
	r.displayProgram = prog

	common.Logger().Info("renderer created", zap.String("backend", backendType.String()), zap.Int("width", r.width), zap.Int("height", r.height))
	return r
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) Compiler() shader.Compiler {
	return r.backend.Compiler()
}

func (r *renderer) Kernels() shader.KernelRegistry {
	return r.kernels
}

func (r *renderer) Targets() render_target.Factory {
	return r.factory
}

func (r *renderer) Registry() variant_registry.Registry {
	return r.registry
}

func (r *renderer) Camera() camera.Camera {
	return r.mainCamera
}

func (r *renderer) SceneRoot() scene.Node {
	return r.sceneRoot
}

func (r *renderer) DisplayRoot() scene.Node {
	return r.displayRoot
}

func (r *renderer) AddPass(p pipeline.Pass) error {
	if p == nil || !p.Bound() {
		name := "<nil>"
		if p != nil {
			name = p.Name()
		}
		return fmt.Errorf("%w: %s", ErrPassNotBound, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[p.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePass, p.Name())
	}
	targetName := p.Target().Name()
	if owner, ok := r.byTarget[targetName]; ok {
		return fmt.Errorf("%w: %s is rendered by %s", ErrTargetInUse, targetName, owner.Name())
	}

	r.passes = append(r.passes, p)
	r.byName[p.Name()] = p
	r.byTarget[targetName] = p
	r.registry.ResolveDefaultState(p.Name(), p.DefaultState())
	r.validatedSig = ""
	common.Logger().Debug("pass added", zap.String("pass", p.Name()), zap.String("target", targetName), zap.Int("order", p.OrderKey()))
	return nil
}

func (r *renderer) Pass(name string) pipeline.Pass {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName[name]
}

func (r *renderer) Passes() []pipeline.Pass {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedPassesLocked()
}

func (r *renderer) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.assertions {
		sig := r.graphSignatureLocked()
		if sig != r.validatedSig {
			if err := r.validateLocked(); err != nil {
				return err
			}
			r.validatedSig = sig
		}
	}

	order := r.sortedPassesLocked()
	for _, p := range order {
		p.Target().SyncCamera(r.mainCamera)
	}

	if err := r.backend.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	timings := make([]PassTiming, 0, len(order))
	for _, p := range order {
		start := time.Now()
		job := r.buildJob(p)
		if err := r.backend.ExecutePass(job); err != nil {
			return fmt.Errorf("pass %q: %w", p.Name(), err)
		}
		timings = append(timings, PassTiming{
			Name:     p.Name(),
			OrderKey: p.OrderKey(),
			Draws:    len(job.Draws),
			Duration: time.Since(start),
		})
	}

	if err := r.backend.EndFrame(r.displayJobLocked()); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	r.timings = timings
	r.frame++
	return nil
}

func (r *renderer) Present(target render_target.RenderTarget, slot int) error {
	if target == nil || target.Texture(slot) == nil {
		name := "<nil>"
		if target != nil {
			name = target.Name()
		}
		return fmt.Errorf("%w: %s slot %d", ErrInvalidSlot, name, slot)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.displayQuad != nil {
		r.displayQuad.Detach()
	}
	r.displayQuad = scene.NewNode("texture_card", scene.WithMesh(scene.NewQuadMesh()))
	r.displayQuad.ReparentTo(r.displayRoot)
	r.displayState = material.NewMaterial("display",
		material.WithProgram(r.displayProgram),
		material.WithInput(displayTextureInput, shader.Tex(target.Texture(slot))),
		material.WithDepthTest(false),
		material.WithDepthWrite(false),
	)
	r.presented = target
	r.presentedSlot = slot
	common.Logger().Debug("presenting", zap.String("target", target.Name()), zap.Int("slot", slot))
	return nil
}

func (r *renderer) Presented() (render_target.RenderTarget, int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presented, r.presentedSlot, r.presented != nil
}

func (r *renderer) HidePresented() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.displayQuad != nil {
		r.displayQuad.Detach()
	}
	r.displayQuad = nil
	r.displayState = nil
	r.presented = nil
	r.presentedSlot = 0
}

func (r *renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.backend.Resize(width, height); err != nil {
		return err
	}
	if err := r.factory.Resize(width, height); err != nil {
		return err
	}
	r.width, r.height = width, height
	r.mainCamera.SetAspect(float32(width) / float32(height))
	return nil
}

func (r *renderer) Size() (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) Frame() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

func (r *renderer) Timings() []PassTiming {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PassTiming(nil), r.timings...)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	if b, ok := r.backend.(*wgpuRendererBackend); ok {
		b.SetPresentMode(mode)
	}
}

func (r *renderer) Release() {
	r.backend.Release()
}

// sortedPassesLocked returns the passes sorted by order key; the stable sort keeps insertion order
// for equal keys. Caller must hold the mutex.
func (r *renderer) sortedPassesLocked() []pipeline.Pass {
	out := append([]pipeline.Pass(nil), r.passes...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderKey() < out[j].OrderKey()
	})
	return out
}

// buildJob collects the visible meshes under the pass target's root.
func (r *renderer) buildJob(p pipeline.Pass) *PassJob {
	target := p.Target()
	cam := target.Camera()
	job := &PassJob{
		Pass:       p,
		Target:     target,
		View:       cam.ViewMatrix(),
		Projection: cam.ProjectionMatrix(),
	}
	job.Draws = collectDraws(target.Root(), cam, func(n scene.Node) material.Material {
		if state := r.registry.StateFor(p.Name(), n); state != nil {
			return state
		}
		return p.DefaultState()
	})
	return job
}

// displayJobLocked builds the job drawing the display quad, or nil when nothing is presented.
func (r *renderer) displayJobLocked() *PassJob {
	if r.displayQuad == nil {
		return nil
	}
	state := r.displayState
	return &PassJob{
		View:       r.displayCamera.ViewMatrix(),
		Projection: r.displayCamera.ProjectionMatrix(),
		Draws: collectDraws(r.displayRoot, r.displayCamera, func(scene.Node) material.Material {
			return state
		}),
	}
}

// collectDraws walks root and returns one DrawItem per mesh visible to the camera's mask and
// inside its frustum.
func collectDraws(root scene.Node, cam camera.Camera, stateFor func(scene.Node) material.Material) []DrawItem {
	if root == nil {
		return nil
	}
	mask := cam.Mask()
	frustum := cam.Frustum()
	var draws []DrawItem
	root.Walk(func(n scene.Node) bool {
		if !n.VisibleTo(mask) {
			return false
		}
		mesh := n.Mesh()
		if mesh == nil {
			return true
		}
		model := n.WorldMatrix()
		center, radius := mesh.Bounds()
		worldCenter := common.TransformPoint(model[:], center[0], center[1], center[2])
		if !frustum.ContainsSphere(worldCenter, radius*maxScale(model)) {
			return true
		}
		state := stateFor(n)
		if state == nil {
			return true
		}
		test, write := n.DepthState()
		draws = append(draws, DrawItem{
			Node:       n,
			Mesh:       mesh,
			Model:      model,
			State:      state,
			DepthTest:  test && state.DepthTest(),
			DepthWrite: write && state.DepthWrite(),
		})
		return true
	})
	return draws
}

// maxScale returns the largest axis scale of a model matrix.
func maxScale(m [16]float32) float32 {
	s := float32(0)
	for col := range 3 {
		x, y, z := m[col*4], m[col*4+1], m[col*4+2]
		s = max(s, math32.Sqrt(x*x+y*y+z*z))
	}
	return s
}
