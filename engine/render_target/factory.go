package render_target

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
	"go.uber.org/zap"
)

type factory struct {
	mu *sync.Mutex

	alloc      Allocator
	mainCamera camera.Camera
	sceneRoot  scene.Node
	width      int
	height     int

	targets []*renderTarget
	names   map[string]struct{}
}

// Factory creates render targets sized to the host display.
type Factory interface {
	// Create allocates a render target. It has no side effects on any pipeline graph.
	//
	// Parameters:
	//   - cfg: the target configuration
	//
	// Returns:
	//   - RenderTarget: the new target
	//   - error: *ResourceAllocationError when the backing surface cannot be created; attachments
	//     allocated before the failing slot are released
	Create(cfg Config) (RenderTarget, error)

	// Resize reallocates every created target's attachments to the new display size.
	// Texture identities are preserved. All replacements are allocated before any is adopted, so
	// a failure leaves every target at its old size. Must be called between frames.
	//
	// Parameters:
	//   - width, height: the new size in texels
	//
	// Returns:
	//   - error: the first allocation failure
	Resize(width, height int) error

	// Size returns the current display size.
	Size() (width, height int)

	// Targets returns the created targets in creation order.
	Targets() []RenderTarget

	// MainCamera returns the main scene camera cloned by scene targets.
	MainCamera() camera.Camera

	// SceneRoot returns the root node scene targets render.
	SceneRoot() scene.Node
}

var _ Factory = &factory{}

// NewFactory creates a Factory.
//
// Parameters:
//   - alloc: the backend allocator for attachment storage
//   - mainCamera: the main scene camera
//   - options: functional options
//
// Returns:
//   - Factory: the factory
func NewFactory(alloc Allocator, mainCamera camera.Camera, options ...FactoryBuilderOption) Factory {
	f := &factory{
		mu:         &sync.Mutex{},
		alloc:      alloc,
		mainCamera: mainCamera,
		width:      800,
		height:     600,
		names:      make(map[string]struct{}),
	}
	for _, opt := range options {
		opt(f)
	}
	if f.sceneRoot == nil {
		f.sceneRoot = scene.NewNode("render")
	}
	return f
}

func (f *factory) Create(cfg Config) (RenderTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cfg.Name == "" {
		return nil, &ResourceAllocationError{Target: cfg.Name, Slot: -1, Err: errors.New("empty name")}
	}
	if _, ok := f.names[cfg.Name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateTarget, cfg.Name)
	}
	if err := cfg.Format.Validate(); err != nil {
		return nil, &ResourceAllocationError{Target: cfg.Name, Slot: -1, Err: err}
	}
	if f.width <= 0 || f.height <= 0 {
		return nil, &ResourceAllocationError{Target: cfg.Name, Slot: -1, Err: ErrZeroSize}
	}
	if cfg.AuxCount < 0 || cfg.AuxCount+1 > MaxAttachments {
		return nil, &ResourceAllocationError{
			Target: cfg.Name, Slot: -1,
			Err: fmt.Errorf("%w: %d aux requested, at most %d", ErrTooManyAttachments, cfg.AuxCount, MaxAttachments-1),
		}
	}

	rt := &renderTarget{
		mu:     &sync.Mutex{},
		cfg:    cfg,
		width:  f.width,
		height: f.height,
	}
	rt.cfg.Clears = append([]Clear(nil), cfg.Clears...)

	for slot := 0; slot <= cfg.AuxCount; slot++ {
		tex, err := f.alloc.AllocateAttachment(cfg.Name, slot, f.width, f.height, cfg.Format)
		if err != nil {
			releaseAll(f.alloc, rt.textures)
			return nil, &ResourceAllocationError{Target: cfg.Name, Slot: slot, Err: err}
		}
		rt.textures = append(rt.textures, tex)
	}

	if cfg.UsesFullScene {
		if f.mainCamera != nil {
			rt.camera = f.mainCamera.Clone()
		} else {
			rt.camera = camera.NewCamera(camera.WithName(cfg.Name + "_camera"))
		}
		rt.root = f.sceneRoot
	} else {
		rt.root = scene.NewNode(cfg.Name+"_root", scene.WithDepth(false, false))
		rt.quad = scene.NewNode(cfg.Name+"_quad", scene.WithMesh(scene.NewQuadMesh()), scene.WithParent(rt.root))
		rt.camera = camera.NewOrthographicCamera(camera.WithName(cfg.Name + "_camera"))
	}

	f.targets = append(f.targets, rt)
	f.names[cfg.Name] = struct{}{}
	common.Logger().Debug("render target created",
		zap.String("name", cfg.Name), zap.String("format", cfg.Format.String()), zap.Int("attachments", cfg.AuxCount+1),
		zap.Bool("full_scene", cfg.UsesFullScene), zap.Int("width", f.width), zap.Int("height", f.height))
	return rt, nil
}

func (f *factory) Resize(width, height int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if width <= 0 || height <= 0 {
		return &ResourceAllocationError{Slot: -1, Err: ErrZeroSize}
	}
	staged := make([][]texture.Texture, 0, len(f.targets))
	for _, rt := range f.targets {
		next, err := rt.allocate(f.alloc, width, height)
		if err != nil {
			for _, s := range staged {
				releaseAll(f.alloc, s)
			}
			return err
		}
		staged = append(staged, next)
	}
	for i, rt := range f.targets {
		rt.adopt(f.alloc, staged[i], width, height)
	}
	f.width, f.height = width, height
	return nil
}

func (f *factory) Size() (width, height int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.width, f.height
}

func (f *factory) Targets() []RenderTarget {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RenderTarget, len(f.targets))
	for i, rt := range f.targets {
		out[i] = rt
	}
	return out
}

func (f *factory) MainCamera() camera.Camera {
	return f.mainCamera
}

func (f *factory) SceneRoot() scene.Node {
	return f.sceneRoot
}
