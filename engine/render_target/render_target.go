package render_target

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
)

// MaxAttachments is the number of attachments (primary plus aux) a single target may carry.
const MaxAttachments = 8

// Clear is the per-attachment clear behavior applied before a target is rendered.
type Clear struct {
	Enabled bool
	Color   [4]float32
}

// Config describes a render target.
type Config struct {
	// Name identifies the target; attachment textures report it as their producer.
	Name string
	// Format applies to every attachment.
	Format texture.PixelFormat
	// AuxCount is the number of auxiliary attachments after the primary one.
	AuxCount int
	// Clears holds one entry per attachment. Missing entries clear to transparent black.
	Clears []Clear
	// UsesFullScene selects a clone of the main scene camera instead of a full-screen quad.
	UsesFullScene bool
}

// ClearFor returns the clear behavior of an attachment slot.
//
// Parameters:
//   - slot: the attachment slot
//
// Returns:
//   - Clear: the configured clear, or an enabled transparent black clear when none was given
func (c Config) ClearFor(slot int) Clear {
	if slot >= 0 && slot < len(c.Clears) {
		return c.Clears[slot]
	}
	return Clear{Enabled: true}
}

// AttachmentName returns the debug name of an attachment texture.
func AttachmentName(target string, slot int) string {
	if slot == 0 {
		return target
	}
	return fmt.Sprintf("%s.aux%d", target, slot-1)
}

type renderTarget struct {
	mu *sync.Mutex

	cfg      Config
	textures []texture.Texture
	camera   camera.Camera
	quad     scene.Node
	root     scene.Node
	width    int
	height   int
}

// RenderTarget is an offscreen surface with one primary and zero or more aux attachments.
// Targets are created once by a Factory and live for the whole process; a resize reallocates
// attachment storage but keeps the texture identities.
type RenderTarget interface {
	// Name returns the target name.
	Name() string

	// Config returns the configuration the target was created from.
	Config() Config

	// Camera returns the camera the target renders through.
	// Full-screen targets own an orthographic camera framing the quad; scene targets own a clone
	// of the main camera kept in sync by SyncCamera.
	Camera() camera.Camera

	// Quad returns the full-screen quad node, or nil for scene targets.
	Quad() scene.Node

	// Root returns the node drawn into the target: the dedicated quad root for full-screen targets,
	// the scene root for scene targets.
	Root() scene.Node

	// UsesFullScene reports whether the target renders the main scene.
	UsesFullScene() bool

	// Texture returns the attachment at a slot.
	//
	// Parameters:
	//   - slot: 0 for the primary attachment, 1..AuxCount for aux attachments
	//
	// Returns:
	//   - texture.Texture: the attachment, or nil when the slot does not exist
	Texture(slot int) texture.Texture

	// Textures returns all attachments in slot order.
	Textures() []texture.Texture

	// AttachmentCount returns 1 + AuxCount.
	AttachmentCount() int

	// Clear returns the clear behavior of an attachment slot.
	Clear(slot int) Clear

	// Size returns the current size in texels.
	Size() (width, height int)

	// SyncCamera copies the lens and transform of the main camera into a scene target's camera.
	// It does nothing for full-screen targets.
	//
	// Parameters:
	//   - main: the main scene camera
	SyncCamera(main camera.Camera)
}

var _ RenderTarget = &renderTarget{}

func (rt *renderTarget) Name() string {
	return rt.cfg.Name
}

func (rt *renderTarget) Config() Config {
	cfg := rt.cfg
	cfg.Clears = append([]Clear(nil), rt.cfg.Clears...)
	return cfg
}

func (rt *renderTarget) Camera() camera.Camera {
	return rt.camera
}

func (rt *renderTarget) Quad() scene.Node {
	return rt.quad
}

func (rt *renderTarget) Root() scene.Node {
	return rt.root
}

func (rt *renderTarget) UsesFullScene() bool {
	return rt.cfg.UsesFullScene
}

func (rt *renderTarget) Texture(slot int) texture.Texture {
	if slot < 0 || slot >= len(rt.textures) {
		return nil
	}
	return rt.textures[slot]
}

func (rt *renderTarget) Textures() []texture.Texture {
	return append([]texture.Texture(nil), rt.textures...)
}

func (rt *renderTarget) AttachmentCount() int {
	return len(rt.textures)
}

func (rt *renderTarget) Clear(slot int) Clear {
	return rt.cfg.ClearFor(slot)
}

func (rt *renderTarget) Size() (width, height int) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.width, rt.height
}

func (rt *renderTarget) SyncCamera(main camera.Camera) {
	if !rt.cfg.UsesFullScene || main == nil {
		return
	}
	rt.camera.CopyFrom(main)
}

// allocate creates replacement storage for every attachment at the new size. On failure the
// replacements already created are released and the target is left untouched.
func (rt *renderTarget) allocate(alloc Allocator, width, height int) ([]texture.Texture, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	next := make([]texture.Texture, 0, len(rt.textures))
	for slot, tex := range rt.textures {
		n, err := alloc.AllocateAttachment(rt.cfg.Name, slot, width, height, tex.Format())
		if err != nil {
			releaseAll(alloc, next)
			return nil, &ResourceAllocationError{Target: rt.cfg.Name, Slot: slot, Err: err}
		}
		next = append(next, n)
	}
	return next, nil
}

// adopt swaps the storage created by allocate into the attachments.
func (rt *renderTarget) adopt(alloc Allocator, next []texture.Texture, width, height int) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for slot, tex := range rt.textures {
		alloc.AdoptAttachment(tex, next[slot])
	}
	rt.width, rt.height = width, height
}

func releaseAll(alloc Allocator, textures []texture.Texture) {
	for _, tex := range textures {
		alloc.ReleaseAttachment(tex)
	}
}
