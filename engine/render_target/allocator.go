package render_target

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
)

// Allocator creates, replaces and frees the backing storage of render target attachments.
// Each rendering backend provides one.
type Allocator interface {
	// AllocateAttachment creates the texture for one attachment slot of a target.
	//
	// Parameters:
	//   - target: the render target name
	//   - slot: the attachment slot (0 primary, 1..N aux)
	//   - width, height: the size in texels
	//   - format: the pixel format
	//
	// Returns:
	//   - texture.Texture: the attachment texture, with Producer() == target and Slot() == slot
	//   - error: non-nil if the backend cannot create the surface
	AllocateAttachment(target string, slot, width, height int, format texture.PixelFormat) (texture.Texture, error)

	// AdoptAttachment moves the storage of next into tex and frees the storage tex held before.
	// tex keeps its identity; next must not be used afterwards.
	//
	// Parameters:
	//   - tex: an attachment created by AllocateAttachment
	//   - next: a replacement created by AllocateAttachment for the same target and slot
	AdoptAttachment(tex, next texture.Texture)

	// ReleaseAttachment frees the storage of an attachment.
	//
	// Parameters:
	//   - tex: an attachment created by AllocateAttachment
	ReleaseAttachment(tex texture.Texture)
}

type memoryAllocator struct{}

var _ Allocator = memoryAllocator{}

// NewMemoryAllocator returns an Allocator that keeps attachments in CPU memory only.
func NewMemoryAllocator() Allocator {
	return memoryAllocator{}
}

func (memoryAllocator) AllocateAttachment(target string, slot, width, height int, format texture.PixelFormat) (texture.Texture, error) {
	return texture.NewTexture(AttachmentName(target, slot), width, height, format,
		texture.WithProducer(target, slot),
	), nil
}

func (memoryAllocator) AdoptAttachment(tex, next texture.Texture) {
	tex.Resize(next.Width(), next.Height())
}

func (memoryAllocator) ReleaseAttachment(texture.Texture) {}
