package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/render_target"
)

// BufferEntry names one attachment the BufferViewer can show.
type BufferEntry struct {
	Name   string
	Target render_target.RenderTarget
	Slot   int
}

// BufferViewer cycles the display through a fixed list of attachments, for inspecting
// intermediate buffers of the pipeline.
type BufferViewer struct {
	mu       *sync.Mutex
	renderer Renderer
	entries  []BufferEntry
	current  int
	hidden   bool
}

// NewBufferViewer creates a viewer over entries. Nothing is presented until Show, Next or Previous
// is called.
//
// Parameters:
//   - r: the renderer to present through
//   - entries: the attachments to cycle, in order
//
// Returns:
//   - *BufferViewer: the viewer
func NewBufferViewer(r Renderer, entries ...BufferEntry) *BufferViewer {
	return &BufferViewer{
		mu:       &sync.Mutex{},
		renderer: r,
		entries:  entries,
		hidden:   true,
	}
}

// Add appends an entry.
func (v *BufferViewer) Add(entry BufferEntry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries, entry)
}

// Len returns the number of entries.
func (v *BufferViewer) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// Current returns the selected entry.
//
// Returns:
//   - BufferEntry: the selected entry
//   - bool: false when the viewer has no entries
func (v *BufferViewer) Current() (BufferEntry, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.entries) == 0 {
		return BufferEntry{}, false
	}
	return v.entries[v.current], true
}

// Show presents the selected entry.
func (v *BufferViewer) Show() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.presentLocked()
}

// Next selects the following entry, wrapping around, and presents it.
func (v *BufferViewer) Next() error {
	return v.step(1)
}

// Previous selects the preceding entry, wrapping around, and presents it.
func (v *BufferViewer) Previous() error {
	return v.step(-1)
}

// Hide detaches the display quad.
func (v *BufferViewer) Hide() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renderer.HidePresented()
	v.hidden = true
}

// Hidden reports whether the viewer is hidden.
func (v *BufferViewer) Hidden() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hidden
}

func (v *BufferViewer) step(delta int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := len(v.entries)
	if n == 0 {
		return nil
	}
	v.current = ((v.current+delta)%n + n) % n
	return v.presentLocked()
}

func (v *BufferViewer) presentLocked() error {
	if len(v.entries) == 0 {
		return nil
	}
	e := v.entries[v.current]
	if err := v.renderer.Present(e.Target, e.Slot); err != nil {
		return err
	}
	v.hidden = false
	return nil
}
