package renderer

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/render_target"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
)

// softwareRendererBackend rasterizes passes on the CPU. Attachments live in host memory, programs
// run as Go kernels, and the display is an RGBA8 texture instead of a window surface.
type softwareRendererBackend struct {
	render_target.Allocator

	mu *sync.Mutex

	compiler shader.Compiler
	pool     worker.DynamicWorkerPool
	workers  int

	width, height int
	screen        texture.Texture

	// depth holds one depth buffer per target name, sized with the target.
	depth map[string][]float32
}

var _ RendererBackend = &softwareRendererBackend{}

// newSoftwareRendererBackend creates the CPU backend.
//
// Parameters:
//   - kernels: the registry programs resolve their kernels from
//   - width, height: the display size
//   - workers: how many row bands a pass is split into
//
// Returns:
//   - *softwareRendererBackend: the backend
func newSoftwareRendererBackend(kernels shader.KernelRegistry, width, height, workers int) *softwareRendererBackend {
	workers = max(workers, 1)
	return &softwareRendererBackend{
		Allocator: render_target.NewMemoryAllocator(),
		mu:        &sync.Mutex{},
		compiler:  shader.NewSoftwareCompiler(kernels),
		pool:      worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		workers:   workers,
		width:     width,
		height:    height,
		screen:    texture.NewTexture("screen", width, height, texture.RGBA8()),
		depth:     make(map[string][]float32),
	}
}

func (b *softwareRendererBackend) Compiler() shader.Compiler {
	return b.compiler
}

func (b *softwareRendererBackend) Resize(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
	b.screen.Resize(width, height)
	return nil
}

func (b *softwareRendererBackend) BeginFrame() error {
	return nil
}

func (b *softwareRendererBackend) ExecutePass(job *PassJob) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	target := job.Target
	width, height := target.Size()
	attachments := target.Textures()
	for slot, tex := range attachments {
		if c := target.Clear(slot); c.Enabled {
			tex.Fill(c.Color)
		}
	}

	depth := b.depthBuffer(target.Name(), width*height)
	rj, err := setupJob(job, attachments, depth, width, height)
	if err != nil {
		return fmt.Errorf("software backend: %w", err)
	}
	rj.run(b.pool, b.workers)
	return nil
}

func (b *softwareRendererBackend) EndFrame(display *PassJob) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.screen.Fill([4]float32{0, 0, 0, 1})
	if display == nil {
		return nil
	}
	depth := b.depthBuffer("screen", b.width*b.height)
	rj, err := setupJob(display, []texture.Texture{b.screen}, depth, b.width, b.height)
	if err != nil {
		return fmt.Errorf("software backend display: %w", err)
	}
	rj.run(b.pool, b.workers)
	return nil
}

func (b *softwareRendererBackend) ReadPixels(tex texture.Texture) ([]float32, error) {
	if tex == nil || !tex.HasCPUStorage() {
		return nil, ErrReadbackUnsupported
	}
	return append([]float32(nil), tex.Pixels()...), nil
}

func (b *softwareRendererBackend) Screen() texture.Texture {
	return b.screen
}

func (b *softwareRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.depth = make(map[string][]float32)
	common.Logger().Debug("software backend released")
}

// depthBuffer returns the named depth buffer sized to n and cleared to the far plane.
// Caller must hold the mutex.
func (b *softwareRendererBackend) depthBuffer(name string, n int) []float32 {
	buf := b.depth[name]
	if len(buf) != n {
		buf = make([]float32, n)
		b.depth[name] = buf
	}
	for i := range buf {
		buf[i] = 1
	}
	return buf
}
