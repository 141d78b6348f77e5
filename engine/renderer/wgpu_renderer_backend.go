package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/render_target"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// gpuAttachment is the GPU side of a texture.
type gpuAttachment struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	format  wgpu.TextureFormat
}

func (a *gpuAttachment) release() {
	if a.view != nil {
		a.view.Release()
	}
	if a.texture != nil {
		a.texture.Release()
	}
}

// gpuProgram is the GPU side of a compiled program.
type gpuProgram struct {
	vertex         *wgpu.ShaderModule
	fragment       *wgpu.ShaderModule
	layouts        []*wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
}

// gpuDepth is a depth texture shared by the passes of one target.
type gpuDepth struct {
	texture       *wgpu.Texture
	view          *wgpu.TextureView
	width, height int
}

type wgpuRendererBackend struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat *wgpu.TextureFormat
	presentMode   wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	width, height int

	compiler  *wgpuCompiler
	pipelines map[string]*wgpu.RenderPipeline
	meshes    map[*scene.Mesh]bind_group_provider.BindGroupProvider
	depths    map[string]*gpuDepth

	// Frame state: every pass of a frame records into one encoder, submitted in EndFrame.
	frameEncoder *wgpu.CommandEncoder
	transient    []func()
}

var _ RendererBackend = &wgpuRendererBackend{}

// newWGPURendererBackend acquires an adapter and device for the surface and configures it.
// Panics when no adapter or device is available.
//
// Parameters:
//   - surfaceDescriptor: the window surface
//   - forceFallbackAdapter: request a software adapter
//   - width, height: the initial surface size
//
// Returns:
//   - *wgpuRendererBackend: the backend
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, width, height int) *wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackend{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		pipelines:   make(map[string]*wgpu.RenderPipeline),
		meshes:      make(map[*scene.Mesh]bind_group_provider.BindGroupProvider),
		depths:      make(map[string]*gpuDepth),
	}
	w.compiler = &wgpuCompiler{backend: w}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	// Color attachments plus one texture group per pass stays within the default limits.
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 4

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	w.configureSurface(width, height)
	return w
}

// configureSurface (re)configures the swapchain. Caller must not hold the mutex.
func (b *wgpuRendererBackend) configureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.width, b.height = width, height
}

// SetPresentMode sets the present mode used by the next surface configuration.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
func (b *wgpuRendererBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
	width, height := b.width, b.height
	b.mu.Unlock()
	if width > 0 && height > 0 {
		b.configureSurface(width, height)
	}
}

func (b *wgpuRendererBackend) Compiler() shader.Compiler {
	return b.compiler
}

func (b *wgpuRendererBackend) Resize(width, height int) error {
	b.configureSurface(width, height)
	return nil
}

func (b *wgpuRendererBackend) AllocateAttachment(target string, slot, width, height int, format texture.PixelFormat) (texture.Texture, error) {
	tex := texture.NewTexture(render_target.AttachmentName(target, slot), width, height, format,
		texture.WithProducer(target, slot),
		texture.WithCPUStorage(false),
	)
	att, err := b.createAttachment(tex.Name(), width, height, format)
	if err != nil {
		return nil, err
	}
	tex.SetHandle(att)
	return tex, nil
}

func (b *wgpuRendererBackend) AdoptAttachment(tex, next texture.Texture) {
	if old, ok := tex.Handle().(*gpuAttachment); ok {
		old.release()
	}
	tex.Resize(next.Width(), next.Height())
	tex.SetHandle(next.Handle())
	next.SetHandle(nil)
}

func (b *wgpuRendererBackend) ReleaseAttachment(tex texture.Texture) {
	if att, ok := tex.Handle().(*gpuAttachment); ok {
		att.release()
	}
	tex.SetHandle(nil)
}

func (b *wgpuRendererBackend) createAttachment(label string, width, height int, format texture.PixelFormat) (*gpuAttachment, error) {
	wf, err := wgpuTextureFormat(format)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wf,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, err
	}
	view, err := t.CreateView(nil)
	if err != nil {
		t.Release()
		return nil, err
	}
	return &gpuAttachment{texture: t, view: view, format: wf}, nil
}

// wgpuTextureFormat maps a pixel format onto the closest color-renderable wgpu format.
func wgpuTextureFormat(f texture.PixelFormat) (wgpu.TextureFormat, error) {
	switch {
	case f.SRGB:
		return wgpu.TextureFormatRGBA8UnormSrgb, nil
	case f.Float && f.MaxBits() == 16:
		return wgpu.TextureFormatRGBA16Float, nil
	case f.Float && f.MaxBits() == 32:
		return wgpu.TextureFormatRGBA32Float, nil
	case !f.Float && f.MaxBits() == 8:
		return wgpu.TextureFormatRGBA8Unorm, nil
	}
	return wgpu.TextureFormatUndefined, fmt.Errorf("pixel format %s has no wgpu equivalent", f)
}

func (b *wgpuRendererBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder != nil {
		return fmt.Errorf("previous frame not yet submitted")
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.frameEncoder = encoder
	return nil
}

func (b *wgpuRendererBackend) ExecutePass(job *PassJob) error {
	target := job.Target
	width, height := target.Size()

	colors := make([]wgpu.RenderPassColorAttachment, 0, target.AttachmentCount())
	formats := make([]wgpu.TextureFormat, 0, target.AttachmentCount())
	for slot, tex := range target.Textures() {
		att, ok := tex.Handle().(*gpuAttachment)
		if !ok {
			return fmt.Errorf("attachment %s has no GPU texture", tex.Name())
		}
		c := target.Clear(slot)
		loadOp := wgpu.LoadOpLoad
		if c.Enabled {
			loadOp = wgpu.LoadOpClear
		}
		colors = append(colors, wgpu.RenderPassColorAttachment{
			View:    att.view,
			LoadOp:  loadOp,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(c.Color[0]),
				G: float64(c.Color[1]),
				B: float64(c.Color[2]),
				A: float64(c.Color[3]),
			},
		})
		formats = append(formats, att.format)
	}

	depth, err := b.depthFor(target.Name(), width, height)
	if err != nil {
		return err
	}
	return b.encodePass(target.Name(), job, colors, formats, depth.view)
}

func (b *wgpuRendererBackend) EndFrame(display *PassJob) error {
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	defer func() {
		view.Release()
		surfaceTexture.Release()
	}()

	b.mu.Lock()
	width, height, format := b.width, b.height, *b.surfaceFormat
	b.mu.Unlock()

	if display == nil {
		display = &PassJob{}
	}
	depth, err := b.depthFor("screen", width, height)
	if err != nil {
		return err
	}
	colors := []wgpu.RenderPassColorAttachment{{
		View:       view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
	}}
	if err := b.encodePass("display", display, colors, []wgpu.TextureFormat{format}, depth.view); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
		b.releaseTransientLocked()
		return err
	}
	b.queue.Submit(commandBuffer)
	b.surface.Present()

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.releaseTransientLocked()
	return nil
}

// encodePass records one render pass into the frame encoder.
func (b *wgpuRendererBackend) encodePass(label string, job *PassJob, colors []wgpu.RenderPassColorAttachment, formats []wgpu.TextureFormat, depthView *wgpu.TextureView) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return fmt.Errorf("pass %s recorded outside a frame", label)
	}
	pass := b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            label,
		ColorAttachments: colors,
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	defer pass.End()

	for _, item := range job.Draws {
		prog := item.State.Program()
		if prog == nil {
			continue
		}
		gp, ok := prog.Handle().(*gpuProgram)
		if !ok {
			return fmt.Errorf("program %s was not compiled by the wgpu backend", prog.Name())
		}
		rp, err := b.renderPipelineLocked(prog, gp, item, formats)
		if err != nil {
			return err
		}
		mesh, err := b.meshLocked(item.Mesh)
		if err != nil {
			return err
		}
		draw, err := b.bindGroupsLocked(prog, gp, item, job)
		if err != nil {
			return err
		}

		pass.SetPipeline(rp)
		for i, bg := range draw.BindGroups() {
			pass.SetBindGroup(uint32(i), bg, nil)
		}
		pass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
		pass.SetIndexBuffer(mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(uint32(mesh.IndexCount()), 1, 0, 0, 0)
	}
	return nil
}

// renderPipelineLocked returns the cached pipeline for a state and attachment formats.
func (b *wgpuRendererBackend) renderPipelineLocked(prog shader.Program, gp *gpuProgram, item DrawItem, formats []wgpu.TextureFormat) (*wgpu.RenderPipeline, error) {
	key := fmt.Sprintf("%s|%s|%t|%t|%v", prog.Name(), item.State.PipelineKey(), item.DepthTest, item.DepthWrite, formats)
	if rp, ok := b.pipelines[key]; ok {
		return rp, nil
	}

	refl := prog.Reflection()
	outputs := min(len(formats), max(1, refl.FragmentOutputs))
	targets := make([]wgpu.ColorTargetState, outputs)
	for i := range targets {
		targets[i] = wgpu.ColorTargetState{
			Format:    formats[i],
			WriteMask: wgpu.ColorWriteMaskAll,
		}
		if item.State.Blend() {
			targets[i].Blend = &wgpu.BlendState{
				Color: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorSrcAlpha,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					Operation: wgpu.BlendOperationAdd,
				},
				Alpha: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorOne,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					Operation: wgpu.BlendOperationAdd,
				},
			}
		}
	}

	var vertexLayouts []wgpu.VertexBufferLayout
	if layout, ok := shader.VertexBufferLayout(refl); ok {
		vertexLayouts = append(vertexLayouts, layout)
	}

	depthCompare := wgpu.CompareFunctionLess
	if !item.DepthTest {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  key + " Render Pipeline",
		Layout: gp.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     gp.vertex,
			EntryPoint: refl.VertexEntry,
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     gp.fragment,
			EntryPoint: refl.FragmentEntry,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpuCullMode(item.State.CullMode()),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: item.DepthWrite,
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render pipeline %s: %w", prog.Name(), err)
	}
	b.pipelines[key] = created
	return created, nil
}

func wgpuCullMode(c material.CullMode) wgpu.CullMode {
	switch c {
	case material.CullBack:
		return wgpu.CullModeBack
	case material.CullFront:
		return wgpu.CullModeFront
	default:
		return wgpu.CullModeNone
	}
}

// meshLocked uploads a mesh the first time it is drawn.
func (b *wgpuRendererBackend) meshLocked(m *scene.Mesh) (bind_group_provider.BindGroupProvider, error) {
	if p, ok := b.meshes[m]; ok && p.Uploaded() {
		return p, nil
	}
	vertexData := common.SliceToBytes(m.Vertices)
	indexData := common.SliceToBytes(m.Indices)

	vb, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(vb, 0, vertexData)

	ib, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return nil, err
	}
	b.queue.WriteBuffer(ib, 0, indexData)

	p := bind_group_provider.NewBindGroupProvider("Mesh", bind_group_provider.WithMesh(vb, ib, len(m.Indices)))
	b.meshes[m] = p
	return p, nil
}

// bindGroupsLocked creates the per-draw provider holding the bind groups of the pass inputs,
// textures and transforms. It is released once the frame is submitted.
func (b *wgpuRendererBackend) bindGroupsLocked(prog shader.Program, gp *gpuProgram, item DrawItem, job *PassJob) (bind_group_provider.BindGroupProvider, error) {
	refl := prog.Reflection()
	inputs := item.State.Inputs()
	entries := make([][]wgpu.BindGroupEntry, len(gp.layouts))

	draw := bind_group_provider.NewBindGroupProvider(prog.Name())
	b.transient = append(b.transient, draw.Release)

	if data := shader.PackUniforms(refl, inputs); len(data) > 0 {
		buf, err := b.uniformBufferLocked(prog.Name()+" Inputs", data)
		if err != nil {
			return nil, err
		}
		draw.SetBuffer(shader.InputGroup, buf)
		entries[shader.InputGroup] = append(entries[shader.InputGroup], wgpu.BindGroupEntry{
			Binding: shader.InputBinding,
			Buffer:  buf,
			Size:    wgpu.WholeSize,
		})
	}

	for binding, name := range refl.Textures {
		in, ok := inputs[name]
		if !ok || in.Texture == nil {
			return nil, fmt.Errorf("program %s: texture input %q is not bound", prog.Name(), name)
		}
		view, err := b.textureViewLocked(in.Texture)
		if err != nil {
			return nil, err
		}
		entries[shader.TextureGroup] = append(entries[shader.TextureGroup], wgpu.BindGroupEntry{
			Binding:     uint32(binding),
			TextureView: view,
		})
	}

	transforms := shader.GPUDraw{Model: item.Model, View: job.View, Projection: job.Projection}
	drawBuf, err := b.uniformBufferLocked(prog.Name()+" Draw", transforms.Marshal())
	if err != nil {
		return nil, err
	}
	draw.SetBuffer(shader.DrawGroup, drawBuf)
	entries[shader.DrawGroup] = append(entries[shader.DrawGroup], wgpu.BindGroupEntry{
		Binding: 0,
		Buffer:  drawBuf,
		Size:    wgpu.WholeSize,
	})

	groups := make([]*wgpu.BindGroup, len(gp.layouts))
	for g, layout := range gp.layouts {
		bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   fmt.Sprintf("%s Group %d", prog.Name(), g),
			Layout:  layout,
			Entries: entries[g],
		})
		if err != nil {
			draw.SetBindGroups(groups)
			return nil, fmt.Errorf("bind group %d of %s: %w", g, prog.Name(), err)
		}
		groups[g] = bg
	}
	draw.SetBindGroups(groups)
	return draw, nil
}

// uniformBufferLocked creates a uniform buffer holding data. The caller hands it to a provider.
func (b *wgpuRendererBackend) uniformBufferLocked(label string, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// textureViewLocked returns the view of an attachment, uploading loader textures on first use.
func (b *wgpuRendererBackend) textureViewLocked(tex texture.Texture) (*wgpu.TextureView, error) {
	if att, ok := tex.Handle().(*gpuAttachment); ok {
		return att.view, nil
	}
	if !tex.HasCPUStorage() {
		return nil, fmt.Errorf("texture %s has neither GPU nor CPU storage", tex.Name())
	}

	width, height := uint32(tex.Width()), uint32(tex.Height())
	t, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     tex.Name(),
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA32Float,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		common.SliceToBytes(tex.Pixels()),
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 16,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)
	view, err := t.CreateView(nil)
	if err != nil {
		t.Release()
		return nil, err
	}
	tex.SetHandle(&gpuAttachment{texture: t, view: view, format: wgpu.TextureFormatRGBA32Float})
	return view, nil
}

// depthFor returns the depth texture of a target, recreated when the size changes.
func (b *wgpuRendererBackend) depthFor(name string, width, height int) (*gpuDepth, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if d, ok := b.depths[name]; ok && d.width == width && d.height == height {
		return d, nil
	}
	if old, ok := b.depths[name]; ok {
		old.view.Release()
		old.texture.Release()
	}
	t, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: name + " Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, err
	}
	view, err := t.CreateView(nil)
	if err != nil {
		t.Release()
		return nil, err
	}
	d := &gpuDepth{texture: t, view: view, width: width, height: height}
	b.depths[name] = d
	return d, nil
}

func (b *wgpuRendererBackend) releaseTransientLocked() {
	for _, release := range b.transient {
		release()
	}
	b.transient = b.transient[:0]
}

func (b *wgpuRendererBackend) ReadPixels(tex texture.Texture) ([]float32, error) {
	if tex != nil && tex.HasCPUStorage() {
		return append([]float32(nil), tex.Pixels()...), nil
	}
	return nil, ErrReadbackUnsupported
}

func (b *wgpuRendererBackend) Screen() texture.Texture {
	return nil
}

func (b *wgpuRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.meshes {
		m.Release()
	}
	for _, d := range b.depths {
		d.view.Release()
		d.texture.Release()
	}
	b.meshes = make(map[*scene.Mesh]bind_group_provider.BindGroupProvider)
	b.depths = make(map[string]*gpuDepth)
	b.pipelines = make(map[string]*wgpu.RenderPipeline)
}

// wgpuCompiler compiles programs into shader modules and pipeline layouts on the backend's device.
type wgpuCompiler struct {
	backend *wgpuRendererBackend
}

var _ shader.Compiler = &wgpuCompiler{}

func (c *wgpuCompiler) Compile(vertexSource, fragmentSource string) (shader.Program, error) {
	vs, fs, refl, err := shader.Prepare(vertexSource, fragmentSource)
	if err != nil {
		return nil, err
	}
	name := common.Coalesce(refl.Kernel, refl.FragmentEntry)
	wrap := func(err error) error {
		return &shader.CompileError{Program: name, Err: err}
	}

	b := c.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	vertex, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: name + " Vertex",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: vs,
		},
	})
	if err != nil {
		return nil, wrap(err)
	}
	fragment, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: name + " Fragment",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: fs,
		},
	})
	if err != nil {
		return nil, wrap(err)
	}

	descriptors := shader.BindGroupLayoutDescriptors(refl)
	layouts := make([]*wgpu.BindGroupLayout, len(descriptors))
	for g, desc := range descriptors {
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return nil, wrap(fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr))
		}
		layouts[g] = layout
	}
	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            name,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, wrap(err)
	}

	prog := shader.NewProgram(vs, fs, refl, shader.WithName(name))
	prog.SetHandle(&gpuProgram{
		vertex:         vertex,
		fragment:       fragment,
		layouts:        layouts,
		pipelineLayout: pipelineLayout,
	})
	return prog, nil
}
