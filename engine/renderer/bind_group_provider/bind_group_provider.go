package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// bindGroups holds one bind group per group index of the program layout.
	bindGroups []*wgpu.BindGroup
	// buffers holds the uniform buffers backing the bind groups, keyed by group index.
	buffers map[int]*wgpu.Buffer

	// The following fields are set for mesh providers, which own the uploaded geometry of one scene mesh.

	// vertexBuffer is the GPU vertex buffer, or nil before upload.
	vertexBuffer *wgpu.Buffer
	// indexBuffer is the GPU index buffer, or nil before upload.
	indexBuffer *wgpu.Buffer
	// indexCount is the number of indices drawn by DrawIndexed.
	indexCount int
}

// BindGroupProvider owns the GPU resources of one draw or one mesh on the wgpu backend.
//
// The backend creates a draw provider per draw item each frame, holding the bind groups and uniform
// buffers of the pass inputs and draw transforms, and releases it once the frame is submitted. A mesh
// provider holds the vertex and index buffers of a scene mesh for the lifetime of the backend.
type BindGroupProvider interface {
	// Release releases every GPU resource held by the provider. Safe to call more than once.
	Release()

	// Label returns the debug label for this provider.
	Label() string

	// BindGroups returns the bind groups in group index order.
	BindGroups() []*wgpu.BindGroup

	// SetBindGroups stores the created bind groups. The provider takes ownership.
	//
	// Parameters:
	//   - groups: bind groups in group index order
	SetBindGroups(groups []*wgpu.BindGroup)

	// Buffer returns the uniform buffer of a group, or nil.
	//
	// Parameters:
	//   - group: the group index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(group int) *wgpu.Buffer

	// SetBuffer stores the uniform buffer of a group. The provider takes ownership and releases a
	// buffer previously stored for the group.
	//
	// Parameters:
	//   - group: the group index
	//   - buf: the created buffer
	SetBuffer(group int, buf *wgpu.Buffer)

	// SetMesh stores the uploaded geometry. The provider takes ownership.
	//
	// Parameters:
	//   - vertex: the vertex buffer
	//   - index: the index buffer
	//   - count: the number of indices
	SetMesh(vertex, index *wgpu.Buffer, count int)

	// VertexBuffer returns the GPU vertex buffer, or nil if not uploaded.
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the GPU index buffer, or nil if not uploaded.
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices for draw calls.
	IndexCount() int

	// Uploaded reports whether the provider holds mesh geometry.
	Uploaded() bool
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty BindGroupProvider.
//
// Parameters:
//   - label: debug label used in wgpu resource labels
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroups() []*wgpu.BindGroup {
	return p.bindGroups
}

func (p *bindGroupProvider) SetBindGroups(groups []*wgpu.BindGroup) {
	p.bindGroups = groups
}

func (p *bindGroupProvider) Buffer(group int) *wgpu.Buffer {
	return p.buffers[group]
}

func (p *bindGroupProvider) SetBuffer(group int, buf *wgpu.Buffer) {
	if old := p.buffers[group]; old != nil && old != buf {
		old.Release()
	}
	p.buffers[group] = buf
}

func (p *bindGroupProvider) SetMesh(vertex, index *wgpu.Buffer, count int) {
	p.vertexBuffer = vertex
	p.indexBuffer = index
	p.indexCount = count
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) Uploaded() bool {
	return p.vertexBuffer != nil && p.indexBuffer != nil
}

func (p *bindGroupProvider) Release() {
	for i, bg := range p.bindGroups {
		if bg != nil {
			bg.Release()
		}
		p.bindGroups[i] = nil
	}
	p.bindGroups = nil
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}
