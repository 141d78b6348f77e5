package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBindGroups sets the bind groups for this provider.
//
// Parameters:
//   - groups: bind groups in group index order
//
// Returns:
//   - BindGroupProviderOption: a function that sets the bind groups
func WithBindGroups(groups ...*wgpu.BindGroup) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroups = groups
	}
}

// WithBuffer sets the uniform buffer of a group.
//
// Parameters:
//   - group: the group index
//   - buf: the buffer to associate with the group
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for the group
func WithBuffer(group int, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[group] = buf
	}
}

// WithMesh sets uploaded mesh geometry.
func WithMesh(vertex, index *wgpu.Buffer, count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.vertexBuffer = vertex
		p.indexBuffer = index
		p.indexCount = count
	}
}
