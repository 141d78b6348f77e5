package shader

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// wgslVertexFormatMap maps WGSL vertex attribute types to their wgpu vertex format.
var wgslVertexFormatMap = map[string]wgpu.VertexFormat{
	"f32":       wgpu.VertexFormatFloat32,
	"vec2<f32>": wgpu.VertexFormatFloat32x2,
	"vec2f":     wgpu.VertexFormatFloat32x2,
	"vec3<f32>": wgpu.VertexFormatFloat32x3,
	"vec3f":     wgpu.VertexFormatFloat32x3,
	"vec4<f32>": wgpu.VertexFormatFloat32x4,
	"vec4f":     wgpu.VertexFormatFloat32x4,
}

// BindGroupLayoutDescriptors converts the reflected bindings into wgpu bind group layout descriptors,
// one per group from 0 through DrawGroup. Groups a program does not declare get an empty descriptor
// so that the pipeline layout indices stay fixed.
//
// Textures are declared unfilterable because render target attachments may be 32 bit float and
// programs read them with textureLoad.
//
// Parameters:
//   - r: the program reflection
//
// Returns:
//   - []wgpu.BindGroupLayoutDescriptor: descriptors indexed by group
func BindGroupLayoutDescriptors(r Reflection) []wgpu.BindGroupLayoutDescriptor {
	out := make([]wgpu.BindGroupLayoutDescriptor, DrawGroup+1)
	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment

	for _, b := range r.Bindings {
		if b.Group < 0 || b.Group > DrawGroup {
			continue
		}
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(b.Binding),
			Visibility: visibility,
		}
		switch b.Kind {
		case BindingKindUniform:
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
			entry.Buffer.MinBindingSize = b.Size
		case BindingKindStorage:
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			entry.Buffer.MinBindingSize = b.Size
		case BindingKindTexture:
			entry.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		case BindingKindSampler:
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		}
		out[b.Group].Entries = append(out[b.Group].Entries, entry)
	}
	return out
}

// VertexBufferLayout converts the reflected vertex input struct into a wgpu vertex buffer layout.
//
// Parameters:
//   - r: the program reflection
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout
//   - bool: false if the program has no vertex input struct
func VertexBufferLayout(r Reflection) (wgpu.VertexBufferLayout, bool) {
	if len(r.VertexAttributes) == 0 {
		return wgpu.VertexBufferLayout{}, false
	}
	attrs := make([]wgpu.VertexAttribute, 0, len(r.VertexAttributes))
	for _, a := range r.VertexAttributes {
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         wgslVertexFormatMap[a.Type],
			Offset:         a.Offset,
			ShaderLocation: uint32(a.Location),
		})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: r.VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}
