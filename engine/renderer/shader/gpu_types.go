package shader

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertexInputSource is the WGSL VertexInput struct matching common.Vertex.
//
//go:embed assets/vertex_input.wgsl
var GPUVertexInputSource string

// GPUDrawSource is the WGSL Draw struct and its binding in DrawGroup.
// Matches GPUDraw layout exactly (192 bytes).
//
//go:embed assets/draw.wgsl
var GPUDrawSource string

// GPUVaryingsSource is the WGSL VertexOutput struct passed from the scene vertex stage to fragment stages.
//
//go:embed assets/varyings.wgsl
var GPUVaryingsSource string

// GPUSceneVertexSource is the shared vs_main entry point. It requires the vertex input, draw and varyings includes.
//
//go:embed assets/scene_vertex.wgsl
var GPUSceneVertexSource string

// GPUPostProcessSource holds texel fetch and color helpers for full-screen effect passes.
//
//go:embed assets/post_process.wgsl
var GPUPostProcessSource string

// GPUDraw is the GPU-aligned representation of the per-draw transforms.
type GPUDraw struct {
	Model      [16]float32 // offset   0: object to world
	View       [16]float32 // offset  64: world to view
	Projection [16]float32 // offset 128: view to clip
}

// Size returns the size of the GPUDraw struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (192)
func (g *GPUDraw) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUDraw struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUDraw) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Model[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.View[i]))
		binary.LittleEndian.PutUint32(buf[128+i*4:], math.Float32bits(g.Projection[i]))
	}
	return buf
}
