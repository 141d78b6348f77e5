// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// TextureStagingData holds raw pixel data for a texture pending GPU upload.
// Render target attachments never carry staging data; only textures produced by the loader do.
type TextureStagingData struct {
	// Pixels is the raw texel data in row-major order, BytesPerPixel bytes per texel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// BytesPerPixel is the size of one texel in bytes (4 for RGBA8, 16 for RGBA32F).
	BytesPerPixel uint32
}

// Vertex is the interleaved vertex layout shared by the software rasterizer and the GPU vertex buffers.
// The field order matches the @location indices of the scene vertex shader.
type Vertex struct {
	// Position is the object-space position.
	Position [3]float32
	// Normal is the object-space normal.
	Normal [3]float32
	// Color is the per-vertex RGBA color.
	Color [4]float32
	// UV is the texture coordinate.
	UV [2]float32
}

// VertexStride is the size in bytes of one interleaved Vertex.
const VertexStride = 4 * (3 + 3 + 4 + 2)
