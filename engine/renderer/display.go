package renderer

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// SceneVertexSource is the vertex stage shared by every pass: it transforms the interleaved
// vertex layout by the Draw uniform and emits the standard varyings.
//
//go:embed assets/scene.wgsl
var SceneVertexSource string

// displayFragmentSource copies the presented attachment onto the display quad.
//
//go:embed assets/display.wgsl
var displayFragmentSource string

// displayKernelName is the kernel annotation of displayFragmentSource.
const displayKernelName = "display"

// displayTextureInput is the texture input of the display program.
const displayTextureInput = "colorTexture"

// displayKernel is the software implementation of displayFragmentSource.
func displayKernel(f *shader.Fragment) {
	size := f.TextureSize(displayTextureInput)
	x := int(f.UV[0] * size[0])
	y := int(f.UV[1] * size[1])
	f.Out[0] = f.Load(displayTextureInput, x, y)
}
