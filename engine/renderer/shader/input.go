package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
)

// InputKind identifies the value type carried by an Input.
type InputKind int

const (
	InputKindFloat InputKind = iota
	InputKindVec2
	InputKindVec3
	InputKindVec4
	InputKindMat4
	InputKindTexture
	InputKindFloatArray
	InputKindVec3Array
)

// String returns the WGSL-like name of the kind.
func (k InputKind) String() string {
	switch k {
	case InputKindFloat:
		return "float"
	case InputKindVec2:
		return "vec2"
	case InputKindVec3:
		return "vec3"
	case InputKindVec4:
		return "vec4"
	case InputKindMat4:
		return "mat4"
	case InputKindTexture:
		return "texture"
	case InputKindFloatArray:
		return "float[]"
	case InputKindVec3Array:
		return "vec3[]"
	default:
		return fmt.Sprintf("InputKind(%d)", int(k))
	}
}

// Input is a named shader input value: a texture or a scalar, vector, matrix or array parameter.
// Inputs are plain values; copying one copies its parameters and shares its texture.
type Input struct {
	Kind    InputKind
	Values  []float32
	Texture texture.Texture
}

// Float creates a scalar input.
func Float(v float32) Input {
	return Input{Kind: InputKindFloat, Values: []float32{v}}
}

// Vec2 creates a two component input.
func Vec2(x, y float32) Input {
	return Input{Kind: InputKindVec2, Values: []float32{x, y}}
}

// Vec3 creates a three component input.
func Vec3(x, y, z float32) Input {
	return Input{Kind: InputKindVec3, Values: []float32{x, y, z}}
}

// Vec4 creates a four component input.
func Vec4(x, y, z, w float32) Input {
	return Input{Kind: InputKindVec4, Values: []float32{x, y, z, w}}
}

// Mat4 creates a column-major 4x4 matrix input.
func Mat4(m [16]float32) Input {
	return Input{Kind: InputKindMat4, Values: m[:]}
}

// Tex creates a texture input.
func Tex(t texture.Texture) Input {
	return Input{Kind: InputKindTexture, Texture: t}
}

// FloatArray creates an array of scalars. On the GPU each element occupies the x component of a vec4.
func FloatArray(values ...float32) Input {
	return Input{Kind: InputKindFloatArray, Values: append([]float32(nil), values...)}
}

// Vec3Array creates an array of three component vectors. On the GPU each element occupies a vec4.
func Vec3Array(values ...[3]float32) Input {
	flat := make([]float32, 0, len(values)*3)
	for _, v := range values {
		flat = append(flat, v[0], v[1], v[2])
	}
	return Input{Kind: InputKindVec3Array, Values: flat}
}

// IsTexture reports whether the input carries a texture.
func (in Input) IsTexture() bool {
	return in.Kind == InputKindTexture
}

// Component returns component i of a parameter input, or 0 if it has fewer components.
func (in Input) Component(i int) float32 {
	if i < 0 || i >= len(in.Values) {
		return 0
	}
	return in.Values[i]
}

// Equal reports whether two inputs carry the same kind, values and texture.
func (in Input) Equal(other Input) bool {
	if in.Kind != other.Kind || in.Texture != other.Texture || len(in.Values) != len(other.Values) {
		return false
	}
	for i := range in.Values {
		if in.Values[i] != other.Values[i] {
			return false
		}
	}
	return true
}

// String renders the input for logs.
func (in Input) String() string {
	if in.IsTexture() {
		if in.Texture == nil {
			return "texture(nil)"
		}
		return fmt.Sprintf("texture(%s)", in.Texture.Name())
	}
	return fmt.Sprintf("%s%v", in.Kind, in.Values)
}
