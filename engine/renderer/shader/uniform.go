package shader

import (
	"encoding/binary"
	"math"
	"strings"
)

// PackUniforms lays out parameter inputs into the program's input uniform struct.
// Struct members without a matching input, or whose input is a texture, are left zero.
// Array members take one element per 16 byte stride.
//
// Parameters:
//   - r: the program reflection
//   - inputs: the resolved inputs of a draw
//
// Returns:
//   - []byte: the uniform buffer contents, or nil if the program has no input struct
func PackUniforms(r Reflection, inputs map[string]Input) []byte {
	if r.UniformSize == 0 {
		return nil
	}
	buf := make([]byte, r.UniformSize)
	for _, f := range r.Uniforms {
		in, ok := inputs[f.Name]
		if !ok || in.IsTexture() {
			continue
		}
		dst := buf[f.Offset : f.Offset+f.Size]
		switch {
		case strings.HasPrefix(f.Type, "array<"):
			width := 1
			if in.Kind == InputKindVec3Array {
				width = 3
			}
			for i := 0; (i+1)*16 <= len(dst) && i*width < len(in.Values); i++ {
				for c := 0; c < width; c++ {
					putFloat(dst, i*16+c*4, in.Component(i*width+c))
				}
			}
		case strings.HasPrefix(f.Type, "mat3x3"):
			// Columns of a mat3x3 are padded to 16 bytes.
			for col := 0; col < 3; col++ {
				for row := 0; row < 3; row++ {
					putFloat(dst, col*16+row*4, in.Component(col*4+row))
				}
			}
		default:
			for i := 0; i*4 < len(dst) && i < len(in.Values); i++ {
				putFloat(dst, i*4, in.Values[i])
			}
		}
	}
	return buf
}

func putFloat(dst []byte, offset int, v float32) {
	if offset+4 > len(dst) {
		return
	}
	binary.LittleEndian.PutUint32(dst[offset:], math.Float32bits(v))
}
