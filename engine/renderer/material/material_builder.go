package material

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithProgram sets the shader program of the material.
//
// Parameters:
//   - p: the compiled program
//
// Returns:
//   - MaterialBuilderOption: a function that applies the program option to a material
func WithProgram(p shader.Program) MaterialBuilderOption {
	return func(m *material) {
		m.program = p
	}
}

// WithInput binds a named input.
//
// Parameters:
//   - name: the input name
//   - in: the value
//
// Returns:
//   - MaterialBuilderOption: a function that applies the input option to a material
func WithInput(name string, in shader.Input) MaterialBuilderOption {
	return func(m *material) {
		m.inputs[name] = in
	}
}

// WithInputs binds every entry of inputs.
//
// Parameters:
//   - inputs: the values keyed by name
//
// Returns:
//   - MaterialBuilderOption: a function that applies the inputs option to a material
func WithInputs(inputs map[string]shader.Input) MaterialBuilderOption {
	return func(m *material) {
		for k, v := range inputs {
			m.inputs[k] = v
		}
	}
}

// WithDepthTest enables or disables depth testing.
//
// Parameters:
//   - enabled: the depth test state
//
// Returns:
//   - MaterialBuilderOption: a function that applies the depth test option to a material
func WithDepthTest(enabled bool) MaterialBuilderOption {
	return func(m *material) {
		m.depthTest = enabled
		m.set |= setDepthTest
	}
}

// WithDepthWrite enables or disables depth writes.
//
// Parameters:
//   - enabled: the depth write state
//
// Returns:
//   - MaterialBuilderOption: a function that applies the depth write option to a material
func WithDepthWrite(enabled bool) MaterialBuilderOption {
	return func(m *material) {
		m.depthWrite = enabled
		m.set |= setDepthWrite
	}
}

// WithBlend enables or disables alpha blending.
//
// Parameters:
//   - enabled: the blend state
//
// Returns:
//   - MaterialBuilderOption: a function that applies the blend option to a material
func WithBlend(enabled bool) MaterialBuilderOption {
	return func(m *material) {
		m.blend = enabled
		m.set |= setBlend
	}
}

// WithCullMode sets the face culling mode.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - MaterialBuilderOption: a function that applies the cull mode option to a material
func WithCullMode(mode CullMode) MaterialBuilderOption {
	return func(m *material) {
		m.cullMode = mode
		m.set |= setCull
	}
}
