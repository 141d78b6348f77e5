package pipeline

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
)

// PassBuilderOption is a functional option used to configure a Pass during construction.
type PassBuilderOption func(*pass)

// WithInput seeds a named input of the default state.
//
// Parameters:
//   - name: the input name
//   - value: the input value
//
// Returns:
//   - PassBuilderOption: a function that records the input
func WithInput(name string, value shader.Input) PassBuilderOption {
	return func(p *pass) {
		p.pending[name] = value
	}
}

// WithAfter declares passes this pass runs after even when it reads none of their textures.
//
// Parameters:
//   - passes: the predecessor pass names
//
// Returns:
//   - PassBuilderOption: a function that records the predecessors
func WithAfter(passes ...string) PassBuilderOption {
	return func(p *pass) {
		p.after = append(p.after, passes...)
	}
}

// WithCameraMask sets the camera mask installed on the target's camera at bind time.
// Nodes hidden from any of the mask bits are skipped by this pass.
//
// Parameters:
//   - mask: the camera mask
//
// Returns:
//   - PassBuilderOption: a function that sets the mask
func WithCameraMask(mask scene.CameraMask) PassBuilderOption {
	return func(p *pass) {
		p.mask = mask
		p.hasMask = true
	}
}

// WithToggles subscribes the pass to feature toggles. Each toggle is pushed as a vec2 input
// named "<toggle>Enabled".
//
// Parameters:
//   - toggles: the toggle names
//
// Returns:
//   - PassBuilderOption: a function that records the subscriptions
func WithToggles(toggles ...string) PassBuilderOption {
	return func(p *pass) {
		p.toggles = append(p.toggles, toggles...)
	}
}

// WithTemporalInputs subscribes the pass to the current and previous view transforms.
//
// Returns:
//   - PassBuilderOption: a function that enables the subscription
func WithTemporalInputs() PassBuilderOption {
	return func(p *pass) {
		p.temporal = true
	}
}

// WithState adds fixed-function state options (depth, blend, cull) to the default state.
//
// Parameters:
//   - opts: material options applied after the program and inputs
//
// Returns:
//   - PassBuilderOption: a function that records the options
func WithState(opts ...material.MaterialBuilderOption) PassBuilderOption {
	return func(p *pass) {
		p.stateOptions = append(p.stateOptions, opts...)
	}
}
