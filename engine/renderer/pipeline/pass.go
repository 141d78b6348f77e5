package pipeline

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/render_target"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
)

var (
	// ErrAlreadyBound is returned by Bind on a pass that already has a target.
	ErrAlreadyBound = errors.New("pass already bound")
	// ErrNilTarget is returned by Bind without a target.
	ErrNilTarget = errors.New("pass target is nil")
	// ErrNilProgram is returned by Bind without a program.
	ErrNilProgram = errors.New("pass program is nil")
)

// pass is the implementation of the Pass interface.
type pass struct {
	mu *sync.Mutex

	name     string
	target   render_target.RenderTarget
	program  shader.Program
	orderKey int
	bound    bool

	// pending holds inputs set before Bind; they seed the default state.
	pending      map[string]shader.Input
	stateOptions []material.MaterialBuilderOption
	state        material.Material

	after    []string
	mask     scene.CameraMask
	hasMask  bool
	toggles  []string
	temporal bool
}

// Pass is one node of the pipeline graph: a render target, the shader program that renders into it,
// named inputs and an integer order key.
//
// Every pass has a default state (program plus inputs) installed by Bind. Nodes tagged for this pass
// in the variant registry render with overrides composed over it. Inputs referencing textures
// produced by other targets form the edges of the graph; the order key must strictly increase along
// every producer to consumer edge.
type Pass interface {
	// Name returns the pass name, also used as its id in the variant registry.
	//
	// Returns:
	//   - string: the pass name
	Name() string

	// Bind attaches the pass to a target and program and records its order key.
	// The default state is built at this point from the program, the inputs set so far and any
	// state options given to NewPass.
	//
	// Parameters:
	//   - target: the render target the pass renders into
	//   - program: the compiled shader program
	//   - orderKey: the execution order key
	//
	// Returns:
	//   - error: ErrAlreadyBound, ErrNilTarget or ErrNilProgram
	Bind(target render_target.RenderTarget, program shader.Program, orderKey int) error

	// Bound reports whether Bind succeeded.
	Bound() bool

	// Target returns the bound render target, or nil.
	Target() render_target.RenderTarget

	// Program returns the bound shader program, or nil.
	Program() shader.Program

	// SetInput pushes a named input into the default state. Before Bind the value is held and
	// installed by Bind.
	//
	// Parameters:
	//   - name: the input name
	//   - value: the input value
	SetInput(name string, value shader.Input)

	// Input returns the current value of a named input.
	Input(name string) (shader.Input, bool)

	// Inputs returns a copy of all inputs.
	Inputs() map[string]shader.Input

	// DefaultState returns the default state material, or nil before Bind.
	//
	// Returns:
	//   - material.Material: the live default state; later SetInput calls are visible through it
	DefaultState() material.Material

	// OrderKey returns the execution order key.
	OrderKey() int

	// SetOrderKey replaces the execution order key.
	//
	// Parameters:
	//   - key: the new order key
	SetOrderKey(key int)

	// Dependencies returns the names of the render targets whose textures this pass reads, in
	// input-name order, without duplicates.
	//
	// Returns:
	//   - []string: producer target names
	Dependencies() []string

	// After returns the names of passes this pass was declared to run after.
	After() []string

	// CameraMask returns the camera mask the pass renders with.
	//
	// Returns:
	//   - scene.CameraMask: the mask
	//   - bool: true when the pass sets a mask of its own
	CameraMask() (scene.CameraMask, bool)

	// WatchedToggles returns the feature toggles broadcast to this pass.
	WatchedToggles() []string

	// WantsTemporal reports whether the pass receives the current and previous view transforms.
	WantsTemporal() bool
}

var _ Pass = &pass{}

// NewPass creates an unbound pass.
//
// Parameters:
//   - name: the pass name
//   - opts: functional options
//
// Returns:
//   - Pass: the pass
func NewPass(name string, opts ...PassBuilderOption) Pass {
	p := &pass{
		mu:      &sync.Mutex{},
		name:    name,
		pending: make(map[string]shader.Input),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pass) Name() string {
	return p.name
}

func (p *pass) Bind(target render_target.RenderTarget, program shader.Program, orderKey int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.bound:
		return fmt.Errorf("%w: %s", ErrAlreadyBound, p.name)
	case target == nil:
		return fmt.Errorf("%w: %s", ErrNilTarget, p.name)
	case program == nil:
		return fmt.Errorf("%w: %s", ErrNilProgram, p.name)
	}

	p.target = target
	p.program = program
	p.orderKey = orderKey

	opts := append([]material.MaterialBuilderOption{
		material.WithProgram(program),
		material.WithInputs(p.pending),
	}, p.stateOptions...)
	if !target.UsesFullScene() {
		opts = append(opts, material.WithDepthTest(false), material.WithDepthWrite(false))
	}
	p.state = material.NewMaterial(p.name, opts...)
	p.pending = nil
	if p.hasMask {
		target.Camera().SetMask(p.mask)
	}
	p.bound = true
	return nil
}

func (p *pass) Bound() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bound
}

func (p *pass) Target() render_target.RenderTarget {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

func (p *pass) Program() shader.Program {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.program
}

func (p *pass) SetInput(name string, value shader.Input) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == nil {
		p.pending[name] = value
		return
	}
	p.state.SetInput(name, value)
}

func (p *pass) Input(name string) (shader.Input, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == nil {
		in, ok := p.pending[name]
		return in, ok
	}
	return p.state.Input(name)
}

func (p *pass) Inputs() map[string]shader.Input {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == nil {
		return maps.Clone(p.pending)
	}
	return p.state.Inputs()
}

func (p *pass) DefaultState() material.Material {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *pass) OrderKey() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.orderKey
}

func (p *pass) SetOrderKey(key int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orderKey = key
}

func (p *pass) Dependencies() []string {
	inputs := p.Inputs()
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	var deps []string
	seen := make(map[string]struct{})
	for _, name := range names {
		in := inputs[name]
		if !in.IsTexture() || in.Texture == nil {
			continue
		}
		producer := in.Texture.Producer()
		if producer == "" {
			continue
		}
		if _, ok := seen[producer]; ok {
			continue
		}
		seen[producer] = struct{}{}
		deps = append(deps, producer)
	}
	return deps
}

func (p *pass) After() []string {
	return append([]string(nil), p.after...)
}

func (p *pass) CameraMask() (scene.CameraMask, bool) {
	return p.mask, p.hasMask
}

func (p *pass) WatchedToggles() []string {
	return append([]string(nil), p.toggles...)
}

func (p *pass) WantsTemporal() bool {
	return p.temporal
}
