package material

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// CullMode selects which triangle faces are discarded during rasterization.
type CullMode int

const (
	// CullNone rasterizes both faces.
	CullNone CullMode = iota
	// CullBack discards clockwise (back facing) triangles.
	CullBack
	// CullFront discards counter-clockwise (front facing) triangles.
	CullFront
)

// override flags record which render states were set explicitly.
const (
	setDepthTest uint8 = 1 << iota
	setDepthWrite
	setBlend
	setCull
)

// material is the implementation of the Material interface.
type material struct {
	mu *sync.Mutex

	name       string
	program    shader.Program
	inputs     map[string]shader.Input
	depthTest  bool
	depthWrite bool
	blend      bool
	cullMode   CullMode
	set        uint8
}

// Material is a fully resolved shader state: a program, its named inputs and the fixed-function
// render state a draw is submitted with. Passes own one Material as their default state and the
// variant registry composes tag overrides over it.
//
// A Material built only with inputs (no program) is a partial override: composing it over a base
// keeps the base program.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Program retrieves the shader program, or nil for a partial override.
	//
	// Returns:
	//   - shader.Program: the program
	Program() shader.Program

	// SetProgram replaces the shader program.
	//
	// Parameters:
	//   - p: the program
	SetProgram(p shader.Program)

	// Input retrieves a single named input.
	//
	// Parameters:
	//   - name: the input name
	//
	// Returns:
	//   - shader.Input: the input value
	//   - bool: true if the input is bound
	Input(name string) (shader.Input, bool)

	// Inputs returns a copy of every bound input.
	//
	// Returns:
	//   - map[string]shader.Input: the inputs keyed by name
	Inputs() map[string]shader.Input

	// SetInput binds or replaces a named input.
	//
	// Parameters:
	//   - name: the input name
	//   - in: the value
	SetInput(name string, in shader.Input)

	// DepthTest reports whether fragments are depth tested.
	//
	// Returns:
	//   - bool: true if depth testing is enabled
	DepthTest() bool

	// DepthWrite reports whether fragments write depth.
	//
	// Returns:
	//   - bool: true if depth writes are enabled
	DepthWrite() bool

	// Blend reports whether fragments are alpha blended over the target.
	//
	// Returns:
	//   - bool: true if blending is enabled
	Blend() bool

	// CullMode retrieves the face culling mode.
	//
	// Returns:
	//   - CullMode: the cull mode
	CullMode() CullMode

	// Compose returns a new Material with override applied over this one: the override's program
	// replaces this program only if set, its inputs overlay these inputs, and its explicitly set
	// render states replace these. Neither material is modified.
	//
	// Parameters:
	//   - override: the material to apply, may be nil
	//
	// Returns:
	//   - Material: the composed material
	Compose(override Material) Material

	// Clone returns an independent copy of the material.
	//
	// Returns:
	//   - Material: the copy
	Clone() Material

	// PipelineKey identifies the GPU pipeline state this material needs: program and render states.
	// Inputs do not contribute.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string
}

var _ Material = &material{}

// NewMaterial creates a new Material. Depth test and depth write default to enabled,
// blending to disabled and culling to none.
//
// Parameters:
//   - name: the identifier for the material
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(name string, options ...MaterialBuilderOption) Material {
	m := &material{
		mu:         &sync.Mutex{},
		name:       name,
		inputs:     make(map[string]shader.Input),
		depthTest:  true,
		depthWrite: true,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Program() shader.Program {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.program
}

func (m *material) SetProgram(p shader.Program) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.program = p
}

func (m *material) Input(name string) (shader.Input, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.inputs[name]
	return in, ok
}

func (m *material) Inputs() map[string]shader.Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.inputs)
}

func (m *material) SetInput(name string, in shader.Input) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs[name] = in
}

func (m *material) DepthTest() bool {
	return m.depthTest
}

func (m *material) DepthWrite() bool {
	return m.depthWrite
}

func (m *material) Blend() bool {
	return m.blend
}

func (m *material) CullMode() CullMode {
	return m.cullMode
}

func (m *material) Compose(override Material) Material {
	out := m.Clone().(*material)
	if override == nil {
		return out
	}
	if p := override.Program(); p != nil {
		out.program = p
	}
	maps.Copy(out.inputs, override.Inputs())
	out.name = m.name + "+" + override.Name()

	o, ok := override.(*material)
	if !ok {
		return out
	}
	if o.set&setDepthTest != 0 {
		out.depthTest = o.depthTest
	}
	if o.set&setDepthWrite != 0 {
		out.depthWrite = o.depthWrite
	}
	if o.set&setBlend != 0 {
		out.blend = o.blend
	}
	if o.set&setCull != 0 {
		out.cullMode = o.cullMode
	}
	return out
}

func (m *material) Clone() Material {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &material{
		mu:         &sync.Mutex{},
		name:       m.name,
		program:    m.program,
		inputs:     maps.Clone(m.inputs),
		depthTest:  m.depthTest,
		depthWrite: m.depthWrite,
		blend:      m.blend,
		cullMode:   m.cullMode,
		set:        m.set,
	}
}

func (m *material) PipelineKey() string {
	name := "<none>"
	if p := m.Program(); p != nil {
		name = p.Name()
	}
	return fmt.Sprintf("%s|dt=%t|dw=%t|b=%t|c=%d", name, m.depthTest, m.depthWrite, m.blend, m.cullMode)
}

// String renders the material with its sorted input names for logs.
func (m *material) String() string {
	m.mu.Lock()
	names := make([]string, 0, len(m.inputs))
	for n := range m.inputs {
		names = append(names, n)
	}
	m.mu.Unlock()
	sort.Strings(names)
	return fmt.Sprintf("%s[%s]", m.PipelineKey(), strings.Join(names, ","))
}
