package shader

import (
	"sync"
)

// program is the implementation of the Program interface.
// It holds the pre-processed sources, their reflection and the backend artifacts.
type program struct {
	mu *sync.Mutex

	name           string
	vertexSource   string
	fragmentSource string
	reflection     Reflection
	kernel         Kernel
	handle         any
}

// Program is a compiled shader program: a vertex and a fragment stage with a reflected interface.
// Programs are immutable after compilation apart from the backend handle and may be shared
// by any number of passes and materials.
type Program interface {
	// Name retrieves the program's name, taken from its kernel annotation or fragment entry point.
	//
	// Returns:
	//   - string: the program name
	Name() string

	// VertexSource retrieves the pre-processed vertex stage WGSL.
	//
	// Returns:
	//   - string: the WGSL source
	VertexSource() string

	// FragmentSource retrieves the pre-processed fragment stage WGSL.
	//
	// Returns:
	//   - string: the WGSL source
	FragmentSource() string

	// Reflection retrieves the program's reflected interface.
	//
	// Returns:
	//   - Reflection: entry points, bindings, uniform layout and vertex layout
	Reflection() Reflection

	// Kernel retrieves the CPU fragment kernel bound by the software compiler.
	//
	// Returns:
	//   - Kernel: the kernel, or nil for GPU programs
	Kernel() Kernel

	// Handle returns the backend-specific artifact attached to this program (for example GPU shader modules).
	//
	// Returns:
	//   - any: the handle, or nil
	Handle() any

	// SetHandle attaches a backend-specific artifact to this program.
	//
	// Parameters:
	//   - h: the handle
	SetHandle(h any)
}

var _ Program = &program{}

// NewProgram creates a Program from pre-processed sources and their reflection.
// Compilers call this after validation; it performs no checks of its own.
//
// Parameters:
//   - vertexSource: the pre-processed vertex WGSL
//   - fragmentSource: the pre-processed fragment WGSL
//   - reflection: the reflected interface of both stages
//   - options: functional options
//
// Returns:
//   - Program: the new program
func NewProgram(vertexSource, fragmentSource string, reflection Reflection, options ...ProgramBuilderOption) Program {
	p := &program{
		mu:             &sync.Mutex{},
		vertexSource:   vertexSource,
		fragmentSource: fragmentSource,
		reflection:     reflection,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.name == "" {
		p.name = reflection.Kernel
	}
	if p.name == "" {
		p.name = reflection.FragmentEntry
	}
	return p
}

func (p *program) Name() string {
	return p.name
}

func (p *program) VertexSource() string {
	return p.vertexSource
}

func (p *program) FragmentSource() string {
	return p.fragmentSource
}

func (p *program) Reflection() Reflection {
	return p.reflection
}

func (p *program) Kernel() Kernel {
	return p.kernel
}

func (p *program) Handle() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}

func (p *program) SetHandle(h any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handle = h
}
