package shader

import (
	"errors"
	"fmt"
)

// ErrUnknownKernel is wrapped by a CompileError when a program names a kernel that is not registered.
var ErrUnknownKernel = errors.New("unknown kernel")

// ErrMissingKernel is wrapped by a CompileError when the software compiler receives a program without a kernel annotation.
var ErrMissingKernel = errors.New("missing @oxy:kernel annotation")

// CompileError reports a shader program that could not be compiled. It is fatal to pipeline construction.
type CompileError struct {
	// Program names the failing program: its kernel annotation, entry point, or "<unknown>".
	Program string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %v", e.Program, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Compiler turns a pair of WGSL sources into an executable Program.
type Compiler interface {
	// Compile pre-processes, reflects and compiles a vertex and fragment stage.
	//
	// Parameters:
	//   - vertexSource: the vertex stage WGSL, may contain @oxy: annotations
	//   - fragmentSource: the fragment stage WGSL, may contain @oxy: annotations
	//
	// Returns:
	//   - Program: the compiled program
	//   - error: a *CompileError on failure
	Compile(vertexSource, fragmentSource string) (Program, error)
}

// Prepare runs the pre-processor over both stages and reflects the result. Backends use it as the
// first step of Compile; failures are returned as *CompileError.
//
// Parameters:
//   - vertexSource: the raw vertex stage WGSL
//   - fragmentSource: the raw fragment stage WGSL
//
// Returns:
//   - string: the processed vertex source
//   - string: the processed fragment source
//   - Reflection: the reflected interface
//   - error: a *CompileError on failure
func Prepare(vertexSource, fragmentSource string) (string, string, Reflection, error) {
	name := programName(vertexSource, fragmentSource)
	pp := NewPreProcessor()

	vs, err := pp.Process(vertexSource)
	if err != nil {
		return "", "", Reflection{}, &CompileError{Program: name, Err: fmt.Errorf("vertex stage: %w", err)}
	}
	fs, err := pp.Process(fragmentSource)
	if err != nil {
		return "", "", Reflection{}, &CompileError{Program: name, Err: fmt.Errorf("fragment stage: %w", err)}
	}
	refl, err := Reflect(vs, fs)
	if err != nil {
		return "", "", Reflection{}, &CompileError{Program: name, Err: err}
	}
	return vs, fs, refl, nil
}

// programName guesses a readable name for error reports before reflection succeeds.
func programName(vertexSource, fragmentSource string) string {
	if k := parseKernelAnnotation(fragmentSource); k != "" {
		return k
	}
	if m := fragmentEntryRegex.FindStringSubmatch(stripComments(fragmentSource)); m != nil {
		return m[1]
	}
	return "<unknown>"
}

// softwareCompiler is the Compiler used by the software backend.
type softwareCompiler struct {
	kernels KernelRegistry
}

var _ Compiler = &softwareCompiler{}

// NewSoftwareCompiler creates a Compiler that binds each program's "@oxy:kernel" annotation to a Go kernel.
// The WGSL is still pre-processed and reflected so that a program accepted here is also structurally
// valid for the GPU backend.
//
// Parameters:
//   - kernels: the registry kernels are resolved from
//
// Returns:
//   - Compiler: the software compiler
func NewSoftwareCompiler(kernels KernelRegistry) Compiler {
	return &softwareCompiler{kernels: kernels}
}

func (c *softwareCompiler) Compile(vertexSource, fragmentSource string) (Program, error) {
	vs, fs, refl, err := Prepare(vertexSource, fragmentSource)
	if err != nil {
		return nil, err
	}
	if refl.Kernel == "" {
		return nil, &CompileError{Program: programName(vertexSource, fragmentSource), Err: ErrMissingKernel}
	}
	k, ok := c.kernels.Kernel(refl.Kernel)
	if !ok {
		return nil, &CompileError{Program: refl.Kernel, Err: fmt.Errorf("%w %q", ErrUnknownKernel, refl.Kernel)}
	}
	return NewProgram(vs, fs, refl, WithKernel(k)), nil
}
