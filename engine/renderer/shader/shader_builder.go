package shader

// ProgramBuilderOption is a functional option applied to a program during construction via NewProgram.
type ProgramBuilderOption func(*program)

// WithName overrides the program name derived from its sources.
//
// Parameters:
//   - name: the program name
//
// Returns:
//   - ProgramBuilderOption: a function that applies the name option to a program
func WithName(name string) ProgramBuilderOption {
	return func(p *program) {
		p.name = name
	}
}

// WithKernel binds the CPU fragment kernel evaluated by the software backend.
//
// Parameters:
//   - k: the kernel
//
// Returns:
//   - ProgramBuilderOption: a function that applies the kernel option to a program
func WithKernel(k Kernel) ProgramBuilderOption {
	return func(p *program) {
		p.kernel = k
	}
}
