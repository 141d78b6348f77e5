package config

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/loader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
)

// AssembleOption is a functional option for Assemble.
type AssembleOption func(*assembler)

// WithLoader sets the loader used for texture inputs.
// Default: a loader with default options.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - AssembleOption: a function that applies the loader option
func WithLoader(l loader.Loader) AssembleOption {
	return func(a *assembler) {
		a.loader = l
	}
}

// WithSeed sets the seed of generated inputs such as the SSAO sample kernel.
// Default: 1.
//
// Parameters:
//   - seed: the seed
//
// Returns:
//   - AssembleOption: a function that applies the seed option
func WithSeed(seed uint64) AssembleOption {
	return func(a *assembler) {
		a.seed = seed
	}
}

// WithToggleSet broadcasts every toggle of s to the assembled passes.
//
// Parameters:
//   - s: the toggle set
//
// Returns:
//   - AssembleOption: a function that applies the toggle set option
func WithToggleSet(s toggle.Set) AssembleOption {
	return func(a *assembler) {
		a.toggles = s
	}
}
