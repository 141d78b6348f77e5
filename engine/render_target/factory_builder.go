package render_target

import "github.com/Carmen-Shannon/oxy-deferred/engine/scene"

// FactoryBuilderOption is a functional option for configuring a Factory.
type FactoryBuilderOption func(*factory)

// WithSize sets the initial backing surface size, normally the host display size.
//
// Parameters:
//   - width, height: the size in texels
//
// Returns:
//   - FactoryBuilderOption: a function that sets the size
func WithSize(width, height int) FactoryBuilderOption {
	return func(f *factory) {
		f.width = width
		f.height = height
	}
}

// WithSceneRoot sets the node scene targets render. A fresh root named "render" is used otherwise.
//
// Parameters:
//   - root: the scene root
//
// Returns:
//   - FactoryBuilderOption: a function that sets the scene root
func WithSceneRoot(root scene.Node) FactoryBuilderOption {
	return func(f *factory) {
		f.sceneRoot = root
	}
}
