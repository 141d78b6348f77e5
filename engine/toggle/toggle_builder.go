package toggle

// SetBuilderOption is a functional option applied to a Set during construction via NewSet.
type SetBuilderOption func(*set)

// WithValues overrides initial values. Names not in the default set are added as new toggles.
//
// Parameters:
//   - values: toggle name to enabled
//
// Returns:
//   - SetBuilderOption: a function that applies the values
func WithValues(values map[string]bool) SetBuilderOption {
	return func(s *set) {
		for name, v := range values {
			s.values[name] = level(v)
		}
	}
}

// WithLevels overrides initial levels of float switches. Names not in the default set are added.
//
// Parameters:
//   - levels: toggle name to level
//
// Returns:
//   - SetBuilderOption: a function that applies the levels
func WithLevels(levels map[string]float32) SetBuilderOption {
	return func(s *set) {
		for name, v := range levels {
			s.values[name] = v
		}
	}
}

// WithOnly restricts the set to the given names, keeping their default values. Names without a
// default start disabled.
//
// Parameters:
//   - names: the toggle names
//
// Returns:
//   - SetBuilderOption: a function that restricts the set
func WithOnly(names ...string) SetBuilderOption {
	return func(s *set) {
		values := make(map[string]float32, len(names))
		for _, name := range names {
			values[name] = s.values[name]
		}
		s.values = values
	}
}
