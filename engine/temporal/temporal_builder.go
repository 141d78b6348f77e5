package temporal

// StateBuilderOption is a functional option applied to a State during construction via NewState.
type StateBuilderOption func(*state)

// WithReceivers subscribes receivers at construction.
//
// Parameters:
//   - receivers: the receivers to push transforms to
//
// Returns:
//   - StateBuilderOption: a function that subscribes the receivers
func WithReceivers(receivers ...Receiver) StateBuilderOption {
	return func(s *state) {
		s.receivers = append(s.receivers, receivers...)
	}
}
