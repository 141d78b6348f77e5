package temporal

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"go.uber.org/zap"
)

// Input names pushed to receivers by AdvanceFrame.
const (
	// InputViewWorld is the current camera-to-world transform.
	InputViewWorld = "viewWorldMat"
	// InputPreviousViewWorld is the camera-to-world transform of the previous frame.
	InputPreviousViewWorld = "previousViewWorldMat"
	// InputWorldView is the current world-to-camera transform.
	InputWorldView = "worldViewMat"
	// InputPreviousWorldView is the world-to-camera transform of the previous frame.
	InputPreviousWorldView = "previousWorldViewMat"
)

// Receiver accepts pushed inputs. pipeline.Pass satisfies it.
type Receiver interface {
	Name() string
	SetInput(name string, value shader.Input)
}

// state is the implementation of the State interface.
type state struct {
	mu *sync.Mutex

	current  [16]float32
	previous [16]float32
	started  bool
	frame    uint64

	receivers []Receiver
}

// State holds the camera transform of the current and the previous frame.
//
// The frame driver is the only writer: it calls AdvanceFrame once per frame before the pipeline runs.
// Passes read the transforms through the inputs pushed to them, so a pass rendering frame N sees the
// transform of frame N-1 as its previous transform.
type State interface {
	// AdvanceFrame shifts the current transform into previous, stores the new transform as current
	// and pushes both, with their inverses, to every receiver. On the first call previous is set to
	// the new transform as well.
	//
	// Parameters:
	//   - transform: the camera-to-world transform of the frame about to render
	AdvanceFrame(transform [16]float32)

	// Current returns the camera-to-world transform of the current frame.
	Current() [16]float32

	// Previous returns the camera-to-world transform of the previous frame.
	Previous() [16]float32

	// Frame returns how many times AdvanceFrame was called.
	Frame() uint64

	// Subscribe adds a receiver. It gets the current transforms on the next AdvanceFrame.
	//
	// Parameters:
	//   - r: the receiver
	Subscribe(r Receiver)

	// Receivers returns the names of the subscribed receivers.
	Receivers() []string
}

var _ State = &state{}

// NewState creates an empty State.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - State: the state
func NewState(options ...StateBuilderOption) State {
	s := &state{
		mu:       &sync.Mutex{},
		current:  common.IdentityMatrix(),
		previous: common.IdentityMatrix(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *state) AdvanceFrame(transform [16]float32) {
	s.mu.Lock()
	if s.started {
		s.previous = s.current
	} else {
		s.previous = transform
		s.started = true
	}
	s.current = transform
	s.frame++
	current, previous := s.current, s.previous
	receivers := append([]Receiver(nil), s.receivers...)
	s.mu.Unlock()

	var currentInv, previousInv [16]float32
	if !common.Invert4(currentInv[:], current[:]) {
		common.Logger().Warn("camera transform is not invertible", zap.Uint64("frame", s.Frame()))
		currentInv = common.IdentityMatrix()
	}
	if !common.Invert4(previousInv[:], previous[:]) {
		previousInv = common.IdentityMatrix()
	}

	for _, r := range receivers {
		r.SetInput(InputViewWorld, shader.Mat4(current))
		r.SetInput(InputPreviousViewWorld, shader.Mat4(previous))
		r.SetInput(InputWorldView, shader.Mat4(currentInv))
		r.SetInput(InputPreviousWorldView, shader.Mat4(previousInv))
	}
}

func (s *state) Current() [16]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *state) Previous() [16]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previous
}

func (s *state) Frame() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *state) Subscribe(r Receiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receivers = append(s.receivers, r)
}

func (s *state) Receivers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.receivers))
	for i, r := range s.receivers {
		names[i] = r.Name()
	}
	return names
}
