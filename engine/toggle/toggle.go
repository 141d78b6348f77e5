package toggle

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"go.uber.org/zap"
)

// ErrUnknownToggle is returned when a toggle name is not part of the set.
var ErrUnknownToggle = errors.New("unknown toggle")

// InputSuffix is appended to a toggle name to form the input pushed to passes.
const InputSuffix = "Enabled"

// Toggle names known to the default set.
const (
	SSAO                = "ssao"
	BlinnPhong          = "blinnPhong"
	Fresnel             = "fresnel"
	RimLight            = "rimLight"
	Refraction          = "refraction"
	Reflection          = "reflection"
	Fog                 = "fog"
	Outline             = "outline"
	CelShading          = "celShading"
	NormalMaps          = "normalMaps"
	Bloom               = "bloom"
	Sharpen             = "sharpen"
	DepthOfField        = "depthOfField"
	FilmGrain           = "filmGrain"
	FlowMaps            = "flowMaps"
	LookupTable         = "lookupTable"
	ChromaticAberration = "chromaticAberration"
	Painterly           = "painterly"
	MotionBlur          = "motionBlur"
	Posterize           = "posterize"
	Pixelize            = "pixelize"
)

// Defaults returns the initial value of every known toggle.
//
// Returns:
//   - map[string]bool: toggle name to enabled
func Defaults() map[string]bool {
	return map[string]bool{
		SSAO:                true,
		BlinnPhong:          true,
		Fresnel:             true,
		RimLight:            true,
		Refraction:          true,
		Reflection:          true,
		Fog:                 true,
		Outline:             true,
		CelShading:          true,
		NormalMaps:          true,
		Bloom:               true,
		Sharpen:             true,
		DepthOfField:        true,
		FilmGrain:           true,
		FlowMaps:            true,
		LookupTable:         true,
		ChromaticAberration: true,
		Painterly:           false,
		MotionBlur:          false,
		Posterize:           false,
		Pixelize:            false,
	}
}

// InputName returns the name of the input a toggle is pushed as.
func InputName(name string) string {
	return name + InputSuffix
}

// Value returns the input value of a toggle state, vec2(v, v).
func Value(enabled bool) shader.Input {
	return LevelValue(level(enabled))
}

// LevelValue returns the input value of a toggle level, vec2(v, v).
func LevelValue(v float32) shader.Input {
	return shader.Vec2(v, v)
}

// Threshold is the level above which a toggle reads as enabled, matching the shaders' test.
const Threshold = 0.5

func level(enabled bool) float32 {
	if enabled {
		return 1
	}
	return 0
}

// Receiver accepts toggle broadcasts. pipeline.Pass satisfies it.
type Receiver interface {
	Name() string
	SetInput(name string, value shader.Input)
	WatchedToggles() []string
}

// change is one queued write.
type change struct {
	name  string
	level float32
	flip  bool
}

// set is the implementation of the Set interface.
type set struct {
	mu *sync.Mutex

	values map[string]float32
	// restore is the last enabled level of each toggle, used when a flip turns it back on.
	restore map[string]float32
	pending []change
}

// Reader is the read-only view of a Set handed to passes and the profiler.
type Reader interface {
	// Enabled reports whether the committed level of a toggle is above Threshold.
	//
	// Parameters:
	//   - name: the toggle name
	//
	// Returns:
	//   - bool: the committed state
	//   - error: ErrUnknownToggle
	Enabled(name string) (bool, error)

	// Level returns the committed level of a toggle. Boolean toggles read 0 or 1.
	//
	// Parameters:
	//   - name: the toggle name
	//
	// Returns:
	//   - float32: the committed level
	//   - error: ErrUnknownToggle
	Level(name string) (float32, error)

	// Names returns the known toggle names, sorted.
	Names() []string

	// Snapshot returns a copy of every committed level.
	Snapshot() map[string]float32
}

// Set is the collection of named feature toggles. Each toggle is a boolean or float switch
// holding a level; booleans are the levels 0 and 1.
//
// Writes from controllers (keyboard, toggle file) are queued and become visible only when the frame
// driver calls Apply between frames. Passes never see a value change in the middle of a frame.
type Set interface {
	Reader

	// Set queues a new state for a toggle, level 1 or 0.
	//
	// Parameters:
	//   - name: the toggle name
	//   - enabled: the new state
	//
	// Returns:
	//   - error: ErrUnknownToggle
	Set(name string, enabled bool) error

	// SetLevel queues a new level for a toggle.
	//
	// Parameters:
	//   - name: the toggle name
	//   - v: the new level
	//
	// Returns:
	//   - error: ErrUnknownToggle
	SetLevel(name string, v float32) error

	// Toggle queues a flip of a toggle. An enabled toggle drops to 0; a disabled one returns to
	// its last enabled level, or 1. Flips compose with earlier queued writes.
	//
	// Parameters:
	//   - name: the toggle name
	//
	// Returns:
	//   - error: ErrUnknownToggle
	Toggle(name string) error

	// Load queues every level of a map. Unknown names are skipped and reported together.
	//
	// Parameters:
	//   - values: toggle name to level
	//
	// Returns:
	//   - error: joined ErrUnknownToggle errors, or nil
	Load(values map[string]float32) error

	// Pending returns how many writes are queued.
	Pending() int

	// Apply commits the queued writes in order.
	//
	// Returns:
	//   - []string: the names whose committed level changed, sorted
	Apply() []string

	// Broadcast pushes the committed level of every watched toggle to each receiver as
	// "<name>Enabled" = vec2(v, v).
	//
	// Parameters:
	//   - receivers: the passes to update
	Broadcast(receivers ...Receiver)
}

var _ Set = &set{}

// NewSet creates a Set holding the default toggles.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Set: the toggle set
func NewSet(options ...SetBuilderOption) Set {
	s := &set{
		mu:      &sync.Mutex{},
		values:  make(map[string]float32),
		restore: make(map[string]float32),
	}
	for name, on := range Defaults() {
		s.values[name] = level(on)
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *set) Enabled(name string) (bool, error) {
	v, err := s.Level(name)
	return v > Threshold, err
}

func (s *set) Level(name string) (float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownToggle, name)
	}
	return v, nil
}

func (s *set) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.values))
}

func (s *set) Snapshot() map[string]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.values)
}

func (s *set) Set(name string, enabled bool) error {
	return s.queue(change{name: name, level: level(enabled)})
}

func (s *set) SetLevel(name string, v float32) error {
	return s.queue(change{name: name, level: v})
}

func (s *set) Toggle(name string) error {
	return s.queue(change{name: name, flip: true})
}

func (s *set) Load(values map[string]float32) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if err := s.SetLevel(name, values[name]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *set) queue(c change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[c.name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToggle, c.name)
	}
	s.pending = append(s.pending, c)
	return nil
}

func (s *set) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *set) Apply() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}

	before := maps.Clone(s.values)
	for _, c := range s.pending {
		v := c.level
		if c.flip {
			v = s.flipped(c.name)
		}
		if cur := s.values[c.name]; cur > Threshold {
			s.restore[c.name] = cur
		}
		s.values[c.name] = v
	}
	s.pending = s.pending[:0]

	var changed []string
	for name, v := range s.values {
		if before[name] != v {
			changed = append(changed, name)
		}
	}
	slices.Sort(changed)
	for _, name := range changed {
		common.Logger().Info("toggle changed", zap.String("toggle", name), zap.Float32("level", s.values[name]))
	}
	return changed
}

// flipped is the level a flip moves a toggle to. Callers hold s.mu.
func (s *set) flipped(name string) float32 {
	if s.values[name] > Threshold {
		return 0
	}
	if v, ok := s.restore[name]; ok {
		return v
	}
	return 1
}

func (s *set) Broadcast(receivers ...Receiver) {
	values := s.Snapshot()
	for _, r := range receivers {
		for _, name := range r.WatchedToggles() {
			v, ok := values[name]
			if !ok {
				common.Logger().Warn("pass watches unknown toggle", zap.String("pass", r.Name()), zap.String("toggle", name))
				continue
			}
			r.SetInput(InputName(name), LevelValue(v))
		}
	}
}
