package toggle

import "github.com/Carmen-Shannon/oxy-deferred/common"

// KeyMap maps key codes (common.Key*) to the toggle each key flips.
type KeyMap map[int]string

// DefaultKeyMap returns the demo's toggle key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		common.Key3:      Fresnel,
		common.Key4:      RimLight,
		common.Key6:      MotionBlur,
		common.Key7:      Painterly,
		common.Key8:      CelShading,
		common.Key9:      LookupTable,
		common.Key0:      BlinnPhong,
		common.KeyY:      SSAO,
		common.KeyU:      Outline,
		common.KeyI:      Bloom,
		common.KeyO:      NormalMaps,
		common.KeyP:      Fog,
		common.KeyH:      DepthOfField,
		common.KeyJ:      Posterize,
		common.KeyK:      Pixelize,
		common.KeyL:      Sharpen,
		common.KeyN:      FilmGrain,
		common.KeyM:      Reflection,
		common.KeyComma:  Refraction,
		common.KeyPeriod: FlowMaps,
		common.KeyC:      ChromaticAberration,
	}
}

// Handle queues a flip of the toggle bound to a key.
//
// Parameters:
//   - s: the toggle set
//   - key: the pressed key code
//
// Returns:
//   - string: the toggle name, or "" when the key is unbound
//   - error: ErrUnknownToggle when the key is bound to a name the set does not hold
func (k KeyMap) Handle(s Set, key int) (string, error) {
	name, ok := k[key]
	if !ok {
		return "", nil
	}
	return name, s.Toggle(name)
}
