package toggle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePass struct {
	name    string
	toggles []string
	inputs  map[string]shader.Input
}

func (p *fakePass) Name() string                             { return p.name }
func (p *fakePass) SetInput(name string, value shader.Input) { p.inputs[name] = value }
func (p *fakePass) WatchedToggles() []string                 { return p.toggles }

func TestDefaults(t *testing.T) {
	s := NewSet()
	on, err := s.Enabled(SSAO)
	require.NoError(t, err)
	assert.True(t, on)
	on, err = s.Enabled(MotionBlur)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Len(t, s.Names(), 21)

	_, err = s.Enabled("lensFlare")
	assert.ErrorIs(t, err, ErrUnknownToggle)
}

func TestWritesAreQueuedUntilApply(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Set(Fog, false))
	require.NoError(t, s.Toggle(Pixelize))
	assert.Equal(t, 2, s.Pending())

	on, _ := s.Enabled(Fog)
	assert.True(t, on)

	changed := s.Apply()
	assert.Equal(t, []string{Fog, Pixelize}, changed)
	assert.Equal(t, 0, s.Pending())

	on, _ = s.Enabled(Fog)
	assert.False(t, on)
	on, _ = s.Enabled(Pixelize)
	assert.True(t, on)

	assert.Nil(t, s.Apply())
}

func TestTogglesComposeInOrder(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Toggle(Bloom))
	require.NoError(t, s.Toggle(Bloom))
	assert.Empty(t, s.Apply())

	require.NoError(t, s.Set(Bloom, false))
	require.NoError(t, s.Toggle(Bloom))
	require.NoError(t, s.Toggle(Bloom))
	assert.Equal(t, []string{Bloom}, s.Apply())
}

func TestUnknownToggleIsRejected(t *testing.T) {
	s := NewSet()
	assert.ErrorIs(t, s.Set("lensFlare", true), ErrUnknownToggle)
	assert.ErrorIs(t, s.Toggle("lensFlare"), ErrUnknownToggle)
	assert.Equal(t, 0, s.Pending())

	err := s.Load(map[string]float32{"lensFlare": 1, Fog: 0})
	assert.ErrorIs(t, err, ErrUnknownToggle)
	assert.Equal(t, []string{Fog}, s.Apply())
}

func TestBroadcastPushesWatchedToggles(t *testing.T) {
	s := NewSet(WithValues(map[string]bool{MotionBlur: true}))
	base := &fakePass{name: "base", toggles: []string{BlinnPhong, "lensFlare"}, inputs: map[string]shader.Input{}}
	blur := &fakePass{name: "motionBlur", toggles: []string{MotionBlur}, inputs: map[string]shader.Input{}}

	s.Broadcast(base, blur)
	assert.True(t, base.inputs["blinnPhongEnabled"].Equal(shader.Vec2(1, 1)))
	assert.NotContains(t, base.inputs, "lensFlareEnabled")
	assert.True(t, blur.inputs["motionBlurEnabled"].Equal(shader.Vec2(1, 1)))

	require.NoError(t, s.Set(BlinnPhong, false))
	s.Broadcast(base)
	assert.True(t, base.inputs["blinnPhongEnabled"].Equal(shader.Vec2(1, 1)), "queued write is not visible before Apply")

	s.Apply()
	s.Broadcast(base)
	assert.True(t, base.inputs["blinnPhongEnabled"].Equal(shader.Vec2(0, 0)))
}

func TestFloatLevels(t *testing.T) {
	s := NewSet(WithLevels(map[string]float32{"grainAmount": 0.25}))
	v, err := s.Level("grainAmount")
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), v)
	on, _ := s.Enabled("grainAmount")
	assert.False(t, on, "levels at or below the threshold read as disabled")

	require.NoError(t, s.SetLevel(FilmGrain, 0.75))
	assert.Equal(t, []string{FilmGrain}, s.Apply())
	v, _ = s.Level(FilmGrain)
	assert.Equal(t, float32(0.75), v)
	on, _ = s.Enabled(FilmGrain)
	assert.True(t, on)

	grain := &fakePass{name: "filmGrain", toggles: []string{FilmGrain}, inputs: map[string]shader.Input{}}
	s.Broadcast(grain)
	assert.True(t, grain.inputs["filmGrainEnabled"].Equal(shader.Vec2(0.75, 0.75)))

	// a flip turns the switch off and the next flip restores its level
	require.NoError(t, s.Toggle(FilmGrain))
	s.Apply()
	v, _ = s.Level(FilmGrain)
	assert.Zero(t, v)
	require.NoError(t, s.Toggle(FilmGrain))
	s.Apply()
	v, _ = s.Level(FilmGrain)
	assert.Equal(t, float32(0.75), v)

	// boolean switches flip between 0 and 1
	require.NoError(t, s.Toggle(Pixelize))
	s.Apply()
	v, _ = s.Level(Pixelize)
	assert.Equal(t, float32(1), v)

	path := filepath.Join(t.TempDir(), "levels.toml")
	require.NoError(t, os.WriteFile(path, []byte("filmGrain = 0.6\n"), 0o644))
	require.NoError(t, LoadFile(s, path))
	s.Apply()
	v, _ = s.Level(FilmGrain)
	assert.Equal(t, float32(0.6), v)
}

func TestWithOnly(t *testing.T) {
	s := NewSet(WithOnly(Fog, "custom"))
	assert.Equal(t, []string{"custom", Fog}, s.Names())
	on, _ := s.Enabled(Fog)
	assert.True(t, on)
}

func TestDecodeFormats(t *testing.T) {
	values, err := Decode(".toml", []byte("fog = false\nbloom = true\nfilmGrain = 0.75\nsharpen = 2\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]float32{Fog: 0, Bloom: 1, FilmGrain: 0.75, Sharpen: 2}, values)

	values, err = Decode(".yml", []byte("fog: false\npixelize: true\nfilmGrain: 0.25\nsharpen: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]float32{Fog: 0, Pixelize: 1, FilmGrain: 0.25, Sharpen: 3}, values)

	_, err = Decode(".json", []byte("{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Decode(".toml", []byte(`fog = "on"`))
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = Decode(".toml", []byte("fog = "))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toggles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ssao: false\n"), 0o644))

	s := NewSet()
	require.NoError(t, LoadFile(s, path))
	s.Apply()
	on, _ := s.Enabled(SSAO)
	assert.False(t, on)

	assert.Error(t, LoadFile(s, filepath.Join(t.TempDir(), "missing.toml")))
}

func TestKeyMap(t *testing.T) {
	s := NewSet()
	keys := DefaultKeyMap()

	name, err := keys.Handle(s, common.KeyY)
	require.NoError(t, err)
	assert.Equal(t, SSAO, name)

	name, err = keys.Handle(s, common.KeyComma)
	require.NoError(t, err)
	assert.Equal(t, Refraction, name)

	name, err = keys.Handle(s, common.KeyC)
	require.NoError(t, err)
	assert.Equal(t, ChromaticAberration, name)

	name, err = keys.Handle(s, common.KeyTab)
	require.NoError(t, err)
	assert.Empty(t, name)

	assert.Equal(t, []string{ChromaticAberration, Refraction, SSAO}, s.Apply())
}
