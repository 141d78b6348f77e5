package toggle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toggles.toml")
	require.NoError(t, os.WriteFile(path, []byte("fog = false\n"), 0o644))

	s := NewSet()
	loaded := make(chan error, 16)
	w, err := NewWatcher(s, path, WithOnLoad(func(err error) {
		select {
		case loaded <- err:
		default:
		}
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	require.NoError(t, <-loaded)
	assert.Equal(t, []string{Fog}, s.Apply())

	require.NoError(t, os.WriteFile(path, []byte("fog = true\nbloom = false\n"), 0o644))
	select {
	case err := <-loaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("toggle file was not reloaded")
	}

	assert.Eventually(t, func() bool {
		s.Apply()
		fog, _ := s.Enabled(Fog)
		bloom, _ := s.Enabled(Bloom)
		return fog && !bloom
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Close())
	assert.GreaterOrEqual(t, w.Reloads(), 2)
}

func TestWatcherCloseWithoutStart(t *testing.T) {
	w, err := NewWatcher(NewSet(), filepath.Join(t.TempDir(), "toggles.toml"))
	require.NoError(t, err)
	assert.NoError(t, w.Close())
}
