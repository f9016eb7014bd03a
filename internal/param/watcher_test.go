package param_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/internal/param"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"publish_rate_hz": 1}`), 0644))

	fs := afero.NewOsFs()
	store := param.NewStore("global")
	require.NoError(t, store.LoadFile(fs, path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := param.NewWatcher(store, fs, path)
	require.NoError(t, watcher.Start(ctx))

	// Give the watcher time to initialize before touching the file.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(`{"publish_rate_hz": 5}`), 0644))

	assert.Eventually(t, func() bool {
		v, err := store.Get("publish_rate_hz")
		if err != nil {
			return false
		}
		hz, ok := v.AsFloat()
		return ok && hz == 5
	}, 2*time.Second, 20*time.Millisecond, "watcher should reload the changed file")
}

func TestWatcherReloadsOnRecreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"greeting": "hello"}`), 0644))

	fs := afero.NewOsFs()
	store := param.NewStore("global")
	require.NoError(t, store.LoadFile(fs, path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := param.NewWatcher(store, fs, path)
	require.NoError(t, watcher.Start(ctx))

	time.Sleep(100 * time.Millisecond)

	// Simulate a config tool replacing the file.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.WriteFile(path, []byte(`{"greeting": "ahoy"}`), 0644))

	assert.Eventually(t, func() bool {
		v, err := store.Get("greeting")
		if err != nil {
			return false
		}
		s, ok := v.AsString()
		return ok && s == "ahoy"
	}, 2*time.Second, 20*time.Millisecond, "watcher should reload a recreated file")
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"n": 1}`), 0644))

	fs := afero.NewOsFs()
	store := param.NewStore("global")
	require.NoError(t, store.LoadFile(fs, path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := param.NewWatcher(store, fs, path)
	require.NoError(t, watcher.Start(ctx))

	time.Sleep(100 * time.Millisecond)

	// A different file in the same directory must not trigger a reload.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{"n": 99}`), 0644))
	time.Sleep(200 * time.Millisecond)

	v, err := store.Get("n")
	require.NoError(t, err)
	n, _ := v.AsInt()
	assert.Equal(t, int64(1), n)
}

func TestWatcherStartIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := param.NewWatcher(param.NewStore("global"), afero.NewOsFs(), path)
	require.NoError(t, watcher.Start(ctx))
	assert.NoError(t, watcher.Start(ctx), "second Start should be a no-op")
}
