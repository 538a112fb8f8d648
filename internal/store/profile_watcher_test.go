package store

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileWatcher_ReloadsOnChange(t *testing.T) {
	path := writeProfileFile(t, validProfileJSON)
	store := NewProfileStore(path, testLogger)
	require.NoError(t, store.Load())

	var reloads atomic.Int32
	watcher := NewProfileWatcher(path, store, 50*time.Millisecond, func(err error) {
		if err == nil {
			reloads.Add(1)
		}
	}, testLogger)
	require.NoError(t, watcher.Start())
	defer func() { _ = watcher.Stop() }()
	assert.True(t, watcher.IsRunning())
	assert.Error(t, watcher.Start())

	// Make sure the new modification time differs on coarse filesystems.
	time.Sleep(20 * time.Millisecond)
	updated := []byte(`{"personal":{"first_name":"Grace","last_name":"Hopper","email":"","phone":"","location":""},"links":{},"work_auth":{},"documents":{}}`)
	require.NoError(t, os.WriteFile(path, updated, 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	require.Eventually(t, func() bool {
		return store.Get().Personal.FirstName == "Grace"
	}, 3*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))
}

func TestProfileWatcher_StopIsIdempotent(t *testing.T) {
	path := writeProfileFile(t, validProfileJSON)
	watcher := NewProfileWatcher(path, NewProfileStore(path, testLogger), 0, nil, testLogger)
	require.NoError(t, watcher.Start())
	require.NoError(t, watcher.Stop())
	assert.False(t, watcher.IsRunning())
	assert.NoError(t, watcher.Stop())
}
