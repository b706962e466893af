package identity

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func copyFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestStoreSharesManager(t *testing.T) {
	path := copyFixture(t, "identity_full.json")
	store := NewStore()

	a, err := store.Manager(path)
	require.NoError(t, err)
	b, err := store.Manager(path)
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = store.Manager(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStoreSaveAll(t *testing.T) {
	path := copyFixture(t, "identity_only_fingerprint.json")
	store := NewStore()

	m, err := store.Manager(path)
	require.NoError(t, err)
	bb := m.GenerateBlackbox()

	require.NoError(t, store.SaveAll())

	saved, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Snapshot().InstallationID, saved.InstallationID)
	assert.True(t, bb.Fingerprint.Vector.Equal(saved.Fingerprint.Vector))
	assert.Equal(t, bb.Fingerprint.Creation, saved.Fingerprint.Creation)

	assert.NoError(t, store.Save(filepath.Join(t.TempDir(), "never-loaded.json")))
}

func TestStoreConcurrentSaves(t *testing.T) {
	path := copyFixture(t, "identity_full.json")
	store := NewStore()

	m, err := store.Manager(path)
	require.NoError(t, err)

	const workers, rounds = 16, 25
	errs := make(chan error, workers*rounds)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				m.GenerateBlackbox()
				errs <- store.Save(path)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	saved, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Snapshot().Fingerprint.Creation, saved.Fingerprint.Creation)

	leftovers, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSaveFailureLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	id, err := Load(copyFixture(t, "identity_full.json"))
	require.NoError(t, err)

	target := filepath.Join(dir, "taken")
	require.NoError(t, os.Mkdir(target, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), nil, 0o600))

	assert.Error(t, Save(target, id))

	leftovers, err := filepath.Glob(filepath.Join(dir, "taken.*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
