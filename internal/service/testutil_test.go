package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/enexview/internal/config"
	"github.com/xxxsen/enexview/internal/filestore"
	"github.com/xxxsen/enexview/internal/repo"
)

func newTestRepo(t *testing.T) *repo.ImportRepo {
	t.Helper()
	db, err := repo.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repo.ApplyMigrations(db))
	return repo.NewImportRepo(db)
}

func newTestStore(t *testing.T) (filestore.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": dir},
	})
	require.NoError(t, err)
	return store, dir
}
