package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/enexview/internal/model"
	apperr "github.com/xxxsen/enexview/internal/pkg/errors"
)

func newTestRepo(t *testing.T) *ImportRepo {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, ApplyMigrations(db))
	return NewImportRepo(db)
}

func sampleSession(id, hash string) *model.ImportSession {
	size := int64(5)
	return &model.ImportSession{
		ID:        id,
		Hash:      hash,
		CreatedAt: "2024-06-01T10:00:00Z",
		NoteCount: 2,
		Warnings:  []string{"Broken: Skipped note due to missing title or content."},
		Notes: []model.Note{
			{
				ID:          "note-1",
				Title:       "Older",
				CreatedAt:   "20240101T000000Z",
				Tags:        []string{"a"},
				ContentHTML: "<en-note><p>older body</p></en-note>",
				Excerpt:     "older body",
				SearchText:  "older <en-note><p>older body</p></en-note> a",
				SortKey:     100,
				Resources: []model.Resource{
					{
						ID:         "resource-1-1",
						FileName:   "hello.txt",
						Mime:       "text/plain",
						Size:       &size,
						Hash:       "deadbeef",
						StorageKey: "deadbeef",
					},
					{ID: "resource-1-2"},
				},
			},
			{
				ID:          "note-2",
				Title:       "Newer",
				UpdatedAt:   "20240501T000000Z",
				Tags:        []string{},
				ContentHTML: "<en-note><p>newer body</p></en-note>",
				Excerpt:     "newer body",
				SearchText:  "newer <en-note><p>newer body</p></en-note>",
				SortKey:     200,
			},
		},
	}
}

func TestSaveAndGetImportSession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.SaveImportSession(ctx, sampleSession("imp-1", "hash-1"))
	require.NoError(t, err)
	require.Equal(t, "imp-1", saved)

	session, err := repo.GetImportSession(ctx, "imp-1")
	require.NoError(t, err)
	require.Equal(t, "imp-1", session.ID)
	require.Equal(t, "hash-1", session.Hash)
	require.Equal(t, 2, session.NoteCount)
	require.Equal(t, []string{"Broken: Skipped note due to missing title or content."}, session.Warnings)

	require.Len(t, session.Notes, 2)
	// Higher sort key first.
	require.Equal(t, "note-2", session.Notes[0].ID)
	require.Equal(t, "note-1", session.Notes[1].ID)
	require.Equal(t, []string{}, session.Notes[0].Tags)
	require.Equal(t, []string{"a"}, session.Notes[1].Tags)
	require.Equal(t, "older <en-note><p>older body</p></en-note> a", session.Notes[1].SearchText)
	require.Equal(t, int64(200), session.Notes[0].SortKey)

	older := session.Notes[1]
	require.Len(t, older.Resources, 2)
	require.Equal(t, "resource-1-1", older.Resources[0].ID)
	require.Equal(t, "hello.txt", older.Resources[0].FileName)
	require.NotNil(t, older.Resources[0].Size)
	require.Equal(t, int64(5), *older.Resources[0].Size)
	require.Equal(t, "deadbeef", older.Resources[0].StorageKey)
	require.Nil(t, older.Resources[1].Size)
	require.Empty(t, older.Resources[1].StorageKey)
}

func TestSaveImportSessionDuplicateHash(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.SaveImportSession(ctx, sampleSession("imp-1", "same-hash"))
	require.NoError(t, err)
	require.Equal(t, "imp-1", first)

	second, err := repo.SaveImportSession(ctx, sampleSession("imp-2", "same-hash"))
	require.NoError(t, err)
	require.Equal(t, "imp-1", second)

	_, err = repo.GetImportSession(ctx, "imp-2")
	require.ErrorIs(t, err, apperr.ErrImportNotFound)
}

func TestFindImportIDByHash(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SaveImportSession(ctx, sampleSession("imp-1", "hash-1"))
	require.NoError(t, err)

	id, err := repo.FindImportIDByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, "imp-1", id)

	_, err = repo.FindImportIDByHash(ctx, "missing")
	require.ErrorIs(t, err, apperr.ErrImportNotFound)
}

func TestGetStoredResource(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SaveImportSession(ctx, sampleSession("imp-1", "hash-1"))
	require.NoError(t, err)

	resource, err := repo.GetStoredResource(ctx, "imp-1", "note-1", "resource-1-1")
	require.NoError(t, err)
	require.Equal(t, "note-1", resource.NoteID)
	require.Equal(t, "imp-1", resource.ImportID)
	require.Equal(t, "hello.txt", resource.FileName)
	require.Equal(t, "deadbeef", resource.StorageKey)

	_, err = repo.GetStoredResource(ctx, "imp-1", "note-1", "nope")
	require.ErrorIs(t, err, apperr.ErrResourceNotFound)
	_, err = repo.GetStoredResource(ctx, "other", "note-1", "resource-1-1")
	require.ErrorIs(t, err, apperr.ErrResourceNotFound)
}

func TestListStoredResourcesByIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SaveImportSession(ctx, sampleSession("imp-1", "hash-1"))
	require.NoError(t, err)

	refs := []model.ResourceRef{
		{NoteID: "note-1", ResourceID: "resource-1-1"},
		{NoteID: "note-1", ResourceID: "bogus"},
	}
	resources, err := repo.ListStoredResourcesByIDs(ctx, "imp-1", refs)
	require.NoError(t, err)
	require.Len(t, resources, 1)
	require.Equal(t, "resource-1-1", resources[0].ID)
}

func TestClearAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SaveImportSession(ctx, sampleSession("imp-1", "hash-1"))
	require.NoError(t, err)
	require.NoError(t, repo.ClearAll(ctx))

	_, err = repo.GetImportSession(ctx, "imp-1")
	require.ErrorIs(t, err, apperr.ErrImportNotFound)
	_, err = repo.GetStoredResource(ctx, "imp-1", "note-1", "resource-1-1")
	require.ErrorIs(t, err, apperr.ErrResourceNotFound)
}
