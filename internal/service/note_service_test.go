package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/enexview/internal/model"
	apperr "github.com/xxxsen/enexview/internal/pkg/errors"
	"github.com/xxxsen/enexview/internal/repo"
)

func seedNotes(t *testing.T, r *repo.ImportRepo, count int) {
	t.Helper()
	notes := make([]model.Note, 0, count)
	for i := 1; i <= count; i++ {
		title := fmt.Sprintf("Note %02d", i)
		tags := []string{}
		if i == 1 {
			tags = []string{"special"}
		}
		notes = append(notes, model.Note{
			ID:          fmt.Sprintf("note-%d", i),
			Title:       title,
			Tags:        tags,
			ContentHTML: fmt.Sprintf("<en-note><p>body %02d</p></en-note>", i),
			Excerpt:     fmt.Sprintf("body %02d", i),
			SearchText:  fmt.Sprintf("note %02d body %02d %s", i, i, joinTags(tags)),
			SortKey:     int64(i * 1000),
		})
	}
	_, err := r.SaveImportSession(context.Background(), &model.ImportSession{
		ID:        "imp-1",
		Hash:      "hash-1",
		CreatedAt: "2024-06-01T10:00:00Z",
		NoteCount: count,
		Warnings:  []string{},
		Notes:     notes,
	})
	require.NoError(t, err)
}

func joinTags(tags []string) string {
	out := ""
	for _, tag := range tags {
		out += tag + " "
	}
	return out
}

func newNoteService(t *testing.T, count int) *NoteService {
	t.Helper()
	r := newTestRepo(t)
	seedNotes(t, r, count)
	return NewNoteService(r, NewSessionCache(8, time.Minute))
}

func TestListNotesDefaults(t *testing.T) {
	svc := newNoteService(t, 3)

	result, err := svc.ListNotes(context.Background(), "imp-1", ListNotesInput{})
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Len(t, result.Notes, 3)
	// Most recent sort key first.
	require.Equal(t, "note-3", result.Notes[0].ID)
	require.Equal(t, "note-1", result.Notes[2].ID)
	require.Equal(t, "body 03", result.Notes[0].Excerpt)
}

func TestListNotesPagination(t *testing.T) {
	svc := newNoteService(t, 5)
	ctx := context.Background()

	result, err := svc.ListNotes(ctx, "imp-1", ListNotesInput{Limit: "2", Offset: "1"})
	require.NoError(t, err)
	require.Equal(t, 5, result.Total)
	require.Len(t, result.Notes, 2)
	require.Equal(t, "note-4", result.Notes[0].ID)
	require.Equal(t, "note-3", result.Notes[1].ID)

	// Offset beyond the end returns an empty page, total untouched.
	result, err = svc.ListNotes(ctx, "imp-1", ListNotesInput{Offset: "50"})
	require.NoError(t, err)
	require.Equal(t, 5, result.Total)
	require.Empty(t, result.Notes)
}

func TestListNotesSearch(t *testing.T) {
	svc := newNoteService(t, 5)
	ctx := context.Background()

	result, err := svc.ListNotes(ctx, "imp-1", ListNotesInput{Query: "SPECIAL"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	require.Equal(t, "note-1", result.Notes[0].ID)

	result, err = svc.ListNotes(ctx, "imp-1", ListNotesInput{Query: "no such phrase"})
	require.NoError(t, err)
	require.Equal(t, 0, result.Total)
	require.Empty(t, result.Notes)
}

func TestListNotesRejectsBadParams(t *testing.T) {
	svc := newNoteService(t, 1)
	ctx := context.Background()

	tests := []ListNotesInput{
		{Limit: "0"},
		{Limit: "101"},
		{Limit: "abc"},
		{Limit: "1.5"},
		{Offset: "-1"},
		{Offset: "x"},
	}
	for _, input := range tests {
		_, err := svc.ListNotes(ctx, "imp-1", input)
		require.ErrorIs(t, err, apperr.ErrInvalid, "input: %+v", input)
	}
}

func TestListNotesUnknownImport(t *testing.T) {
	svc := newNoteService(t, 1)
	_, err := svc.ListNotes(context.Background(), "missing", ListNotesInput{})
	require.ErrorIs(t, err, apperr.ErrImportNotFound)
}

func TestFetchNoteDetail(t *testing.T) {
	svc := newNoteService(t, 2)
	ctx := context.Background()

	note, err := svc.FetchNoteDetail(ctx, "imp-1", "note-2")
	require.NoError(t, err)
	require.Equal(t, "Note 02", note.Title)
	require.Equal(t, "<en-note><p>body 02</p></en-note>", note.ContentHTML)

	_, err = svc.FetchNoteDetail(ctx, "imp-1", "missing")
	require.ErrorIs(t, err, apperr.ErrNoteNotFound)
	_, err = svc.FetchNoteDetail(ctx, "missing", "note-1")
	require.ErrorIs(t, err, apperr.ErrImportNotFound)
}
