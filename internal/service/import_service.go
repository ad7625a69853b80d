package service

import (
	"context"
	"sort"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/enexview/internal/enex"
	"github.com/xxxsen/enexview/internal/filestore"
	"github.com/xxxsen/enexview/internal/model"
	"github.com/xxxsen/enexview/internal/pkg/checksum"
	apperr "github.com/xxxsen/enexview/internal/pkg/errors"
	"github.com/xxxsen/enexview/internal/repo"
)

type ImportService struct {
	repo  *repo.ImportRepo
	store filestore.Store
	cache *SessionCache
}

func NewImportService(r *repo.ImportRepo, store filestore.Store, cache *SessionCache) *ImportService {
	return &ImportService{repo: r, store: store, cache: cache}
}

// ImportResult is the upload response payload.
type ImportResult struct {
	ImportID  string   `json:"importId"`
	Hash      string   `json:"hash"`
	NoteCount int      `json:"noteCount"`
	Warnings  []string `json:"warnings"`
}

// ImportEnex runs the full pipeline for one uploaded document: dedup by hash,
// validation, note extraction, sanitization, attachment materialization and
// the final atomic save. Re-uploading a byte-identical document returns the
// existing session.
func (s *ImportService) ImportEnex(ctx context.Context, data []byte, hash string) (*ImportResult, error) {
	if hash == "" {
		hash = checksum.Sum(data)
	}
	if existingID, err := s.repo.FindImportIDByHash(ctx, hash); err == nil {
		logutil.GetLogger(ctx).Info("duplicate upload, reusing session",
			zap.String("import_id", existingID), zap.String("hash", hash))
		return s.resultForExisting(ctx, existingID)
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	root, perr := enex.Validate(data)
	if perr != nil {
		return nil, perr
	}
	extracted, warnings := enex.ExtractNotes(root)

	notes := make([]model.Note, 0, len(extracted))
	for _, item := range extracted {
		contentHTML := enex.Sanitize(item.Content)
		resources, err := s.materializeResources(ctx, item.Resources)
		if err != nil {
			return nil, err
		}
		tags := item.Tags
		if tags == nil {
			tags = []string{}
		}
		notes = append(notes, model.Note{
			ID:          item.ID,
			Title:       item.Title,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
			Tags:        tags,
			ContentHTML: contentHTML,
			Excerpt:     enex.Excerpt(contentHTML),
			SearchText:  enex.SearchText(item.Title, contentHTML, tags),
			SortKey:     enex.SortKey(item.CreatedAt, item.UpdatedAt),
			Resources:   resources,
		})
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].SortKey > notes[j].SortKey
	})

	formatted := make([]string, 0, len(warnings))
	for _, warning := range warnings {
		formatted = append(formatted, warning.String())
	}
	session := &model.ImportSession{
		ID:        newID(),
		Hash:      hash,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		NoteCount: len(notes),
		Warnings:  formatted,
		Notes:     notes,
	}
	savedID, err := s.repo.SaveImportSession(ctx, session)
	if err != nil {
		return nil, err
	}
	if savedID != session.ID {
		// Lost a save race against an identical concurrent upload.
		return s.resultForExisting(ctx, savedID)
	}
	logutil.GetLogger(ctx).Info("import session saved",
		zap.String("import_id", session.ID),
		zap.Int("note_count", session.NoteCount),
		zap.Int("warning_count", len(session.Warnings)))
	return &ImportResult{
		ImportID:  session.ID,
		Hash:      session.Hash,
		NoteCount: session.NoteCount,
		Warnings:  session.Warnings,
	}, nil
}

func (s *ImportService) resultForExisting(ctx context.Context, importID string) (*ImportResult, error) {
	session, err := s.repo.GetImportSession(ctx, importID)
	if err != nil {
		return nil, err
	}
	return &ImportResult{
		ImportID:  session.ID,
		Hash:      session.Hash,
		NoteCount: session.NoteCount,
		Warnings:  session.Warnings,
	}, nil
}

func (s *ImportService) materializeResources(ctx context.Context, extracted []enex.ExtractedResource) ([]model.Resource, error) {
	resources := make([]model.Resource, 0, len(extracted))
	for _, item := range extracted {
		resource := model.Resource{
			ID:       item.ID,
			FileName: item.FileName,
			Mime:     item.Mime,
			Size:     item.Size,
		}
		if len(item.Data) > 0 {
			hash := checksum.Sum(item.Data)
			exists, err := s.store.Exists(ctx, hash)
			if err != nil {
				return nil, err
			}
			if !exists {
				if err := s.store.Save(ctx, hash, filestore.BytesReader(item.Data), int64(len(item.Data))); err != nil {
					return nil, err
				}
			}
			resource.Hash = hash
			resource.StorageKey = hash
		}
		resources = append(resources, resource)
	}
	return resources, nil
}

func (s *ImportService) FindImportIDByHash(ctx context.Context, hash string) (string, error) {
	return s.repo.FindImportIDByHash(ctx, hash)
}

// ClearAll removes every stored session. Attachment blobs are left in the
// file store; they are content addressed and reusable by future imports.
func (s *ImportService) ClearAll(ctx context.Context) error {
	if err := s.repo.ClearAll(ctx); err != nil {
		return err
	}
	s.cache.Purge()
	logutil.GetLogger(ctx).Info("all import sessions cleared")
	return nil
}
