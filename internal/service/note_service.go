package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/xxxsen/enexview/internal/model"
	apperr "github.com/xxxsen/enexview/internal/pkg/errors"
	"github.com/xxxsen/enexview/internal/repo"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

type NoteService struct {
	repo  *repo.ImportRepo
	cache *SessionCache
}

func NewNoteService(r *repo.ImportRepo, cache *SessionCache) *NoteService {
	return &NoteService{repo: r, cache: cache}
}

// ListNotesInput carries the raw, unparsed query parameters. Parsing happens
// here so malformed values are rejected before any store access.
type ListNotesInput struct {
	Query  string
	Limit  string
	Offset string
}

type NoteListResult struct {
	Total int                 `json:"total"`
	Notes []model.NoteSummary `json:"notes"`
}

func (s *NoteService) ListNotes(ctx context.Context, importID string, input ListNotesInput) (*NoteListResult, error) {
	limit, offset, err := parseListParams(input)
	if err != nil {
		return nil, err
	}
	session, err := s.getSession(ctx, importID)
	if err != nil {
		return nil, err
	}
	filtered := session.Notes
	if q := strings.ToLower(strings.TrimSpace(input.Query)); q != "" {
		matched := make([]model.Note, 0, len(filtered))
		for _, note := range filtered {
			if strings.Contains(note.SearchText, q) {
				matched = append(matched, note)
			}
		}
		filtered = matched
	}
	total := len(filtered)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := filtered[offset:end]
	summaries := make([]model.NoteSummary, 0, len(page))
	for _, note := range page {
		summaries = append(summaries, model.NoteSummary{
			ID:        note.ID,
			Title:     note.Title,
			CreatedAt: note.CreatedAt,
			UpdatedAt: note.UpdatedAt,
			Tags:      note.Tags,
			Excerpt:   note.Excerpt,
		})
	}
	return &NoteListResult{Total: total, Notes: summaries}, nil
}

func (s *NoteService) FetchNoteDetail(ctx context.Context, importID, noteID string) (*model.Note, error) {
	session, err := s.getSession(ctx, importID)
	if err != nil {
		return nil, err
	}
	for i := range session.Notes {
		if session.Notes[i].ID == noteID {
			return &session.Notes[i], nil
		}
	}
	return nil, apperr.ErrNoteNotFound
}

func (s *NoteService) getSession(ctx context.Context, importID string) (*model.ImportSession, error) {
	if session := s.cache.Get(importID); session != nil {
		return session, nil
	}
	session, err := s.repo.GetImportSession(ctx, importID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(importID, session)
	return session, nil
}

func parseListParams(input ListNotesInput) (int, int, error) {
	limit := defaultPageLimit
	if input.Limit != "" {
		value, err := parseIntParam("limit", input.Limit)
		if err != nil {
			return 0, 0, err
		}
		if value < 1 || value > maxPageLimit {
			return 0, 0, fmt.Errorf("%w: limit must be between 1 and %d", apperr.ErrInvalid, maxPageLimit)
		}
		limit = value
	}
	offset := 0
	if input.Offset != "" {
		value, err := parseIntParam("offset", input.Offset)
		if err != nil {
			return 0, 0, err
		}
		if value < 0 {
			return 0, 0, fmt.Errorf("%w: offset must not be negative", apperr.ErrInvalid)
		}
		offset = value
	}
	return limit, offset, nil
}

func parseIntParam(name, raw string) (int, error) {
	if err := validation.Validate(raw, is.Int); err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", apperr.ErrInvalid, name)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", apperr.ErrInvalid, name)
	}
	return value, nil
}
