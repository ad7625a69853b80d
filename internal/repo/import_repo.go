package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/xxxsen/enexview/internal/model"
	apperr "github.com/xxxsen/enexview/internal/pkg/errors"
)

type ImportRepo struct {
	db *sqlx.DB
}

func NewImportRepo(db *sqlx.DB) *ImportRepo {
	return &ImportRepo{db: db}
}

type importRow struct {
	ID           string `db:"id"`
	Hash         string `db:"hash"`
	CreatedAt    string `db:"created_at"`
	NoteCount    int    `db:"note_count"`
	WarningsJSON string `db:"warnings_json"`
}

type noteRow struct {
	ID          string         `db:"id"`
	ImportID    string         `db:"import_id"`
	Title       string         `db:"title"`
	CreatedAt   sql.NullString `db:"created_at"`
	UpdatedAt   sql.NullString `db:"updated_at"`
	TagsJSON    string         `db:"tags_json"`
	Excerpt     string         `db:"excerpt"`
	ContentHTML string         `db:"content_html"`
	SearchText  string         `db:"search_text"`
	SortKey     int64          `db:"sort_key"`
}

type resourceRow struct {
	ID         string         `db:"id"`
	NoteID     string         `db:"note_id"`
	ImportID   string         `db:"import_id"`
	FileName   sql.NullString `db:"file_name"`
	Mime       sql.NullString `db:"mime"`
	Size       sql.NullInt64  `db:"size"`
	Hash       sql.NullString `db:"hash"`
	StorageKey sql.NullString `db:"storage_key"`
}

// SaveImportSession persists the session with all notes and resources in a
// single transaction. When another session with the same hash already exists,
// the existing session id is returned instead of inserting a duplicate.
func (r *ImportRepo) SaveImportSession(ctx context.Context, session *model.ImportSession) (string, error) {
	warningsJSON, err := marshalStrings(session.Warnings)
	if err != nil {
		return "", err
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO imports (id, hash, created_at, note_count, warnings_json) VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.Hash, session.CreatedAt, session.NoteCount, warningsJSON)
	if err != nil {
		_ = tx.Rollback()
		if isUniqueConflict(err) {
			return r.FindImportIDByHash(ctx, session.Hash)
		}
		return "", fmt.Errorf("insert import: %w", err)
	}
	for _, note := range session.Notes {
		tagsJSON, err := marshalStrings(note.Tags)
		if err != nil {
			_ = tx.Rollback()
			return "", err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO notes (id, import_id, title, created_at, updated_at, tags_json, excerpt, content_html, search_text, sort_key)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			note.ID, session.ID, note.Title,
			nullString(note.CreatedAt), nullString(note.UpdatedAt),
			tagsJSON, note.Excerpt, note.ContentHTML, note.SearchText, note.SortKey)
		if err != nil {
			_ = tx.Rollback()
			return "", fmt.Errorf("insert note %s: %w", note.ID, err)
		}
		for _, resource := range note.Resources {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO resources (id, note_id, import_id, file_name, mime, size, hash, storage_key)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				resource.ID, note.ID, session.ID,
				nullString(resource.FileName), nullString(resource.Mime),
				nullInt64(resource.Size),
				nullString(resource.Hash), nullString(resource.StorageKey))
			if err != nil {
				_ = tx.Rollback()
				return "", fmt.Errorf("insert resource %s: %w", resource.ID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		if isUniqueConflict(err) {
			return r.FindImportIDByHash(ctx, session.Hash)
		}
		return "", err
	}
	return session.ID, nil
}

func (r *ImportRepo) GetImportSession(ctx context.Context, importID string) (*model.ImportSession, error) {
	query, args, err := builder.BuildSelect("imports",
		map[string]interface{}{"id": importID},
		[]string{"id", "hash", "created_at", "note_count", "warnings_json"})
	if err != nil {
		return nil, err
	}
	var row importRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrImportNotFound
		}
		return nil, err
	}
	warnings, err := unmarshalStrings(row.WarningsJSON)
	if err != nil {
		return nil, err
	}
	session := &model.ImportSession{
		ID:        row.ID,
		Hash:      row.Hash,
		CreatedAt: row.CreatedAt,
		NoteCount: row.NoteCount,
		Warnings:  warnings,
	}

	var noteRows []noteRow
	err = r.db.SelectContext(ctx, &noteRows,
		`SELECT id, import_id, title, created_at, updated_at, tags_json, excerpt, content_html, search_text, sort_key
		 FROM notes WHERE import_id = ? ORDER BY sort_key DESC, rowid ASC`, importID)
	if err != nil {
		return nil, err
	}
	var resourceRows []resourceRow
	err = r.db.SelectContext(ctx, &resourceRows,
		`SELECT id, note_id, import_id, file_name, mime, size, hash, storage_key
		 FROM resources WHERE import_id = ? ORDER BY rowid ASC`, importID)
	if err != nil {
		return nil, err
	}
	resourcesByNote := make(map[string][]model.Resource)
	for _, row := range resourceRows {
		resourcesByNote[row.NoteID] = append(resourcesByNote[row.NoteID], model.Resource{
			ID:         row.ID,
			FileName:   row.FileName.String,
			Mime:       row.Mime.String,
			Size:       int64Ptr(row.Size),
			Hash:       row.Hash.String,
			StorageKey: row.StorageKey.String,
		})
	}
	session.Notes = make([]model.Note, 0, len(noteRows))
	for _, row := range noteRows {
		tags, err := unmarshalStrings(row.TagsJSON)
		if err != nil {
			return nil, err
		}
		session.Notes = append(session.Notes, model.Note{
			ID:          row.ID,
			Title:       row.Title,
			CreatedAt:   row.CreatedAt.String,
			UpdatedAt:   row.UpdatedAt.String,
			Tags:        tags,
			ContentHTML: row.ContentHTML,
			Excerpt:     row.Excerpt,
			SearchText:  row.SearchText,
			SortKey:     row.SortKey,
			Resources:   resourcesByNote[row.ID],
		})
	}
	return session, nil
}

func (r *ImportRepo) FindImportIDByHash(ctx context.Context, hash string) (string, error) {
	query, args, err := builder.BuildSelect("imports",
		map[string]interface{}{"hash": hash},
		[]string{"id"})
	if err != nil {
		return "", err
	}
	var id string
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.ErrImportNotFound
		}
		return "", err
	}
	return id, nil
}

func (r *ImportRepo) GetStoredResource(ctx context.Context, importID, noteID, resourceID string) (*model.StoredResource, error) {
	query, args, err := builder.BuildSelect("resources",
		map[string]interface{}{"import_id": importID, "note_id": noteID, "id": resourceID},
		[]string{"id", "note_id", "import_id", "file_name", "mime", "size", "hash", "storage_key"})
	if err != nil {
		return nil, err
	}
	var row resourceRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrResourceNotFound
		}
		return nil, err
	}
	return storedFromRow(row), nil
}

// ListStoredResourcesByIDs resolves the selected note/resource pairs. Pairs
// with no matching row are omitted so the caller can detect partial matches
// by comparing lengths.
func (r *ImportRepo) ListStoredResourcesByIDs(ctx context.Context, importID string, refs []model.ResourceRef) ([]model.StoredResource, error) {
	out := make([]model.StoredResource, 0, len(refs))
	for _, ref := range refs {
		resource, err := r.GetStoredResource(ctx, importID, ref.NoteID, ref.ResourceID)
		if err != nil {
			if errors.Is(err, apperr.ErrResourceNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, *resource)
	}
	return out, nil
}

func (r *ImportRepo) ClearAll(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for _, table := range []string{"resources", "notes", "imports"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func storedFromRow(row resourceRow) *model.StoredResource {
	return &model.StoredResource{
		ID:         row.ID,
		NoteID:     row.NoteID,
		ImportID:   row.ImportID,
		FileName:   row.FileName.String,
		Mime:       row.Mime.String,
		Size:       int64Ptr(row.Size),
		Hash:       row.Hash.String,
		StorageKey: row.StorageKey.String,
	}
}

func isUniqueConflict(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalStrings(raw string) ([]string, error) {
	values := []string{}
	if raw == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullInt64(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func int64Ptr(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}
