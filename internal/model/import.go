package model

// ImportSession is one accepted upload. Sessions are immutable once saved;
// only ClearAll removes them.
type ImportSession struct {
	ID        string   `json:"id"`
	Hash      string   `json:"hash"`
	CreatedAt string   `json:"createdAt"`
	NoteCount int      `json:"noteCount"`
	Warnings  []string `json:"warnings"`
	Notes     []Note   `json:"notes"`
}

type Note struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	CreatedAt   string     `json:"createdAt,omitempty"`
	UpdatedAt   string     `json:"updatedAt,omitempty"`
	Tags        []string   `json:"tags"`
	ContentHTML string     `json:"contentHtml"`
	Excerpt     string     `json:"excerpt"`
	SearchText  string     `json:"-"`
	SortKey     int64      `json:"-"`
	Resources   []Resource `json:"resources"`
}

type Resource struct {
	ID       string `json:"id"`
	FileName string `json:"fileName,omitempty"`
	Mime     string `json:"mime,omitempty"`
	// Size is the decoded byte size computed from the base64 payload, nil
	// when the payload encoding made it undeterminable.
	Size       *int64 `json:"size,omitempty"`
	Hash       string `json:"-"`
	StorageKey string `json:"-"`
}

// NoteSummary is the list-view projection of a Note.
type NoteSummary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
	Tags      []string `json:"tags"`
	Excerpt   string   `json:"excerpt"`
}

// ResourceRef addresses one resource within an import.
type ResourceRef struct {
	NoteID     string `json:"noteId"`
	ResourceID string `json:"resourceId"`
}

// StoredResource is a resource row joined with its owning note, as needed
// for downloads and bundle assembly.
type StoredResource struct {
	ID         string `db:"id"`
	NoteID     string `db:"note_id"`
	ImportID   string `db:"import_id"`
	FileName   string `db:"file_name"`
	Mime       string `db:"mime"`
	Size       *int64 `db:"size"`
	Hash       string `db:"hash"`
	StorageKey string `db:"storage_key"`
}
