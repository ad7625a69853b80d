package errors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrImportNotFound   = errors.New("import session not found")
	ErrNoteNotFound     = errors.New("note not found")
	ErrResourceNotFound = errors.New("resource not found")
	ErrInvalid          = errors.New("invalid")
	ErrConflict         = errors.New("conflict")
	ErrInternal         = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrImportNotFound) ||
		errors.Is(err, ErrNoteNotFound) ||
		errors.Is(err, ErrResourceNotFound)
}
