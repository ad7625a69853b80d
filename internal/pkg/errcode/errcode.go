package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrInternal
	ErrInvalidXML
	ErrInvalidEnex
	ErrInvalidMultipart
	ErrInvalidHash
	ErrImportNotFound
	ErrNoteNotFound
	ErrResourceNotFound
)
