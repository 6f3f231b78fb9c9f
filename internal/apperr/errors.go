package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrNoToken means no usable credential was found; the sync pass is aborted.
	ErrNoToken = errors.New("no access token")
	// ErrFetch wraps any failure to retrieve the document list.
	ErrFetch = errors.New("fetch documents")
	// ErrSyncInProgress is returned to callers that refuse to wait for a running pass.
	ErrSyncInProgress = errors.New("sync already in progress")
)
