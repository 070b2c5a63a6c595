package workspace

import "errors"

var (
	// ErrRootRequired indicates the repository was constructed without a root directory.
	ErrRootRequired = errors.New("workspace: root directory is required")
	// ErrRecordNotFound indicates a workspace without a persisted record file.
	ErrRecordNotFound = errors.New("workspace: record not found")
	// ErrBookNotFound indicates a workspace without a persisted content manifest.
	ErrBookNotFound = errors.New("workspace: content manifest not found")
)
