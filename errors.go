package flowvers

import "errors"

// Recoverable resolution failures. Resolve never returns these; each one is
// logged and replaced by its fallback value.
var (
	ErrRepositoryUnavailable  = errors.New("repository unavailable")
	ErrNoMatchingTag          = errors.New("no matching tag")
	ErrBranchUndetermined     = errors.New("branch undetermined")
	ErrMalformedBranchVersion = errors.New("malformed branch version")
	ErrArchiveSnapshotMissing = errors.New("archive snapshot missing")
)

// ErrMissingDirectory is returned by Resolve when neither a directory nor a
// repository was configured.
var ErrMissingDirectory = errors.New("repository directory is required")
