package core

import "errors"

// Validation errors
var (
	// ErrValidation is the root of every validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyQuery indicates a search query that is empty or whitespace only.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidPath indicates a path that is not a plausible directory reference.
	ErrInvalidPath = errors.New("invalid path")

	// ErrDuplicatePath indicates the same root appears more than once in settings.
	ErrDuplicatePath = errors.New("duplicate path")

	// ErrInvalidFileType indicates an unknown file type category.
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrUnknownCloudService indicates an unrecognized cloud source identifier.
	ErrUnknownCloudService = errors.New("unknown cloud service")

	// ErrInvalidFileRecord indicates a FileRecord failed validation.
	ErrInvalidFileRecord = errors.New("invalid file record")

	// ErrDimensionMismatch indicates an embedding whose length does not match its space.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Runtime errors
var (
	// ErrExtraction is the root of every content extraction failure.
	ErrExtraction = errors.New("extraction failed")

	// ErrTimeout indicates a file exceeded its processing budget.
	ErrTimeout = errors.New("timeout")

	// ErrNotFound indicates a file that no longer exists.
	ErrNotFound = errors.New("not found")

	// ErrDenied indicates a permission failure.
	ErrDenied = errors.New("denied")

	// ErrIndexUnavailable indicates a transient failure of the file index.
	ErrIndexUnavailable = errors.New("index unavailable")
)
