package search

import "errors"

var (
	// ErrFileRepositoryRequired is returned when a file repository is not provided.
	ErrFileRepositoryRequired = errors.New("file repository required")

	// ErrRegistryRequired is returned when a space registry is not provided.
	ErrRegistryRequired = errors.New("space registry required")
)
