package ai

import "errors"

var (
	// ErrUnknownSpace is returned when a space has not been registered.
	ErrUnknownSpace = errors.New("unknown embedding space")

	// ErrSpaceExists is returned when registering a space twice.
	ErrSpaceExists = errors.New("embedding space already registered")

	// ErrWrongModality is returned when a space is asked to embed content it does not accept.
	ErrWrongModality = errors.New("embedding space does not accept this content")

	// ErrUnknownProvider is returned for an unrecognized provider name.
	ErrUnknownProvider = errors.New("unknown embedding provider")

	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmptyEmbedding is returned when an embedder produced no vector.
	ErrEmptyEmbedding = errors.New("embedder returned no vector")
)
