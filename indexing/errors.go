package indexing

import "errors"

var (
	// ErrFileRepositoryRequired is returned when a file repository is not provided.
	ErrFileRepositoryRequired = errors.New("file repository required")

	// ErrRegistryRequired is returned when an embedding space registry is not provided.
	ErrRegistryRequired = errors.New("space registry required")

	// ErrExtractorRequired is returned when a content extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrPipelineRequired is returned when a scanner is built without a pipeline.
	ErrPipelineRequired = errors.New("pipeline required")

	// ErrScannerRequired is returned when a scheduler is built without a scanner.
	ErrScannerRequired = errors.New("scanner required")

	// ErrSettingsRequired is returned when a scheduler is built without a settings store.
	ErrSettingsRequired = errors.New("settings store required")

	// ErrPipelineReleased is returned when work is submitted after Release.
	ErrPipelineReleased = errors.New("pipeline released")
)

// Failure reasons produced by the pipeline itself. Extraction reasons come from
// the extract package.
const (
	ReasonTimeout          = "timeout"
	ReasonEmbeddingFailure = "embedding-failure"
)
