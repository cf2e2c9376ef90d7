package storage

import (
	"context"

	"github.com/UBH-Fall-2024/FileSeekr/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close closes the storage backend and releases resources.
	Close() error
}

// FileRepository is the file index: one FileRecord per path, plus one vector
// entry per indexed record in the record's embedding space.
type FileRepository interface {
	Repository

	// Upsert inserts or replaces the record for record.Path.
	// The record and its vector entry are written in one transaction, so a
	// concurrent Query observes either the old state or the new one.
	// A previous vector entry in a different space is removed.
	Upsert(ctx context.Context, record *core.FileRecord) error

	// Delete removes the record and its vector entry. Deleting an absent path is a no-op.
	Delete(ctx context.Context, paths ...string) error

	// Get retrieves the record for path, including its embedding.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, path string) (*core.FileRecord, error)

	// List returns records whose path equals root or lies below it.
	// An empty root lists every record. Embeddings are not populated.
	List(ctx context.Context, root string) ([]*core.FileRecord, error)

	// Query returns the k nearest indexed records in space, ordered by ascending
	// distance; ties go to the more recently indexed record.
	// All reads happen inside a single snapshot.
	Query(ctx context.Context, space core.SpaceID, metric core.Metric, vector []float32, k int) ([]core.Hit, error)

	// Count returns the number of records, and how many of them carry a vector.
	Count(ctx context.Context) (total int, indexed int, err error)
}

// SettingsRepository persists the singleton Settings value.
type SettingsRepository interface {
	// LoadSettings returns the stored settings, or nil, nil if none were saved yet.
	LoadSettings(ctx context.Context) (*core.Settings, error)

	// SaveSettings replaces the stored settings.
	SaveSettings(ctx context.Context, settings *core.Settings) error
}
