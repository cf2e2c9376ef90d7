package badger

import (
	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/storage"
)

// NewMemoryRepositories creates in-memory file and settings repositories for testing.
// dimensions maps each space to its vector dimension.
// Returns fileRepo, settingsRepo, backend, and error.
// Caller must close the backend when done.
func NewMemoryRepositories(dimensions map[core.SpaceID]int) (storage.FileRepository, storage.SettingsRepository, *Backend, error) {
	backend, err := OpenBackend("", true, nil)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := make([]FileOption, 0, len(dimensions))
	for space, dim := range dimensions {
		opts = append(opts, WithDimension(space, dim))
	}

	fileRepo, err := NewFileRepository(backend, opts...)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}

	return fileRepo, NewSettingsRepository(backend), backend, nil
}
