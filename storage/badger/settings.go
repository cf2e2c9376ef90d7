package badger

import (
	"context"
	"errors"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/storage"
	"github.com/dgraph-io/badger/v4"
)

// SettingsRepository implements storage.SettingsRepository for BadgerDB.
type SettingsRepository struct {
	backend *Backend
}

var _ storage.SettingsRepository = (*SettingsRepository)(nil)

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(backend *Backend) *SettingsRepository {
	return &SettingsRepository{
		backend: backend,
	}
}

// SaveSettings persists the settings singleton.
func (r *SettingsRepository) SaveSettings(ctx context.Context, settings *core.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(settingsKey), storage.MarshalSettings(settings))
	})
}

// LoadSettings retrieves the stored settings.
// Returns nil, nil if no settings were saved yet.
func (r *SettingsRepository) LoadSettings(ctx context.Context) (*core.Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var settings *core.Settings
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(settingsKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			settings, unmarshalErr = storage.UnmarshalSettings(val)
			return unmarshalErr
		})
	}, false)

	return settings, err
}
