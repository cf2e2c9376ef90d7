package badger

import (
	"context"
	"testing"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepository_SaveLoad(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	defer backend.Close()

	repo := NewSettingsRepository(backend)
	ctx := context.Background()

	loaded, err := repo.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	settings := &core.Settings{
		Paths:         []string{"/home/me/Documents"},
		FileTypes:     []core.FileType{core.FileTypeDocument},
		CloudServices: []core.CloudService{core.CloudOneDrive},
		OCREnabled:    true,
		Version:       3,
	}
	require.NoError(t, repo.SaveSettings(ctx, settings))

	loaded, err = repo.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
}
