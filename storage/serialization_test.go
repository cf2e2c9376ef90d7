package storage

import (
	"testing"
	"time"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalFileRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name   string
		record *core.FileRecord
	}{
		{
			name: "pending record",
			record: &core.FileRecord{
				Path:     "/docs/notes.md",
				FileType: core.FileTypeDocument,
				Status:   core.StatusPending,
			},
		},
		{
			name: "indexed record",
			record: &core.FileRecord{
				Path:         "/docs/q3-report.txt",
				FileType:     core.FileTypeDocument,
				SizeBytes:    2048,
				ModTime:      now.Add(-time.Hour),
				ContentHash:  core.HashBytes([]byte("quarterly revenue")),
				Space:        core.SpaceText,
				ModelVersion: "hashing-v1",
				Embedding:    []float32{0.1, -0.2, 0.3, 0.4},
				Thumbnail:    "icon:document",
				Truncated:    true,
				IndexedAt:    now,
				Status:       core.StatusIndexed,
			},
		},
		{
			name: "failed record",
			record: &core.FileRecord{
				Path:          "/pics/broken.png",
				FileType:      core.FileTypeImage,
				SizeBytes:     12,
				Status:        core.StatusFailed,
				FailureReason: "unsupported-format",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalFileRecord(tt.record)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalFileRecord(data)
			require.NoError(t, err)
			assert.Equal(t, tt.record, decoded)
		})
	}
}

func TestUnmarshalFileRecord_Invalid(t *testing.T) {
	valid := MarshalFileRecord(&core.FileRecord{Path: "/a/b.txt", ContentHash: "abc"})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated", valid[:len(valid)/2]},
		{"unknown version", append([]byte{0x7f}, valid[1:]...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalFileRecord(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestMarshalUnmarshalVectorEntry(t *testing.T) {
	entry := &VectorEntry{
		IndexedAt: time.Now().UTC().Truncate(time.Microsecond),
		Vector:    []float32{1, 0, -1, 0.5},
	}

	decoded, err := UnmarshalVectorEntry(MarshalVectorEntry(entry))
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)

	_, err = UnmarshalVectorEntry(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalSettings(t *testing.T) {
	settings := &core.Settings{
		Paths:         []string{"/home/me/Documents", "~/Pictures"},
		FileTypes:     []core.FileType{core.FileTypeDocument, core.FileTypeImage},
		CloudServices: []core.CloudService{core.CloudDropbox},
		OCREnabled:    true,
		Version:       7,
	}

	decoded, err := UnmarshalSettings(MarshalSettings(settings))
	require.NoError(t, err)
	assert.Equal(t, settings, decoded)

	empty := &core.Settings{Paths: []string{}, FileTypes: []core.FileType{}, CloudServices: []core.CloudService{}}
	decoded, err = UnmarshalSettings(MarshalSettings(empty))
	require.NoError(t, err)
	assert.Equal(t, empty, decoded)
}
