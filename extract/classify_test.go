package extract

import (
	"testing"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/stretchr/testify/assert"
)

func TestClassifyByExtension(t *testing.T) {
	tests := map[string]core.FileType{
		"/a/report.PDF":   core.FileTypeDocument,
		"/a/main.go":      core.FileTypeDocument,
		"/a/photo.JPeg":   core.FileTypeImage,
		"/a/clip.mkv":     core.FileTypeVideo,
		"/a/song.flac":    core.FileTypeAudio,
		"/a/archive.zip":  core.FileTypeOther,
		"/a/no-extension": core.FileTypeOther,
	}
	for path, want := range tests {
		assert.Equal(t, want, ClassifyByExtension(path), path)
	}
}

func TestClassify_SignatureWins(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, core.FileTypeImage, Classify(png, "/a/misnamed.txt"))

	pdf := []byte("%PDF-1.7\n")
	assert.Equal(t, core.FileTypeDocument, Classify(pdf, "/a/file.bin"))

	zip := []byte("PK\x03\x04\x14\x00\x00\x00")
	assert.Equal(t, core.FileTypeOther, Classify(zip, "/a/notes.txt"))
}

func TestClassify_TextFallback(t *testing.T) {
	assert.Equal(t, core.FileTypeDocument, Classify([]byte("plain words"), "/a/notes.txt"))
	assert.Equal(t, core.FileTypeOther, Classify([]byte("plain words"), "/a/notes.jpg"))
}
