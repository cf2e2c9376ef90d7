package extract

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/h2non/filetype"
)

// headerSize is the number of leading bytes inspected for a signature.
const headerSize = 262

var extensionTypes = map[string]core.FileType{}

func init() {
	register := func(t core.FileType, exts ...string) {
		for _, ext := range exts {
			extensionTypes[ext] = t
		}
	}
	register(core.FileTypeDocument,
		".txt", ".md", ".markdown", ".rst", ".csv", ".tsv", ".json", ".yaml", ".yml", ".xml",
		".html", ".htm", ".css", ".js", ".ts", ".py", ".go", ".java", ".c", ".h", ".cpp", ".rs",
		".rb", ".sh", ".sql", ".log", ".ini", ".toml", ".pdf")
	register(core.FileTypeImage, ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tif", ".tiff")
	register(core.FileTypeVideo, ".mp4", ".mov", ".avi", ".mkv", ".webm", ".m4v", ".wmv", ".flv")
	register(core.FileTypeAudio, ".mp3", ".wav", ".flac", ".ogg", ".m4a", ".aac", ".wma", ".opus")
}

// ClassifyByExtension returns the category implied by the file extension.
// It is used at walk time, before the file is opened.
func ClassifyByExtension(path string) core.FileType {
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return core.FileTypeOther
}

// Classify determines the category from the content signature, falling back
// to the extension for text formats, which have no magic bytes.
// A binary signature always wins over the extension.
func Classify(header []byte, path string) core.FileType {
	kind, err := filetype.Match(header)
	if err == nil && kind != filetype.Unknown {
		if kind.Extension == "pdf" {
			return core.FileTypeDocument
		}
		switch kind.MIME.Type {
		case "image":
			return core.FileTypeImage
		case "video":
			return core.FileTypeVideo
		case "audio":
			return core.FileTypeAudio
		}
		return core.FileTypeOther
	}

	byExt := ClassifyByExtension(path)
	if byExt == core.FileTypeDocument {
		return core.FileTypeDocument
	}
	return core.FileTypeOther
}

// ClassifyFile reads the file header and classifies it.
func ClassifyFile(path string) (core.FileType, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.FileTypeOther, err
	}
	defer f.Close()

	header := make([]byte, headerSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return core.FileTypeOther, err
	}
	return Classify(header[:n], path), nil
}

// IsPDF reports whether header carries the PDF signature.
func IsPDF(header []byte) bool {
	kind, err := filetype.Match(header)
	return err == nil && kind.Extension == "pdf"
}
