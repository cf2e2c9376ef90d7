package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/UBH-Fall-2024/FileSeekr/core"
)

const (
	// DefaultMaxDocumentBytes bounds the text taken from a single document.
	DefaultMaxDocumentBytes = 1 << 20
	// DefaultMaxFileBytes rejects files above this size before reading.
	DefaultMaxFileBytes = 512 << 20
	// DefaultThumbnailSize is the longest thumbnail edge in pixels.
	DefaultThumbnailSize = 128
)

// Content is the outcome of a successful extraction.
// Exactly one of Text and Image is set.
type Content struct {
	FileType  core.FileType
	Text      string
	Image     image.Image
	Thumbnail string
	Truncated bool
}

// Space returns the embedding space the content belongs to.
func (c *Content) Space() core.SpaceID {
	switch {
	case c.FileType == core.FileTypeVideo || c.FileType == core.FileTypeAudio:
		return core.SpaceMedia
	case c.Image != nil:
		return core.SpaceVisual
	default:
		return core.SpaceText
	}
}

// Extractor turns files into embeddable content.
type Extractor struct {
	maxDocumentBytes int64
	maxFileBytes     int64
	thumbnailSize    int
	ocr              OCR
	prober           MediaProber
	logger           *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithMaxDocumentBytes sets the document truncation limit.
func WithMaxDocumentBytes(n int64) Option {
	return func(e *Extractor) error {
		if n <= 0 {
			return fmt.Errorf("max document bytes must be positive, got %d", n)
		}
		e.maxDocumentBytes = n
		return nil
	}
}

// WithMaxFileBytes sets the size above which files are rejected.
func WithMaxFileBytes(n int64) Option {
	return func(e *Extractor) error {
		if n <= 0 {
			return fmt.Errorf("max file bytes must be positive, got %d", n)
		}
		e.maxFileBytes = n
		return nil
	}
}

// WithThumbnailSize sets the longest thumbnail edge.
func WithThumbnailSize(px int) Option {
	return func(e *Extractor) error {
		if px < 8 {
			return fmt.Errorf("thumbnail size must be at least 8, got %d", px)
		}
		e.thumbnailSize = px
		return nil
	}
}

// WithOCR sets the OCR engine. Without one, images always go to the visual space.
func WithOCR(ocr OCR) Option {
	return func(e *Extractor) error {
		e.ocr = ocr
		return nil
	}
}

// WithMediaProber sets the prober used for video and audio metadata.
func WithMediaProber(p MediaProber) Option {
	return func(e *Extractor) error {
		e.prober = p
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		e.logger = logger
		return nil
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) (*Extractor, error) {
	e := &Extractor{
		maxDocumentBytes: DefaultMaxDocumentBytes,
		maxFileBytes:     DefaultMaxFileBytes,
		thumbnailSize:    DefaultThumbnailSize,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "extractor")
	return e, nil
}

// Extract classifies the file at path and produces its content.
// Failures are returned as *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, path string, ocrEnabled bool) (content *Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extraction panicked", "path", path, "panic", r)
			content = nil
			err = newError(path, ReasonReadError, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, newError(path, ReasonReadError, err)
	}
	if !info.Mode().IsRegular() {
		return nil, newError(path, ReasonUnsupportedFormat, errors.New("not a regular file"))
	}
	if info.Size() > e.maxFileBytes {
		return nil, newError(path, ReasonTooLarge, fmt.Errorf("%d bytes exceeds limit of %d", info.Size(), e.maxFileBytes))
	}

	fileType, err := ClassifyFile(path)
	if err != nil {
		return nil, newError(path, ReasonReadError, err)
	}

	switch fileType {
	case core.FileTypeDocument:
		content, err = e.extractDocument(ctx, path)
	case core.FileTypeImage:
		content, err = e.extractImage(ctx, path, ocrEnabled)
	case core.FileTypeVideo, core.FileTypeAudio:
		content, err = e.extractMedia(ctx, path, fileType)
	default:
		return nil, newError(path, ReasonUnsupportedFormat, nil)
	}
	if err != nil {
		return nil, err
	}
	content.FileType = fileType
	return content, nil
}

// filenameWords turns a file name into space-separated words:
// "q3_revenue-report.pdf" becomes "q3 revenue report".
func filenameWords(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return strings.Join(fields, " ")
}
