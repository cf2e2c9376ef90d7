package core

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// FileType is the content category of an indexed file.
type FileType int

const (
	// FileTypeOther is any file that does not fit another category.
	FileTypeOther FileType = iota
	// FileTypeDocument covers plain text, markup, source code and PDF.
	FileTypeDocument
	// FileTypeImage covers raster image formats.
	FileTypeImage
	// FileTypeVideo covers video containers.
	FileTypeVideo
	// FileTypeAudio covers audio containers.
	FileTypeAudio
)

// SelectableFileTypes lists the categories a user can enable in settings.
var SelectableFileTypes = []FileType{FileTypeDocument, FileTypeImage, FileTypeVideo, FileTypeAudio}

func (t FileType) String() string {
	switch t {
	case FileTypeDocument:
		return "document"
	case FileTypeImage:
		return "image"
	case FileTypeVideo:
		return "video"
	case FileTypeAudio:
		return "audio"
	default:
		return "other"
	}
}

// ParseFileType converts a category name into a FileType.
// Plural forms used by the settings UI ("documents", "images", "videos") are accepted.
func ParseFileType(s string) (FileType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "document", "documents":
		return FileTypeDocument, true
	case "image", "images":
		return FileTypeImage, true
	case "video", "videos":
		return FileTypeVideo, true
	case "audio":
		return FileTypeAudio, true
	case "other":
		return FileTypeOther, true
	}
	return FileTypeOther, false
}

// Status is the indexing state of a FileRecord.
type Status int

const (
	// StatusPending means the file was discovered but not yet processed.
	StatusPending Status = iota
	// StatusIndexed means the record carries a valid embedding.
	StatusIndexed
	// StatusFailed means extraction or embedding failed; see FailureReason.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIndexed:
		return "indexed"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// SpaceID names an embedding space. Vectors from different spaces are never compared.
type SpaceID string

const (
	// SpaceText holds document text and OCR'd image text.
	SpaceText SpaceID = "text"
	// SpaceMedia holds metadata descriptions of video and audio files.
	SpaceMedia SpaceID = "media"
	// SpaceVisual holds perceptual image embeddings.
	SpaceVisual SpaceID = "visual"
)

// Metric is the distance function fixed for an embedding space.
type Metric int

const (
	// MetricCosine compares direction only.
	MetricCosine Metric = iota
	// MetricEuclidean compares unit vectors by L2 distance.
	MetricEuclidean
)

func (m Metric) String() string {
	if m == MetricEuclidean {
		return "euclidean"
	}
	return "cosine"
}

// FileRecord is the index entry for one file.
type FileRecord struct {
	Path          string    // Absolute, cleaned path; unique key
	FileType      FileType
	SizeBytes     int64
	ModTime       time.Time // Modification time observed at last scan
	ContentHash   string    // BLAKE2b-256 of the file bytes, hex encoded
	Space         SpaceID   // Embedding space that produced Embedding
	ModelVersion  string    // Model version of Space when Embedding was produced
	Embedding     []float32 // Nil until extraction succeeds
	Thumbnail     string    // data URI, "icon:<key>", or empty
	Truncated     bool      // Document content was cut at the size limit
	IndexedAt     time.Time // Last successful (re)indexing
	Status        Status
	FailureReason string // Set when Status is StatusFailed
}

// Filename returns the base name of the record's path.
func (r *FileRecord) Filename() string {
	return filepath.Base(r.Path)
}

// Clone returns a deep copy of the record.
func (r *FileRecord) Clone() *FileRecord {
	c := *r
	c.Embedding = slices.Clone(r.Embedding)
	return &c
}

// CloudService identifies a cloud-linked folder source.
type CloudService string

const (
	CloudDropbox     CloudService = "dropbox"
	CloudGoogleDrive CloudService = "googleDrive"
	CloudOneDrive    CloudService = "oneDrive"
)

// KnownCloudServices lists the accepted cloud service identifiers.
var KnownCloudServices = []CloudService{CloudDropbox, CloudGoogleDrive, CloudOneDrive}

// Settings is the user configuration. Values are treated as immutable once saved;
// use Clone before modifying.
type Settings struct {
	Paths         []string
	FileTypes     []FileType
	CloudServices []CloudService
	OCREnabled    bool
	Version       uint64
}

// DefaultSettings returns the configuration used on first run.
func DefaultSettings() *Settings {
	return &Settings{
		Paths:     []string{},
		FileTypes: slices.Clone(SelectableFileTypes),
	}
}

// Clone returns a deep copy of the settings.
func (s *Settings) Clone() *Settings {
	return &Settings{
		Paths:         slices.Clone(s.Paths),
		FileTypes:     slices.Clone(s.FileTypes),
		CloudServices: slices.Clone(s.CloudServices),
		OCREnabled:    s.OCREnabled,
		Version:       s.Version,
	}
}

// FileTypeEnabled reports whether the category is enabled.
func (s *Settings) FileTypeEnabled(t FileType) bool {
	return slices.Contains(s.FileTypes, t)
}

// SearchResult is a ranked query hit. It is never persisted.
type SearchResult struct {
	Similarity float32
	Filename   string
	FileType   FileType
	SizeBytes  int64
	Thumbnail  string
	Path       string
	Space      SpaceID
	IndexedAt  time.Time
}

// Hit is a raw nearest-neighbor match returned by the file index.
type Hit struct {
	Record     *FileRecord
	Distance   float32
	Similarity float32
}
