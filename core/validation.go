package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFileRecord validates a FileRecord according to domain rules.
//
// Validation rules:
//   - Path must be absolute
//   - SizeBytes must not be negative
//   - An indexed record must carry an embedding of the expected dimension
//   - A failed record must carry a reason
//
// dimension is the dimension of the record's embedding space; 0 skips the length check.
func ValidateFileRecord(record *FileRecord, dimension int) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidFileRecord)
	}

	if record.Path == "" || !filepath.IsAbs(record.Path) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidFileRecord, ErrInvalidPath, record.Path)
	}

	if record.SizeBytes < 0 {
		return fmt.Errorf("%w: negative size", ErrInvalidFileRecord)
	}

	switch record.Status {
	case StatusIndexed:
		if len(record.Embedding) == 0 {
			return fmt.Errorf("%w: indexed record has no embedding", ErrInvalidFileRecord)
		}
		if record.Space == "" {
			return fmt.Errorf("%w: indexed record has no embedding space", ErrInvalidFileRecord)
		}
		if dimension > 0 && len(record.Embedding) != dimension {
			return fmt.Errorf("%w: %w: got %d, want %d", ErrInvalidFileRecord, ErrDimensionMismatch, len(record.Embedding), dimension)
		}
	case StatusFailed:
		if record.FailureReason == "" {
			return fmt.Errorf("%w: failed record has no reason", ErrInvalidFileRecord)
		}
	}

	return nil
}

// ValidateQuery rejects empty and whitespace-only queries.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyQuery)
	}
	return nil
}

// ValidateSettingsPath checks that p is a syntactically plausible directory reference.
// Existence is not checked: a cloud folder that is not mounted yet must still be savable.
func ValidateSettingsPath(p string) error {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		return fmt.Errorf("%w: %w: empty path", ErrValidation, ErrInvalidPath)
	}
	if strings.ContainsRune(trimmed, 0) {
		return fmt.Errorf("%w: %w: %q contains NUL", ErrValidation, ErrInvalidPath, p)
	}
	if !filepath.IsAbs(trimmed) && !strings.HasPrefix(trimmed, "~") && !isWindowsAbs(trimmed) {
		return fmt.Errorf("%w: %w: %q is not absolute", ErrValidation, ErrInvalidPath, p)
	}
	return nil
}

// ValidateSettings validates paths, file types and cloud services.
// Paths are compared after cleaning, so "/a" and "/a/" are duplicates.
func ValidateSettings(s *Settings) error {
	if s == nil {
		return fmt.Errorf("%w: settings is nil", ErrValidation)
	}

	seen := make(map[string]bool, len(s.Paths))
	for _, p := range s.Paths {
		if err := ValidateSettingsPath(p); err != nil {
			return err
		}
		key := CleanSettingsPath(p)
		if seen[key] {
			return fmt.Errorf("%w: %w: %q", ErrValidation, ErrDuplicatePath, p)
		}
		seen[key] = true
	}

	for _, t := range s.FileTypes {
		if t < FileTypeDocument || t > FileTypeAudio {
			return fmt.Errorf("%w: %w: %d", ErrValidation, ErrInvalidFileType, t)
		}
	}

	for _, c := range s.CloudServices {
		if !isKnownCloudService(c) {
			return fmt.Errorf("%w: %w: %q", ErrValidation, ErrUnknownCloudService, c)
		}
	}

	return nil
}

// CleanSettingsPath normalizes a settings path for comparison and storage.
func CleanSettingsPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if isWindowsAbs(trimmed) {
		cleaned := strings.TrimRight(strings.ReplaceAll(trimmed, "\\", "/"), "/")
		if len(cleaned) == 2 {
			// A bare drive letter is drive-relative; keep the root separator.
			return cleaned + "/"
		}
		return cleaned
	}
	return filepath.Clean(trimmed)
}

func isWindowsAbs(p string) bool {
	if len(p) < 3 {
		return false
	}
	c := p[0]
	isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	return isLetter && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}

func isKnownCloudService(c CloudService) bool {
	for _, k := range KnownCloudServices {
		if k == c {
			return true
		}
	}
	return false
}
