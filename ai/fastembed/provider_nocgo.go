//go:build !cgo

package fastembed

import "github.com/UBH-Fall-2024/FileSeekr/ai"

// NewProvider returns ErrNotAvailable when cgo is not available.
func NewProvider(_ *ai.Config) (ai.AIProvider, error) {
	return nil, ErrNotAvailable
}
