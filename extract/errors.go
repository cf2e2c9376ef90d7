package extract

import (
	"errors"
	"fmt"

	"github.com/UBH-Fall-2024/FileSeekr/core"
)

// Reason classifies why extraction failed. It is stored as FileRecord.FailureReason.
type Reason string

const (
	ReasonUnsupportedFormat Reason = "unsupported-format"
	ReasonReadError         Reason = "read-error"
	ReasonTooLarge          Reason = "too-large"
	ReasonOCRFailure        Reason = "ocr-failure"
)

// ExtractionError reports a failed extraction. It matches core.ErrExtraction with errors.Is.
type ExtractionError struct {
	Path   string
	Reason Reason
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extract %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("extract %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{core.ErrExtraction}
	}
	return []error{core.ErrExtraction, e.Err}
}

// ReasonOf returns the Reason carried by err, or "" if err is not an *ExtractionError.
func ReasonOf(err error) Reason {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Reason
	}
	return ""
}

func newError(path string, reason Reason, err error) *ExtractionError {
	return &ExtractionError{Path: path, Reason: reason, Err: err}
}
