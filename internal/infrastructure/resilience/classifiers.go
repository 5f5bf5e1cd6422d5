package resilience

import (
	"context"
	"errors"
	"strings"
)

// OCRErrorClassifier decides whether a Tesseract invocation is worth
// retrying. Context expiry is the per-file timeout firing: not retryable and
// not a breaker failure (the engine is fine, the file was slow). Malformed
// input never gets better on retry; engine/library-level faults might.
func OCRErrorClassifier(err error) ErrorClassification {
	if err == nil {
		return ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if IsCircuitOpen(err) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}

	msg := strings.ToLower(err.Error())
	permanent := strings.Contains(msg, "set image") ||
		strings.Contains(msg, "empty image") ||
		strings.Contains(msg, "unsupported")
	if permanent {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}
	return ErrorClassification{Retryable: true, RecordFailure: true}
}
