package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBatchNotFound    = errors.New("batch not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	// ErrExtraction marks per-file OCR/decode failures. Recovered locally:
	// the file's status becomes error and the batch continues.
	ErrExtraction = errors.New("extraction failed")
	// ErrExport marks archive construction failures. The whole export fails;
	// no partial archive is ever returned.
	ErrExport    = errors.New("export failed")
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
