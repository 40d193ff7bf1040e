package executor

import (
	"errors"
	"fmt"

	"github.com/roach88/kvquery/internal/keys"
)

// DecodeError reports a stored entry that could not be turned into a row.
type DecodeError struct {
	// Key is the raw stored key.
	Key []byte

	// Err is the underlying key or row decode failure.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if dk, err := keys.DecodeDataKey(e.Key); err == nil {
		return fmt.Sprintf("decode row %s: %v", dk, e.Err)
	}
	return fmt.Sprintf("decode row %x: %v", e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if err is or wraps a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
