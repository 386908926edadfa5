package chunks

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by every pipeline call after Finish, until
// Reset rebuilds the inner pipeline.
var ErrNotInitialized = errors.New("chunk executor not initialized")

// InvalidChunkError indicates rejected input: an empty chunk, a missing first
// version, a version discontinuity or a failed proof verification. The
// pipeline state is unchanged; the caller must supply corrected input.
type InvalidChunkError struct {
	err error
}

func NewInvalidChunkErrorf(msg string, args ...interface{}) error {
	return InvalidChunkError{err: fmt.Errorf(msg, args...)}
}

func (e InvalidChunkError) Error() string {
	return fmt.Sprintf("invalid chunk: %s", e.err.Error())
}

func (e InvalidChunkError) Unwrap() error {
	return e.err
}

// IsInvalidChunkError returns whether the given error is an InvalidChunkError.
func IsInvalidChunkError(err error) bool {
	var errInvalidChunk InvalidChunkError
	return errors.As(err, &errInvalidChunk)
}

// ConsistencyError indicates a fatal internal inconsistency: an overlapping
// accumulator extension, a transaction info mismatch, or an unexpected
// discard/retry set. The pipeline state is left as-is; the recommended
// recovery is Reset.
type ConsistencyError struct {
	err error
}

func NewConsistencyErrorf(msg string, args ...interface{}) error {
	return ConsistencyError{err: fmt.Errorf(msg, args...)}
}

func (e ConsistencyError) Error() string {
	return fmt.Sprintf("pipeline consistency violation (reset to recover): %s", e.err.Error())
}

func (e ConsistencyError) Unwrap() error {
	return e.err
}

// IsConsistencyError returns whether the given error is a ConsistencyError.
func IsConsistencyError(err error) bool {
	var errConsistency ConsistencyError
	return errors.As(err, &errConsistency)
}
