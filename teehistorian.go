package teehistorian

import (
	"fmt"

	"github.com/pkg/errors"
)

// MaxClients is the default upper bound (exclusive) for client IDs.
const MaxClients = 64

// InputSize is the number of integers in a player input record.
const InputSize = 10

// minHeaderSize is the magic UUID plus the header terminator.
const minHeaderSize = 16 + 1

// Magic is the UUID every teehistorian stream starts with.
var Magic = CalculateUUID("teehistorian@ddnet.tw")

var (
	// ErrHeaderLocked is returned when the header is modified after it was
	// finalized by a write or an output call.
	ErrHeaderLocked = errors.New("teehistorian: header is locked")

	// ErrWriterClosed is returned by writes on a closed writer.
	ErrWriterClosed = errors.New("teehistorian: writer is closed")

	// ErrVarintOverlong is returned for integers encoded in more than 5 bytes.
	ErrVarintOverlong = errors.New("teehistorian: overlong varint")

	// ErrNegativeLength is returned when a length prefix is negative.
	ErrNegativeLength = errors.New("teehistorian: negative length")
)

var (
	errUnknownTag       = errors.New("teehistorian: unknown chunk tag")
	errUnterminated     = errors.New("teehistorian: unterminated string")
	errTrailingData     = errors.New("teehistorian: trailing data in extension payload")
	errMissingGenericID = errors.New("teehistorian: generic chunk has no uuid")
)

// ValidationError reports malformed input detected independently of the
// stream position.
type ValidationError struct {
	Msg string
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return "teehistorian: " + e.Msg }

// IsValidation returns true if err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseError reports structural corruption found while decoding chunks.
type ParseError struct {
	Offset int   // offset of the chunk start
	Tag    int32 // offending tag, if it could be read
	Err    error // underlying cause
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("teehistorian: parse error at offset %d (tag %d): %v", e.Offset, e.Tag, e.Err)
}

// Unwrap exposes the cause.
func (e *ParseError) Unwrap() error { return e.Err }

// Cause implements the github.com/pkg/errors causer interface.
func (e *ParseError) Cause() error { return e.Err }

// FileError reports a failed file operation.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("teehistorian: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes the cause.
func (e *FileError) Unwrap() error { return e.Err }

// Cause implements the github.com/pkg/errors causer interface.
func (e *FileError) Cause() error { return e.Err }
