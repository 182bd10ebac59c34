package ns1

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrBadMagic is returned when the stream does not start with the
	// NetStumbler signature.
	ErrBadMagic = errors.New("ns1: not a NetStumbler .ns1 file")

	// ErrUnsupportedVersion is returned for format versions outside 1..MaxVersion.
	ErrUnsupportedVersion = errors.New("ns1: unsupported file format version")

	// ErrShortRead is matched by every *ShortReadError.
	ErrShortRead = errors.New("ns1: short read")

	// ErrLimitExceeded is returned when a declared count or length is larger
	// than the decoder's configured limit.
	ErrLimitExceeded = errors.New("ns1: declared size exceeds limit")
)

// ShortReadError describes a field that could not be read in full.
type ShortReadError struct {
	Field  string
	Offset int64 // stream offset where the field started
	Want   int64
	Got    int64
	Err    error // io.EOF when Got == 0, io.ErrUnexpectedEOF otherwise
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("ns1: short read of %s at offset %#x: got %d of %d bytes", e.Field, e.Offset, e.Got, e.Want)
}

// Is reports whether target is ErrShortRead.
func (e *ShortReadError) Is(target error) bool {
	return target == ErrShortRead
}

func (e *ShortReadError) Unwrap() error {
	return e.Err
}

// AtBoundary reports whether the stream ended cleanly before the field
// started, as opposed to ending partway through it.
func (e *ShortReadError) AtBoundary() bool {
	return e.Got == 0 && e.Err == io.EOF
}

// UnsupportedVersionError carries the offending version.
type UnsupportedVersionError struct {
	Version uint32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("ns1: NetStumbler version %d files not supported (max %d)", e.Version, MaxVersion)
}

func (e *UnsupportedVersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}

// LimitError names the count that was refused.
type LimitError struct {
	What     string
	Declared uint64
	Limit    uint64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("ns1: %s %d exceeds limit %d", e.What, e.Declared, e.Limit)
}

func (e *LimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}
