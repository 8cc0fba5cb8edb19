package gzinfo

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrFormat is returned when bytes that are not a gzip member appear
	// where a member (or a clean end of file) was expected.
	ErrFormat = errors.New("gzinfo: not a gzip member")

	// ErrTruncated is returned when the file ends in the middle of a header,
	// a compressed stream or a trailer.
	ErrTruncated = errors.New("gzinfo: unexpected end of file")

	// ErrCorruptStream is returned when the deflate decoder rejects the
	// compressed data.
	ErrCorruptStream = errors.New("gzinfo: corrupt deflate stream")

	// ErrIO is returned when the underlying file fails to read or seek.
	ErrIO = errors.New("gzinfo: i/o error")

	// ErrNotMember is returned by ParseHeader when the two bytes at the
	// current position are not the gzip magic. The assembler turns it into
	// ErrFormat.
	ErrNotMember = errors.New("gzinfo: missing gzip magic")

	// ErrMethod is returned by ParseHeader for a compression method other
	// than deflate.
	ErrMethod = errors.New("gzinfo: unsupported compression method")
)

// Stage names the part of a member being processed when an error occurred.
type Stage string

const (
	StageHeader  Stage = "header"
	StageStream  Stage = "stream"
	StageTrailer Stage = "trailer"
)

// Error is a structural failure. Kind is one of ErrFormat, ErrTruncated,
// ErrCorruptStream or ErrIO.
type Error struct {
	Kind   error
	Stage  Stage
	Member int   // zero-based index of the member being parsed
	Offset int64 // absolute file offset where the failure was detected
	Err    error // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%v in %s of member %d at offset %d", e.Kind, e.Stage, e.Member, e.Offset)
	if e.Err != nil && e.Err != e.Kind {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// classify maps an error from one of the stages onto the taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrIO):
		return ErrIO
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrMethod), errors.Is(err, ErrFormat):
		return ErrFormat
	case errors.Is(err, ErrCorruptStream):
		return ErrCorruptStream
	case errors.Is(err, ErrTruncated), err == io.EOF, errors.Is(err, io.ErrUnexpectedEOF):
		return ErrTruncated
	default:
		return ErrIO
	}
}

// ioFailure is an I/O error that matches both ErrIO and its cause.
type ioFailure struct {
	err error
}

func (e *ioFailure) Error() string   { return e.err.Error() }
func (e *ioFailure) Unwrap() []error { return []error{ErrIO, e.err} }

// markIO tags err as an I/O failure. io.EOF is left alone.
func markIO(err error) error {
	if err == nil || err == io.EOF || errors.Is(err, ErrIO) {
		return err
	}
	return &ioFailure{err: err}
}
