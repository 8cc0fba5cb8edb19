package gzinfo

import (
	"io"

	"github.com/pkg/errors"
)

// ByteReader is a sequential, seekable byte source that always knows its
// absolute offset. It does no buffering of its own, so the offset it
// reports is the offset of the underlying file.
type ByteReader interface {
	// Read reads up to len(p) bytes. It returns fewer only at end of file
	// (err == io.EOF) or on failure (any other error).
	Read(p []byte) (n int, err error)

	// Tell returns the current absolute offset.
	Tell() int64

	// SeekRelative moves the cursor by delta bytes. It fails if the result
	// would precede the start of the file.
	//
	// Failures of the underlying file in Read and SeekRelative match
	// ErrIO.
	SeekRelative(delta int64) error
}

// FileReader is the ByteReader used over files and other io.ReadSeekers.
type FileReader struct {
	r   io.ReadSeeker
	off int64
}

var _ ByteReader = (*FileReader)(nil)

// NewByteReader returns a ByteReader positioned at r's current offset.
func NewByteReader(r io.ReadSeeker) (*FileReader, error) {
	off, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(err, "locating start offset")
	}
	return &FileReader{r: r, off: off}, nil
}

func (fr *FileReader) Read(p []byte) (int, error) {
	n, err := io.ReadFull(fr.r, p)
	fr.off += int64(n)
	switch err {
	case nil:
		return n, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return n, io.EOF
	default:
		return n, markIO(errors.Wrapf(err, "reading %d bytes at offset %d", len(p), fr.off))
	}
}

// ReadByte reads a single byte. Header strings are read this way.
func (fr *FileReader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := fr.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (fr *FileReader) Tell() int64 {
	return fr.off
}

func (fr *FileReader) SeekRelative(delta int64) error {
	if delta == 0 {
		return nil
	}
	if fr.off+delta < 0 {
		return errors.Errorf("seek by %d from offset %d precedes start of file", delta, fr.off)
	}
	off, err := fr.r.Seek(delta, io.SeekCurrent)
	if err != nil {
		return markIO(errors.Wrapf(err, "seeking by %d from offset %d", delta, fr.off))
	}
	fr.off = off
	return nil
}

// readByte reads one byte from any ByteReader.
func readByte(br ByteReader) (byte, error) {
	if rb, ok := br.(io.ByteReader); ok {
		return rb.ReadByte()
	}
	var b [1]byte
	if _, err := br.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}
