package gzinfo

import (
	"io"

	"github.com/klauspost/compress/flate"
)

// Source is what an Inflater reads compressed bytes from. Because it is an
// io.ByteReader, a conforming decoder never pulls more bytes out of it
// than the stream occupies, and whatever is still buffered in the Source
// when the stream ends is exactly the unconsumed lookahead.
type Source interface {
	io.Reader
	io.ByteReader
}

// Inflater is a resettable raw-deflate decoder.
type Inflater interface {
	// Reset discards any previous stream and starts decoding a new one
	// from src.
	Reset(src Source) error

	// Inflate decodes into out until out is full or the stream ends.
	// end is true once the final block has been fully produced.
	Inflate(out []byte) (n int, end bool, err error)
}

// BlockObserver is implemented by inflaters that can report deflate block
// boundaries. The hook is called once per block with final set for the
// last block of the stream.
type BlockObserver interface {
	SetBlockHook(fn func(final bool))
}

type flateInflater struct {
	fr io.ReadCloser
}

// NewFlateInflater returns an Inflater backed by klauspost/compress/flate.
// It does not implement BlockObserver.
func NewFlateInflater() Inflater {
	return &flateInflater{}
}

func (fi *flateInflater) Reset(src Source) error {
	if fi.fr == nil {
		fi.fr = flate.NewReader(src)
		return nil
	}
	return fi.fr.(flate.Resetter).Reset(src, nil)
}

func (fi *flateInflater) Inflate(out []byte) (int, bool, error) {
	n := 0
	for n < len(out) {
		m, err := fi.fr.Read(out[n:])
		n += m
		if err == io.EOF {
			return n, true, nil
		}
		if err != nil {
			return n, false, err
		}
	}
	return n, false, nil
}
