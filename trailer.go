package gzinfo

import (
	"io"

	"github.com/pkg/errors"
)

// TrailerSize is the length of a member trailer: CRC-32 then ISIZE.
const TrailerSize = 8

// TrailerStrategy selects where trailer bytes come from.
type TrailerStrategy int

const (
	// TrailerSeekBack rewinds the file over the decoder's lookahead and
	// reads all eight trailer bytes fresh.
	TrailerSeekBack TrailerStrategy = iota

	// TrailerSiphon takes trailer bytes from the decoder's lookahead first
	// and reads only the remainder from the file.
	TrailerSiphon
)

func (s TrailerStrategy) String() string {
	switch s {
	case TrailerSeekBack:
		return "seek-back"
	case TrailerSiphon:
		return "siphon"
	}
	return "unknown"
}

// Trailer is the pair of values stored after a member's deflate stream.
type Trailer struct {
	CRC32  uint32
	ISize  uint32 // uncompressed size modulo 2^32
	Offset int64  // absolute offset of the first trailer byte
}

// ReadTrailer reads the eight trailer bytes. leftover holds bytes the
// decoder read past the end of its stream and that br has already moved
// past; it is empty when the driver seeked back. Trailer bytes are taken
// from leftover first. Leftover bytes beyond the trailer belong to the
// next member, so br is moved back over them. Either way br ends right
// after the trailer.
func ReadTrailer(br ByteReader, leftover []byte) (Trailer, error) {
	var buf [TrailerSize]byte
	t := Trailer{Offset: br.Tell() - int64(len(leftover))}

	n := copy(buf[:], leftover)
	if extra := len(leftover) - n; extra > 0 {
		if err := br.SeekRelative(-int64(extra)); err != nil {
			return t, markIO(err)
		}
	}

	if n < TrailerSize {
		if _, err := br.Read(buf[n:]); err != nil {
			if err == io.EOF {
				return t, errors.Wrap(ErrTruncated, "reading trailer")
			}
			return t, markIO(err)
		}
	}

	t.CRC32 = le.Uint32(buf[:4])
	t.ISize = le.Uint32(buf[4:8])
	return t, nil
}
