package gzinfo

import (
	"bufio"
	"io"
)

// DefaultPeekSize is how many bytes IsProbablyGzip looks at.
const DefaultPeekSize = 3

// Returns true if r starts with the gzip magic followed by the deflate
// method byte. It consumes up to DefaultPeekSize bytes from r unless r is
// a *bufio.Reader, in which case it only peeks.
//
// This is a cheap filter for picking candidate files; it says nothing
// about whether the rest of the file is well formed. Use an Assembler for
// that.
func IsProbablyGzip(r io.Reader) bool {
	var magic []byte
	if br, ok := r.(*bufio.Reader); ok {
		b, err := br.Peek(DefaultPeekSize)
		if err != nil {
			return false
		}
		magic = b
	} else {
		var buf [DefaultPeekSize]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return false
		}
		magic = buf[:]
	}

	// Bounds check hint to compiler; see golang.org/issue/14808
	_ = magic[2]

	return magic[0] == gzipID1 &&
		magic[1] == gzipID2 &&
		magic[2] == gzipDeflate
}
