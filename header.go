package gzinfo

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"
)

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8
)

var le = binary.LittleEndian

// Flags is the FLG byte of a member header.
type Flags byte

const (
	FlagText    Flags = 1 << 0
	FlagHdrCRC  Flags = 1 << 1
	FlagExtra   Flags = 1 << 2
	FlagName    Flags = 1 << 3
	FlagComment Flags = 1 << 4

	flagReserved Flags = 0xe0
)

var flagNames = []struct {
	f    Flags
	name string
}{
	{FlagText, "FTEXT"},
	{FlagHdrCRC, "FHCRC"},
	{FlagExtra, "FEXTRA"},
	{FlagName, "FNAME"},
	{FlagComment, "FCOMMENT"},
}

func (f Flags) Has(bit Flags) bool {
	return f&bit != 0
}

// Reserved returns the bits RFC 1952 requires to be zero.
func (f Flags) Reserved() Flags {
	return f & flagReserved
}

func (f Flags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.f) {
			parts = append(parts, fn.name)
		}
	}
	if r := f.Reserved(); r != 0 {
		parts = append(parts, fmt.Sprintf("RESERVED(%#02x)", byte(r)))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Header holds the parsed fields of one member header. Name and Comment
// are only meaningful when the matching flag is set.
type Header struct {
	Method   byte   `json:"method"`
	Flags    Flags  `json:"flags"`
	MTime    uint32 `json:"mtime"` // seconds since the epoch, 0 when absent
	XFlags   byte   `json:"xflags"`
	OS       byte   `json:"os"`
	Name     string `json:"name,omitempty"`
	Comment  string `json:"comment,omitempty"`
	ExtraLen int    `json:"extra_len,omitempty"` // length of the FEXTRA payload, which is skipped

	Offset int64 `json:"offset"` // absolute offset of the magic
	Size   int64 `json:"size"`   // header length in bytes, magic included
}

// ModTime returns MTime as a time, or the zero time when it is absent.
func (h *Header) ModTime() time.Time {
	if h.MTime == 0 {
		return time.Time{}
	}
	return time.Unix(int64(h.MTime), 0).UTC()
}

// EncoderHint interprets XFL for deflate: 2 means the compressor used its
// slowest setting, 4 its fastest. It returns "" for anything else.
func (h *Header) EncoderHint() string {
	switch h.XFlags {
	case 2:
		return "max"
	case 4:
		return "fast"
	}
	return ""
}

// OSName returns a readable name for the OS byte.
func (h *Header) OSName() string {
	if int(h.OS) < len(osNames) {
		return osNames[h.OS]
	}
	if h.OS == 255 {
		return "unknown"
	}
	return "undefined"
}

var osNames = []string{
	"FAT", "Amiga", "VMS", "Unix", "VM/CMS", "Atari TOS", "HPFS", "Macintosh",
	"Z-System", "CP/M", "TOPS-20", "NTFS", "QDOS", "Acorn RISCOS",
}

// ParseHeader reads a member header from br. It returns io.EOF when br is
// already at end of file, an error wrapping ErrNotMember when the magic is
// missing, and an error wrapping ErrTruncated when the file ends inside
// the header. On success br is positioned at the first deflate byte.
func ParseHeader(br ByteReader) (*Header, error) {
	h := &Header{Offset: br.Tell()}

	var buf [10]byte
	n, err := br.Read(buf[:2])
	switch {
	case n == 0 && err == io.EOF:
		return nil, io.EOF
	case err == io.EOF:
		return nil, errors.Wrap(ErrTruncated, "reading magic")
	case err != nil:
		return nil, markIO(err)
	}
	if buf[0] != gzipID1 || buf[1] != gzipID2 {
		return nil, errors.Wrapf(ErrNotMember, "found %#02x %#02x", buf[0], buf[1])
	}

	if err := readFull(br, buf[2:10], "fixed header"); err != nil {
		return nil, err
	}
	h.Method = buf[2]
	h.Flags = Flags(buf[3])
	h.MTime = le.Uint32(buf[4:8])
	h.XFlags = buf[8]
	h.OS = buf[9]
	if h.Method != gzipDeflate {
		return nil, errors.Wrapf(ErrMethod, "method %d", h.Method)
	}

	if h.Flags.Has(FlagExtra) {
		if err := readFull(br, buf[:2], "extra length"); err != nil {
			return nil, err
		}
		h.ExtraLen = int(le.Uint16(buf[:2]))
		if err := skip(br, h.ExtraLen); err != nil {
			return nil, err
		}
	}

	if h.Flags.Has(FlagName) {
		if h.Name, err = readString(br); err != nil {
			return nil, errors.WithMessage(err, "reading file name")
		}
	}

	if h.Flags.Has(FlagComment) {
		if h.Comment, err = readString(br); err != nil {
			return nil, errors.WithMessage(err, "reading comment")
		}
	}

	// The header CRC is optional and not verified.
	if h.Flags.Has(FlagHdrCRC) {
		if err := readFull(br, buf[:2], "header crc"); err != nil {
			return nil, err
		}
	}

	h.Size = br.Tell() - h.Offset
	return h, nil
}

func readFull(br ByteReader, p []byte, what string) error {
	if _, err := br.Read(p); err != nil {
		if err == io.EOF {
			return errors.Wrapf(ErrTruncated, "reading %s", what)
		}
		return markIO(err)
	}
	return nil
}

// skip reads and discards n bytes. It reads rather than seeks so that an
// extra field running past end of file is detected.
func skip(br ByteReader, n int) error {
	var discard [256]byte
	for n > 0 {
		m := min(n, len(discard))
		if err := readFull(br, discard[:m], "extra field"); err != nil {
			return err
		}
		n -= m
	}
	return nil
}

// readString reads a NUL-terminated string. The NUL is consumed but not
// returned.
func readString(br ByteReader) (string, error) {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	for {
		c, err := readByte(br)
		if err != nil {
			if err == io.EOF {
				return "", errors.Wrap(ErrTruncated, "unterminated string")
			}
			return "", markIO(err)
		}
		if c == 0 {
			// Copy out before bb goes back to the pool.
			return string(bb.B), nil
		}
		bb.B = append(bb.B, c)
	}
}
