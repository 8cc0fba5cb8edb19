package gzinfo

import (
	"bufio"
	"hash/crc32"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

const (
	// DefaultChunkSize is the size of each compressed read from the file.
	DefaultChunkSize = 16 * 1024

	// DefaultOutputSize is the size of the decoder's output buffer.
	DefaultOutputSize = 32 * 1024
)

// feeder hands fixed-size chunks read from a ByteReader to the inflater,
// one byte or one slice at a time. Whatever remains between pos and end
// was read from the file but not consumed by the decoder.
type feeder struct {
	src ByteReader
	buf []byte
	pos int
	end int
	err error // sticky error from src
}

func (f *feeder) reset(src ByteReader) {
	f.src = src
	f.pos, f.end = 0, 0
	f.err = nil
}

func (f *feeder) fill() error {
	if f.err != nil {
		return f.err
	}
	n, err := f.src.Read(f.buf)
	f.pos, f.end = 0, n
	if err != nil {
		f.err = err
		if n == 0 {
			return err
		}
	}
	return nil
}

func (f *feeder) ReadByte() (byte, error) {
	if f.pos == f.end {
		if err := f.fill(); err != nil {
			return 0, err
		}
	}
	c := f.buf[f.pos]
	f.pos++
	return c, nil
}

func (f *feeder) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if f.pos == f.end {
		if err := f.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, f.buf[f.pos:f.end])
	f.pos += n
	return n, nil
}

// unconsumed returns the lookahead left in the most recent chunk.
func (f *feeder) unconsumed() []byte {
	return f.buf[f.pos:f.end]
}

// StreamResult describes one decoded deflate stream.
type StreamResult struct {
	Start            int64  // offset of the first deflate byte
	CompressedSize   int64  // deflate bytes between header and trailer
	UncompressedSize uint64 // bytes produced by the decoder
	CRC32            uint32 // CRC-32 (IEEE) of the produced bytes
	Blocks           int64  // non-final block boundaries seen, -1 if unknown
	ContentHash      uint64 // xxhash64 of the produced bytes, when enabled
	Unconsumed       int    // lookahead bytes read past the end of the stream
}

// DecoderDriver runs an Inflater over one member's compressed stream.
// A driver is reused across the members of one file but is never shared
// between files.
type DecoderDriver struct {
	inf     Inflater
	feed    feeder
	out     []byte
	rewind  bool
	blocks  bool
	hash    bool
	nblocks int64
	digest  *xxhash.Digest
	left    []byte
	scan    *bufio.Reader
}

// DriverOption configures a DecoderDriver.
type DriverOption func(*DecoderDriver)

// WithChunkSize sets the size of each compressed read.
func WithChunkSize(n int) DriverOption {
	return func(d *DecoderDriver) {
		if n > 0 {
			d.feed.buf = make([]byte, n)
		}
	}
}

// WithOutputSize sets the size of the decoder's output buffer.
func WithOutputSize(n int) DriverOption {
	return func(d *DecoderDriver) {
		if n > 0 {
			d.out = make([]byte, n)
		}
	}
}

// WithLeftover makes the driver keep the unconsumed lookahead instead of
// seeking back over it. The caller must then pass Leftover to ReadTrailer.
func WithLeftover() DriverOption {
	return func(d *DecoderDriver) { d.rewind = false }
}

// WithBlockCount enables counting of non-final deflate blocks. Inflaters
// implementing BlockObserver report them while decoding; for any other
// inflater the driver walks the stream's block structure a second time
// with ScanBlocks.
func WithBlockCount() DriverOption {
	return func(d *DecoderDriver) { d.blocks = true }
}

// WithContentHash enables an xxhash64 fingerprint of the produced bytes.
func WithContentHash() DriverOption {
	return func(d *DecoderDriver) { d.hash = true }
}

func NewDecoderDriver(inf Inflater, opts ...DriverOption) *DecoderDriver {
	if inf == nil {
		inf = NewFlateInflater()
	}
	d := &DecoderDriver{inf: inf, rewind: true}
	for _, opt := range opts {
		opt(d)
	}
	if d.feed.buf == nil {
		d.feed.buf = make([]byte, DefaultChunkSize)
	}
	if d.out == nil {
		d.out = make([]byte, DefaultOutputSize)
	}
	if d.hash {
		d.digest = xxhash.New()
	}
	if bo, ok := inf.(BlockObserver); ok && d.blocks {
		bo.SetBlockHook(func(final bool) {
			if !final {
				d.nblocks++
			}
		})
	}
	return d
}

// Leftover returns the lookahead kept by the last Decode when the driver
// was built WithLeftover. The slice is only valid until the next Decode.
func (d *DecoderDriver) Leftover() []byte {
	return d.left
}

// Decode inflates the stream starting at br's current offset. Unless the
// driver keeps leftovers, br is then moved back over the unconsumed
// lookahead so that it sits right after the last deflate byte.
func (d *DecoderDriver) Decode(br ByteReader) (StreamResult, error) {
	res := StreamResult{Start: br.Tell(), Blocks: -1}
	d.feed.reset(br)
	d.left = nil
	d.nblocks = 0
	if d.digest != nil {
		d.digest.Reset()
	}
	if err := d.inf.Reset(&d.feed); err != nil {
		return res, d.streamError(err)
	}

	for {
		n, end, err := d.inf.Inflate(d.out)
		if n > 0 {
			res.CRC32 = crc32.Update(res.CRC32, crc32.IEEETable, d.out[:n])
			res.UncompressedSize += uint64(n)
			if d.digest != nil {
				d.digest.Write(d.out[:n])
			}
		}
		if err != nil {
			return res, d.streamError(err)
		}
		if end {
			break
		}
	}

	left := d.feed.unconsumed()
	res.Unconsumed = len(left)
	res.CompressedSize = br.Tell() - int64(res.Unconsumed) - res.Start
	if d.digest != nil {
		res.ContentHash = d.digest.Sum64()
	}

	if d.rewind {
		if err := br.SeekRelative(-int64(res.Unconsumed)); err != nil {
			return res, markIO(err)
		}
	} else {
		d.left = left
	}

	if d.blocks {
		if _, ok := d.inf.(BlockObserver); ok {
			res.Blocks = d.nblocks
		} else {
			n, err := d.countBlocks(br, res.Start, res.CompressedSize)
			if err != nil {
				return res, err
			}
			res.Blocks = n
		}
	}
	return res, nil
}

// countBlocks rereads the compressed bytes at [start, start+size) with
// ScanBlocks and puts br back where it was.
func (d *DecoderDriver) countBlocks(br ByteReader, start, size int64) (int64, error) {
	here := br.Tell()
	if err := br.SeekRelative(start - here); err != nil {
		return -1, markIO(err)
	}

	src := io.LimitReader(br, size)
	if d.scan == nil {
		d.scan = bufio.NewReaderSize(src, len(d.feed.buf))
	} else {
		d.scan.Reset(src)
	}

	var n int64
	err := ScanBlocks(d.scan, func(final bool) {
		if !final {
			n++
		}
	})
	if err != nil {
		if errors.Is(err, ErrIO) {
			return -1, err
		}
		return -1, errors.Wrap(ErrCorruptStream, err.Error())
	}

	if err := br.SeekRelative(here - br.Tell()); err != nil {
		return -1, markIO(err)
	}
	return n, nil
}

func (d *DecoderDriver) streamError(err error) error {
	if d.feed.err != nil && d.feed.err != io.EOF {
		return markIO(d.feed.err)
	}
	var cie flate.CorruptInputError
	switch {
	case errors.As(err, &cie):
		return errors.Wrap(ErrCorruptStream, err.Error())
	case err == io.EOF, errors.Is(err, io.ErrUnexpectedEOF):
		return errors.Wrap(ErrTruncated, "compressed stream")
	case d.feed.err == io.EOF:
		return errors.Wrap(ErrTruncated, err.Error())
	default:
		return errors.Wrap(ErrCorruptStream, err.Error())
	}
}
