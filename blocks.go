package gzinfo

import (
	"io"

	"github.com/pkg/errors"
)

const (
	maxCodeLen = 15
	maxNumLit  = 288
	maxNumDist = 32
	numCodes   = 19
	endOfBlock = 256
)

// Order in which code length code lengths are stored (RFC 1951 3.2.7).
var codeOrder = [numCodes]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// Extra bits following length symbols 257..285 and distance symbols 0..29.
var lengthExtra = [29]uint{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}
var distExtra = [30]uint{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}

var errBlockScan = errors.New("invalid deflate block structure")

// huffman is a canonical prefix code: the number of codes of each length
// and the symbols ordered by code.
type huffman struct {
	count  [maxCodeLen + 1]int
	symbol []int
}

func (h *huffman) init(lengths []int) error {
	h.count = [maxCodeLen + 1]int{}
	for _, l := range lengths {
		h.count[l]++
	}
	if h.count[0] == len(lengths) {
		// No codes at all. Legal for a distance code of a block without
		// matches; decoding from it fails.
		h.symbol = h.symbol[:0]
		return nil
	}

	left := 1
	for l := 1; l <= maxCodeLen; l++ {
		left <<= 1
		left -= h.count[l]
		if left < 0 {
			return errors.Wrap(errBlockScan, "over-subscribed code")
		}
	}

	var offs [maxCodeLen + 1]int
	for l := 1; l < maxCodeLen; l++ {
		offs[l+1] = offs[l] + h.count[l]
	}
	h.symbol = h.symbol[:0]
	for i := 0; i < len(lengths); i++ {
		h.symbol = append(h.symbol, 0)
	}
	for sym, l := range lengths {
		if l != 0 {
			h.symbol[offs[l]] = sym
			offs[l]++
		}
	}
	return nil
}

// blockScanner walks the block structure of a raw deflate stream without
// producing any output. Like a decoder reading through an io.ByteReader,
// it pulls only the bytes the stream occupies.
type blockScanner struct {
	r  io.ByteReader
	b  uint32
	nb uint

	lit, dist, codes huffman
	lengths          [maxNumLit + maxNumDist]int
}

// ScanBlocks reads one raw deflate stream from r and calls onBlockEnd at
// the end of every block, with final set for the last one. It returns
// when the final block ends, leaving r right after the stream.
func ScanBlocks(r io.ByteReader, onBlockEnd func(final bool)) error {
	s := &blockScanner{r: r}
	return s.scan(onBlockEnd)
}

func (s *blockScanner) scan(onBlockEnd func(final bool)) error {
	for {
		hdr, err := s.bits(3)
		if err != nil {
			return err
		}
		final := hdr&1 == 1

		switch hdr >> 1 {
		case 0:
			err = s.stored()
		case 1:
			err = s.fixed()
		case 2:
			err = s.dynamic()
		default:
			err = errors.Wrap(errBlockScan, "reserved block type")
		}
		if err != nil {
			return err
		}

		if onBlockEnd != nil {
			onBlockEnd(final)
		}
		if final {
			return nil
		}
	}
}

func (s *blockScanner) bits(n uint) (uint32, error) {
	for s.nb < n {
		c, err := s.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		s.b |= uint32(c) << s.nb
		s.nb += 8
	}
	v := s.b & (1<<n - 1)
	s.b >>= n
	s.nb -= n
	return v, nil
}

func (s *blockScanner) stored() error {
	// Bytes are only read on demand, so fewer than 8 bits remain.
	s.b, s.nb = 0, 0

	var hdr [4]byte
	for i := range hdr {
		c, err := s.r.ReadByte()
		if err != nil {
			return noEOF(err)
		}
		hdr[i] = c
	}
	n := le.Uint16(hdr[0:2])
	if n != ^le.Uint16(hdr[2:4]) {
		return errors.Wrap(errBlockScan, "stored length mismatch")
	}
	for ; n > 0; n-- {
		if _, err := s.r.ReadByte(); err != nil {
			return noEOF(err)
		}
	}
	return nil
}

func (s *blockScanner) fixed() error {
	l := s.lengths[:maxNumLit]
	for i := range l {
		switch {
		case i < 144:
			l[i] = 8
		case i < 256:
			l[i] = 9
		case i < 280:
			l[i] = 7
		default:
			l[i] = 8
		}
	}
	if err := s.lit.init(l); err != nil {
		return err
	}
	d := s.lengths[maxNumLit : maxNumLit+30]
	for i := range d {
		d[i] = 5
	}
	if err := s.dist.init(d); err != nil {
		return err
	}
	return s.codesUntilEnd()
}

func (s *blockScanner) dynamic() error {
	v, err := s.bits(14)
	if err != nil {
		return err
	}
	nlit := int(v&0x1f) + 257
	ndist := int(v>>5&0x1f) + 1
	nclen := int(v>>10) + 4
	if nlit > 286 || ndist > 30 {
		return errors.Wrap(errBlockScan, "too many codes")
	}

	var cl [numCodes]int
	for i := 0; i < nclen; i++ {
		x, err := s.bits(3)
		if err != nil {
			return err
		}
		cl[codeOrder[i]] = int(x)
	}
	if err := s.codes.init(cl[:]); err != nil {
		return err
	}

	l := s.lengths[:nlit+ndist]
	for i := 0; i < len(l); {
		sym, err := s.decode(&s.codes)
		if err != nil {
			return err
		}
		if sym < 16 {
			l[i] = sym
			i++
			continue
		}

		var rep, val int
		switch sym {
		case 16:
			if i == 0 {
				return errors.Wrap(errBlockScan, "repeat with no previous length")
			}
			x, err := s.bits(2)
			if err != nil {
				return err
			}
			rep, val = 3+int(x), l[i-1]
		case 17:
			x, err := s.bits(3)
			if err != nil {
				return err
			}
			rep = 3 + int(x)
		default:
			x, err := s.bits(7)
			if err != nil {
				return err
			}
			rep = 11 + int(x)
		}
		if i+rep > len(l) {
			return errors.Wrap(errBlockScan, "code lengths overflow")
		}
		for ; rep > 0; rep-- {
			l[i] = val
			i++
		}
	}
	if l[endOfBlock] == 0 {
		return errors.Wrap(errBlockScan, "no end-of-block code")
	}

	if err := s.lit.init(l[:nlit]); err != nil {
		return err
	}
	if err := s.dist.init(l[nlit:]); err != nil {
		return err
	}
	return s.codesUntilEnd()
}

// codesUntilEnd skips literal, length and distance codes up to and
// including the end-of-block code.
func (s *blockScanner) codesUntilEnd() error {
	for {
		sym, err := s.decode(&s.lit)
		if err != nil {
			return err
		}
		switch {
		case sym < endOfBlock:
			continue
		case sym == endOfBlock:
			return nil
		case sym > 285:
			return errors.Wrap(errBlockScan, "invalid length symbol")
		}
		if _, err := s.bits(lengthExtra[sym-257]); err != nil {
			return err
		}

		d, err := s.decode(&s.dist)
		if err != nil {
			return err
		}
		if d >= len(distExtra) {
			return errors.Wrap(errBlockScan, "invalid distance symbol")
		}
		if _, err := s.bits(distExtra[d]); err != nil {
			return err
		}
	}
}

// decode reads one symbol, a bit at a time. Huffman codes are packed
// starting with the most significant bit of the code.
func (s *blockScanner) decode(h *huffman) (int, error) {
	code, first, index := 0, 0, 0
	for l := 1; l <= maxCodeLen; l++ {
		b, err := s.bits(1)
		if err != nil {
			return 0, err
		}
		code |= int(b)
		count := h.count[l]
		if code-count < first {
			return h.symbol[index+code-first], nil
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, errors.Wrap(errBlockScan, "invalid code")
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
