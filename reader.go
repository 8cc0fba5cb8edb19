package gzinfo

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

var (
	errWrongOffset = errors.New("the offset does not appear to match the gzip layout")
)

// Offset represents a point in the decompressed stream of one member.
// Block is the file offset of the member's magic (Member.Offset) and Off
// a position within that member's output.
type Offset struct {
	Block int64
	Off   int64
}

// A MemberReader reads the decompressed bytes of a single member, using
// the offsets found by an Assembler. Reads stop with io.EOF at the end of
// that member; the decoder verifies the member's own trailer and returns
// gzip.ErrChecksum on mismatch.
type MemberReader struct {
	gz    *gzip.Reader
	r     io.ReadSeeker
	noff  int64
	block int64
}

// OpenMember returns a reader positioned at the start of m's output.
func OpenMember(r io.ReadSeeker, m *Member) (*MemberReader, error) {
	mr := &MemberReader{r: r}
	if err := mr.Seek(Offset{Block: m.Offset}); err != nil {
		return nil, err
	}
	return mr, nil
}

func (mr *MemberReader) Read(data []byte) (int, error) {
	if mr.gz == nil {
		return 0, io.EOF
	}
	n, err := mr.gz.Read(data)
	mr.noff += int64(n)
	return n, err
}

func (mr *MemberReader) Close() error {
	if mr.gz == nil {
		return nil
	}
	gz := mr.gz
	mr.gz = nil
	return gz.Close()
}

func (mr *MemberReader) Offset() Offset {
	return Offset{Block: mr.block, Off: mr.noff}
}

// Seek moves to o. Moving forward within the current member decodes and
// discards; anything else restarts decoding at o.Block.
func (mr *MemberReader) Seek(o Offset) error {
	cur := mr.Offset()
	if mr.gz != nil && cur.Block == o.Block && cur.Off <= o.Off {
		_, err := io.CopyN(io.Discard, mr, o.Off-cur.Off)
		return err
	}

	if _, err := mr.r.Seek(o.Block, io.SeekStart); err != nil {
		return errors.Wrapf(err, "seeking to member at %d", o.Block)
	}

	if mr.gz == nil {
		gz, err := gzip.NewReader(mr.r)
		if err != nil {
			return errors.Wrap(errWrongOffset, err.Error())
		}
		mr.gz = gz
	} else {
		if err := mr.gz.Reset(mr.r); err != nil {
			mr.gz = nil
			return errors.Wrap(errWrongOffset, err.Error())
		}
	}

	mr.gz.Multistream(false)
	mr.block = o.Block
	mr.noff = 0

	_, err := io.CopyN(io.Discard, mr, o.Off)
	return err
}
