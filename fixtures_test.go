package gzinfo

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"
)

var words = strings.Fields(`nel mezzo del cammin di nostra vita mi ritrovai per una selva
oscura che la diritta via era smarrita ahi quanto a dir qual era e cosa dura
esta selva selvaggia e aspra e forte che nel pensier rinova la paura`)

// sampleText returns n bytes of pseudo-random prose, stable for a seed.
func sampleText(n int, seed int64) []byte {
	rnd := rand.New(rand.NewSource(seed))
	var buf bytes.Buffer
	for buf.Len() < n {
		buf.WriteString(words[rnd.Intn(len(words))])
		if rnd.Intn(12) == 0 {
			buf.WriteString(".\n")
		} else {
			buf.WriteByte(' ')
		}
	}
	return buf.Bytes()[:n]
}

// randomBytes returns n incompressible bytes.
func randomBytes(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

type memberSpec struct {
	Name    string
	Comment string
	Extra   []byte
	ModTime time.Time
	Level   int
}

// gzipMember compresses data into a single gzip member.
func gzipMember(t testing.TB, data []byte, spec memberSpec) []byte {
	t.Helper()
	if spec.Level == 0 {
		spec.Level = gzip.DefaultCompression
	}
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, spec.Level)
	if err != nil {
		t.Fatal(err)
	}
	zw.Name = spec.Name
	zw.Comment = spec.Comment
	zw.Extra = spec.Extra
	zw.ModTime = spec.ModTime
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// pgzipMember compresses data into one member made of many deflate
// blocks, one flush per blockSize bytes of input.
func pgzipMember(t testing.TB, data []byte, blockSize int) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := pgzip.NewWriterLevel(&buf, pgzip.BestCompression)
	if err != nil {
		t.Fatal(err)
	}
	if err := zw.SetConcurrency(blockSize, 4); err != nil {
		t.Fatal(err)
	}
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// rawDeflate compresses data without any wrapper.
func rawDeflate(t testing.TB, data []byte, level int) []byte {
	t.Helper()
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, level)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := fw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// handMember builds a member byte by byte, so that any flag combination
// (FHCRC included) can be produced.
type handMember struct {
	Flags   Flags
	MTime   uint32
	XFlags  byte
	OS      byte
	Extra   []byte
	Name    string
	Comment string
	Data    []byte
}

func (hm handMember) header() []byte {
	var b bytes.Buffer
	b.Write([]byte{gzipID1, gzipID2, gzipDeflate, byte(hm.Flags)})
	binary.Write(&b, binary.LittleEndian, hm.MTime)
	b.WriteByte(hm.XFlags)
	b.WriteByte(hm.OS)
	if hm.Flags.Has(FlagExtra) {
		binary.Write(&b, binary.LittleEndian, uint16(len(hm.Extra)))
		b.Write(hm.Extra)
	}
	if hm.Flags.Has(FlagName) {
		b.WriteString(hm.Name)
		b.WriteByte(0)
	}
	if hm.Flags.Has(FlagComment) {
		b.WriteString(hm.Comment)
		b.WriteByte(0)
	}
	if hm.Flags.Has(FlagHdrCRC) {
		crc := crc32.ChecksumIEEE(b.Bytes())
		binary.Write(&b, binary.LittleEndian, uint16(crc))
	}
	return b.Bytes()
}

func (hm handMember) bytes(t testing.TB) []byte {
	t.Helper()
	out := hm.header()
	out = append(out, rawDeflate(t, hm.Data, flate.DefaultCompression)...)
	out = binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(hm.Data))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(hm.Data)))
	return out
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// run inspects an in-memory file.
func run(t testing.TB, file []byte, opt Options) (*Archive, error) {
	t.Helper()
	br, err := NewByteReader(bytes.NewReader(file))
	if err != nil {
		t.Fatal(err)
	}
	return NewAssembler(opt).Run(br)
}
