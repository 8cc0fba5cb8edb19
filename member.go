package gzinfo

// Member is everything learned about one gzip member. The sizes, offsets
// and checksums are facts; EstimatedLevel is a heuristic.
type Member struct {
	Index  int    `json:"index"`
	Header Header `json:"header"`

	Offset        int64 `json:"offset"`         // offset of the magic
	DataOffset    int64 `json:"data_offset"`    // offset of the first deflate byte
	TrailerOffset int64 `json:"trailer_offset"` // offset of the CRC-32 field

	CompressedSize   int64  `json:"compressed_size"`
	UncompressedSize uint64 `json:"uncompressed_size"`

	StoredCRC32   uint32 `json:"stored_crc32"`
	ComputedCRC32 uint32 `json:"computed_crc32"`
	StoredISize   uint32 `json:"stored_isize"`

	Blocks      int64  `json:"blocks"` // non-final deflate blocks, -1 if not counted
	ContentHash uint64 `json:"content_hash,omitempty"`

	EstimatedLevel LevelRange `json:"estimated_level_range"`
}

// End returns the offset just past the member's trailer.
func (m *Member) End() int64 {
	return m.TrailerOffset + TrailerSize
}

// CRCOK reports whether the stored CRC-32 matches the computed one.
func (m *Member) CRCOK() bool {
	return m.StoredCRC32 == m.ComputedCRC32
}

// SizeOK reports whether ISIZE matches the produced size modulo 2^32.
func (m *Member) SizeOK() bool {
	return m.StoredISize == uint32(m.UncompressedSize)
}

// IntegrityOK reports whether both trailer values match.
func (m *Member) IntegrityOK() bool {
	return m.CRCOK() && m.SizeOK()
}

// Ratio returns UncompressedSize / CompressedSize, or 0 when nothing was
// compressed.
func (m *Member) Ratio() float64 {
	return ratio(m.UncompressedSize, m.CompressedSize)
}

func ratio(uncompressed uint64, compressed int64) float64 {
	if compressed <= 0 {
		return 0
	}
	return float64(uncompressed) / float64(compressed)
}
