package gzinfo

import "time"

// FileInfo describes the inspected file itself. It is filled in by
// InspectFile and left zero by Assembler.Run.
type FileInfo struct {
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	ModTime    time.Time `json:"mod_time"`
	AccessTime time.Time `json:"access_time"`
}

// Archive is the result of one pass over a file: the members parsed in
// file order and, if parsing stopped early, the structural failure.
type Archive struct {
	File      FileInfo `json:"file"`
	Members   []Member `json:"members"`
	Truncated bool     `json:"truncated"`
	End       int64    `json:"end"` // offset where parsing stopped

	// Err is the structural failure that stopped parsing, nil when the
	// file ended cleanly after a trailer.
	Err error `json:"-"`
}

// Valid reports whether at least one member was parsed and the file ended
// cleanly. Checksum mismatches do not affect it; see IntegrityOK.
func (a *Archive) Valid() bool {
	return len(a.Members) > 0 && !a.Truncated
}

func (a *Archive) MemberCount() int {
	return len(a.Members)
}

// IntegrityOK reports whether every parsed member's trailer matched.
func (a *Archive) IntegrityOK() bool {
	for i := range a.Members {
		if !a.Members[i].IntegrityOK() {
			return false
		}
	}
	return true
}

func (a *Archive) TotalCompressed() int64 {
	var n int64
	for i := range a.Members {
		n += a.Members[i].CompressedSize
	}
	return n
}

func (a *Archive) TotalUncompressed() uint64 {
	var n uint64
	for i := range a.Members {
		n += a.Members[i].UncompressedSize
	}
	return n
}

// Ratio is the overall compression ratio across members.
func (a *Archive) Ratio() float64 {
	return ratio(a.TotalUncompressed(), a.TotalCompressed())
}

// IsMultiMember reports whether more than one member was found.
func (a *Archive) IsMultiMember() bool {
	return len(a.Members) > 1
}
