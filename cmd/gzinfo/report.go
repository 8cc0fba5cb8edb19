package main

import (
	"fmt"
	"io"
	"time"

	"github.com/gerbenvoshol/gzinfo"

	"github.com/segmentio/encoding/json"
)

type fileReport struct {
	Path             string         `json:"path"`
	Size             int64          `json:"size,omitempty"`
	ModTime          *time.Time     `json:"mod_time,omitempty"`
	AccessTime       *time.Time     `json:"access_time,omitempty"`
	Valid            bool           `json:"valid"`
	Truncated        bool           `json:"truncated"`
	IntegrityOK      bool           `json:"integrity_ok"`
	MemberCount      int            `json:"member_count"`
	CompressedSize   int64          `json:"compressed_size"`
	UncompressedSize uint64         `json:"uncompressed_size"`
	Members          []memberReport `json:"members"`
	Error            string         `json:"error,omitempty"`
	ErrorKind        string         `json:"error_kind,omitempty"`
	ErrorOffset      *int64         `json:"error_offset,omitempty"`
}

type memberReport struct {
	Index            int     `json:"index"`
	Offset           int64   `json:"offset"`
	DataOffset       int64   `json:"data_offset"`
	TrailerOffset    int64   `json:"trailer_offset"`
	Method           byte    `json:"method"`
	Flags            string  `json:"flags"`
	MTime            uint32  `json:"mtime"`
	XFlags           byte    `json:"xflags"`
	EncoderHint      string  `json:"encoder_hint,omitempty"`
	OS               string  `json:"os"`
	Name             *string `json:"name,omitempty"`
	Comment          *string `json:"comment,omitempty"`
	ExtraLen         *int    `json:"extra_len,omitempty"`
	CompressedSize   int64   `json:"compressed_size"`
	UncompressedSize uint64  `json:"uncompressed_size"`
	StoredCRC32      string  `json:"stored_crc32"`
	ComputedCRC32    string  `json:"computed_crc32"`
	StoredISize      uint32  `json:"stored_isize"`
	IntegrityOK      bool    `json:"integrity_ok"`
	CompressionRatio float64 `json:"compression_ratio"`
	Blocks           *int64  `json:"blocks,omitempty"`
	ContentHash      string  `json:"content_hash,omitempty"`

	EstimatedLevel gzinfo.LevelRange `json:"estimated_level_range"`
	Estimate       string            `json:"estimate_note"`
}

const estimateNote = "heuristic from compression ratio, not stored in the file"

func newFileReport(res *gzinfo.Result) fileReport {
	fr := fileReport{Path: res.Path, Members: []memberReport{}}
	if res.Err != nil {
		fr.Error = res.Err.Error()
	}
	arc := res.Archive
	if arc == nil {
		return fr
	}

	fr.Size = arc.File.Size
	if !arc.File.ModTime.IsZero() {
		fr.ModTime = &arc.File.ModTime
	}
	if !arc.File.AccessTime.IsZero() {
		fr.AccessTime = &arc.File.AccessTime
	}
	fr.Valid = arc.Valid()
	fr.Truncated = arc.Truncated
	fr.IntegrityOK = arc.IntegrityOK()
	fr.MemberCount = arc.MemberCount()
	fr.CompressedSize = arc.TotalCompressed()
	fr.UncompressedSize = arc.TotalUncompressed()
	if e, ok := arc.Err.(*gzinfo.Error); ok {
		fr.ErrorKind = e.Kind.Error()
		fr.ErrorOffset = &e.Offset
	}
	for i := range arc.Members {
		fr.Members = append(fr.Members, newMemberReport(&arc.Members[i]))
	}
	return fr
}

func newMemberReport(m *gzinfo.Member) memberReport {
	h := &m.Header
	mr := memberReport{
		Index:            m.Index,
		Offset:           m.Offset,
		DataOffset:       m.DataOffset,
		TrailerOffset:    m.TrailerOffset,
		Method:           h.Method,
		Flags:            h.Flags.String(),
		MTime:            h.MTime,
		XFlags:           h.XFlags,
		EncoderHint:      h.EncoderHint(),
		OS:               h.OSName(),
		CompressedSize:   m.CompressedSize,
		UncompressedSize: m.UncompressedSize,
		StoredCRC32:      fmt.Sprintf("%08x", m.StoredCRC32),
		ComputedCRC32:    fmt.Sprintf("%08x", m.ComputedCRC32),
		StoredISize:      m.StoredISize,
		IntegrityOK:      m.IntegrityOK(),
		CompressionRatio: m.Ratio(),
		EstimatedLevel:   m.EstimatedLevel,
		Estimate:         estimateNote,
	}
	if h.Flags.Has(gzinfo.FlagName) {
		mr.Name = &h.Name
	}
	if h.Flags.Has(gzinfo.FlagComment) {
		mr.Comment = &h.Comment
	}
	if h.Flags.Has(gzinfo.FlagExtra) {
		mr.ExtraLen = &h.ExtraLen
	}
	if m.Blocks >= 0 {
		mr.Blocks = &m.Blocks
	}
	if m.ContentHash != 0 {
		mr.ContentHash = fmt.Sprintf("%016x", m.ContentHash)
	}
	return mr
}

func writeJSON(w io.Writer, results []gzinfo.Result) error {
	reports := make([]fileReport, len(results))
	for i := range results {
		reports[i] = newFileReport(&results[i])
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

func writeText(w io.Writer, res *gzinfo.Result) {
	fr := newFileReport(res)
	fmt.Fprintf(w, "%s:\n", fr.Path)
	if res.Archive == nil {
		fmt.Fprintf(w, "  error: %s\n", fr.Error)
		return
	}

	for _, m := range fr.Members {
		fmt.Fprintf(w, "  member %d at offset %d\n", m.Index, m.Offset)
		fmt.Fprintf(w, "    flags:           %s\n", m.Flags)
		if m.Name != nil {
			fmt.Fprintf(w, "    name:            %q\n", *m.Name)
		}
		if m.Comment != nil {
			fmt.Fprintf(w, "    comment:         %q\n", *m.Comment)
		}
		if m.ExtraLen != nil {
			fmt.Fprintf(w, "    extra field:     %d bytes (skipped)\n", *m.ExtraLen)
		}
		if m.MTime != 0 {
			fmt.Fprintf(w, "    mtime:           %s\n", time.Unix(int64(m.MTime), 0).UTC().Format(time.RFC3339))
		}
		fmt.Fprintf(w, "    os:              %s\n", m.OS)
		fmt.Fprintf(w, "    compressed:      %s (%d bytes)\n", formatSize(uint64(m.CompressedSize)), m.CompressedSize)
		fmt.Fprintf(w, "    uncompressed:    %s (%d bytes)\n", formatSize(m.UncompressedSize), m.UncompressedSize)
		fmt.Fprintf(w, "    ratio:           %.3f\n", m.CompressionRatio)
		fmt.Fprintf(w, "    crc32:           stored %s, computed %s\n", m.StoredCRC32, m.ComputedCRC32)
		fmt.Fprintf(w, "    isize:           stored %d\n", m.StoredISize)
		fmt.Fprintf(w, "    integrity:       %s\n", okString(m.IntegrityOK))
		if m.Blocks != nil {
			fmt.Fprintf(w, "    deflate blocks:  %d\n", *m.Blocks+1)
		}
		if m.ContentHash != "" {
			fmt.Fprintf(w, "    content xxh64:   %s\n", m.ContentHash)
		}
		hint := ""
		if m.EncoderHint != "" {
			hint = ", encoder hint: " + m.EncoderHint
		}
		fmt.Fprintf(w, "    estimated level: %s (heuristic%s)\n", m.EstimatedLevel, hint)
	}

	fmt.Fprintf(w, "  members:         %d\n", fr.MemberCount)
	fmt.Fprintf(w, "  total:           %s -> %s\n", formatSize(uint64(fr.CompressedSize)), formatSize(fr.UncompressedSize))
	switch {
	case fr.Truncated:
		fmt.Fprintf(w, "  status:          STRUCTURAL FAILURE: %s\n", fr.Error)
	case !fr.Valid:
		fmt.Fprintf(w, "  status:          no gzip members\n")
	case !fr.IntegrityOK:
		fmt.Fprintf(w, "  status:          complete, CHECKSUM MISMATCH\n")
	default:
		fmt.Fprintf(w, "  status:          ok\n")
	}
}

func okString(ok bool) string {
	if ok {
		return "ok"
	}
	return "MISMATCH"
}

// formatSize returns a human-readable size string
func formatSize(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
