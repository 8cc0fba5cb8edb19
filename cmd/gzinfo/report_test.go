package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gerbenvoshol/gzinfo"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

var errMissing = errors.New("open input: no such file or directory")

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.in); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func okMember(i int) gzinfo.Member {
	return gzinfo.Member{Index: i, StoredCRC32: 7, ComputedCRC32: 7, StoredISize: 10, UncompressedSize: 10, CompressedSize: 5, Blocks: -1}
}

func TestExitCode(t *testing.T) {
	ok := &gzinfo.Archive{Members: []gzinfo.Member{okMember(0)}}
	bad := okMember(0)
	bad.ComputedCRC32 = 8
	mismatch := &gzinfo.Archive{Members: []gzinfo.Member{bad}}
	truncated := &gzinfo.Archive{Members: []gzinfo.Member{okMember(0)}, Truncated: true}
	empty := &gzinfo.Archive{}

	tests := []struct {
		name    string
		results []gzinfo.Result
		want    int
	}{
		{"ok", []gzinfo.Result{{Archive: ok}, {Archive: ok}}, ExitOK},
		{"mismatch", []gzinfo.Result{{Archive: ok}, {Archive: mismatch}}, ExitIntegrity},
		{"truncated", []gzinfo.Result{{Archive: truncated}, {Archive: mismatch}}, ExitStructural},
		{"structural wins", []gzinfo.Result{{Archive: mismatch}, {Archive: truncated}}, ExitStructural},
		{"empty file", []gzinfo.Result{{Archive: empty}}, ExitStructural},
		{"unreadable", []gzinfo.Result{{Archive: truncated}, {Path: "x"}}, ExitUsage},
	}
	for _, tt := range tests {
		if got := exitCode(tt.results); got != tt.want {
			t.Errorf("%s: exit code %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	m := okMember(0)
	m.Header = gzinfo.Header{Method: 8, Flags: gzinfo.FlagName, Name: "a.txt", XFlags: 2, OS: 3}
	m.EstimatedLevel = gzinfo.LevelRange{Min: 4, Max: 6}
	results := []gzinfo.Result{
		{Path: "a.gz", Archive: &gzinfo.Archive{Members: []gzinfo.Member{m}}},
		{Path: "missing.gz", Err: errMissing},
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, results); err != nil {
		t.Fatal(err)
	}

	var got []fileReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("%d reports", len(got))
	}
	r := got[0]
	if !r.Valid || !r.IntegrityOK || r.MemberCount != 1 || len(r.Members) != 1 {
		t.Errorf("file report %+v", r)
	}
	mr := r.Members[0]
	if mr.Name == nil || *mr.Name != "a.txt" || mr.Comment != nil || mr.Blocks != nil {
		t.Errorf("member report %+v", mr)
	}
	if mr.EncoderHint != "max" || mr.OS != "Unix" || mr.Flags != "FNAME" || mr.StoredCRC32 != "00000007" {
		t.Errorf("member report %+v", mr)
	}
	if mr.EstimatedLevel != m.EstimatedLevel || mr.Estimate == "" {
		t.Errorf("estimate %v %q", mr.EstimatedLevel, mr.Estimate)
	}
	if got[1].Error == "" || got[1].Members == nil {
		t.Errorf("missing file report %+v", got[1])
	}
}

func TestWriteText(t *testing.T) {
	bad := okMember(0)
	bad.StoredISize = 11
	res := gzinfo.Result{Path: "a.gz", Archive: &gzinfo.Archive{Members: []gzinfo.Member{bad}}}

	var buf bytes.Buffer
	writeText(&buf, &res)
	out := buf.String()
	for _, want := range []string{"a.gz:", "member 0 at offset 0", "integrity:       MISMATCH", "CHECKSUM MISMATCH", "(heuristic"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}
