package gzinfo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func writeTemp(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	if err := os.WriteFile(fn, data, 0644); err != nil {
		t.Fatal(err)
	}
	return fn
}

func TestInspectFile(t *testing.T) {
	dir := t.TempDir()
	file := concat(gzipMember(t, sampleText(8000, 40), memberSpec{}), gzipMember(t, sampleText(9000, 41), memberSpec{}))
	fn := writeTemp(t, dir, "two.gz", file)

	stamp := time.Date(2020, time.March, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(fn, stamp, stamp); err != nil {
		t.Fatal(err)
	}

	arc, err := InspectFile(fn, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if arc.MemberCount() != 2 || !arc.Valid() || !arc.IntegrityOK() {
		t.Errorf("members %d valid %v", arc.MemberCount(), arc.Valid())
	}
	if arc.File.Path != fn || arc.File.Size != int64(len(file)) {
		t.Errorf("file info %+v", arc.File)
	}
	if !arc.File.ModTime.Equal(stamp) {
		t.Errorf("mod time %v, want %v", arc.File.ModTime, stamp)
	}
	if arc.File.AccessTime.IsZero() {
		t.Error("access time not filled in")
	}
}

func TestInspectFileMissing(t *testing.T) {
	arc, err := InspectFile(filepath.Join(t.TempDir(), "nope.gz"), Options{})
	if arc != nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("arc %v err %v", arc, err)
	}
}

func TestInspectFileTruncated(t *testing.T) {
	file := gzipMember(t, sampleText(8000, 42), memberSpec{})
	fn := writeTemp(t, t.TempDir(), "cut.gz", file[:len(file)-3])

	arc, err := InspectFile(fn, Options{})
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
	if arc == nil || !arc.Truncated || arc.File.Path != fn {
		t.Errorf("partial archive %+v", arc)
	}
}

func TestInspectFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 12; i++ {
		var parts [][]byte
		for j := 0; j <= i%4; j++ {
			parts = append(parts, gzipMember(t, sampleText(1000*(i+1), int64(i*10+j)), memberSpec{}))
		}
		paths = append(paths, writeTemp(t, dir, "f"+string(rune('a'+i))+".gz", concat(parts...)))
	}
	missing := filepath.Join(dir, "missing.gz")
	paths = append(paths[:5], append([]string{missing}, paths[5:]...)...)

	// The same options, and so the same inflater factory, for every file.
	opt := Options{HashContent: true, ChunkSize: 777}
	results, err := InspectFiles(context.Background(), paths, 3, opt)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(paths) {
		t.Fatalf("%d results for %d paths", len(results), len(paths))
	}

	for i, res := range results {
		if res.Path != paths[i] {
			t.Errorf("result %d is for %s, want %s", i, res.Path, paths[i])
		}
		if res.Path == missing {
			if res.Err == nil || res.Archive != nil {
				t.Errorf("missing file: err %v", res.Err)
			}
			continue
		}
		if res.Err != nil {
			t.Errorf("%s: %v", res.Path, res.Err)
			continue
		}
		want, err := InspectFile(res.Path, opt)
		if err != nil {
			t.Fatal(err)
		}
		sameResult(t, res.Path, res.Archive, want)
	}
}

func TestInspectFilesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := InspectFiles(ctx, []string{"a.gz", "b.gz"}, 1, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
