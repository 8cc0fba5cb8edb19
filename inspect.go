package gzinfo

import (
	"context"
	"os"
	"runtime"

	"github.com/djherbis/atime"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// InspectFile runs an Assembler over the file at path. Open and stat
// failures are returned with a nil Archive; structural failures inside
// the file are returned together with the partial Archive.
func InspectFile(path string, opt Options) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat input")
	}

	br, err := NewByteReader(f)
	if err != nil {
		return nil, err
	}

	arc, err := NewAssembler(opt).Run(br)
	arc.File = FileInfo{
		Path:       path,
		Size:       fi.Size(),
		ModTime:    fi.ModTime(),
		AccessTime: atime.Get(fi),
	}
	return arc, err
}

// Result is the outcome of inspecting one file with InspectFiles.
type Result struct {
	Path    string
	Archive *Archive // nil when the file could not be opened
	Err     error
}

// InspectFiles inspects paths with up to workers files in flight (NumCPU
// when workers <= 0). Each file gets its own Assembler. Results are in the
// order of paths. Per-file failures are reported in Result.Err; the
// returned error is only non-nil if ctx is cancelled.
func InspectFiles(ctx context.Context, paths []string, workers int, opt Options) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			arc, err := InspectFile(path, opt)
			results[i] = Result{Path: path, Archive: arc, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
