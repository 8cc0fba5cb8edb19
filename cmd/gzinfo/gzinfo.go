package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gerbenvoshol/gzinfo"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/ssh/terminal"
)

const VERSION = "1.0"

var flagJSON = pflag.BoolP("json", "j", false, "print the report as JSON")
var flagVerbose = pflag.BoolP("verbose", "v", false, "log every member to standard error")
var flagBlocks = pflag.BoolP("blocks", "b", false, "count the deflate blocks of each member")
var flagHash = pflag.BoolP("hash", "H", false, "fingerprint each member's content (xxhash64)")
var flagChunk = pflag.Int("chunk-size", gzinfo.DefaultChunkSize, "bytes per compressed read")
var flagSiphon = pflag.Bool("siphon", false, "take trailer bytes from the decoder lookahead instead of seeking back")
var flagParallel = pflag.IntP("parallel", "P", 0, "files inspected at once (0 = number of CPUs)")
var flagExtract = pflag.IntP("extract", "x", -1, "write the decompressed bytes of member N to standard output")
var flagForce = pflag.BoolP("force", "f", false, "write extracted data even if standard output is a terminal")
var flagHelp = pflag.BoolP("help", "h", false, "give this help")
var flagVersion = pflag.BoolP("version", "V", false, "display version number")

// Exit codes.
const (
	ExitOK         = 0
	ExitStructural = 1
	ExitIntegrity  = 2
	ExitUsage      = 3
)

var IsStdoutTerm bool = terminal.IsTerminal(1)

func main() {
	pflag.Parse()
	if *flagHelp {
		Usage()
		return
	}
	if *flagVersion {
		fmt.Println("gzinfo", VERSION)
		return
	}

	files := pflag.Args()
	if len(files) == 0 {
		Usage()
		os.Exit(ExitUsage)
	}

	opt := options()
	if *flagExtract >= 0 {
		if len(files) != 1 {
			fatal("--extract needs exactly one file")
			os.Exit(ExitUsage)
		}
		os.Exit(extract(files[0], *flagExtract, opt))
	}

	os.Exit(inspect(files, opt))
}

func options() gzinfo.Options {
	level := slog.LevelWarn
	if *flagVerbose {
		level = slog.LevelDebug
	}
	opt := gzinfo.Options{
		ChunkSize:   *flagChunk,
		CountBlocks: *flagBlocks,
		HashContent: *flagHash,
		Logger:      slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
	if *flagSiphon {
		opt.Trailer = gzinfo.TrailerSiphon
	}
	return opt
}

func fatal(args ...interface{}) {
	fmt.Fprint(os.Stderr, "gzinfo: ")
	fmt.Fprintln(os.Stderr, args...)
}

func inspect(files []string, opt gzinfo.Options) int {
	results, err := gzinfo.InspectFiles(context.Background(), files, *flagParallel, opt)
	if err != nil {
		fatal(err)
		return ExitUsage
	}

	if *flagJSON {
		if err := writeJSON(os.Stdout, results); err != nil {
			fatal(err)
			return ExitUsage
		}
	} else {
		for i := range results {
			writeText(os.Stdout, &results[i])
		}
	}

	return exitCode(results)
}

// exitCode picks the worst outcome across files. A file that could not be
// opened counts as a usage error; a structural failure outranks a checksum
// mismatch.
func exitCode(results []gzinfo.Result) int {
	code := ExitOK
	for _, res := range results {
		switch {
		case res.Archive == nil:
			return ExitUsage
		case !res.Archive.Valid():
			code = ExitStructural
		case !res.Archive.IntegrityOK() && code == ExitOK:
			code = ExitIntegrity
		}
	}
	return code
}

func extract(fn string, index int, opt gzinfo.Options) int {
	if IsStdoutTerm && !*flagForce {
		fatal("refusing to write decompressed data to a terminal (use -f to force)")
		return ExitUsage
	}

	arc, err := gzinfo.InspectFile(fn, opt)
	if arc == nil {
		fatal(err)
		return ExitUsage
	}
	if index >= arc.MemberCount() {
		fatal(fn, "has", arc.MemberCount(), "complete members, no member", index)
		return ExitStructural
	}

	f, err := os.Open(fn)
	if err != nil {
		fatal(err)
		return ExitUsage
	}
	defer f.Close()

	mr, err := gzinfo.OpenMember(f, &arc.Members[index])
	if err != nil {
		fatal(err)
		return ExitStructural
	}
	defer mr.Close()

	if _, err := io.Copy(os.Stdout, mr); err != nil {
		fatal(err)
		return ExitIntegrity
	}
	return ExitOK
}

func Usage() {
	// pflag.Usage sorts by long name, which scatters related options.
	fmt.Println(`Usage: gzinfo [OPTION]... FILE...
Inspect gzip FILEs: parse every member, recompute CRC-32 and sizes, and
report what was found.

  -j, --json            print the report as JSON
  -v, --verbose         log every member to standard error
  -b, --blocks          count the deflate blocks of each member
  -H, --hash            fingerprint each member's content (xxhash64)
      --chunk-size N    bytes per compressed read
      --siphon          take trailer bytes from the decoder lookahead
  -P, --parallel N      files inspected at once (0 = number of CPUs)
  -x, --extract N       write the decompressed bytes of member N to stdout
  -f, --force           write extracted data even to a terminal
  -h, --help            give this help
  -V, --version         display version number

Exit status is 0 if every file is a complete gzip file whose checksums all
match, 1 if a file is truncated or malformed, 2 if a file is complete but
some checksum or size does not match, and 3 on usage or open errors.

Compression levels in the report are estimated from the compression ratio
and are not stored in the file.`)
}
