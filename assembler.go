package gzinfo

import (
	"io"
	"log/slog"
)

// State is a step of the member assembly loop.
type State int

const (
	StateScanning State = iota
	StateParsingHeader
	StateDecoding
	StateReadingTrailer
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateScanning:       "scanning",
	StateParsingHeader:  "parsing-header",
	StateDecoding:       "decoding",
	StateReadingTrailer: "reading-trailer",
	StateDone:           "done",
	StateFailed:         "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Options configures an Assembler. The zero value is usable.
type Options struct {
	// ChunkSize is the size of each compressed read. It never changes the
	// result, only the number of reads.
	ChunkSize int

	// OutputSize is the size of the decoder's output buffer.
	OutputSize int

	// Trailer selects how trailer bytes are sourced.
	Trailer TrailerStrategy

	// CountBlocks enables deflate block counting when the inflater
	// implements BlockObserver.
	CountBlocks bool

	// HashContent computes an xxhash64 of each member's output.
	HashContent bool

	// Policy estimates compression levels. Defaults to DefaultLevelPolicy.
	Policy LevelPolicy

	// NewInflater builds the raw-deflate decoder for each Assembler.
	// Defaults to NewFlateInflater.
	NewInflater func() Inflater

	Logger *slog.Logger
}

func (opt Options) driverOptions() []DriverOption {
	opts := []DriverOption{WithChunkSize(opt.ChunkSize), WithOutputSize(opt.OutputSize)}
	if opt.Trailer == TrailerSiphon {
		opts = append(opts, WithLeftover())
	}
	if opt.CountBlocks {
		opts = append(opts, WithBlockCount())
	}
	if opt.HashContent {
		opts = append(opts, WithContentHash())
	}
	return opts
}

// An Assembler walks a file member by member: header, deflate stream,
// trailer, and again until a clean end of file or the first structural
// failure. It owns all per-file state, so one Assembler must not be used
// for two files at once.
type Assembler struct {
	driver *DecoderDriver
	policy LevelPolicy
	log    *slog.Logger
	state  State
}

func NewAssembler(opt Options) *Assembler {
	var inf Inflater
	if opt.NewInflater != nil {
		inf = opt.NewInflater()
	}
	a := &Assembler{
		driver: NewDecoderDriver(inf, opt.driverOptions()...),
		policy: opt.Policy,
		log:    opt.Logger,
	}
	if a.policy == nil {
		a.policy = DefaultLevelPolicy
	}
	if a.log == nil {
		a.log = slog.New(slog.DiscardHandler)
	}
	return a
}

// State returns the state the last Run stopped in.
func (a *Assembler) State() State {
	return a.state
}

// Run makes one pass over br starting at its current offset. The returned
// Archive is never nil: after a structural failure it holds every member
// parsed before the failure, has Truncated set, and the failure is
// returned both as err and as Archive.Err.
func (a *Assembler) Run(br ByteReader) (*Archive, error) {
	arc := &Archive{}
	a.state = StateScanning

	var (
		hdr *Header
		res StreamResult
	)
	for {
		switch a.state {
		case StateScanning:
			a.state = StateParsingHeader

		case StateParsingHeader:
			off := br.Tell()
			h, err := ParseHeader(br)
			if err == io.EOF {
				a.state = StateDone
				continue
			}
			if err != nil {
				return a.fail(arc, StageHeader, off, err)
			}
			hdr = h
			a.state = StateDecoding

		case StateDecoding:
			var err error
			if res, err = a.driver.Decode(br); err != nil {
				return a.fail(arc, StageStream, br.Tell(), err)
			}
			a.state = StateReadingTrailer

		case StateReadingTrailer:
			tr, err := ReadTrailer(br, a.driver.Leftover())
			if err != nil {
				return a.fail(arc, StageTrailer, br.Tell(), err)
			}
			m := a.member(len(arc.Members), hdr, res, tr)
			a.log.Debug("member",
				"index", m.Index,
				"offset", m.Offset,
				"compressed", m.CompressedSize,
				"uncompressed", m.UncompressedSize,
				"integrity_ok", m.IntegrityOK(),
			)
			arc.Members = append(arc.Members, m)
			a.state = StateScanning

		case StateDone:
			arc.End = br.Tell()
			return arc, nil

		default:
			return arc, arc.Err
		}
	}
}

func (a *Assembler) member(index int, h *Header, res StreamResult, tr Trailer) Member {
	m := Member{
		Index:            index,
		Header:           *h,
		Offset:           h.Offset,
		DataOffset:       res.Start,
		TrailerOffset:    tr.Offset,
		CompressedSize:   res.CompressedSize,
		UncompressedSize: res.UncompressedSize,
		StoredCRC32:      tr.CRC32,
		ComputedCRC32:    res.CRC32,
		StoredISize:      tr.ISize,
		Blocks:           res.Blocks,
		ContentHash:      res.ContentHash,
	}
	m.EstimatedLevel = a.policy.EstimateLevel(m.Ratio())
	return m
}

func (a *Assembler) fail(arc *Archive, stage Stage, off int64, err error) (*Archive, error) {
	e := &Error{
		Kind:   classify(err),
		Stage:  stage,
		Member: len(arc.Members),
		Offset: off,
		Err:    err,
	}
	a.state = StateFailed
	arc.Truncated = true
	arc.End = off
	arc.Err = e
	a.log.Warn("structural failure", "stage", stage, "member", e.Member, "offset", off, "err", err)
	return arc, e
}
