package gzinfo

import "fmt"

// LevelRange is a closed interval of deflate compression levels. It is a
// guess made from the compression ratio, not a value read from the file.
type LevelRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r LevelRange) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// LevelPolicy guesses the compression level that produced a member.
type LevelPolicy interface {
	EstimateLevel(ratio float64) LevelRange
}

// RatioThreshold maps every ratio strictly below Below to Range.
type RatioThreshold struct {
	Below float64
	Range LevelRange
}

// RatioPolicy walks its thresholds in order and returns the first range
// whose bound exceeds the ratio, or Above when none does.
type RatioPolicy struct {
	Thresholds []RatioThreshold
	Above      LevelRange
}

// DefaultLevelPolicy is an illustrative heuristic. Highly compressible
// input reaches high ratios at any level, so the ranges are loose.
var DefaultLevelPolicy LevelPolicy = RatioPolicy{
	Thresholds: []RatioThreshold{
		{Below: 1.1, Range: LevelRange{0, 1}},
		{Below: 1.5, Range: LevelRange{1, 3}},
		{Below: 2.5, Range: LevelRange{4, 6}},
	},
	Above: LevelRange{7, 9},
}

func (p RatioPolicy) EstimateLevel(ratio float64) LevelRange {
	for _, t := range p.Thresholds {
		if ratio < t.Below {
			return t.Range
		}
	}
	return p.Above
}
