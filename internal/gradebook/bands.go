package gradebook

import (
	"fmt"
	"sort"

	"github.com/noah-isme/academic-records-api/pkg/config"
)

// Score bounds for the band table.
const (
	MinScore = 0
	MaxScore = 100
)

// Band maps a closed score interval to a letter grade, a grade point and a
// normal progress flag.
type Band struct {
	MinScore       int
	MaxScore       int
	Letter         string
	GradePoint     float64
	NormalProgress bool
}

// Scale is a validated band table partitioning [MinScore, MaxScore]. A Scale
// can only be obtained through NewScale or DefaultScale, so Resolve is total
// over valid scores.
type Scale struct {
	bands []Band
}

// DefaultScale returns the built-in 5.0 scale.
func DefaultScale() *Scale {
	scale, err := NewScale([]Band{
		{MinScore: 70, MaxScore: 100, Letter: "A", GradePoint: 5.0, NormalProgress: true},
		{MinScore: 60, MaxScore: 69, Letter: "B", GradePoint: 4.0, NormalProgress: true},
		{MinScore: 50, MaxScore: 59, Letter: "C", GradePoint: 3.0, NormalProgress: true},
		{MinScore: 45, MaxScore: 49, Letter: "D", GradePoint: 2.0, NormalProgress: true},
		{MinScore: 0, MaxScore: 44, Letter: "F", GradePoint: 0.0, NormalProgress: false},
	})
	if err != nil {
		panic(fmt.Sprintf("built-in grade scale invalid: %v", err))
	}
	return scale
}

// FromConfig builds a scale from configuration, falling back to the default
// when no override is configured. A malformed override is a load-time
// failure, never a request-time one.
func FromConfig(cfg config.GradingConfig) (*Scale, error) {
	if len(cfg.Bands) == 0 {
		return DefaultScale(), nil
	}
	bands := make([]Band, len(cfg.Bands))
	for i, b := range cfg.Bands {
		bands[i] = Band{
			MinScore:       b.MinScore,
			MaxScore:       b.MaxScore,
			Letter:         b.Letter,
			GradePoint:     b.GradePoint,
			NormalProgress: b.NormalProgress,
		}
	}
	return NewScale(bands)
}

// NewScale validates that the bands form a total, non-overlapping partition
// of [MinScore, MaxScore] with no gaps.
func NewScale(bands []Band) (*Scale, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("grade scale requires at least one band")
	}

	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinScore < sorted[j].MinScore })

	for _, b := range sorted {
		if b.Letter == "" {
			return nil, fmt.Errorf("band [%d,%d] has no letter", b.MinScore, b.MaxScore)
		}
		if b.MinScore > b.MaxScore {
			return nil, fmt.Errorf("band %s has min %d greater than max %d", b.Letter, b.MinScore, b.MaxScore)
		}
		if b.GradePoint < 0 {
			return nil, fmt.Errorf("band %s has negative grade point", b.Letter)
		}
	}

	if sorted[0].MinScore != MinScore {
		return nil, fmt.Errorf("grade scale does not start at %d", MinScore)
	}
	if sorted[len(sorted)-1].MaxScore != MaxScore {
		return nil, fmt.Errorf("grade scale does not end at %d", MaxScore)
	}
	for i := 1; i < len(sorted); i++ {
		prev, next := sorted[i-1], sorted[i]
		if next.MinScore <= prev.MaxScore {
			return nil, fmt.Errorf("bands %s and %s overlap", prev.Letter, next.Letter)
		}
		if next.MinScore != prev.MaxScore+1 {
			return nil, fmt.Errorf("gap between bands %s and %s", prev.Letter, next.Letter)
		}
	}

	return &Scale{bands: sorted}, nil
}

// Bands returns a copy of the validated band table.
func (s *Scale) Bands() []Band {
	out := make([]Band, len(s.bands))
	copy(out, s.bands)
	return out
}

// Resolve maps a score to its band. Scores are validated to lie in
// [MinScore, MaxScore] before any mutation, so an out-of-range score here is
// a caller bug.
func (s *Scale) Resolve(score int) (Band, error) {
	if score < MinScore || score > MaxScore {
		return Band{}, fmt.Errorf("score %d outside [%d,%d]", score, MinScore, MaxScore)
	}
	for _, b := range s.bands {
		if score >= b.MinScore && score <= b.MaxScore {
			return b, nil
		}
	}
	// Unreachable for a validated scale.
	return Band{}, fmt.Errorf("no band covers score %d", score)
}
