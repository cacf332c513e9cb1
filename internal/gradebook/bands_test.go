package gradebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/pkg/config"
)

func TestDefaultScaleCoversEveryScore(t *testing.T) {
	scale := DefaultScale()
	for score := MinScore; score <= MaxScore; score++ {
		band, err := scale.Resolve(score)
		require.NoError(t, err, "score %d", score)
		assert.NotEmpty(t, band.Letter)
		assert.GreaterOrEqual(t, score, band.MinScore)
		assert.LessOrEqual(t, score, band.MaxScore)
	}
}

func TestDefaultScaleBoundaries(t *testing.T) {
	scale := DefaultScale()

	tests := []struct {
		score  int
		letter string
		point  float64
		normal bool
	}{
		{100, "A", 5.0, true},
		{70, "A", 5.0, true},
		{69, "B", 4.0, true},
		{60, "B", 4.0, true},
		{59, "C", 3.0, true},
		{50, "C", 3.0, true},
		{49, "D", 2.0, true},
		{45, "D", 2.0, true},
		{44, "F", 0.0, false},
		{0, "F", 0.0, false},
	}
	for _, tt := range tests {
		band, err := scale.Resolve(tt.score)
		require.NoError(t, err)
		assert.Equal(t, tt.letter, band.Letter, "score %d", tt.score)
		assert.Equal(t, tt.point, band.GradePoint, "score %d", tt.score)
		assert.Equal(t, tt.normal, band.NormalProgress, "score %d", tt.score)
	}
}

func TestResolveRejectsOutOfRange(t *testing.T) {
	scale := DefaultScale()
	_, err := scale.Resolve(-1)
	assert.Error(t, err)
	_, err = scale.Resolve(101)
	assert.Error(t, err)
}

func TestNewScaleRejectsGap(t *testing.T) {
	_, err := NewScale([]Band{
		{MinScore: 0, MaxScore: 49, Letter: "F"},
		{MinScore: 51, MaxScore: 100, Letter: "P", GradePoint: 4.0},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gap")
}

func TestNewScaleRejectsOverlap(t *testing.T) {
	_, err := NewScale([]Band{
		{MinScore: 0, MaxScore: 50, Letter: "F"},
		{MinScore: 50, MaxScore: 100, Letter: "P", GradePoint: 4.0},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestNewScaleRejectsPartialCoverage(t *testing.T) {
	_, err := NewScale([]Band{
		{MinScore: 10, MaxScore: 100, Letter: "P", GradePoint: 4.0},
	})
	assert.Error(t, err)

	_, err = NewScale([]Band{
		{MinScore: 0, MaxScore: 90, Letter: "P", GradePoint: 4.0},
	})
	assert.Error(t, err)
}

func TestNewScaleRejectsInvalidBands(t *testing.T) {
	_, err := NewScale(nil)
	assert.Error(t, err)

	_, err = NewScale([]Band{{MinScore: 0, MaxScore: 100}})
	assert.Error(t, err)

	_, err = NewScale([]Band{{MinScore: 0, MaxScore: 100, Letter: "P", GradePoint: -1}})
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	scale, err := FromConfig(config.GradingConfig{})
	require.NoError(t, err)
	band, err := scale.Resolve(75)
	require.NoError(t, err)
	assert.Equal(t, "A", band.Letter)

	scale, err = FromConfig(config.GradingConfig{Bands: []config.GradeBand{
		{MinScore: 0, MaxScore: 59, Letter: "F", GradePoint: 0, NormalProgress: false},
		{MinScore: 60, MaxScore: 100, Letter: "P", GradePoint: 4.0, NormalProgress: true},
	}})
	require.NoError(t, err)
	band, err = scale.Resolve(60)
	require.NoError(t, err)
	assert.Equal(t, "P", band.Letter)

	_, err = FromConfig(config.GradingConfig{Bands: []config.GradeBand{
		{MinScore: 5, MaxScore: 100, Letter: "P", GradePoint: 4.0},
	}})
	assert.Error(t, err)
}
