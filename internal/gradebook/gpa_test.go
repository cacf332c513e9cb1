package gradebook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academic-records-api/internal/models"
)

func TestGPAWeightedMean(t *testing.T) {
	grades := []models.Grade{
		{GradePoint: 5.0, CreditUnits: 3},
		{GradePoint: 3.0, CreditUnits: 2},
		{GradePoint: 1.5, CreditUnits: 2},
	}
	// (15 + 6 + 3) / 7
	assert.InDelta(t, 24.0/7.0, GPA(grades), 1e-9)
}

func TestGPAEmptySetIsZero(t *testing.T) {
	assert.Equal(t, 0.0, GPA(nil))
	assert.Equal(t, 0.0, GPA([]models.Grade{}))
}

func TestGPAZeroCreditUnitsIsZero(t *testing.T) {
	grades := []models.Grade{{GradePoint: 5.0, CreditUnits: 0}}
	assert.Equal(t, 0.0, GPA(grades))
}

func TestGPAOrderInvariant(t *testing.T) {
	a := []models.Grade{
		{GradePoint: 5.0, CreditUnits: 3},
		{GradePoint: 2.0, CreditUnits: 1},
		{GradePoint: 4.0, CreditUnits: 2},
	}
	b := []models.Grade{a[2], a[0], a[1]}
	assert.Equal(t, GPA(a), GPA(b))
}

func TestCGPAMatchesGPAOverFullHistory(t *testing.T) {
	grades := []models.Grade{
		{GradePoint: 4.0, CreditUnits: 3},
		{GradePoint: 2.0, CreditUnits: 3},
	}
	assert.Equal(t, GPA(grades), CGPA(grades))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, StandingNoGrades, Classify(nil))

	normal := []models.Grade{
		{NormalProgress: true},
		{NormalProgress: true},
	}
	assert.Equal(t, StandingNormal, Classify(normal))

	mixed := []models.Grade{
		{NormalProgress: true},
		{NormalProgress: false},
		{NormalProgress: true},
	}
	assert.Equal(t, StandingAttention, Classify(mixed))

	single := []models.Grade{{NormalProgress: false}}
	assert.Equal(t, StandingAttention, Classify(single))
}

func TestStandingRemarks(t *testing.T) {
	assert.Equal(t, "No grades yet", string(StandingNoGrades))
	assert.Equal(t, "Normal Progress", string(StandingNormal))
	assert.Equal(t, "Attention Needed", string(StandingAttention))
}
