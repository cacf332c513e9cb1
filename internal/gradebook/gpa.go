package gradebook

import "github.com/noah-isme/academic-records-api/internal/models"

// Standing classifies a student's academic progress from a grade set.
type Standing string

// Standing values use the exact remark strings surfaced by the API.
const (
	StandingNoGrades  Standing = "No grades yet"
	StandingNormal    Standing = "Normal Progress"
	StandingAttention Standing = "Attention Needed"
)

// GPA computes the credit-weighted mean grade point over a grade set:
// sum(grade_point * credit_units) / sum(credit_units). The empty set (or a
// set with zero total credit units) yields 0.0; division by zero never
// occurs. The result is invariant under reordering of the input.
func GPA(grades []models.Grade) float64 {
	var points, units float64
	for _, g := range grades {
		points += g.GradePoint * float64(g.CreditUnits)
		units += float64(g.CreditUnits)
	}
	if units == 0 {
		return 0.0
	}
	return points / units
}

// CGPA computes the cumulative GPA over the student's entire grade history.
// Terms are not modeled, so this is the same weighted mean as GPA applied to
// the full set.
func CGPA(allGrades []models.Grade) float64 {
	return GPA(allGrades)
}

// Classify derives academic standing: no grades at all, normal progress when
// every grade carries the normal progress flag, otherwise attention needed.
func Classify(grades []models.Grade) Standing {
	if len(grades) == 0 {
		return StandingNoGrades
	}
	for _, g := range grades {
		if !g.NormalProgress {
			return StandingAttention
		}
	}
	return StandingNormal
}
