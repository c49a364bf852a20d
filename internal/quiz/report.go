package quiz

// Grade is the tier assigned to a finished session.
type Grade string

// Grade constants
const (
	GradeTop           Grade = "top"
	GradeExcellent     Grade = "excellent"
	GradeAverage       Grade = "average"
	GradeNeedsPractice Grade = "needs-practice"
)

// FinalReport summarises a finished session.
type FinalReport struct {
	Mode       Mode          `json:"mode"`
	Score      int           `json:"score"`
	Total      int           `json:"total"`
	Percentage float64       `json:"percentage"`
	Grade      Grade         `json:"grade"`
	Rounds     []RoundRecord `json:"rounds"`
}

// GradeFor maps a percentage onto a grade tier.
func GradeFor(percentage float64) Grade {
	switch {
	case percentage >= 90:
		return GradeTop
	case percentage >= 70:
		return GradeExcellent
	case percentage >= 50:
		return GradeAverage
	default:
		return GradeNeedsPractice
	}
}

// TimedOutCount returns the number of rounds that ran out of time.
func (r FinalReport) TimedOutCount() int {
	n := 0
	for _, round := range r.Rounds {
		if round.TimedOut {
			n++
		}
	}
	return n
}
