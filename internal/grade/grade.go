// Package grade turns a battery result set into a score and a letter
// grade. Scoring starts every site at 100, applies the modifier for each
// test's result, and clamps into [0, 135]; the grade is read off a fixed
// cutoff chart.
package grade

import "httpobs/internal/output"

// AlgorithmVersion identifies the scoring semantics: the modifier table,
// the clamp bounds and the grade chart. Bump it whenever any of those
// change.
const AlgorithmVersion = 5

const (
	baseScore = 100
	minScore  = 0
	maxScore  = 135
)

// gradeChart maps minimum scores to letter grades, highest first.
var gradeChart = []struct {
	Minimum int
	Grade   string
}{
	{100, "A+"},
	{90, "A"},
	{85, "A-"},
	{80, "B+"},
	{70, "B"},
	{65, "B-"},
	{60, "C+"},
	{50, "C"},
	{45, "C-"},
	{40, "D+"},
	{30, "D"},
	{25, "D-"},
}

// LetterGrade returns the grade for a clamped score.
func LetterGrade(score int) string {
	for _, row := range gradeChart {
		if score >= row.Minimum {
			return row.Grade
		}
	}
	return "F"
}

// Result is the graded summary of one battery run.
type Result struct {
	Score         int
	Grade         string
	TestsPassed   int
	TestsFailed   int
	TestsQuantity int
}

// Score applies the frozen modifier table to every test result, stamps
// each entry's ScoreModifier in place, and returns the clamped score with
// pass/fail counts. Summation is order-independent, so iteration over the
// map is fine.
func Score(tests map[string]output.TestResult) Result {
	r := Result{Score: baseScore, TestsQuantity: len(tests)}
	for name, tr := range tests {
		tr.ScoreModifier = Modifier(tr.Result)
		tests[name] = tr

		r.Score += tr.ScoreModifier
		if tr.Pass {
			r.TestsPassed++
		} else {
			r.TestsFailed++
		}
	}

	if r.Score < minScore {
		r.Score = minScore
	}
	if r.Score > maxScore {
		r.Score = maxScore
	}
	r.Grade = LetterGrade(r.Score)
	return r
}
