package grading

import "strings"

// Result is the outcome of grading a single submitted answer.
type Result struct {
	IsCorrect bool
	Score     float64
}

// ParseOptionSet splits a comma-separated list of option keys into a set.
// Tokens are trimmed and upper-cased so "a, c" and "C,A" compare equal.
// Malformed input degrades to an empty set; an empty selection is simply an
// incorrect answer, never a grading fault.
func ParseOptionSet(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Split(raw, ",") {
		token = strings.ToUpper(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}

// Grade scores a submitted option selection against the correct option set
// captured in the answer's question snapshot. The answer is correct only when
// the two sets match exactly; there is no partial credit. A correct answer
// earns the question's full max score, anything else earns zero.
//
// Partial credit (per-option scoring) is a deliberate non-feature here; if it
// is ever needed it belongs in a second Result field, not in Score.
func Grade(selected, correct string, maxScore float64) Result {
	selectedSet := ParseOptionSet(selected)
	correctSet := ParseOptionSet(correct)

	if len(selectedSet) != len(correctSet) || len(correctSet) == 0 {
		return Result{}
	}

	for option := range correctSet {
		if _, ok := selectedSet[option]; !ok {
			return Result{}
		}
	}

	return Result{IsCorrect: true, Score: maxScore}
}
