package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGradeExactMatchIgnoresOrder(t *testing.T) {
	cases := []struct {
		name     string
		selected string
		correct  string
		want     bool
	}{
		{name: "same order", selected: "A,B,C", correct: "A,B,C", want: true},
		{name: "shuffled", selected: "C,A,B", correct: "A,B,C", want: true},
		{name: "whitespace and case", selected: " c, a ,B", correct: "A,B,C", want: true},
		{name: "duplicate tokens collapse", selected: "A,A,B", correct: "A,B", want: true},
		{name: "missing option", selected: "A,B", correct: "A,B,C", want: false},
		{name: "extra option", selected: "A,B,C,D", correct: "A,B,C", want: false},
		{name: "disjoint", selected: "D", correct: "A", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Grade(tc.selected, tc.correct, 10)
			require.Equal(t, tc.want, result.IsCorrect)
			if tc.want {
				require.Equal(t, 10.0, result.Score)
			} else {
				require.Zero(t, result.Score)
			}
		})
	}
}

func TestGradeMalformedInputDegradesToIncorrect(t *testing.T) {
	for _, selected := range []string{"", "   ", ",,,", " , , "} {
		result := Grade(selected, "A,B", 5)
		require.False(t, result.IsCorrect)
		require.Zero(t, result.Score)
	}
}

func TestGradeEmptyCorrectSetNeverAwardsScore(t *testing.T) {
	// A question snapshot without correct options cannot be answered correctly,
	// not even by an empty selection.
	result := Grade("", "", 5)
	require.False(t, result.IsCorrect)
	require.Zero(t, result.Score)
}

func TestParseOptionSet(t *testing.T) {
	set := ParseOptionSet("b, A ,c,")
	require.Len(t, set, 3)
	for _, key := range []string{"A", "B", "C"} {
		_, ok := set[key]
		require.True(t, ok, key)
	}
}
