package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		chosen  []string
		correct []string
		want    bool
	}{
		{"single exact", []string{"B"}, []string{"B"}, true},
		{"order independent", []string{"D", "A", "C"}, []string{"A", "C", "D"}, true},
		{"case insensitive", []string{"a", "c"}, []string{"A", "C"}, true},
		{"duplicates collapse", []string{"A", "a", " A "}, []string{"A"}, true},
		{"subset is wrong", []string{"A", "C"}, []string{"A", "C", "D"}, false},
		{"superset is wrong", []string{"A", "B", "C", "D"}, []string{"A", "C", "D"}, false},
		{"unanswered is wrong", nil, []string{"C"}, false},
		{"different single", []string{"A"}, []string{"B"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.chosen, tt.correct))
		})
	}
}

func TestEngine_Score(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	out := engine.Score([]Item{
		{Chosen: []string{"A"}, Correct: []string{"A"}},
		{Chosen: []string{"B", "D"}, Correct: []string{"B", "D"}},
		{Chosen: nil, Correct: []string{"C"}},
	})

	assert.Equal(t, 2, out.CorrectCount)
	assert.Equal(t, 8, out.Points)
	assert.Equal(t, 12, out.MaxPoints)
	assert.Equal(t, []bool{true, true, false}, out.PerItem)
}

func TestEngine_AllWrong(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	out := engine.Score([]Item{
		{Chosen: []string{"B"}, Correct: []string{"A"}},
		{Chosen: []string{"A"}, Correct: []string{"B"}},
	})

	assert.Equal(t, 0, out.CorrectCount)
	assert.Equal(t, 0, out.Points)
}

func TestEngine_CustomPointsAndDefaults(t *testing.T) {
	assert.Equal(t, 10, NewEngine(Config{PointsPerCorrect: 10}).Score([]Item{{Chosen: []string{"A"}, Correct: []string{"A"}}}).Points)
	assert.Equal(t, 4, NewEngine(Config{}).PointsPerCorrect())
}
