package scoring

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Config holds configurable scoring constants.
type Config struct {
	PointsPerCorrect int // default: 4
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{PointsPerCorrect: 4}
}

// Engine scores multi-select answers by exact set match. There is no partial
// credit and no negative marking.
type Engine struct {
	config Config
}

// NewEngine creates a scoring engine with the provided config.
func NewEngine(config Config) *Engine {
	if config.PointsPerCorrect <= 0 {
		config.PointsPerCorrect = DefaultConfig().PointsPerCorrect
	}
	return &Engine{config: config}
}

func (e *Engine) PointsPerCorrect() int {
	return e.config.PointsPerCorrect
}

// Item pairs a student's selection with the correct labels for one question.
// A nil Chosen means unanswered and is scored as the empty selection.
type Item struct {
	Chosen  []string
	Correct []string
}

// Outcome is the aggregate of a scored test.
type Outcome struct {
	CorrectCount int
	Points       int
	MaxPoints    int
	PerItem      []bool
}

// NormalizeLabels upper-cases, trims, dedupes and sorts labels.
func NormalizeLabels(labels []string) []string {
	out := lo.Uniq(lo.FilterMap(labels, func(l string, _ int) (string, bool) {
		l = strings.ToUpper(strings.TrimSpace(l))
		return l, l != ""
	}))
	sort.Strings(out)
	return out
}

// Match reports whether chosen equals correct as sets, ignoring case and order.
func Match(chosen, correct []string) bool {
	a, b := NormalizeLabels(chosen), NormalizeLabels(correct)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Score evaluates every item.
func (e *Engine) Score(items []Item) Outcome {
	out := Outcome{
		PerItem:   make([]bool, len(items)),
		MaxPoints: len(items) * e.config.PointsPerCorrect,
	}
	for i, it := range items {
		if Match(it.Chosen, it.Correct) {
			out.PerItem[i] = true
			out.CorrectCount++
		}
	}
	out.Points = out.CorrectCount * e.config.PointsPerCorrect
	return out
}
