package question

import (
	"errors"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Difficulty levels stored in the bank.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// DefaultOptions are the labels offered for every bank question.
var DefaultOptions = []string{"A", "B", "C", "D"}

var (
	ErrInvalidFilter   = errors.New("invalid question filter")
	ErrQuestionMissing = errors.New("question not found")
	ErrNoImage         = errors.New("question has no image")
)

// Question is a bank item. The prompt lives in the image; CorrectAnswer is
// the non-empty set of correct option labels.
type Question struct {
	ID            string   `json:"id"`
	Subject       string   `json:"subject"`
	Chapter       string   `json:"chapter"`
	Difficulty    string   `json:"difficulty"`
	Options       []string `json:"options"`
	CorrectAnswer []string `json:"correct_answer"`
	HasImage      bool     `json:"has_image"`
}

// Filter selects questions. Empty sets do not restrict.
type Filter struct {
	Subjects     []string `json:"subjects"`
	Chapters     []string `json:"chapters"`
	Difficulties []string `json:"difficulties"`
	Count        int      `json:"count"`
}

// Normalize trims, dedupes and sorts each set and canonicalizes difficulty
// spelling, so equal filters share a cache key.
func (f Filter) Normalize() Filter {
	return Filter{
		Subjects:     cleanSet(f.Subjects, strings.TrimSpace),
		Chapters:     cleanSet(f.Chapters, strings.TrimSpace),
		Difficulties: cleanSet(f.Difficulties, CanonicalDifficulty),
		Count:        f.Count,
	}
}

// Validate reports whether the filter can be served.
func (f Filter) Validate() error {
	if f.Count < 1 {
		return ErrInvalidFilter
	}
	for _, d := range f.Difficulties {
		if !lo.Contains([]string{DifficultyEasy, DifficultyMedium, DifficultyHard}, d) {
			return ErrInvalidFilter
		}
	}
	return nil
}

// CanonicalDifficulty maps any casing of a known level to its stored form.
func CanonicalDifficulty(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "easy":
		return DifficultyEasy
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyHard
	}
	return s
}

// SplitLabels parses a stored answer such as "ACD" or "A,C,D" into labels.
func SplitLabels(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var parts []string
	if strings.Contains(s, ",") {
		parts = strings.Split(s, ",")
	} else {
		parts = strings.Split(s, "")
	}
	return cleanSet(parts, func(p string) string { return strings.ToUpper(strings.TrimSpace(p)) })
}

// JoinLabels is the inverse of SplitLabels for single-letter labels.
func JoinLabels(labels []string) string {
	return strings.Join(cleanSet(labels, func(p string) string { return strings.ToUpper(strings.TrimSpace(p)) }), "")
}

func cleanSet(values []string, norm func(string) string) []string {
	out := lo.Uniq(lo.FilterMap(values, func(v string, _ int) (string, bool) {
		v = norm(v)
		return v, v != ""
	}))
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
