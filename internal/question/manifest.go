package question

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
)

// ManifestEntry is one question in a bank import file. Answer accepts
// "AC" or "A,C"; Image is a path relative to the manifest.
type ManifestEntry struct {
	ID         string   `json:"id"`
	Subject    string   `json:"subject"`
	Chapter    string   `json:"chapter"`
	Difficulty string   `json:"difficulty"`
	Options    []string `json:"options,omitempty"`
	Answer     string   `json:"answer"`
	Image      string   `json:"image,omitempty"`
}

// ImportItem is a manifest entry resolved into a Question and its image bytes.
type ImportItem struct {
	Question Question
	Image    []byte
}

// LoadManifest reads a JSON array of ManifestEntry from fsys and loads the
// referenced images.
func LoadManifest(fsys fs.FS, name string) ([]ImportItem, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	dir := path.Dir(name)
	items := make([]ImportItem, 0, len(entries))
	for _, e := range entries {
		item := ImportItem{Question: Question{
			ID:            e.ID,
			Subject:       e.Subject,
			Chapter:       e.Chapter,
			Difficulty:    e.Difficulty,
			Options:       e.Options,
			CorrectAnswer: SplitLabels(e.Answer),
		}}
		if e.Image != "" {
			item.Image, err = fs.ReadFile(fsys, path.Join(dir, e.Image))
			if err != nil {
				return nil, fmt.Errorf("question %q: read image: %w", e.ID, err)
			}
			item.Question.HasImage = true
		}
		items = append(items, item)
	}
	return items, nil
}
