package entity

import (
	"strings"

	"devlog-ai/internal/utils/text"
)

const (
	// MaxTitleRunes is the longest title, in characters, a TitleResult may carry.
	MaxTitleRunes = 35

	// MaxExperiences is the largest number of experiences an ExperienceResult may carry.
	MaxExperiences = 4
)

// Result is the outcome of a successful generation.
type Result interface {
	Kind() Kind
}

// TitleResult holds a generated title.
type TitleResult struct {
	Title string `json:"title"`
}

func (TitleResult) Kind() Kind { return KindTitle }

// RetrospectiveResult holds a generated retrospective.
type RetrospectiveResult struct {
	Retrospective string `json:"retrospective"`
}

func (RetrospectiveResult) Kind() Kind { return KindRetrospective }

// ExperienceResult holds the extracted experiences.
type ExperienceResult struct {
	Experiences []Experience `json:"experiences"`
}

func (ExperienceResult) Kind() Kind { return KindExperience }

// ClipTitle returns the first non-empty line of raw without surrounding quotes,
// cut to MaxTitleRunes.
func ClipTitle(raw string) string {
	line := strings.TrimSpace(strings.Trim(text.FirstLine(raw), "\"'“”"))
	return text.Truncate(line, MaxTitleRunes)
}

// ConstrainExperiences keeps at most MaxExperiences items and drops any keyword
// that is not in allowed. Allowed keywords are matched by id; the caller's name wins.
// The returned slices are never nil.
func ConstrainExperiences(items []Experience, allowed []Keyword) []Experience {
	byID := make(map[int]Keyword, len(allowed))
	for _, k := range allowed {
		byID[k.ID] = k
	}

	if len(items) > MaxExperiences {
		items = items[:MaxExperiences]
	}
	out := make([]Experience, 0, len(items))
	for _, it := range items {
		kws := make([]Keyword, 0, len(it.Keywords))
		seen := make(map[int]bool, len(it.Keywords))
		for _, k := range it.Keywords {
			known, ok := byID[k.ID]
			if !ok || seen[k.ID] {
				continue
			}
			seen[k.ID] = true
			kws = append(kws, known)
		}
		out = append(out, Experience{Title: it.Title, Content: it.Content, Keywords: kws})
	}
	return out
}
