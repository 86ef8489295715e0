package generate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"devlog-ai/internal/domain/entity"
)

// errNoJSON is returned when the backend reply contains no JSON value at all.
var errNoJSON = errors.New("no JSON found in backend reply")

// rawExperience is the lenient shape accepted from the backend.
type rawExperience struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Keywords []json.RawMessage `json:"keywords"`
}

// parseExperiences extracts experiences from a backend reply. The reply may wrap
// the JSON in prose or a code fence and may be either {"experiences":[...]} or a
// bare array. Keywords are matched against allowed by id, numeric string or name.
func parseExperiences(reply string, allowed []entity.Keyword) ([]entity.Experience, error) {
	raw, err := extractJSON(reply)
	if err != nil {
		return nil, err
	}

	var items []rawExperience
	if bytes.HasPrefix(raw, []byte("[")) {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode experience list: %w", err)
		}
	} else {
		var wrapper struct {
			Experiences []rawExperience `json:"experiences"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("decode experience object: %w", err)
		}
		items = wrapper.Experiences
	}

	known := keywordIndex{
		byID:   make(map[int]entity.Keyword, len(allowed)),
		byName: make(map[string]entity.Keyword, len(allowed)),
	}
	for _, k := range allowed {
		known.byID[k.ID] = k
		known.byName[normalizeName(k.Name)] = k
	}

	out := make([]entity.Experience, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" && strings.TrimSpace(it.Content) == "" {
			continue
		}
		exp := entity.Experience{
			Title:   strings.TrimSpace(it.Title),
			Content: strings.TrimSpace(it.Content),
		}
		for _, rk := range it.Keywords {
			if k, ok := known.resolve(rk); ok {
				exp.Keywords = append(exp.Keywords, k)
			}
		}
		out = append(out, exp)
	}

	// ConstrainExperiences drops ids outside the allowed set and restores caller names.
	return entity.ConstrainExperiences(out, allowed), nil
}

type keywordIndex struct {
	byID   map[int]entity.Keyword
	byName map[string]entity.Keyword
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (k keywordIndex) lookupName(name string) (entity.Keyword, bool) {
	kw, ok := k.byName[normalizeName(name)]
	return kw, ok
}

// resolve accepts {"id":1,"name":"Go"}, {"id":"1"}, 1, "1" or "Go".
// An object whose id is unknown falls back to its name.
func (k keywordIndex) resolve(raw json.RawMessage) (entity.Keyword, bool) {
	var obj struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if id, ok := parseID(obj.ID); ok {
			if _, known := k.byID[id]; known {
				return entity.Keyword{ID: id, Name: obj.Name}, true
			}
		}
		if obj.Name != "" {
			return k.lookupName(obj.Name)
		}
		if len(obj.ID) > 0 {
			return entity.Keyword{}, false
		}
	}

	if id, ok := parseID(raw); ok {
		return entity.Keyword{ID: id}, true
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return k.lookupName(name)
	}
	return entity.Keyword{}, false
}

func parseID(raw json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// extractJSON returns the outermost JSON object or array in s.
func extractJSON(s string) ([]byte, error) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, errNoJSON
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return nil, errNoJSON
	}
	candidate := []byte(s[start : end+1])
	if !json.Valid(candidate) {
		return nil, fmt.Errorf("%w: reply is not valid JSON", errNoJSON)
	}
	return candidate, nil
}
