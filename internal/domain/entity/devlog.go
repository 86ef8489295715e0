package entity

import (
	"bytes"
	"encoding/json"
)

// QnA is one question/answer pair of a dev-log entry.
type QnA struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// UnmarshalJSON requires both fields to be present and to be strings.
func (q *QnA) UnmarshalJSON(b []byte) error {
	var w struct {
		Question *string `json:"question"`
		Answer   *string `json:"answer"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return &ValidationError{Field: "question/answer", Message: "question and answer must be strings"}
	}
	if w.Question == nil {
		return &ValidationError{Field: "question", Message: "question is required"}
	}
	if w.Answer == nil {
		return &ValidationError{Field: "answer", Message: "answer is required"}
	}
	q.Question, q.Answer = *w.Question, *w.Answer
	return nil
}

// DailyLog is one day of a project's dev log.
type DailyLog struct {
	Date    string `json:"date" validate:"required"`
	Summary string `json:"summary"`
	Entries []QnA  `json:"daily_log" validate:"required,min=1,dive"`
}

// Keyword is a tag the caller allows experiences to be labelled with.
type Keyword struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON rejects non-integer ids and non-string names instead of coercing them.
func (k *Keyword) UnmarshalJSON(b []byte) error {
	var w struct {
		ID   json.RawMessage `json:"id"`
		Name json.RawMessage `json:"name"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return &ValidationError{Field: "keywords", Message: "keyword must be an object with id and name"}
	}
	if isNull(w.ID) {
		return &ValidationError{Field: "keywords.id", Message: "keyword id is required"}
	}
	var id int
	if err := json.Unmarshal(w.ID, &id); err != nil {
		return &ValidationError{Field: "keywords.id", Message: "keyword id must be an integer"}
	}
	if isNull(w.Name) {
		return &ValidationError{Field: "keywords.name", Message: "keyword name is required"}
	}
	var name string
	if err := json.Unmarshal(w.Name, &name); err != nil {
		return &ValidationError{Field: "keywords.name", Message: "keyword name must be a string"}
	}
	k.ID, k.Name = id, name
	return nil
}

// Experience is one extracted experience with the keywords it was matched to.
type Experience struct {
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Keywords []Keyword `json:"keywords"`
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
