package entity

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind identifies one of the three generation pathways.
type Kind string

const (
	KindTitle         Kind = "title"
	KindRetrospective Kind = "retrospective"
	KindExperience    Kind = "experience"
)

// Kinds returns every supported generation kind.
func Kinds() []Kind {
	return []Kind{KindTitle, KindRetrospective, KindExperience}
}

// ParseKind converts a user-supplied string into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Request is a decoded, immutable generation request.
type Request interface {
	Kind() Kind
	Validate() error
}

// TitleRequest asks for a short title summarising a list of Q&A pairs.
// On the wire it is a bare JSON array.
type TitleRequest struct {
	Pairs []QnA `json:"data" validate:"dive"`
}

func (TitleRequest) Kind() Kind { return KindTitle }

// Validate requires at least one complete pair.
func (r TitleRequest) Validate() error {
	if len(r.Pairs) == 0 {
		return &ValidationError{Field: "data", Message: "at least one question/answer pair is required"}
	}
	return validateStruct(r)
}

func (r *TitleRequest) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &r.Pairs)
}

func (r TitleRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Pairs)
}

// RetrospectiveRequest asks for a project retrospective over ordered daily logs.
// On the wire it is a bare JSON array.
type RetrospectiveRequest struct {
	Logs []DailyLog `json:"data" validate:"dive"`
}

func (RetrospectiveRequest) Kind() Kind { return KindRetrospective }

// Validate requires at least one daily log, each with at least one entry.
func (r RetrospectiveRequest) Validate() error {
	if len(r.Logs) == 0 {
		return &ValidationError{Field: "data", Message: "at least one daily log is required"}
	}
	return validateStruct(r)
}

func (r *RetrospectiveRequest) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &r.Logs)
}

func (r RetrospectiveRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Logs)
}

// ExperienceRequest asks for experiences extracted from retrospective text,
// labelled only with the supplied keywords.
type ExperienceRequest struct {
	RetrospectiveContent string    `json:"retrospective_content" validate:"required"`
	Keywords             []Keyword `json:"keywords"`
}

func (ExperienceRequest) Kind() Kind { return KindExperience }

// Validate rejects duplicate keyword ids before any other field check.
func (r ExperienceRequest) Validate() error {
	if dups := duplicateKeywordIDs(r.Keywords); len(dups) > 0 {
		return &ValidationError{
			Field:   "keywords",
			Message: fmt.Sprintf("duplicate keyword ids: %v", dups),
		}
	}
	return validateStruct(r)
}

func duplicateKeywordIDs(keywords []Keyword) []int {
	seen := make(map[int]int, len(keywords))
	for _, k := range keywords {
		seen[k.ID]++
	}
	var dups []int
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Ints(dups)
	return dups
}

// DecodeRequest parses the JSON payload of a request of the given kind.
// Shape errors are returned as *ValidationError where the field is known.
func DecodeRequest(kind Kind, raw []byte) (Request, error) {
	switch kind {
	case KindTitle:
		var r TitleRequest
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	case KindRetrospective:
		var r RetrospectiveRequest
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	case KindExperience:
		var r ExperienceRequest
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
