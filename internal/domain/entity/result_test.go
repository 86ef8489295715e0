package entity

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestClipTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: "로그인 기능 구현", want: "로그인 기능 구현"},
		{name: "first line only", raw: "\n  제목입니다  \n설명은 무시", want: "제목입니다"},
		{name: "quotes stripped", raw: `"API 설계 회고"`, want: "API 설계 회고"},
		{name: "empty", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClipTitle(tt.raw))
		})
	}

	t.Run("long title is clipped", func(t *testing.T) {
		got := ClipTitle(strings.Repeat("가", 50))
		assert.Equal(t, MaxTitleRunes, utf8.RuneCountInString(got))
	})
}

func TestConstrainExperiences(t *testing.T) {
	allowed := []Keyword{{ID: 1, Name: "Go"}, {ID: 2, Name: "Redis"}}

	items := []Experience{
		{Title: "a", Content: "ca", Keywords: []Keyword{{ID: 1, Name: "golang"}, {ID: 9, Name: "Rust"}}},
		{Title: "b", Content: "cb", Keywords: []Keyword{{ID: 2, Name: "Redis"}, {ID: 2, Name: "Redis"}}},
		{Title: "c", Content: "cc"},
		{Title: "d", Content: "cd"},
		{Title: "e", Content: "ce"},
	}

	got := ConstrainExperiences(items, allowed)

	want := []Experience{
		{Title: "a", Content: "ca", Keywords: []Keyword{{ID: 1, Name: "Go"}}},
		{Title: "b", Content: "cb", Keywords: []Keyword{{ID: 2, Name: "Redis"}}},
		{Title: "c", Content: "cc", Keywords: []Keyword{}},
		{Title: "d", Content: "cd", Keywords: []Keyword{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ConstrainExperiences() mismatch (-want +got):\n%s", diff)
	}
}

func TestConstrainExperiences_EmptyInput(t *testing.T) {
	got := ConstrainExperiences(nil, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestResultKinds(t *testing.T) {
	assert.Equal(t, KindTitle, TitleResult{}.Kind())
	assert.Equal(t, KindRetrospective, RetrospectiveResult{}.Kind())
	assert.Equal(t, KindExperience, ExperienceResult{}.Kind())
}
