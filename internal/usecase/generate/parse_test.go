package generate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devlog-ai/internal/domain/entity"
)

var allowedKeywords = []entity.Keyword{
	{ID: 1, Name: "Go"},
	{ID: 2, Name: "RabbitMQ"},
}

func TestParseExperiences(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []entity.Experience
	}{
		{
			name:  "wrapped object",
			reply: `{"experiences":[{"title":"큐 도입","content":"비동기 처리","keywords":[{"id":2,"name":"RabbitMQ"}]}]}`,
			want: []entity.Experience{
				{Title: "큐 도입", Content: "비동기 처리", Keywords: []entity.Keyword{{ID: 2, Name: "RabbitMQ"}}},
			},
		},
		{
			name:  "code fence and prose",
			reply: "결과입니다.\n```json\n[{\"title\":\"t\",\"content\":\"c\",\"keywords\":[1]}]\n```\n",
			want: []entity.Experience{
				{Title: "t", Content: "c", Keywords: []entity.Keyword{{ID: 1, Name: "Go"}}},
			},
		},
		{
			name:  "lenient keyword forms",
			reply: `{"experiences":[{"title":"t","content":"c","keywords":["2",{"id":"1"},"go",{"name":"rabbitmq"}]}]}`,
			want: []entity.Experience{
				{Title: "t", Content: "c", Keywords: []entity.Keyword{{ID: 2, Name: "RabbitMQ"}, {ID: 1, Name: "Go"}}},
			},
		},
		{
			name:  "unknown id falls back to name",
			reply: `{"experiences":[{"title":"t","content":"c","keywords":[{"id":42,"name":"rabbitmq"}]}]}`,
			want: []entity.Experience{
				{Title: "t", Content: "c", Keywords: []entity.Keyword{{ID: 2, Name: "RabbitMQ"}}},
			},
		},
		{
			name:  "unknown keywords dropped",
			reply: `{"experiences":[{"title":"t","content":"c","keywords":[{"id":9,"name":"Rust"},"Java"]}]}`,
			want:  []entity.Experience{{Title: "t", Content: "c", Keywords: []entity.Keyword{}}},
		},
		{
			name:  "capped at four and blanks skipped",
			reply: `[{"title":"1"},{"title":"","content":""},{"title":"2"},{"title":"3"},{"title":"4"},{"title":"5"}]`,
			want: []entity.Experience{
				{Title: "1", Keywords: []entity.Keyword{}},
				{Title: "2", Keywords: []entity.Keyword{}},
				{Title: "3", Keywords: []entity.Keyword{}},
				{Title: "4", Keywords: []entity.Keyword{}},
			},
		},
		{
			name:  "empty list",
			reply: `{"experiences":[]}`,
			want:  []entity.Experience{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExperiences(tt.reply, allowedKeywords)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseExperiences() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseExperiences_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "plain text", reply: "경험을 추출할 수 없습니다"},
		{name: "truncated json", reply: `{"experiences":[{"title":"t"`},
		{name: "wrong shape", reply: `{"experiences":"none"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseExperiences(tt.reply, allowedKeywords)
			assert.Error(t, err)
		})
	}

	_, err := parseExperiences("nothing here", nil)
	assert.True(t, errors.Is(err, errNoJSON))
}
