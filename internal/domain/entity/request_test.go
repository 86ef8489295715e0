package entity

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("summary")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		raw       string
		want      Request
		wantField string
		wantErr   bool
	}{
		{
			name: "title pairs",
			kind: KindTitle,
			raw:  `[{"question":"무엇을 했나요?","answer":"로그인 구현"}]`,
			want: TitleRequest{Pairs: []QnA{{Question: "무엇을 했나요?", Answer: "로그인 구현"}}},
		},
		{
			name:      "title pair missing answer",
			kind:      KindTitle,
			raw:       `[{"question":"q"}]`,
			wantField: "answer",
		},
		{
			name:      "title pair with numeric answer",
			kind:      KindTitle,
			raw:       `[{"question":"q","answer":3}]`,
			wantField: "question/answer",
		},
		{
			name:    "title payload is an object",
			kind:    KindTitle,
			raw:     `{"question":"q","answer":"a"}`,
			wantErr: true,
		},
		{
			name: "retrospective logs",
			kind: KindRetrospective,
			raw:  `[{"date":"2024-05-01","summary":"s","daily_log":[{"question":"q","answer":"a"}]}]`,
			want: RetrospectiveRequest{Logs: []DailyLog{{
				Date:    "2024-05-01",
				Summary: "s",
				Entries: []QnA{{Question: "q", Answer: "a"}},
			}}},
		},
		{
			name: "experience request",
			kind: KindExperience,
			raw:  `{"retrospective_content":"회고","keywords":[{"id":1,"name":"Go"}]}`,
			want: ExperienceRequest{
				RetrospectiveContent: "회고",
				Keywords:             []Keyword{{ID: 1, Name: "Go"}},
			},
		},
		{
			name:      "experience keyword with string id",
			kind:      KindExperience,
			raw:       `{"retrospective_content":"r","keywords":[{"id":"1","name":"Go"}]}`,
			wantField: "keywords.id",
		},
		{
			name:      "experience keyword with fractional id",
			kind:      KindExperience,
			raw:       `{"retrospective_content":"r","keywords":[{"id":1.5,"name":"Go"}]}`,
			wantField: "keywords.id",
		},
		{
			name:      "experience keyword with numeric name",
			kind:      KindExperience,
			raw:       `{"retrospective_content":"r","keywords":[{"id":1,"name":7}]}`,
			wantField: "keywords.name",
		},
		{
			name:      "experience keyword without name",
			kind:      KindExperience,
			raw:       `{"retrospective_content":"r","keywords":[{"id":1}]}`,
			wantField: "keywords.name",
		},
		{
			name:    "not json",
			kind:    KindExperience,
			raw:     `{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRequest(tt.kind, []byte(tt.raw))
			switch {
			case tt.wantField != "":
				var ve *ValidationError
				require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
				assert.Equal(t, tt.wantField, ve.Field)
			case tt.wantErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("DecodeRequest() mismatch (-want +got):\n%s", diff)
				}
				assert.Equal(t, tt.kind, got.Kind())
			}
		})
	}
}

func TestDecodeRequest_UnknownKind(t *testing.T) {
	_, err := DecodeRequest(Kind("poem"), []byte(`[]`))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestTitleRequest_MarshalsAsArray(t *testing.T) {
	b, err := json.Marshal(TitleRequest{Pairs: []QnA{{Question: "q", Answer: "a"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"question":"q","answer":"a"}]`, string(b))
}
