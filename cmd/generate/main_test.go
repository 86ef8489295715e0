package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devlog-ai/internal/domain/entity"
	"devlog-ai/internal/handler/http/auth"
)

type stubGenerator struct {
	result entity.Result
	calls  int
}

func (s *stubGenerator) Generate(context.Context, entity.Request) (entity.Result, error) {
	s.calls++
	return s.result, nil
}

func TestRun(t *testing.T) {
	gen := &stubGenerator{result: entity.TitleResult{Title: "t"}}

	res, err := run(context.Background(), gen, entity.KindTitle, []byte(`[{"question":"q","answer":"a"}]`))
	require.NoError(t, err)
	assert.Equal(t, entity.TitleResult{Title: "t"}, res)

	_, err = run(context.Background(), gen, entity.KindTitle, []byte(`[]`))
	assert.True(t, entity.IsValidation(err))

	_, err = run(context.Background(), gen, entity.KindExperience, []byte(`not json`))
	assert.ErrorContains(t, err, "invalid experience request")

	assert.Equal(t, 1, gen.calls)
}

func TestOutputText(t *testing.T) {
	var buf bytes.Buffer
	err := outputText(&buf, entity.ExperienceResult{Experiences: []entity.Experience{
		{Title: "Queue worker", Content: "Built it", Keywords: []entity.Keyword{{ID: 1, Name: "Go"}, {ID: 2, Name: "Redis"}}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "1. Queue worker\n   [Go, Redis]\n   Built it\n\n", buf.String())
}

func TestOutputJSON_KeepsHangul(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, outputJSON(&buf, entity.TitleResult{Title: "회고 <정리>"}))
	assert.Contains(t, buf.String(), `"title": "회고 <정리>"`)
}

func TestPrintToken(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"
	t.Setenv("AUTH_JWT_SECRET", secret)

	var buf bytes.Buffer
	require.NoError(t, printToken(&buf, "backend", time.Hour))

	sub, err := auth.ValidateToken("Bearer "+string(bytes.TrimSpace(buf.Bytes())), []byte(secret))
	require.NoError(t, err)
	assert.Equal(t, "backend", sub)
}

func TestPrintToken_RequiresSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	assert.Error(t, printToken(&bytes.Buffer{}, "backend", time.Hour))
}
