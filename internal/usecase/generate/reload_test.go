package generate

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSetter struct {
	mu  sync.Mutex
	got []*Prompts
}

func (r *recordingSetter) SetPrompts(p *Prompts) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, p)
}

func TestNewReloader_InvalidSchedule(t *testing.T) {
	_, err := NewReloader("prompts.yaml", "not a schedule", &recordingSetter{})
	assert.Error(t, err)
}

func TestReloader_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: t\nretrospective: r\nexperience: e\n"), 0o600))

	target := &recordingSetter{}
	r, err := NewReloader(path, "@every 1h", target)
	require.NoError(t, err)

	r.Reload()
	require.Len(t, target.got, 1)
	assert.NotNil(t, target.got[0])

	require.NoError(t, os.WriteFile(path, []byte("title: only\n"), 0o600))
	r.Reload()
	assert.Len(t, target.got, 1, "invalid file must keep previous prompts")
}

func TestReloader_LoadError(t *testing.T) {
	target := &recordingSetter{}
	r, err := NewReloader("unused", "*/5 * * * *", target)
	require.NoError(t, err)
	r.load = func(string) (*Prompts, error) { return nil, errors.New("disk gone") }

	r.Reload()

	assert.Empty(t, target.got)
}

func TestReloader_Hook(t *testing.T) {
	var got []error
	r, err := NewReloader("unused", "@every 5m", &recordingSetter{},
		WithLocation(time.UTC),
		WithReloadHook(func(err error) { got = append(got, err) }))
	require.NoError(t, err)

	r.load = func(string) (*Prompts, error) { return DefaultPrompts(), nil }
	r.Reload()
	r.load = func(string) (*Prompts, error) { return nil, errors.New("disk gone") }
	r.Reload()

	require.Len(t, got, 2)
	assert.NoError(t, got[0])
	assert.EqualError(t, got[1], "disk gone")
}
