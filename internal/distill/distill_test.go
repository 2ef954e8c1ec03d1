package distill

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/config"
	"memento/internal/memory"
	"memento/internal/model"
	"memento/internal/store/workspace"
	"memento/internal/vector"
)

type fakeClient struct {
	out string
	err error
}

func (f fakeClient) Summarize(context.Context, []string) (string, error) { return "", nil }
func (f fakeClient) Extract(context.Context, string) (string, error)     { return f.out, f.err }

func newTestService(t *testing.T, client fakeClient) (*Service, *memory.Service) {
	t.Helper()
	store, err := workspace.Open(context.Background(), filepath.Join(t.TempDir(), "ws.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	memSvc := memory.NewService(store, nil, vector.Noop{}, nil, config.Plan{MaxMemories: 1000}, "ws1")
	return NewService(memSvc, client), memSvc
}

func TestRunStripsCodeFenceAndCreatesMemories(t *testing.T) {
	raw := "```json\n[{\"content\": \"user prefers dark mode\", \"type\": \"preference\", \"tags\": [\"ui\"]}]\n```"
	svc, _ := newTestService(t, fakeClient{out: raw})

	created, err := svc.Run(context.Background(), "transcript", nil, nil)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "user prefers dark mode", created[0].Content)
	assert.Equal(t, model.MemoryPreference, created[0].Type)
	assert.Contains(t, created[0].Tags, distillTag)
}

func TestRunFallsBackToBracketMatchAmidProse(t *testing.T) {
	raw := "Here are the memories I found:\n[{\"content\": \"deploys happen on Fridays\", \"type\": \"fact\", \"tags\": []}]\nHope that helps!"
	svc, _ := newTestService(t, fakeClient{out: raw})

	created, err := svc.Run(context.Background(), "transcript", nil, nil)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "deploys happen on Fridays", created[0].Content)
}

func TestRunNormalizesUnknownTypeToObservation(t *testing.T) {
	raw := `[{"content": "something happened", "type": "nonsense", "tags": []}]`
	svc, _ := newTestService(t, fakeClient{out: raw})

	created, err := svc.Run(context.Background(), "transcript", nil, nil)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, model.MemoryObservation, created[0].Type)
}

func TestRunCapsTagsAndAppendsDistillTag(t *testing.T) {
	raw := `[{"content": "x", "type": "fact", "tags": ["a", "b", "c", "d", "e"]}]`
	svc, _ := newTestService(t, fakeClient{out: raw})

	created, err := svc.Run(context.Background(), "transcript", nil, nil)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.LessOrEqual(t, len(created[0].Tags), maxTags+1)
	assert.Contains(t, created[0].Tags, distillTag)
}

func TestRunSkipsEmptyContent(t *testing.T) {
	raw := `[{"content": "", "type": "fact", "tags": []}, {"content": "valid one", "type": "fact", "tags": []}]`
	svc, _ := newTestService(t, fakeClient{out: raw})

	created, err := svc.Run(context.Background(), "transcript", nil, nil)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "valid one", created[0].Content)
}

func TestRunDedupsAgainstExistingContent(t *testing.T) {
	raw := `[{"content": "already known fact", "type": "fact", "tags": []}]`
	svc, _ := newTestService(t, fakeClient{out: raw})

	existing := []model.Memory{{Content: "already known fact"}}
	created, err := svc.Run(context.Background(), "transcript", existing, nil)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestRunReturnsEmptyWithoutErrorWhenClientUnavailable(t *testing.T) {
	svc, _ := newTestService(t, fakeClient{err: errors.New("llm down")})

	created, err := svc.Run(context.Background(), "transcript", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestRunCapsAtMaxCandidates(t *testing.T) {
	raw := "["
	for i := 0; i < 30; i++ {
		if i > 0 {
			raw += ","
		}
		raw += `{"content": "fact number ` + string(rune('a'+i%26)) + `", "type": "fact", "tags": []}`
	}
	raw += "]"
	svc, _ := newTestService(t, fakeClient{out: raw})

	created, err := svc.Run(context.Background(), "transcript", nil, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(created), maxCandidates)
}
