package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"memento/internal/auth"
	"memento/internal/blob"
	"memento/internal/crypto"
	"memento/internal/llm"
	"memento/internal/store/control"
	"memento/internal/vector"
	"memento/internal/workspacemgr"
)

// testServer boots a full Server over a real (tempdir-backed) control store
// and workspace manager, mirroring how cmd/api/main.go wires things but
// without a master key, so encryption runs in plaintext-passthrough mode.
type testServer struct {
	srv   *Server
	user  *struct{ id, email string }
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	controlStore, err := control.Open(ctx, filepath.Join(t.TempDir(), "control.db"))
	require.NoError(t, err)

	keyCache, err := crypto.NewKeyCache(16)
	require.NoError(t, err)

	logger := zap.NewNop()
	wsmgr := workspacemgr.New(controlStore, keyCache, nil, logger)
	resolver := auth.NewResolver(controlStore, wsmgr)
	blobStore := blob.New(t.TempDir())

	s := NewServer(controlStore, wsmgr, resolver, blobStore, vector.Noop{}, llm.Noop{}, logger)

	u, err := controlStore.CreateUser(ctx, "agent@example.com", "Test Agent", "free")
	require.NoError(t, err)
	raw, _, hash, err := auth.GenerateCredential()
	require.NoError(t, err)
	_, err = controlStore.CreateCredential(ctx, u.ID, hash, raw[:8])
	require.NoError(t, err)

	return &testServer{srv: s, token: raw}
}

func (ts *testServer) do(t *testing.T, method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+ts.token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rr, req)
	return rr
}

func TestHealthRequiresAuth(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHealthReportsPlaintext(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	require.Contains(t, rr.Body.String(), "Quota usage")
}

func TestCreateAndGetMemory(t *testing.T) {
	ts := newTestServer(t)
	create := ts.do(t, http.MethodPost, "/memories", `{"content":"the sky is blue","type":"fact","tags":["fact"]}`, nil)
	require.Equal(t, http.StatusCreated, create.Code, create.Body.String())

	list := ts.do(t, http.MethodGet, "/memories", "", nil)
	require.Equal(t, http.StatusOK, list.Code)
	require.Contains(t, list.Body.String(), "the sky is blue")
}

func TestCreateItemValidatesCategory(t *testing.T) {
	ts := newTestServer(t)
	bad := ts.do(t, http.MethodPost, "/working-memory/items",
		`{"category":"not-a-real-category","title":"x","content":"y"}`, nil)
	require.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestSkipListAddAndCheck(t *testing.T) {
	ts := newTestServer(t)
	add := ts.do(t, http.MethodPost, "/skip-list",
		`{"item":"deprecated api key rotation","reason":"superseded","expires_at":"2030-01-01T00:00:00Z"}`, nil)
	require.Equal(t, http.StatusCreated, add.Code, add.Body.String())

	check := ts.do(t, http.MethodGet, "/skip-list/check?query=deprecated+api+key+rotation", "", nil)
	require.Equal(t, http.StatusOK, check.Code)
	require.Contains(t, check.Body.String(), "SKIP")

	checkJSON := ts.do(t, http.MethodGet, "/skip-list/check?query=deprecated+api+key+rotation&format=json", "", nil)
	require.Equal(t, http.StatusOK, checkJSON.Code)
	require.Contains(t, checkJSON.Body.String(), `"skipped":true`)

	miss := ts.do(t, http.MethodGet, "/skip-list/check?query=something+unrelated", "", nil)
	require.Equal(t, http.StatusOK, miss.Code)
	require.Contains(t, miss.Body.String(), "Proceed")
}

func TestRecallMemoriesDefaultTextContract(t *testing.T) {
	ts := newTestServer(t)
	create := ts.do(t, http.MethodPost, "/memories", `{"content":"zod is a TypeScript schema validator","type":"fact","tags":["fact"]}`, nil)
	require.Equal(t, http.StatusCreated, create.Code, create.Body.String())

	recall := ts.do(t, http.MethodGet, "/memories/recall?query=zod", "", nil)
	require.Equal(t, http.StatusOK, recall.Code, recall.Body.String())
	require.Contains(t, recall.Body.String(), "Found 1")
	require.Contains(t, recall.Body.String(), "zod")

	miss := ts.do(t, http.MethodGet, "/memories/recall?query=nonexistent-term-xyz", "", nil)
	require.Equal(t, http.StatusOK, miss.Code)
	require.Contains(t, miss.Body.String(), "No memories found")
}

func TestConsolidateFoldsTaggedMemories(t *testing.T) {
	ts := newTestServer(t)
	for _, content := range []string{"zod is great", "zod schema validation", "zod parses input"} {
		create := ts.do(t, http.MethodPost, "/memories", `{"content":"`+content+`","type":"fact","tags":["zod"]}`, nil)
		require.Equal(t, http.StatusCreated, create.Code, create.Body.String())
	}

	before := ts.do(t, http.MethodGet, "/memories/recall?query=zod", "", nil)
	require.Equal(t, http.StatusOK, before.Code, before.Body.String())
	require.Contains(t, before.Body.String(), "Found 3")

	run := ts.do(t, http.MethodPost, "/consolidate", "", nil)
	require.Equal(t, http.StatusOK, run.Code, run.Body.String())
	require.Contains(t, run.Body.String(), "3 memories consolidated")

	after := ts.do(t, http.MethodGet, "/memories/recall?query=zod", "", nil)
	require.Equal(t, http.StatusOK, after.Code, after.Body.String())
	require.Contains(t, after.Body.String(), "Found 1")
}

func TestContextComposeTolerateEmptyBody(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPost, "/context", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestPeekCapIsHardError(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPost, "/context", `{"message":"hi"}`, map[string]string{
		"X-Memento-Peek-Workspaces": "a,b,c,d,e,f",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWorkspaceCreateAndList(t *testing.T) {
	ts := newTestServer(t)
	create := ts.do(t, http.MethodPost, "/workspaces", `{"name":"scratch"}`, nil)
	require.Equal(t, http.StatusCreated, create.Code, create.Body.String())

	list := ts.do(t, http.MethodGet, "/workspaces", "", nil)
	require.Equal(t, http.StatusOK, list.Code)
	require.Contains(t, list.Body.String(), "scratch")
}

func TestSettingsRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	put := ts.do(t, http.MethodPut, "/settings/recall_alpha", `{"value":"0.7"}`, nil)
	require.Equal(t, http.StatusOK, put.Code, put.Body.String())

	list := ts.do(t, http.MethodGet, "/settings", "", nil)
	require.Equal(t, http.StatusOK, list.Code)
	require.Contains(t, list.Body.String(), "0.7")

	del := ts.do(t, http.MethodDelete, "/settings/recall_alpha", "", nil)
	require.Equal(t, http.StatusNoContent, del.Code)
}

func TestSettingsRejectsUnknownKey(t *testing.T) {
	ts := newTestServer(t)
	put := ts.do(t, http.MethodPut, "/settings/not_a_real_setting", `{"value":"x"}`, nil)
	require.Equal(t, http.StatusBadRequest, put.Code)
}
