package gateway

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	parser_models "github.com/openlovable/lovable/code_parser/models"
	gateway_models "github.com/openlovable/lovable/gateway/models"
	"github.com/openlovable/lovable/pipeline"
	"github.com/openlovable/lovable/pipeline/contracts"
	"github.com/openlovable/lovable/pipeline/models"
	"github.com/openlovable/lovable/project"
	"github.com/openlovable/lovable/project_sandbox"
	"github.com/openlovable/lovable/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	mu        sync.Mutex
	submitErr error
	prompts   []string
	projects  []string
	files     map[string]string
	stopped   int
	root      string
	logs      contracts.ILogBook
}

func newFakePipeline(root string) *fakePipeline {
	return &fakePipeline{files: map[string]string{"src/App.tsx": "old"}, root: root, logs: pipeline.NewLogBook(100)}
}

func (f *fakePipeline) Submit(ctx context.Context, text string, opts ...contracts.TurnOption) (*models.TurnResult, error) {
	return nil, nil
}

func (f *fakePipeline) SubmitAsync(ctx context.Context, text string, opts ...contracts.TurnOption) (<-chan *models.TurnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.prompts = append(f.prompts, text)
	done := make(chan *models.TurnResult, 1)
	done <- &models.TurnResult{Outcome: models.OutcomeCompleted}
	close(done)
	return done, nil
}

func (f *fakePipeline) NewProject(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = append(f.projects, name)
	return nil
}

func (f *fakePipeline) OpenProject(root string) error { return nil }
func (f *fakePipeline) SelectFile(id string) error    { return nil }

func (f *fakePipeline) UpdateFileContent(path string, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[path]; !ok {
		return pipeline.ErrFileNotFound
	}
	f.files[path] = content
	return nil
}

func (f *fakePipeline) StopServer() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	return nil
}

func (f *fakePipeline) Snapshot() *models.Snapshot {
	return &models.Snapshot{
		State:    models.StateIdle,
		Project:  project.New("demo app", f.root, nil),
		Provider: "openai",
		Model:    "gpt-4o-mini",
	}
}

func (f *fakePipeline) LastArtifact() *parser_models.GeneratedArtifact              { return nil }
func (f *fakePipeline) UpdateProviderConfig(config providers.AIProviderConfig) error { return nil }
func (f *fakePipeline) Logs() contracts.ILogBook                                      { return f.logs }
func (f *fakePipeline) Shutdown()                                                     { f.logs.Close() }

func newTestRouter(t *testing.T) (*gin.Engine, *fakePipeline) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	fake := newFakePipeline(root)
	handler := NewHandler(fake, project_sandbox.NewProjectSandbox(filepath.Dir(root), nil), nil)
	return NewRouter(handler), fake
}

func doJSON(router http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) gateway_models.ErrorResponse {
	t.Helper()
	var response gateway_models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestGetState(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/state", "")

	require.Equal(t, http.StatusOK, w.Code)
	var snapshot models.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Equal(t, models.StateIdle, snapshot.State)
	assert.Equal(t, "demo app", snapshot.Project.Name)
	assert.Equal(t, "openai", snapshot.Provider)
}

func TestCreateTurn_Accepted(t *testing.T) {
	router, fake := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/turns", `{"prompt":"build a todo app"}`)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"build a todo app"}, fake.prompts)
}

func TestCreateTurn_MissingPrompt(t *testing.T) {
	router, fake := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/turns", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, gateway_models.ErrCodeInvalidRequest, decodeError(t, w).Code)
	assert.Empty(t, fake.prompts)
}

func TestCreateTurn_BlankPrompt(t *testing.T) {
	router, fake := newTestRouter(t)
	fake.submitErr = pipeline.ErrEmptyRequest

	w := doJSON(router, http.MethodPost, "/api/turns", `{"prompt":"   "}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, gateway_models.ErrCodeInvalidRequest, decodeError(t, w).Code)
}

func TestCreateTurn_Busy(t *testing.T) {
	router, fake := newTestRouter(t)
	fake.submitErr = pipeline.ErrTurnInProgress

	w := doJSON(router, http.MethodPost, "/api/turns", `{"prompt":"again"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, gateway_models.ErrCodeTurnInProgress, decodeError(t, w).Code)
}

func TestCreateProject(t *testing.T) {
	router, fake := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/projects", `{"name":"shop"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodPost, "/api/projects", "")
	assert.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, []string{"shop", ""}, fake.projects)
}

func TestUpdateFile(t *testing.T) {
	router, fake := newTestRouter(t)

	w := doJSON(router, http.MethodPut, "/api/files", `{"path":"src/App.tsx","content":"new"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "new", fake.files["src/App.tsx"])

	w = doJSON(router, http.MethodPut, "/api/files", `{"path":"src/Missing.tsx","content":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, gateway_models.ErrCodeNotFound, decodeError(t, w).Code)
}

func TestStopDevServer(t *testing.T) {
	router, fake := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/devserver/stop", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, fake.stopped)
}

func TestExport(t *testing.T) {
	router, fake := newTestRouter(t)
	require.NoError(t, os.MkdirAll(filepath.Join(fake.root, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(fake.root, "node_modules", "react"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(fake.root, "src", "App.tsx"), []byte("app"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(fake.root, "node_modules", "react", "index.js"), []byte("x"), 0o644))

	w := doJSON(router, http.MethodGet, "/api/export", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "demo-app.zip")
	assert.Equal(t, "1", w.Header().Get("X-Exported-Files"))

	archive, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, file := range archive.File {
		names = append(names, file.Name)
	}
	assert.Contains(t, names, "src/App.tsx")
	for _, name := range names {
		assert.NotContains(t, name, "node_modules")
	}
}

func TestStreamLogs_ReplaysAndFollows(t *testing.T) {
	router, fake := newTestRouter(t)
	fake.logs.Append(models.SourcePipeline, "Created project at /tmp/demo")

	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/logs/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first models.LogEntry
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "Created project at /tmp/demo", first.Message)

	fake.logs.Append(models.SourceDevServer, "VITE ready")

	var second models.LogEntry
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, models.SourceDevServer, second.Source)
	assert.Equal(t, "VITE ready", second.Message)
	assert.Greater(t, second.Seq, first.Seq)
}

func TestStreamLogs_ClosesWhenLogBookCloses(t *testing.T) {
	router, fake := newTestRouter(t)

	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/logs/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	fake.Shutdown()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	router, _ := newTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", router, nil)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
