package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/bananadeck/internal/contract"
	"github.com/alexanderramin/bananadeck/internal/domain"
	"github.com/alexanderramin/bananadeck/internal/repository"
	"github.com/alexanderramin/bananadeck/internal/service"
	"github.com/alexanderramin/bananadeck/internal/testutil"
)

var errRender = errors.New("render failed")

type testEnv struct {
	studio service.StudioService
	gw     *testutil.FakeGateway
	repo   *repository.SQLiteArtifactRepo
	srv    *httptest.Server
}

func newTestEnv(t *testing.T, opts ...testutil.FakeOption) *testEnv {
	t.Helper()
	opts = append([]testutil.FakeOption{
		testutil.WithSkeletons(testutil.NewTestSkeleton("Deck", 3)),
		testutil.WithExpansion(testutil.NewTestSpecs("Deep", 3)),
	}, opts...)
	gw := testutil.NewFakeGateway(opts...)
	studio := service.NewStudioService(gw, nil)
	repo := repository.NewSQLiteArtifactRepo(testutil.NewTestDB(t))

	s, err := NewServer(studio, repo, WithRegistry(prometheus.NewRegistry()), WithPingInterval(time.Second))
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		studio.Close()
	})
	return &testEnv{studio: studio, gw: gw, repo: repo, srv: srv}
}

func (e *testEnv) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(e.srv.URL+path, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) generate(t *testing.T) contract.GenerateResponse {
	t.Helper()
	resp := e.post(t, "/api/generate", contract.GenerateRequest{Sources: []string{"notes.md"}, Wait: true})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	return decode[contract.GenerateResponse](t, resp)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGenerateThenView(t *testing.T) {
	env := newTestEnv(t)

	gen := env.generate(t)
	assert.Equal(t, "Deck", gen.Title)
	assert.Equal(t, 3, gen.SlideCount)
	require.NotNil(t, gen.Summary)
	assert.Equal(t, 3, gen.Summary.Succeeded)

	view := decode[contract.PublishedView](t, env.get(t, "/api/view"))
	assert.Equal(t, gen.DeckID, view.DeckID)
	require.Len(t, view.Slides, 3)
	assert.Equal(t, "Deck 1", view.Slides[0].Title)
	assert.Equal(t, string(domain.VisualReady), view.Slides[0].VisualStatus)
	assert.False(t, view.Busy)
}

func TestGenerate_Errors(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/api/generate", contract.GenerateRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[errorBody](t, resp)
	assert.Equal(t, "NO_INPUTS", body.Error.Code)

	raw, err := http.Post(env.srv.URL+"/api/generate", "application/json", strings.NewReader(`{"nope":1}`))
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestGenerate_StructureFailureIsBadGateway(t *testing.T) {
	env := newTestEnv(t, testutil.WithStructureError(errors.New("model down")))

	resp := env.post(t, "/api/generate", contract.GenerateRequest{Sources: []string{"notes.md"}})

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body := decode[errorBody](t, resp)
	assert.Equal(t, "STRUCTURE_GENERATION_FAILED", body.Error.Code)
	assert.Equal(t, "structure", body.Error.Phase)

	view := decode[contract.PublishedView](t, env.get(t, "/api/view"))
	require.NotNil(t, view.Error)
	assert.Equal(t, "structure", view.Error.Phase)
}

func TestExpandNavigateAndHistory(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)
	parent := env.studio.Snapshot().Slides[1]

	resp := env.post(t, "/api/expand", contract.ExpandRequest{SlideID: parent.ID, Lens: "Business", Wait: true, Enter: true})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	exp := decode[contract.ExpandResponse](t, resp)
	assert.Len(t, exp.ChildIDs, 3)
	assert.Equal(t, "business", exp.Lens)

	view := decode[contract.PublishedView](t, env.get(t, "/api/view"))
	assert.False(t, view.View.IsMain())
	require.Len(t, view.Breadcrumb, 1)
	assert.Equal(t, "Deck 2", view.Breadcrumb[0].Title)

	back := env.post(t, "/api/navigate", map[string]string{"action": "go-back"})
	require.Equal(t, http.StatusOK, back.StatusCode)
	assert.True(t, decode[contract.PublishedView](t, back).View.IsMain())

	history := decode[[]contract.RecordView](t, env.get(t, "/api/history/"+parent.ID))
	require.Len(t, history, 1)
	assert.Equal(t, "business", history[0].Lens)

	all := decode[[]contract.RecordView](t, env.get(t, "/api/history"))
	assert.Len(t, all, 1)

	outline := decode[contract.Outline](t, env.get(t, "/api/outline"))
	assert.Equal(t, 6, outline.Count())
}

func TestExpand_UnknownSlide(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)

	resp := env.post(t, "/api/expand", contract.ExpandRequest{SlideID: "missing", Lens: "technical"})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestNavigate_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)

	resp := env.post(t, "/api/navigate", map[string]string{"action": "teleport"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.post(t, "/api/navigate", map[string]string{"action": "advance"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRetryVisual(t *testing.T) {
	env := newTestEnv(t, testutil.WithVisualFailure("Deck 2", errRender))
	env.generate(t)
	failed := env.studio.Snapshot().Slides[1]
	require.Equal(t, string(domain.VisualFailed), failed.VisualStatus)

	ready := env.post(t, "/api/slides/"+env.studio.Snapshot().Slides[0].ID+"/retry", nil)
	assert.Equal(t, http.StatusConflict, ready.StatusCode)

	env.gw.SetVisualFailure("Deck 2", nil)
	resp := env.post(t, "/api/slides/"+failed.ID+"/retry", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(domain.VisualReady), decode[contract.RetryVisualResponse](t, resp).Status)

	missing := env.post(t, "/api/slides/nope/retry", nil)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestArtifact(t *testing.T) {
	env := newTestEnv(t)
	blob := &domain.ArtifactBlob{
		ID:        "img-1",
		MimeType:  "image/png",
		Data:      []byte("\x89PNG fake"),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, env.repo.Create(context.Background(), blob))

	resp := env.get(t, "/api/artifacts/img-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, blob.Data, data)

	assert.Equal(t, http.StatusNotFound, env.get(t, "/api/artifacts/missing").StatusCode)
}

func TestWebsocketStreamsViews(t *testing.T) {
	env := newTestEnv(t)
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first contract.PublishedView
	require.NoError(t, conn.ReadJSON(&first))
	assert.Empty(t, first.Slides)

	env.generate(t)

	var last contract.PublishedView
	for last.Progress.Phase != service.PhaseComplete {
		require.NoError(t, conn.ReadJSON(&last))
	}
	assert.Equal(t, "Deck", last.DeckTitle)
	assert.Len(t, last.Slides, 3)
}

func TestMetricsExposeRequests(t *testing.T) {
	env := newTestEnv(t)
	env.get(t, "/health")

	resp := env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bananadeck_http_requests_total{code="200",method="GET",route="/health"} 1`)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"closed", service.ErrClosed, http.StatusServiceUnavailable},
		{"not found", repository.ErrNotFound, http.StatusNotFound},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
		{"not retryable", &contract.StudioError{Code: contract.ErrNotRetryable}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := classify(tt.err)
			assert.Equal(t, tt.status, status)
		})
	}
}
