package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-builder/internal/config"
	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/enhance"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/llm"
	"github.com/jonathan/cv-builder/internal/logger"
	"github.com/jonathan/cv-builder/internal/persistence"
	"github.com/jonathan/cv-builder/internal/server/ratelimit"
	"github.com/jonathan/cv-builder/internal/storage"
)

type enhancerFunc func(ctx context.Context, req enhance.Request) (string, error)

func (f enhancerFunc) Enhance(ctx context.Context, req enhance.Request) (string, error) {
	return f(ctx, req)
}

type testServerOptions struct {
	enhancer editor.Enhancer
	limiter  *ratelimit.Limiter
	jwt      *config.JWTConfig
}

func newTestServer(t *testing.T, opts testServerOptions) (*Server, http.Handler) {
	t.Helper()
	adapter := persistence.New(storage.NewMemoryStore(), logger.Nop())
	session := editor.NewSession(context.Background(), adapter, editor.Options{
		Enhancer: opts.enhancer,
		Exporter: export.New(nil, adapter, logger.Nop()),
		Keymap:   editor.DefaultKeymap("linux"),
		Logger:   logger.Nop(),
	})
	if opts.limiter == nil {
		opts.limiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}
	srv := New(session, Options{Limiter: opts.limiter, JWT: opts.jwt, Logger: logger.Nop()})
	t.Cleanup(srv.rateLimiter.Stop)
	return srv, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoint(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetDocument_Empty(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})

	w := do(t, h, http.MethodGet, "/document", "")
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[editor.State](t, w)
	assert.Empty(t, st.ActiveName)
	assert.False(t, st.CanUndo)
	assert.Empty(t, st.Document.Skills)
}

func TestSetField(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})

	w := do(t, h, http.MethodPut, "/document/fields/name", `{"value":"Ana Lima"}`)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[editor.State](t, w)
	assert.Equal(t, "Ana Lima", st.Document.PersonalInfo.Name)
	assert.True(t, st.CanUndo)
}

func TestSetField_BadRequests(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})

	tests := []struct {
		name, path, body string
		want             int
	}{
		{"unknown field", "/document/fields/age", `{"value":"x"}`, http.StatusNotFound},
		{"not a string", "/document/fields/name", `{"value":42}`, http.StatusBadRequest},
		{"missing value", "/document/fields/name", `{}`, http.StatusBadRequest},
		{"unknown key", "/document/fields/name", `{"value":"x","extra":1}`, http.StatusBadRequest},
		{"not json", "/document/fields/name", `value=x`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestListItemLifecycle(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})

	w := do(t, h, http.MethodPost, "/document/skills", "")
	require.Equal(t, http.StatusCreated, w.Code)
	added := decode[addItemResponse](t, w)
	require.NotEmpty(t, added.ID)
	require.Len(t, added.State.Document.Skills, 1)

	w = do(t, h, http.MethodPut, "/document/skills/"+added.ID+"/name", `{"value":"Go"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Go", decode[editor.State](t, w).Document.Skills[0].Name)

	w = do(t, h, http.MethodPut, "/document/skills/"+added.ID+"/level", `{"value":"Guru"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, added.State.Document.Skills[0].Level, decode[editor.State](t, w).Document.Skills[0].Level)

	w = do(t, h, http.MethodDelete, "/document/skills/"+added.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[editor.State](t, w).Document.Skills)
}

func TestListItem_BoolField(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})

	added := decode[addItemResponse](t, do(t, h, http.MethodPost, "/document/experiences", ""))
	w := do(t, h, http.MethodPut, "/document/experiences/"+added.ID+"/isCurrent", `{"value":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[editor.State](t, w).Document.Experiences[0].IsCurrent)
}

func TestListItem_NotFound(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})
	added := decode[addItemResponse](t, do(t, h, http.MethodPost, "/document/education", ""))

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/document/hobbies", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/document/education/nope/degree", `{"value":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/document/education/"+added.ID+"/gpa", `{"value":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/document/education/nope", "").Code)
}

func TestUndoRedo(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})
	do(t, h, http.MethodPut, "/document/fields/summary", `{"value":"First"}`)

	w := do(t, h, http.MethodPost, "/undo", "")
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[editor.State](t, w)
	assert.Empty(t, st.Document.Summary)
	assert.True(t, st.CanRedo)

	st = decode[editor.State](t, do(t, h, http.MethodPost, "/redo", ""))
	assert.Equal(t, "First", st.Document.Summary)
	assert.False(t, st.CanRedo)
}

func TestDocuments(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})
	do(t, h, http.MethodPut, "/document/fields/name", `{"value":"Ana"}`)

	w := do(t, h, http.MethodPost, "/documents", `{"name":"main"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "main", decode[editor.State](t, w).ActiveName)

	list := decode[documentsResponse](t, do(t, h, http.MethodGet, "/documents", ""))
	assert.Equal(t, []string{"main"}, list.Names)
	assert.Equal(t, "main", list.Active)

	st := decode[editor.State](t, do(t, h, http.MethodPost, "/new", ""))
	assert.Empty(t, st.ActiveName)
	assert.Empty(t, st.Document.PersonalInfo.Name)

	w = do(t, h, http.MethodPost, "/documents/main/load", "")
	require.Equal(t, http.StatusOK, w.Code)
	st = decode[editor.State](t, w)
	assert.Equal(t, "main", st.ActiveName)
	assert.Equal(t, "Ana", st.Document.PersonalInfo.Name)

	w = do(t, h, http.MethodDelete, "/documents/main", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[editor.State](t, w).ActiveName)

	list = decode[documentsResponse](t, do(t, h, http.MethodGet, "/documents", ""))
	assert.Empty(t, list.Names)
	assert.NotNil(t, list.Names)
}

func TestDocuments_Errors(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/documents", `{"name":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/documents", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/documents/ghost/load", "").Code)
}

func TestImport(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})

	w := do(t, h, http.MethodPost, "/import", `{"personalInfo":{"name":"Ana"},"skills":[{"name":"Go","level":"Advanced"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st := decode[editor.State](t, w)
	assert.Equal(t, "Ana", st.Document.PersonalInfo.Name)
	require.Len(t, st.Document.Skills, 1)
	assert.NotEmpty(t, st.Document.Skills[0].ID)
	assert.Empty(t, st.ActiveName)

	w = do(t, h, http.MethodPost, "/import", `{"summary":"no name"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})
	do(t, h, http.MethodPut, "/document/fields/name", `{"value":"Ana Lima"}`)

	w := do(t, h, http.MethodGet, "/export?format=tex", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/x-tex", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "CV_Ana_Lima.tex")
	assert.Contains(t, w.Body.String(), `\documentclass`)

	w = do(t, h, http.MethodGet, "/export?format=json&file_name=mine", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "mine.json")
	assert.Contains(t, w.Body.String(), `"Ana Lima"`)
}

func TestExport_Errors(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})

	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/export", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/export?format=docx", "").Code)
}

func TestEnhance(t *testing.T) {
	var got enhance.Request
	enh := enhancerFunc(func(_ context.Context, req enhance.Request) (string, error) {
		got = req
		return "Improved.", nil
	})
	_, h := newTestServer(t, testServerOptions{enhancer: enh})
	do(t, h, http.MethodPut, "/document/fields/summary", `{"value":"draft"}`)

	w := do(t, h, http.MethodPost, "/enhance", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Improved.", decode[editor.State](t, w).Document.Summary)
	assert.Equal(t, enhance.ContextSummary, got.Context)
	assert.Equal(t, "draft", got.Text)

	added := decode[addItemResponse](t, do(t, h, http.MethodPost, "/document/experiences", ""))
	w = do(t, h, http.MethodPost, "/enhance", `{"item_id":"`+added.ID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Improved.", decode[editor.State](t, w).Document.Experiences[0].Description)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/enhance", `{"item_id":"ghost"}`).Code)
}

func TestEnhance_ProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       int
		retryAfter string
	}{
		{"no key", llm.ErrMissingCredential, http.StatusServiceUnavailable, ""},
		{"throttled", &llm.RateLimitError{RetryAfter: 1500 * time.Millisecond, Cause: errors.New("quota")}, http.StatusTooManyRequests, "2"},
		{"garbage", llm.ErrMalformedResponse, http.StatusBadGateway, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enh := enhancerFunc(func(context.Context, enhance.Request) (string, error) { return "", tt.err })
			_, h := newTestServer(t, testServerOptions{enhancer: enh})

			w := do(t, h, http.MethodPost, "/enhance", `{}`)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
		})
	}
}

func TestPreview(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})
	do(t, h, http.MethodPut, "/document/fields/name", `{"value":"Ana <Lima>"}`)

	w := do(t, h, http.MethodGet, "/preview", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Ana &lt;Lima&gt;")
}

func TestValidation(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})

	body := decode[map[string][]map[string]string](t, do(t, h, http.MethodGet, "/validation", ""))
	assert.NotNil(t, body["advisories"])

	do(t, h, http.MethodPut, "/document/fields/email", `{"value":"not-an-email"}`)
	body = decode[map[string][]map[string]string](t, do(t, h, http.MethodGet, "/validation", ""))
	require.NotEmpty(t, body["advisories"])
	assert.Equal(t, "personalInfo.email", body["advisories"][0]["field"])
}

func TestNotices(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})
	do(t, h, http.MethodPost, "/documents", `{"name":"main"}`)

	body := decode[map[string][]editor.Notice](t, do(t, h, http.MethodGet, "/notices", ""))
	require.NotEmpty(t, body["notices"])
	last := body["notices"][len(body["notices"])-1]
	assert.Equal(t, editor.NoticeSuccess, last.Kind)
	assert.Contains(t, last.Message, "main")
}

func TestCommands(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})

	list := decode[map[string][]string](t, do(t, h, http.MethodGet, "/commands", ""))
	assert.Contains(t, list["commands"], "toggle-preview")

	w := do(t, h, http.MethodPost, "/commands/toggle-preview", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[commandResponse](t, w).State.FullPreview)

	w = do(t, h, http.MethodPost, "/commands/export", `{"format":"txt"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[commandResponse](t, w)
	require.NotNil(t, res.Artifact)
	assert.Equal(t, "CV_Candidate.txt", res.Artifact.FileName)
	assert.Equal(t, len(res.Artifact.Data), res.Artifact.Size)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/commands/fly", "").Code)
}

func TestKeys(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})
	do(t, h, http.MethodPut, "/document/fields/summary", `{"value":"First"}`)

	w := do(t, h, http.MethodPost, "/keys", `{"combo":"ctrl+z"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decode[commandResponse](t, w).State.Document.Summary)

	w = do(t, h, http.MethodPost, "/keys", `{"combo":"ctrl+s","name":"main"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "main", decode[commandResponse](t, w).State.ActiveName)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/keys", `{"combo":"ctrl+q"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/keys", `{"combo":"hyper+z"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/keys", `{}`).Code)
}

func TestAuth(t *testing.T) {
	jwtCfg := &config.JWTConfig{Secret: testSecret, ExpirationHours: 1}
	_, h := newTestServer(t, testServerOptions{jwt: jwtCfg})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/document", "").Code)

	token, err := NewJWTService(jwtCfg).GenerateToken("editor")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/document", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/new", Method: "POST", Limit: 1, Window: time.Minute, Burst: 1},
		},
	})
	_, h := newTestServer(t, testServerOptions{limiter: limiter})

	w := do(t, h, http.MethodPost, "/new", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = do(t, h, http.MethodPost, "/new", "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	body := decode[map[string]any](t, w)
	assert.Equal(t, "rate_limit_exceeded", body["error"])

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})

	w := do(t, h, http.MethodOptions, "/document/fields/name", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestWithRecover(t *testing.T) {
	srv, _ := newTestServer(t, testServerOptions{})
	h := srv.withRecover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := do(t, h, http.MethodGet, "/anything", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "Something went wrong")
}

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEvents(t *testing.T) {
	_, h := newTestServer(t, testServerOptions{})
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := bufio.NewReader(resp.Body)
	first := readEvent(t, events)
	assert.Equal(t, "state", first.name)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		put, _ := http.NewRequest(http.MethodPut, ts.URL+"/document/fields/name", strings.NewReader(`{"value":"Ana"}`))
		if res, err := http.DefaultClient.Do(put); err == nil {
			res.Body.Close()
		}
	}()

	next := readEvent(t, events)
	wg.Wait()
	assert.Equal(t, "state", next.name)
	var st editor.State
	require.NoError(t, json.Unmarshal([]byte(next.data), &st))
	assert.Equal(t, "Ana", st.Document.PersonalInfo.Name)
}
