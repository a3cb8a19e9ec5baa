package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cohost-dashboard/internal/cohost"
	"cohost-dashboard/internal/common/config"
	apperrors "cohost-dashboard/internal/common/errors"
	"cohost-dashboard/internal/common/logger"
	"cohost-dashboard/internal/dashboard"
	"cohost-dashboard/internal/dashboard/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	classifyBody = `{"type":"question","confidence":0.92,"topic":"movement","urgency":"medium","reasoning":"Buyer asks about the movement"}`
	generateBody = `{"response_text":"This Submariner runs the Caliber 3135 automatic movement.","confidence":0.873,"requires_review":true,"reasoning":"Answered from the product context","alternative_responses":["It has a 3135."]}`
)

// remoteAPI fakes the co-host service and counts calls per endpoint.
type remoteAPI struct {
	classifyStatus int
	classifyBody   string
	generateStatus int
	generateBody   string
	classifyCalls  int32
	generateCalls  int32
	lastGenerate   atomic.Value
}

func (r *remoteAPI) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	status, body := http.StatusNotFound, `{}`
	switch req.URL.Path {
	case cohost.ClassifyPath:
		atomic.AddInt32(&r.classifyCalls, 1)
		status, body = r.classifyStatus, r.classifyBody
	case cohost.GeneratePath:
		atomic.AddInt32(&r.generateCalls, 1)
		raw, _ := io.ReadAll(req.Body)
		r.lastGenerate.Store(raw)
		status, body = r.generateStatus, r.generateBody
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func healthyRemote() *remoteAPI {
	return &remoteAPI{
		classifyStatus: http.StatusOK,
		classifyBody:   classifyBody,
		generateStatus: http.StatusOK,
		generateBody:   generateBody,
	}
}

func testConfig() *Config {
	return &Config{
		GinMode:     gin.TestMode,
		CookieName:  "cohost_session",
		CORSOrigins: []string{"http://localhost:3000", "https://*.vercel.app"},
		ServiceName: "cohost-dashboard",
		Version:     "test",
	}
}

func setupServer(t *testing.T, remote http.Handler) *Server {
	t.Helper()
	api := httptest.NewServer(remote)
	t.Cleanup(api.Close)

	log := logger.NewNoOpLogger()
	client := cohost.NewClient(&cohost.Config{BaseURL: api.URL, Timeout: 2 * time.Second}, log)
	sessions := store.NewMemory(time.Hour)
	ctrl := dashboard.NewController(dashboard.Config{RequesterID: "test-user"}, client, sessions, nil, log)

	srv, err := New(testConfig(), ctrl, sessions, log)
	require.NoError(t, err)
	return srv
}

// browser keeps the session cookie between requests like a real page would.
type browser struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func newBrowser(t *testing.T, srv *Server) *browser {
	b := &browser{t: t, srv: srv}
	rec := b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	return b
}

func (b *browser) do(method, path string, form url.Values, asJSON bool) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	rec := httptest.NewRecorder()
	b.srv.Handler().ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "cohost_session" {
			b.cookie = c
		}
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil, false)
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, form, false)
}

func (b *browser) postJSON(path string, form url.Values) map[string]interface{} {
	b.t.Helper()
	rec := b.do(http.MethodPost, path, form, true)
	require.Equal(b.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(b.t, rec)
}

func (b *browser) state() map[string]interface{} {
	b.t.Helper()
	rec := b.get("/api/state")
	require.Equal(b.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(b.t, rec)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func section(t *testing.T, body map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	v, ok := body[key].(map[string]interface{})
	require.True(t, ok, "missing %q in %v", key, body)
	return v
}

// ==========================
// Health & Readiness
// ==========================

func TestHealth(t *testing.T) {
	srv := setupServer(t, healthyRemote())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "cohost-dashboard", body["service"])
	assert.Empty(t, rec.Result().Cookies(), "health checks get no session")
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestReady(t *testing.T) {
	srv := setupServer(t, healthyRemote())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])

	srv.store = downStore{}
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "connection refused", body["error"])
}

func TestMetrics(t *testing.T) {
	srv := setupServer(t, healthyRemote())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// ==========================
// Session cookie
// ==========================

func TestIndex_IssuesSessionCookie(t *testing.T) {
	srv := setupServer(t, healthyRemote())
	b := &browser{t: t, srv: srv}

	rec := b.get("/")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, b.cookie)
	_, err := uuid.Parse(b.cookie.Value)
	assert.NoError(t, err)
	assert.True(t, b.cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, b.cookie.SameSite)

	page := rec.Body.String()
	assert.Contains(t, page, "Go Live AI Co-Host")
	assert.Contains(t, page, "Your AI assistant for live sales")
	assert.Contains(t, page, `value="Rolex"`)
	assert.Contains(t, page, `value="16610"`)
	assert.Contains(t, page, `value="12500"`)
	assert.Contains(t, page, "Classify Question")
	assert.NotContains(t, page, "Generate AI Response")
	assert.NotContains(t, page, `http-equiv="refresh"`)
}

func TestIndex_KeepsValidCookie(t *testing.T) {
	srv := setupServer(t, healthyRemote())
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "cohost_session", Value: id})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestIndex_ReplacesInvalidCookie(t *testing.T) {
	srv := setupServer(t, healthyRemote())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "cohost_session", Value: "../../etc/passwd"})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "../../etc/passwd", cookies[0].Value)
	_, err := uuid.Parse(cookies[0].Value)
	assert.NoError(t, err)
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := setupServer(t, healthyRemote())
	alice := newBrowser(t, srv)
	bob := newBrowser(t, srv)

	alice.postJSON("/question", url.Values{"question": {"Is this still available?"}})

	assert.Equal(t, "Is this still available?", section(t, alice.state(), "state")["question"])
	assert.Equal(t, "", section(t, bob.state(), "state")["question"])
}

// ==========================
// Form edits
// ==========================

func TestUpdateProduct(t *testing.T) {
	srv := setupServer(t, healthyRemote())
	b := newBrowser(t, srv)

	body := b.postJSON("/product", url.Values{
		"brand":              {"Omega"},
		"price":              {"abc"},
		"year":               {""},
		"box_papers_present": {"1"},
	})

	product := section(t, section(t, body, "state"), "product")
	assert.Equal(t, "Omega", product["brand"])
	assert.Equal(t, "Submariner", product["model"], "fields not submitted are untouched")
	assert.Nil(t, product["price"], "NaN price is null on the wire")
	assert.NotContains(t, product, "year")
	assert.Equal(t, false, product["box_papers"])

	view := section(t, section(t, body, "view"), "product")
	assert.Equal(t, "", view["price"])
	assert.Equal(t, "", view["year"])
}

func TestUpdateProduct_CheckboxWithoutMarker(t *testing.T) {
	srv := setupServer(t, healthyRemote())
	b := newBrowser(t, srv)

	body := b.postJSON("/product", url.Values{"model": {"GMT-Master"}})

	product := section(t, section(t, body, "state"), "product")
	assert.Equal(t, "GMT-Master", product["model"])
	assert.Equal(t, true, product["box_papers"])
}

func TestUpdateProduct_KeepsQuestion(t *testing.T) {
	srv := setupServer(t, healthyRemote())
	b := newBrowser(t, srv)

	body := b.postJSON("/product", url.Values{
		"brand":    {"Tudor"},
		"question": {"Does it come with the box?"},
	})

	state := section(t, body, "state")
	assert.Equal(t, "Tudor", section(t, state, "product")["brand"])
	assert.Equal(t, "Does it come with the box?", state["question"])

	again := section(t, b.state(), "state")
	assert.Equal(t, "Does it come with the box?", again["question"])
}

func TestUpdateProduct_IgnoresUnknownKeys(t *testing.T) {
	srv := setupServer(t, healthyRemote())
	b := newBrowser(t, srv)

	body := b.postJSON("/product", url.Values{
		"Brand":  {"Seiko"},
		"colour": {"blue"},
		"model":  {"Daytona"},
	})

	product := section(t, section(t, body, "state"), "product")
	assert.Equal(t, "Rolex", product["brand"], "field names are case sensitive")
	assert.Equal(t, "Daytona", product["model"])
	assert.NotContains(t, product, "colour")
}

func TestUpdateProduct_RedirectsBrowser(t *testing.T) {
	srv := setupServer(t, healthyRemote())
	b := newBrowser(t, srv)

	rec := b.post("/product", url.Values{"condition": {"Mint"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	page := b.get("/").Body.String()
	assert.Contains(t, page, `<option value="Mint" selected>Mint</option>`)
	assert.Contains(t, page, `<option value="Fair">Fair</option>`)
}

func TestReset(t *testing.T) {
	srv := setupServer(t, healthyRemote())
	b := newBrowser(t, srv)
	b.postJSON("/product", url.Values{"brand": {"Omega"}})
	b.postJSON("/question", url.Values{"question": {"Any scratches?"}})

	body := b.postJSON("/reset", nil)

	state := section(t, body, "state")
	assert.Equal(t, "", state["question"])
	assert.Equal(t, "Rolex", section(t, state, "product")["brand"])
}

// ==========================
// Classify & Generate
// ==========================

func TestClassify_EmptyQuestion(t *testing.T) {
	remote := healthyRemote()
	srv := setupServer(t, remote)
	b := newBrowser(t, srv)

	body := b.postJSON("/classify", url.Values{"question": {"   "}})

	view := section(t, body, "view")
	assert.Equal(t, "Please enter a question", view["error"])
	assert.Equal(t, string(dashboard.PhaseIdle), view["phase"])
	assert.Equal(t, int32(0), atomic.LoadInt32(&remote.classifyCalls))
}

func TestClassify_RemoteFailure(t *testing.T) {
	remote := healthyRemote()
	remote.classifyStatus = http.StatusInternalServerError
	remote.classifyBody = `{"detail":"model unavailable"}`
	srv := setupServer(t, remote)
	b := newBrowser(t, srv)

	rec := b.post("/classify", url.Values{"question": {"What movement is in this?"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	page := b.get("/").Body.String()
	assert.Contains(t, page, "Failed to classify message. Check your API connection.")
	assert.Contains(t, page, "Classify Question")
	assert.NotContains(t, page, "AI Classification")

	view := section(t, b.state(), "view")
	assert.Equal(t, false, view["classifying"])
	assert.NotContains(t, view, "classification")
}

func TestGenerate_BeforeClassify(t *testing.T) {
	remote := healthyRemote()
	srv := setupServer(t, remote)
	b := newBrowser(t, srv)

	body := b.postJSON("/generate", url.Values{"question": {"What movement is in this?"}})

	assert.Equal(t, string(dashboard.PhaseIdle), section(t, body, "view")["phase"])
	assert.Equal(t, int32(0), atomic.LoadInt32(&remote.generateCalls))
}

func TestGenerate_RemoteFailureKeepsClassification(t *testing.T) {
	remote := healthyRemote()
	remote.generateStatus = http.StatusBadGateway
	srv := setupServer(t, remote)
	b := newBrowser(t, srv)

	b.postJSON("/classify", url.Values{"question": {"What movement is in this?"}})
	body := b.postJSON("/generate", nil)

	view := section(t, body, "view")
	assert.Equal(t, "Failed to generate response. Check your API connection.", view["error"])
	assert.Equal(t, string(dashboard.PhaseClassified), view["phase"])
	assert.Contains(t, view, "classification")
	assert.NotContains(t, view, "generated")
}

func TestRolexScenario(t *testing.T) {
	remote := healthyRemote()
	srv := setupServer(t, remote)
	b := newBrowser(t, srv)

	rec := b.post("/classify", url.Values{
		"brand":              {"Rolex"},
		"reference":          {"16610"},
		"box_papers_present": {"1"},
		"box_papers":         {"on"},
		"question":           {"What movement is in this?"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	page := b.get("/").Body.String()
	assert.Contains(t, page, "Type: question")
	assert.Contains(t, page, "bg-green-100 text-green-800")
	assert.Contains(t, page, "Topic: movement")
	assert.Contains(t, page, "Urgency: medium")
	assert.Contains(t, page, "bg-yellow-100 text-yellow-800")
	assert.Contains(t, page, "92%")
	assert.Contains(t, page, "width: 92%")
	assert.Contains(t, page, "Buyer asks about the movement")
	assert.Contains(t, page, "Generate AI Response")

	rec = b.post("/generate", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	page = b.get("/").Body.String()
	assert.Contains(t, page, "⚠️ Requires human review before sending")
	assert.Contains(t, page, "This Submariner runs the Caliber 3135 automatic movement.")
	assert.Contains(t, page, "87%")
	assert.NotContains(t, page, "It has a 3135.", "alternatives are not rendered")

	raw, ok := remote.lastGenerate.Load().([]byte)
	require.True(t, ok)
	var sent cohost.GenerateRequest
	require.NoError(t, json.Unmarshal(raw, &sent))
	assert.Equal(t, "What movement is in this?", sent.Question)
	assert.Equal(t, "Rolex", sent.ProductContext.Brand)
	assert.Equal(t, 12500.0, sent.ProductContext.Price)
	require.NotNil(t, sent.SellerPreferences)
	assert.Equal(t, cohost.DefaultSellerPreferences(), *sent.SellerPreferences)

	view := section(t, b.state(), "view")
	assert.Equal(t, string(dashboard.PhaseGenerated), view["phase"])
	assert.Equal(t, true, view["canGenerate"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&remote.classifyCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&remote.generateCalls))
}

func TestClassify_NonQuestionHidesGenerate(t *testing.T) {
	remote := healthyRemote()
	remote.classifyBody = `{"type":"spam","confidence":0.99,"reasoning":"Link farm"}`
	srv := setupServer(t, remote)
	b := newBrowser(t, srv)

	b.post("/classify", url.Values{"question": {"cheap watches at example.com"}})

	page := b.get("/").Body.String()
	assert.Contains(t, page, "Type: spam")
	assert.Contains(t, page, "bg-red-100 text-red-800")
	assert.NotContains(t, page, "Topic:")
	assert.NotContains(t, page, "Urgency:")
	assert.NotContains(t, page, "Generate AI Response")
}

// ==========================
// Failures & CORS
// ==========================

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (dashboard.State, error) {
	return dashboard.State{}, apperrors.NewSessionStoreError("get", errors.New("connection reset"))
}

func (brokenStore) Put(context.Context, string, dashboard.State) error {
	return apperrors.NewSessionStoreError("put", errors.New("connection reset"))
}

func (brokenStore) Delete(context.Context, string) error { return nil }

func TestStoreFailure(t *testing.T) {
	log := logger.NewNoOpLogger()
	client := cohost.NewClient(&cohost.Config{BaseURL: "http://127.0.0.1:1"}, log)
	ctrl := dashboard.NewController(dashboard.Config{}, client, brokenStore{}, nil, log)
	srv, err := New(testConfig(), ctrl, store.NewMemory(0), log)
	require.NoError(t, err)

	for _, path := range []string{"/", "/api/state"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.Equal(t, string(apperrors.ErrCodeSessionStoreFailed), decode(t, rec)["code"], path)
	}
}

func TestCORS(t *testing.T) {
	srv := setupServer(t, healthyRemote())

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:3000", true},
		{"https://cohost-preview.vercel.app", true},
		{"https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/state", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			if tt.allowed {
				assert.Equal(t, http.StatusNoContent, rec.Code)
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Name: "cohost-dashboard", Version: "1.2.3"},
		Server: config.ServerConfig{
			Address:         ":8080",
			ReadTimeout:     1500,
			ShutdownTimeout: 10000,
			CORSOrigins:     []string{"http://localhost:3000"},
			GinMode:         "release",
		},
	}

	got := LoadConfig(cfg)

	assert.Equal(t, ":8080", got.Address)
	assert.Equal(t, 1500*time.Millisecond, got.ReadTimeout)
	assert.Equal(t, time.Duration(0), got.WriteTimeout)
	assert.Equal(t, 10*time.Second, got.ShutdownTimeout)
	assert.Equal(t, "cohost_session", got.CookieName, "falls back to the default cookie")
	assert.Equal(t, "cohost-dashboard", got.ServiceName)
	assert.Equal(t, "1.2.3", got.Version)
}
