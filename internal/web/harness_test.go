package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"devfolio/internal/auth"
	"devfolio/internal/config"
	"devfolio/internal/database"
	"devfolio/internal/exports"
	"devfolio/internal/model"
	"devfolio/internal/preview"
	"devfolio/internal/session"
)

// fakeBackend 模拟外部 REST 后端。
type fakeBackend struct {
	mu       sync.Mutex
	users    map[string]model.User // token -> user
	resumes  map[string]model.Resume
	nextID   int
	calls    map[string]int
	authSeen []string
	headers  map[string][]string
	blogs    []model.Blog
	stats    model.DashboardStats
	gate     *createGate
}

// createGate 让创建请求在后端停住，直到测试放行。
type createGate struct {
	started chan struct{}
	release chan struct{}
}

func (b *fakeBackend) holdCreates() (<-chan struct{}, func()) {
	g := &createGate{started: make(chan struct{}, 1), release: make(chan struct{})}
	b.mu.Lock()
	b.gate = g
	b.mu.Unlock()
	var once sync.Once
	return g.started, func() { once.Do(func() { close(g.release) }) }
}

func (b *fakeBackend) waitGate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		g := b.gate
		b.mu.Unlock()
		if g != nil {
			select {
			case g.started <- struct{}{}:
			default:
			}
			<-g.release
		}
		next(w, r)
	}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users: map[string]model.User{
			"tok-user":  {ID: "u-1", Email: "ada@example.com", Username: "ada", Role: model.RoleUser},
			"tok-admin": {ID: "u-2", Email: "root@example.com", Role: model.RoleAdmin},
		},
		resumes: map[string]model.Resume{},
		calls:   map[string]int{},
		headers: map[string][]string{},
	}
}

func (b *fakeBackend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[key]
}

// authorizations returns the Authorization header of every call to key.
func (b *fakeBackend) authorizations(key string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.headers[key]...)
}

func (b *fakeBackend) putResume(r model.Resume) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resumes[r.ID] = r
}

func (b *fakeBackend) resume(id string) (model.Resume, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.resumes[id]
	return r, ok
}

func (b *fakeBackend) allResumes() []model.Resume {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Resume, 0, len(b.resumes))
	for _, r := range b.resumes {
		out = append(out, r)
	}
	return out
}

func (b *fakeBackend) setBlogs(blogs ...model.Blog) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blogs = blogs
}

func (b *fakeBackend) setStats(s model.DashboardStats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = s
}

func (b *fakeBackend) seenTokens() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authSeen...)
}

func (b *fakeBackend) revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.users, token)
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	authed := func(w http.ResponseWriter, r *http.Request) (model.User, bool) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.authSeen = append(b.authSeen, token)
		u, ok := b.users[token]
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
		}
		return u, ok
	}
	wrap := func(key string, fn func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.calls[key]++
			b.headers[key] = append(b.headers[key], r.Header.Get("Authorization"))
			fn(w, r)
		}
	}

	mux.HandleFunc("POST /auth/login", wrap("login", func(w http.ResponseWriter, r *http.Request) {
		var creds model.LoginCredentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		for token, u := range b.users {
			if u.Email == creds.Email && creds.Password == "secret" {
				writeJSON(w, http.StatusOK, model.AuthResponse{User: u, Token: token})
				return
			}
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	}))
	mux.HandleFunc("POST /auth/register", wrap("register", func(w http.ResponseWriter, r *http.Request) {
		var creds model.RegisterCredentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		u := model.User{ID: "u-new", Email: creds.Email, Username: creds.Username, Role: model.RoleUser}
		b.users["tok-new"] = u
		writeJSON(w, http.StatusCreated, model.AuthResponse{User: u, Token: "tok-new"})
	}))
	mux.HandleFunc("GET /auth/me", wrap("me", func(w http.ResponseWriter, r *http.Request) {
		if u, ok := authed(w, r); ok {
			writeJSON(w, http.StatusOK, map[string]any{"data": u})
		}
	}))
	mux.HandleFunc("GET /resumes", wrap("list-resumes", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r); !ok {
			return
		}
		out := []model.Resume{}
		for _, res := range b.resumes {
			out = append(out, res)
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": out})
	}))
	mux.HandleFunc("GET /resumes/{id}", wrap("get-resume", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r); !ok {
			return
		}
		res, ok := b.resumes[r.PathValue("id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Resume not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": res})
	}))
	mux.HandleFunc("POST /resumes", b.waitGate(wrap("create-resume", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r); !ok {
			return
		}
		var in model.ResumeInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.nextID++
		res := model.Resume{ID: "r-" + strconv.Itoa(b.nextID), Title: in.Title, Data: in.Data, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		b.resumes[res.ID] = res
		writeJSON(w, http.StatusCreated, map[string]any{"data": res})
	})))
	mux.HandleFunc("PUT /resumes/{id}", wrap("update-resume", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r); !ok {
			return
		}
		var in model.ResumeInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		res := b.resumes[r.PathValue("id")]
		res.Title, res.Data, res.UpdatedAt = in.Title, in.Data, time.Now()
		b.resumes[res.ID] = res
		writeJSON(w, http.StatusOK, map[string]any{"data": res})
	}))
	mux.HandleFunc("DELETE /resumes/{id}", wrap("delete-resume", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r); !ok {
			return
		}
		delete(b.resumes, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /blogs", wrap("list-blogs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.ListResponse[model.Blog]{
			Data:       b.blogs,
			Count:      len(b.blogs),
			Pagination: model.Pagination{Page: 1, Limit: 9, Total: 30, TotalPages: 4},
		})
	}))
	mux.HandleFunc("GET /blogs/slug/{slug}", wrap("get-blog", func(w http.ResponseWriter, r *http.Request) {
		for _, blog := range b.blogs {
			if blog.Slug == r.PathValue("slug") {
				writeJSON(w, http.StatusOK, map[string]any{"data": blog})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Blog not found"})
	}))
	mux.HandleFunc("GET /projects", wrap("list-projects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.ListResponse[model.Project]{Data: []model.Project{}})
	}))
	mux.HandleFunc("GET /dashboard/stats", wrap("stats", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r); ok {
			writeJSON(w, http.StatusOK, map[string]any{"data": b.stats})
		}
	}))
	mux.HandleFunc("GET /blogs/admin/all", wrap("admin-blogs", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r); ok {
			writeJSON(w, http.StatusOK, model.ListResponse[model.Blog]{Data: b.blogs})
		}
	}))
	mux.HandleFunc("GET /projects/admin/all", wrap("admin-projects", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r); ok {
			writeJSON(w, http.StatusOK, model.ListResponse[model.Project]{Data: []model.Project{}})
		}
	}))
	return mux
}

type fakePDF struct {
	mu     sync.Mutex
	titles []string
}

func (f *fakePDF) ResumePDF(_ context.Context, title string, _ model.ResumeData) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	return []byte("%PDF-1.4 fake"), nil
}

func (f *fakePDF) rendered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.titles...)
}

type fakeExports struct {
	mu       sync.Mutex
	requests []model.Resume
	users    []string
	created  []database.Export
}

func (f *fakeExports) Request(_ context.Context, userID string, r model.Resume, _ string) (*database.Export, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)
	f.users = append(f.users, userID)
	e := &database.Export{UserID: userID, ResumeID: r.ID, Title: r.Title, Status: database.ExportPending}
	e.ID = uint(len(f.requests))
	e.CreatedAt = time.Now()
	f.created = append(f.created, *e)
	return e, nil
}

func (f *fakeExports) List(_ context.Context, userID, resumeID string, limit int) ([]database.Export, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []database.Export
	for i := len(f.created) - 1; i >= 0 && len(out) < limit; i-- {
		e := f.created[i]
		if e.UserID == userID && (resumeID == "" || e.ResumeID == resumeID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExports) DownloadURL(_ context.Context, userID string, id uint) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(id) > len(f.requests) || f.users[id-1] != userID {
		return "", exports.ErrNotFound
	}
	return "https://files.example.test/exports/" + userID + ".pdf", nil
}

func (f *fakeExports) requesters() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.users...)
}

type harness struct {
	t        *testing.T
	backend  *fakeBackend
	registry *auth.Registry
	server   *httptest.Server
	http     *http.Client
	pdf      *fakePDF
	exports  *fakeExports
}

func testConfig(backendURL string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "devfolio", Environment: "test"},
		Web: config.WebConfig{
			Port:            3000,
			SiteURL:         "https://devfolio.example.test",
			AuthInitTimeout: 2 * time.Second,
			PublicCacheTTL:  time.Minute,
			PageSize:        9,
		},
		Backend: config.BackendConfig{BaseURL: backendURL, Timeout: 5 * time.Second},
		Session: config.SessionConfig{Driver: "memory", TTL: time.Hour},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := newFakeBackend()
	backendSrv := httptest.NewServer(backend.handler())
	t.Cleanup(backendSrv.Close)

	cfg := testConfig(backendSrv.URL)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewMemoryStorage(cfg.Session.TTL, time.Minute)
	api, registry := NewBackend(cfg, sessions, logger)

	h := &harness{t: t, backend: backend, registry: registry, pdf: &fakePDF{}, exports: &fakeExports{}}
	router, err := NewRouter(Options{
		Config:   cfg,
		Logger:   logger,
		API:      api,
		Sessions: sessions,
		Registry: registry,
		Preview:  preview.NewRenderer(),
		PDF:      h.pdf,
		Exports:  h.exports,
	})
	require.NoError(t, err)

	h.server = httptest.NewServer(router)
	t.Cleanup(h.server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	h.http = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return h
}

func (h *harness) do(req *http.Request) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.http.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp, string(body)
}

func (h *harness) get(path string) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.server.URL+path, nil)
	require.NoError(h.t, err)
	return h.do(req)
}

func (h *harness) post(path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

// postStatus is safe to call off the test goroutine.
func (h *harness) postStatus(path string, form url.Values) int {
	resp, err := h.http.PostForm(h.server.URL+path, form)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func (h *harness) postJSON(path string) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.server.URL+path, nil)
	require.NoError(h.t, err)
	req.Header.Set("Accept", "application/json")
	return h.do(req)
}

func (h *harness) login(email string) {
	h.t.Helper()
	resp, _ := h.post("/login", url.Values{"email": {email}, "password": {"secret"}})
	require.Equal(h.t, http.StatusSeeOther, resp.StatusCode)
}
