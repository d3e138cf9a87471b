package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devfolio/internal/model"
)

type memTokens struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (m *memTokens) Token(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memTokens) SetToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memTokens) ClearToken(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.cleared++
	return nil
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusOK, map[string]any{"data": model.User{ID: "u1", Email: "a@b.co"}})
	}))
	defer srv.Close()

	tokens := &memTokens{token: "tok-123"}
	c := New(srv.URL, WithDefaultTokenStore(tokens))

	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestNoAuthorizationHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusOK, map[string]any{"data": []model.Blog{}, "count": 0})
	}))
	defer srv.Close()

	c := New(srv.URL, WithDefaultTokenStore(&memTokens{}))
	_, err := c.ListBlogs(context.Background(), model.ListFilters{})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestContextTokenStoreWins(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusOK, map[string]any{"data": []model.Resume{}})
	}))
	defer srv.Close()

	c := New(srv.URL, WithDefaultTokenStore(&memTokens{token: "process"}))
	ctx := WithTokenStore(context.Background(), &memTokens{token: "session"})

	_, err := c.ListResumes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer session", gotAuth)
}

func TestUnauthorizedClearsTokenAndFiresHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
	}))
	defer srv.Close()

	tokens := &memTokens{token: "stale"}
	var hookCalls int32
	c := New(srv.URL,
		WithDefaultTokenStore(tokens),
		WithUnauthorizedHook(func(context.Context) { atomic.AddInt32(&hookCalls, 1) }),
	)

	_, err := c.GetResume(context.Background(), "r1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "token expired", MessageOf(err))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))

	tok, _ := tokens.Token(context.Background())
	assert.Empty(t, tok)
	assert.Equal(t, 1, tokens.cleared)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hookCalls))
}

func TestFailuresAreNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.DashboardStats(context.Background())
	require.Error(t, err)
	assert.Equal(t, "boom", MessageOf(err))
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestNotFoundMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/blogs/slug/hello-world", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL + "/api/")
	_, err := c.GetBlogBySlug(context.Background(), "hello-world")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEnvelopeAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/admin/all", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "go", r.URL.Query().Get("search"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"data":       []model.Project{{ID: "p1", Slug: "one"}, {ID: "p2", Slug: "two"}},
			"count":      2,
			"pagination": model.Pagination{Page: 2, Limit: 5, Total: 7, TotalPages: 2},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.ListAdminProjects(context.Background(), model.ListFilters{Page: 2, Limit: 5, Search: "go"})
	require.NoError(t, err)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 7, resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
}

func TestFeaturedFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("featured"))
		writeJSON(t, w, http.StatusOK, map[string]any{"data": []model.Project{}})
	}))
	defer srv.Close()

	featured := true
	_, err := New(srv.URL).ListProjects(context.Background(), model.ListFilters{Featured: &featured})
	require.NoError(t, err)
}

// fakeResumeBackend keeps resumes in memory, the same way the real backend echoes them.
type fakeResumeBackend struct {
	mu      sync.Mutex
	resumes map[string]model.Resume
}

func (f *fakeResumeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/resumes":
		var in model.ResumeInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		res := model.Resume{ID: "r1", Title: in.Title, Data: in.Data}
		f.resumes[res.ID] = res
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": res})
	case r.Method == http.MethodGet && r.URL.Path == "/resumes/r1":
		_ = json.NewEncoder(w).Encode(map[string]any{"data": f.resumes["r1"]})
	case r.Method == http.MethodDelete && r.URL.Path == "/resumes/r1":
		delete(f.resumes, "r1")
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestResumeRoundTrip(t *testing.T) {
	backend := &fakeResumeBackend{resumes: map[string]model.Resume{}}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	data := model.ResumeData{
		PersonalInfo: model.PersonalInfo{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "1", Address: "London"},
		Summary:      "<p>Analyst</p>",
		Experience: []model.Experience{{
			ID: "e1", JobTitle: "Engineer", Company: "Engine Co", Location: "London",
			StartDate: "1842-01", Current: true, Description: "<p>Notes</p>",
		}},
		Skills: []model.Skill{{ID: "s1", Name: "Math", Level: model.SkillExpert}},
	}

	c := New(srv.URL)
	created, err := c.CreateResume(context.Background(), "My Resume", data)
	require.NoError(t, err)

	loaded, err := c.GetResume(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, data, loaded.Data)
	assert.Equal(t, "My Resume", loaded.Title)

	require.NoError(t, c.DeleteResume(context.Background(), created.ID))
}

func TestCanceledContextReturnsCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"data": []model.Resume{}})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL).ListResumes(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestObserverSeesRouteTemplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"message": "missing"})
	}))
	defer srv.Close()

	var gotMethod, gotRoute string
	var gotStatus int
	c := New(srv.URL, WithObserver(func(method, route string, status int, _ time.Duration) {
		gotMethod, gotRoute, gotStatus = method, route, status
	}))

	_, err := c.GetBlogBySlug(context.Background(), "hello-world")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "/blogs/slug/:slug", gotRoute)
	assert.Equal(t, http.StatusNotFound, gotStatus)
}

func TestContentOperations(t *testing.T) {
	blogForm := model.BlogFormData{Title: "Hello", Slug: "hello", Content: "<p>hi</p>", Published: true}
	projectForm := model.ProjectFormData{Title: "Tool", Slug: "tool", Description: "CLI", LiveURL: "https://tool.example"}

	tests := []struct {
		name       string
		call       func(c *Client) (string, error)
		wantMethod string
		wantPath   string
		wantBody   string
		respond    any
		wantTitle  string
	}{
		{
			name: "get blog",
			call: func(c *Client) (string, error) {
				b, err := c.GetBlog(context.Background(), "b 1")
				if err != nil {
					return "", err
				}
				return b.Title, nil
			},
			wantMethod: http.MethodGet,
			wantPath:   "/blogs/b%201",
			respond:    model.Blog{ID: "b 1", Title: "Stored"},
			wantTitle:  "Stored",
		},
		{
			name: "create blog",
			call: func(c *Client) (string, error) {
				b, err := c.CreateBlog(context.Background(), blogForm)
				if err != nil {
					return "", err
				}
				return b.Title, nil
			},
			wantMethod: http.MethodPost,
			wantPath:   "/blogs",
			wantBody:   `{"title":"Hello","slug":"hello","content":"<p>hi</p>","featured":false,"published":true}`,
			respond:    model.Blog{ID: "b2", Title: "Hello"},
			wantTitle:  "Hello",
		},
		{
			name: "update blog",
			call: func(c *Client) (string, error) {
				b, err := c.UpdateBlog(context.Background(), "b2", blogForm)
				if err != nil {
					return "", err
				}
				return b.Title, nil
			},
			wantMethod: http.MethodPut,
			wantPath:   "/blogs/b2",
			wantBody:   `{"title":"Hello","slug":"hello","content":"<p>hi</p>","featured":false,"published":true}`,
			respond:    model.Blog{ID: "b2", Title: "Hello v2"},
			wantTitle:  "Hello v2",
		},
		{
			name: "get project",
			call: func(c *Client) (string, error) {
				p, err := c.GetProject(context.Background(), "p1")
				if err != nil {
					return "", err
				}
				return p.Title, nil
			},
			wantMethod: http.MethodGet,
			wantPath:   "/projects/p1",
			respond:    model.Project{ID: "p1", Title: "Tool"},
			wantTitle:  "Tool",
		},
		{
			name: "create project",
			call: func(c *Client) (string, error) {
				p, err := c.CreateProject(context.Background(), projectForm)
				if err != nil {
					return "", err
				}
				return p.Title, nil
			},
			wantMethod: http.MethodPost,
			wantPath:   "/projects",
			wantBody:   `{"title":"Tool","slug":"tool","description":"CLI","content":"","liveUrl":"https://tool.example","featured":false,"published":false}`,
			respond:    model.Project{ID: "p2", Title: "Tool"},
			wantTitle:  "Tool",
		},
		{
			name: "update project",
			call: func(c *Client) (string, error) {
				p, err := c.UpdateProject(context.Background(), "p2", projectForm)
				if err != nil {
					return "", err
				}
				return p.Title, nil
			},
			wantMethod: http.MethodPut,
			wantPath:   "/projects/p2",
			wantBody:   `{"title":"Tool","slug":"tool","description":"CLI","content":"","liveUrl":"https://tool.example","featured":false,"published":false}`,
			respond:    model.Project{ID: "p2", Title: "Tool v2"},
			wantTitle:  "Tool v2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMethod, gotPath, gotAuth string
			var gotBody []byte
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod, gotPath = r.Method, r.URL.EscapedPath()
				gotAuth = r.Header.Get("Authorization")
				gotBody, _ = io.ReadAll(r.Body)
				writeJSON(t, w, http.StatusOK, map[string]any{"data": tt.respond})
			}))
			defer srv.Close()

			c := New(srv.URL, WithDefaultTokenStore(&memTokens{token: "admin"}))
			title, err := tt.call(c)
			require.NoError(t, err)

			assert.Equal(t, tt.wantMethod, gotMethod)
			assert.Equal(t, tt.wantPath, gotPath)
			assert.Equal(t, "Bearer admin", gotAuth)
			if tt.wantBody == "" {
				assert.Empty(t, gotBody)
			} else {
				assert.JSONEq(t, tt.wantBody, string(gotBody))
			}
			assert.Equal(t, tt.wantTitle, title)
		})
	}
}
