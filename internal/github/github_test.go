package github

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "gho_test"

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.Client(), srv.URL)
	require.NoError(t, err)
	return c
}

func encoded(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestGetRepository(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repositories/42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-GitHub-Api-Version"))
		fmt.Fprint(w, `{
			"id": 42,
			"name": "demo",
			"full_name": "octo/demo",
			"owner": {"login": "octo"},
			"description": null,
			"language": "Go",
			"stargazers_count": 12,
			"forks_count": 3,
			"html_url": "https://github.com/octo/demo",
			"default_branch": "main",
			"private": true,
			"updated_at": "2024-05-01T10:00:00Z"
		}`)
	})

	repo, err := newTestClient(t, mux).GetRepository(t.Context(), testToken, 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), repo.ID)
	assert.Equal(t, "octo", repo.Owner)
	assert.Equal(t, "octo/demo", repo.FullName)
	assert.Nil(t, repo.Description)
	require.NotNil(t, repo.Language)
	assert.Equal(t, "Go", *repo.Language)
	assert.Equal(t, 12, repo.Stars)
	assert.Equal(t, 3, repo.Forks)
	assert.Equal(t, "main", repo.DefaultBranch)
	assert.True(t, repo.Private)
	require.NotNil(t, repo.UpdatedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), repo.UpdatedAt.UTC())
}

func TestGetRepository_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		headers    map[string]string
		body       string
		wantStatus int
	}{
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       `{"message": "Not Found"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "forbidden",
			status:     http.StatusForbidden,
			body:       `{"message": "Resource not accessible by integration"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "primary rate limit",
			status: http.StatusForbidden,
			headers: map[string]string{
				"X-RateLimit-Limit":     "60",
				"X-RateLimit-Remaining": "0",
				"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10),
			},
			body:       `{"message": "API rate limit exceeded for 203.0.113.7."}`,
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "rate limit mentioned in message only",
			status:     http.StatusForbidden,
			body:       `{"message": "You have triggered a rate limit. Slow down."}`,
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "server error",
			status:     http.StatusBadGateway,
			body:       `{"message": "upstream"}`,
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /repositories/1", func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := newTestClient(t, mux).GetRepository(t.Context(), testToken, 1)
			require.Error(t, err)

			var upstream *UpstreamError
			require.True(t, errors.As(err, &upstream), "got %T: %v", err, err)
			assert.Equal(t, tt.wantStatus, upstream.Status)
			assert.NotEmpty(t, upstream.Message)
		})
	}
}

func TestGetReadme(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/demo/readme", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"name": "README.md", "encoding": "base64", "content": %q}`, encoded("# Demo\n\nHello."))
	})

	text, err := newTestClient(t, mux).GetReadme(t.Context(), testToken, "octo/demo")
	require.NoError(t, err)
	assert.Equal(t, "# Demo\n\nHello.", text)
}

func TestGetReadme_Failures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/missing/readme", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})
	mux.HandleFunc("GET /repos/octo/garbled/readme", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"encoding": "base64", "content": "!!not base64!!"}`)
	})
	c := newTestClient(t, mux)

	_, err := c.GetReadme(t.Context(), testToken, "octo/missing")
	assert.Error(t, err)

	_, err = c.GetReadme(t.Context(), testToken, "octo/garbled")
	assert.Error(t, err)

	_, err = c.GetReadme(t.Context(), testToken, "not-a-full-name")
	assert.Error(t, err)
}

func TestGetManifest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/demo/contents/package.json", func(w http.ResponseWriter, r *http.Request) {
		doc := `{"name": "demo", "dependencies": {"next": "14.0.0", "react": "18.2.0"}}`
		fmt.Fprintf(w, `{"type": "file", "encoding": "base64", "content": %q}`, encoded(doc))
	})
	mux.HandleFunc("GET /repos/octo/broken/contents/package.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"type": "file", "encoding": "base64", "content": %q}`, encoded(`{"name": `))
	})
	mux.HandleFunc("GET /repos/octo/none/contents/package.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})
	c := newTestClient(t, mux)

	m, err := c.GetManifest(t.Context(), testToken, "octo/demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"next", "react"}, m.DependencyNames(5))

	_, err = c.GetManifest(t.Context(), testToken, "octo/broken")
	assert.Error(t, err)

	_, err = c.GetManifest(t.Context(), testToken, "octo/none")
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusNotFound, upstream.Status)
}

func TestListRepositories_FollowsPages(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user/repos", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "all", q.Get("type"))
		assert.Equal(t, "updated", q.Get("sort"))
		assert.Equal(t, "100", q.Get("per_page"))

		switch q.Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/user/repos?page=2&per_page=100>; rel="next"`, srvURL))
			fmt.Fprint(w, `[{"id": 1, "full_name": "octo/newest"}, {"id": 2, "full_name": "octo/newer"}]`)
		case "2":
			fmt.Fprint(w, `[{"id": 3, "full_name": "octo/oldest"}]`)
		default:
			t.Errorf("unexpected page %q", q.Get("page"))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL

	c, err := NewClient(srv.Client(), srv.URL)
	require.NoError(t, err)

	repos, err := c.ListRepositories(t.Context(), testToken)
	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, "octo/newest", repos[0].FullName)
	assert.Equal(t, "octo/oldest", repos[2].FullName)
}

func TestListRepositories_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user/repos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	repos, err := newTestClient(t, mux).ListRepositories(t.Context(), testToken)
	require.NoError(t, err)
	assert.NotNil(t, repos)
	assert.Empty(t, repos)
}
