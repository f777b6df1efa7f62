package lookup

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsername(t *testing.T) {
	tests := map[string]string{
		"octocat":                         "octocat",
		"@octocat":                        "octocat",
		"https://github.com/octocat":      "octocat",
		"github.com/OctoCat/repo":         "OctoCat",
		"https://www.GitHub.com/octocat/": "octocat",
		"https://gitlab.com/octocat":      "",
		"":                                "",
		"https://github.com/":             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Username(in), in)
	}
}

func TestGitHubProfile(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(githubUser{Login: "octocat", PublicRepos: 9, Followers: 120})
	})
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))

		repos := []githubRepo{
			{Name: "a", Language: "Go", Stars: 10, UpdatedAt: now.AddDate(0, -1, 0)},
			{Name: "b", Language: "Go", Stars: 5, UpdatedAt: now.AddDate(-2, 0, 0)},
			{Name: "c", Language: "Python", Stars: 1, UpdatedAt: now.AddDate(0, -2, 0)},
			{Name: "fork", Fork: true, Language: "C", Stars: 1000, UpdatedAt: now},
		}

		// exercise the gzip branch
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_ = json.NewEncoder(zw).Encode(repos)
		_ = zw.Close()
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g := NewGitHub(srv.Client(), "", "secret", nil, WithGitHubBaseURL(srv.URL+"/"), WithClock(func() time.Time { return now }))

	facts, err := g.Profile(context.Background(), "https://github.com/octocat")
	require.NoError(t, err)

	assert.True(t, facts.Found)
	assert.Equal(t, "octocat", facts.Username)
	assert.Equal(t, 9, facts.PublicRepos)
	assert.Equal(t, 120, facts.Followers)
	assert.Equal(t, 16, facts.TotalStars)
	assert.Equal(t, 2, facts.ActiveRepos)
	assert.Equal(t, []string{"Go", "Python"}, facts.PrimaryLanguages)
	assert.Greater(t, facts.Score, 0.0)
	assert.LessOrEqual(t, facts.Score, 100.0)
}

func TestGitHubUnknownUser(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	facts, err := NewGitHub(srv.Client(), "", "", nil, WithGitHubBaseURL(srv.URL)).Profile(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, facts.Found)
	assert.Equal(t, "ghost", facts.Username)
}

func TestGitHubServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewGitHub(srv.Client(), "", "", nil, WithGitHubBaseURL(srv.URL)).Profile(context.Background(), "octocat")
	assert.Error(t, err)
}

func TestContributionScore(t *testing.T) {
	assert.Equal(t, 0.0, contributionScore(0, 0, 0, 0))
	assert.Equal(t, 100.0, contributionScore(100000, 100000, 100000, 50))
}
