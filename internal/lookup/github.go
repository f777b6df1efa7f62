package lookup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/model"
)

const (
	DefaultGitHubAPI = "https://api.github.com"
	reposPerProfile  = 20
	activeWindow     = 365 * 24 * time.Hour
)

// GitHub reads public profile statistics from the GitHub REST API.
type GitHub struct {
	client  *client
	baseURL string
	now     func() time.Time
}

type GitHubOption func(*GitHub)

func WithGitHubBaseURL(base string) GitHubOption {
	return func(g *GitHub) { g.baseURL = strings.TrimRight(base, "/") }
}

func WithClock(now func() time.Time) GitHubOption {
	return func(g *GitHub) { g.now = now }
}

// NewGitHub returns a GitHub lookup. token may be empty; requests are then
// subject to the anonymous rate limit.
func NewGitHub(httpClient *http.Client, userAgent, token string, logger *zap.Logger, opts ...GitHubOption) *GitHub {
	g := &GitHub{
		client:  newClient(httpClient, userAgent, token, logger),
		baseURL: DefaultGitHubAPI,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type githubUser struct {
	Login       string `json:"login"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
}

type githubRepo struct {
	Name      string    `json:"name"`
	Fork      bool      `json:"fork"`
	Language  string    `json:"language"`
	Stars     int       `json:"stargazers_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile returns the statistics of the account behind handle, which may be a
// bare username or a profile URL. An unknown account yields Found == false.
func (g *GitHub) Profile(ctx context.Context, handle string) (model.ProfileFacts, error) {
	username := Username(handle)
	facts := model.ProfileFacts{Username: username}
	if username == "" {
		return facts, nil
	}

	userURL := fmt.Sprintf("%s/users/%s", g.baseURL, url.PathEscape(username))

	var user githubUser
	if err := g.client.getJSON(ctx, userURL, nil, &user); err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.Code == http.StatusNotFound {
			return facts, nil
		}
		return facts, fmt.Errorf("fetch github user %q: %w", username, err)
	}

	q := url.Values{}
	q.Set("sort", "updated")
	q.Set("direction", "desc")
	q.Set("per_page", fmt.Sprint(reposPerProfile))

	var repos []githubRepo
	if err := g.client.getJSON(ctx, userURL+"/repos", q, &repos); err != nil {
		return facts, fmt.Errorf("fetch github repos of %q: %w", username, err)
	}

	facts.Found = true
	facts.PublicRepos = user.PublicRepos
	facts.Followers = user.Followers

	counts := map[string]int{}
	now := g.now()
	for _, repo := range repos {
		if repo.Fork {
			continue
		}
		facts.TotalStars += repo.Stars
		if repo.Language != "" {
			counts[repo.Language]++
		}
		if !repo.UpdatedAt.IsZero() && now.Sub(repo.UpdatedAt) < activeWindow {
			facts.ActiveRepos++
		}
	}

	facts.PrimaryLanguages = topLanguages(counts, 5)
	facts.Score = contributionScore(facts.PublicRepos, facts.Followers, facts.TotalStars, facts.ActiveRepos)

	return facts, nil
}

// Username extracts the account name from a handle or profile URL.
func Username(handle string) string {
	handle = strings.TrimSpace(handle)
	lower := strings.ToLower(handle)
	if idx := strings.Index(lower, "github.com/"); idx != -1 {
		rest := handle[idx+len("github.com/"):]
		if part, _, _ := strings.Cut(rest, "/"); part != "" {
			return strings.TrimPrefix(part, "@")
		}
		return ""
	}
	if strings.ContainsAny(handle, "/ ") {
		return ""
	}
	return strings.TrimPrefix(handle, "@")
}

func topLanguages(counts map[string]int, limit int) []string {
	langs := make([]string, 0, len(counts))
	for lang := range counts {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		if counts[langs[i]] != counts[langs[j]] {
			return counts[langs[i]] > counts[langs[j]]
		}
		return langs[i] < langs[j]
	})
	if len(langs) > limit {
		langs = langs[:limit]
	}
	return langs
}

// contributionScore rates an account on a 0-100 scale: repositories 30,
// followers 20, stars 30 and recent activity 20 points.
func contributionScore(repos, followers, stars, active int) float64 {
	score := math.Min(30, math.Log10(float64(repos)+1)*15) +
		math.Min(20, math.Log10(float64(followers)+1)*10) +
		math.Min(30, math.Log10(float64(stars)+1)*15) +
		math.Min(20, float64(active)*2)
	return math.Round(math.Min(100, score)*10) / 10
}
