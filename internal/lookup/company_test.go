package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Facme.example%2Fabout&rut=x">Acme Corp - About</a>
  <a class="result__snippet">Acme Corp builds payment infrastructure with Python, Kubernetes and PostgreSQL.</a>
</div>
<div class="result">
  <a class="result__a" href="https://blog.acme.example/stack">Acme engineering</a>
  <div class="result__snippet">Our   services run on AWS.</div>
</div>
<div class="result"><a class="result__a" href="https://c.example">third</a><a class="result__snippet">c</a></div>
<div class="result"><a class="result__a" href="https://d.example">fourth</a><a class="result__snippet">d</a></div>
</body></html>`

func TestCompanySearchParsesResults(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	s := NewCompanySearch(srv.Client(), "test-agent", nil, WithSearchEndpoint(srv.URL))

	facts, err := s.Company(context.Background(), " Acme Corp ")
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp company technology stack", query)
	assert.True(t, facts.Found)
	assert.Equal(t, "Acme Corp", facts.Name)
	assert.Equal(t, "fintech", facts.Industry)
	assert.Contains(t, facts.Description, "payment infrastructure")
	for _, tech := range []string{"Python", "Kubernetes", "PostgreSQL", "AWS"} {
		assert.Contains(t, facts.TechStack, tech)
	}
	assert.Equal(t, []string{
		"https://acme.example/about",
		"https://blog.acme.example/stack",
		"https://c.example",
	}, facts.Sources)
}

func TestCompanySearchWithoutResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="no-results">No results.</div></body></html>`))
	}))
	defer srv.Close()

	facts, err := NewCompanySearch(srv.Client(), "", nil, WithSearchEndpoint(srv.URL)).Company(context.Background(), "Nowhere Ltd")
	require.NoError(t, err)
	assert.False(t, facts.Found)
	assert.Empty(t, facts.TechStack)
}

func TestCompanySearchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewCompanySearch(srv.Client(), "", nil, WithSearchEndpoint(srv.URL)).Company(context.Background(), "Acme Corp")
	require.Error(t, err)

	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusTooManyRequests, status.Code)
}

func TestIdentifyIndustry(t *testing.T) {
	assert.Equal(t, "healthcare", identifyIndustry("a clinical data platform"))
	assert.Equal(t, "Technology", identifyIndustry("widgets"))
}
