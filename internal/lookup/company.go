package lookup

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/spigell/screener/internal/model"
)

const (
	DefaultSearchEndpoint = "https://html.duckduckgo.com/html/"
	maxSearchResults      = 3
	maxDescriptionLength  = 300
)

var techKeywords = []string{
	"Python", "Java", "JavaScript", "React", "Angular", "Vue",
	"AWS", "Azure", "GCP", "Docker", "Kubernetes",
	"TensorFlow", "PyTorch", "Machine Learning", "AI",
	"Node.js", "Django", "Flask", "Spring", "MongoDB", "PostgreSQL",
}

var industries = []struct {
	name     string
	keywords []string
}{
	{"fintech", []string{"finance", "banking", "payment", "trading"}},
	{"healthcare", []string{"health", "medical", "hospital", "clinical"}},
	{"ecommerce", []string{"ecommerce", "retail", "shopping", "marketplace"}},
	{"enterprise", []string{"enterprise", "b2b", "saas", "software"}},
	{"consumer", []string{"consumer", "social", "mobile app", "b2c"}},
	{"ai/ml", []string{"artificial intelligence", "machine learning", " ai ", " ml "}},
}

// CompanySearch looks employers up through the DuckDuckGo HTML endpoint.
type CompanySearch struct {
	client   *client
	endpoint string
}

type CompanyOption func(*CompanySearch)

// WithSearchEndpoint points the search at another HTML endpoint.
func WithSearchEndpoint(endpoint string) CompanyOption {
	return func(s *CompanySearch) { s.endpoint = endpoint }
}

func NewCompanySearch(httpClient *http.Client, userAgent string, logger *zap.Logger, opts ...CompanyOption) *CompanySearch {
	s := &CompanySearch{
		client:   newClient(httpClient, userAgent, "", logger),
		endpoint: DefaultSearchEndpoint,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type searchResult struct {
	title   string
	href    string
	snippet string
}

// Company returns what the search knows about name. A search without results
// is not an error and yields Found == false.
func (s *CompanySearch) Company(ctx context.Context, name string) (model.CompanyFacts, error) {
	name = strings.TrimSpace(name)
	facts := model.CompanyFacts{Name: name}
	if name == "" {
		return facts, nil
	}

	q := url.Values{}
	q.Set("q", fmt.Sprintf("%s company technology stack", name))

	body, err := s.client.get(ctx, s.endpoint, q, "text/html")
	if err != nil {
		return facts, fmt.Errorf("search company %q: %w", name, err)
	}

	results, err := parseSearchResults(body)
	if err != nil {
		return facts, fmt.Errorf("parse search results for %q: %w", name, err)
	}
	if len(results) == 0 {
		return facts, nil
	}

	snippets := make([]string, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, r.snippet)
		if r.href != "" {
			facts.Sources = append(facts.Sources, r.href)
		}
	}
	combined := " " + strings.ToLower(strings.Join(snippets, " ")) + " "

	facts.Found = true
	facts.Description = truncate(results[0].snippet, maxDescriptionLength)
	facts.Industry = identifyIndustry(combined)
	for _, tech := range techKeywords {
		if strings.Contains(combined, strings.ToLower(tech)) {
			facts.TechStack = append(facts.TechStack, tech)
		}
	}

	return facts, nil
}

func parseSearchResults(body []byte) ([]searchResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var results []searchResult
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		r := searchResult{
			title:   strings.TrimSpace(link.Text()),
			snippet: strings.Join(strings.Fields(sel.Find(".result__snippet").First().Text()), " "),
		}
		if href, ok := link.Attr("href"); ok {
			r.href = resolveRedirect(href)
		}
		if r.title == "" && r.snippet == "" {
			return true
		}
		results = append(results, r)
		return len(results) < maxSearchResults
	})

	return results, nil
}

// resolveRedirect unwraps the search engine's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		u.Scheme = "https"
		return u.String()
	}
	return href
}

func identifyIndustry(text string) string {
	for _, ind := range industries {
		for _, kw := range ind.keywords {
			if strings.Contains(text, kw) {
				return ind.name
			}
		}
	}
	return "Technology"
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
