package lookup

import (
	"context"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

const (
	fuzzyThreshold = 0.85
	// minRelatedScore keeps category peers out of BestRelated.
	minRelatedScore = 0.7
)

// Relation describes how two skills are linked.
type Relation string

const (
	Exact        Relation = "exact"
	Equivalent   Relation = "equivalent"
	Similar      Relation = "similar_name"
	SameCategory Relation = "same_category"
	Parent       Relation = "parent_skill"
	Child        Relation = "child_skill"
	Unrelated    Relation = "unrelated"
)

// Taxonomy knows equivalent, parent/child and same-category skills.
type Taxonomy struct {
	equivalencies map[string][]string
	hierarchies   map[string][]string
	categories    map[string][]string
}

func NewTaxonomy() *Taxonomy {
	return &Taxonomy{
		equivalencies: map[string][]string{
			"tensorflow": {"pytorch", "keras"},
			"pytorch":    {"tensorflow", "keras"},
			"react":      {"vue", "angular"},
			"vue":        {"react", "angular"},
			"angular":    {"react", "vue"},
			"aws":        {"azure", "gcp", "google cloud"},
			"azure":      {"aws", "gcp"},
			"gcp":        {"aws", "azure"},
			"mysql":      {"postgresql", "mariadb"},
			"postgresql": {"mysql", "mariadb"},
			"docker":     {"kubernetes", "containerization"},
			"kubernetes": {"docker", "k8s"},
			"go":         {"golang"},
			"golang":     {"go"},
		},
		hierarchies: map[string][]string{
			"python":           {"django", "flask", "fastapi", "pandas", "numpy"},
			"javascript":       {"react", "vue", "angular", "node.js", "express"},
			"machine learning": {"deep learning", "nlp", "computer vision", "tensorflow", "pytorch"},
			"deep learning":    {"cnn", "rnn", "lstm", "transformer"},
		},
		categories: map[string][]string{
			"ml frameworks":         {"tensorflow", "pytorch", "keras", "scikit-learn", "xgboost"},
			"web frameworks":        {"react", "angular", "vue", "django", "flask", "spring"},
			"cloud platforms":       {"aws", "azure", "gcp", "google cloud"},
			"databases":             {"mysql", "postgresql", "mongodb", "redis", "cassandra"},
			"programming languages": {"python", "java", "javascript", "typescript", "go", "rust"},
		},
	}
}

func normalize(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

// Relate classifies the link between two skills and scores it in [0,1].
func (t *Taxonomy) Relate(a, b string) (Relation, float64) {
	a, b = normalize(a), normalize(b)
	if a == "" || b == "" {
		return Unrelated, 0
	}
	if a == b {
		return Exact, 1
	}
	if contains(t.equivalencies[a], b) {
		return Equivalent, 0.9
	}
	if sim := levenshtein.Similarity(a, b, nil); sim >= fuzzyThreshold {
		return Similar, sim
	}
	for _, parent := range sortedKeys(t.hierarchies) {
		children := t.hierarchies[parent]
		if a == parent && contains(children, b) {
			return Child, 0.7
		}
		if b == parent && contains(children, a) {
			return Parent, 0.7
		}
	}
	for _, name := range sortedKeys(t.categories) {
		members := t.categories[name]
		if contains(members, a) && contains(members, b) {
			return SameCategory, 0.6
		}
	}
	return Unrelated, 0
}

// BestRelated returns the candidate skill most closely related to required,
// excluding exact matches and mere category peers. ok is false when nothing
// qualifies.
func (t *Taxonomy) BestRelated(required string, skills []string) (skill string, relation Relation, score float64, ok bool) {
	for _, s := range skills {
		rel, sc := t.Relate(required, s)
		if rel == Exact || sc < minRelatedScore {
			continue
		}
		if sc > score {
			skill, relation, score, ok = s, rel, sc, true
		}
	}
	return skill, relation, score, ok
}

// Related lists up to limit skills linked to skill: equivalents first, then
// parents and children, then category peers.
func (t *Taxonomy) Related(skill string, limit int) []string {
	s := normalize(skill)
	var out []string
	add := func(v string) {
		if v != s && !contains(out, v) {
			out = append(out, v)
		}
	}

	for _, eq := range t.equivalencies[s] {
		add(eq)
	}
	for _, parent := range sortedKeys(t.hierarchies) {
		children := t.hierarchies[parent]
		if s == parent {
			for _, c := range children {
				add(c)
			}
		} else if contains(children, s) {
			add(parent)
		}
	}
	for _, name := range sortedKeys(t.categories) {
		if members := t.categories[name]; contains(members, s) {
			for _, m := range members {
				add(m)
			}
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RelatedSkills is the lookup form of Related without mere category peers,
// at most five. It never fails.
func (t *Taxonomy) RelatedSkills(_ context.Context, skill string) ([]string, error) {
	var out []string
	for _, r := range t.Related(skill, 0) {
		if _, score := t.Relate(skill, r); score >= minRelatedScore {
			out = append(out, r)
		}
		if len(out) == 5 {
			break
		}
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
