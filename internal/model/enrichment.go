package model

import "sort"

type CompanyFacts struct {
	Name        string   `json:"name"`
	Found       bool     `json:"found"`
	Description string   `json:"description,omitempty"`
	TechStack   []string `json:"tech_stack,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Sources     []string `json:"sources,omitempty"`
}

type ProfileFacts struct {
	Username         string   `json:"username"`
	Found            bool     `json:"found"`
	PublicRepos      int      `json:"public_repos"`
	Followers        int      `json:"followers"`
	TotalStars       int      `json:"total_stars"`
	PrimaryLanguages []string `json:"primary_languages,omitempty"`
	ActiveRepos      int      `json:"active_repos"`
	Score            float64  `json:"score"`
}

// Enrichment collects the external facts gathered for one candidate.
// Unavailable lists the lookups that failed and carry no data.
type Enrichment struct {
	Companies     map[string]CompanyFacts `json:"companies,omitempty"`
	Profile       *ProfileFacts           `json:"profile,omitempty"`
	RelatedSkills map[string][]string     `json:"related_skills,omitempty"`
	Unavailable   []string                `json:"unavailable,omitempty"`
}

// VerifiedTech returns the tech stack of every company that was found, in
// company name order.
func (e Enrichment) VerifiedTech() []string {
	names := make([]string, 0, len(e.Companies))
	for name := range e.Companies {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		if c := e.Companies[name]; c.Found {
			out = append(out, c.TechStack...)
		}
	}
	return out
}
