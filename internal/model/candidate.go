package model

import (
	"strings"
)

// Document is a raw candidate document as handed to the pipeline.
type Document struct {
	Name string
	Data []byte
}

type WorkExperience struct {
	Company          string   `json:"company" mapstructure:"company"`
	Title            string   `json:"title" mapstructure:"title"`
	Start            string   `json:"start,omitempty" mapstructure:"start"`
	End              string   `json:"end,omitempty" mapstructure:"end"`
	Months           int      `json:"months" mapstructure:"months"`
	Responsibilities []string `json:"responsibilities,omitempty" mapstructure:"responsibilities"`
	Technologies     []string `json:"technologies,omitempty" mapstructure:"technologies"`
}

type Education struct {
	Institution string `json:"institution" mapstructure:"institution"`
	Degree      string `json:"degree" mapstructure:"degree"`
	Field       string `json:"field" mapstructure:"field"`
	EndYear     int    `json:"end_year,omitempty" mapstructure:"end_year"`
}

type Project struct {
	Name         string   `json:"name" mapstructure:"name"`
	Description  string   `json:"description,omitempty" mapstructure:"description"`
	Technologies []string `json:"technologies,omitempty" mapstructure:"technologies"`
	URL          string   `json:"url,omitempty" mapstructure:"url"`
}

// Candidate is a parsed candidate profile. Downstream stages join on slice
// position and cross-reference enrichment data by Name.
type Candidate struct {
	Name           string           `json:"name" mapstructure:"name"`
	Email          string           `json:"email,omitempty" mapstructure:"email"`
	Phone          string           `json:"phone,omitempty" mapstructure:"phone"`
	Location       string           `json:"location,omitempty" mapstructure:"location"`
	Summary        string           `json:"summary,omitempty" mapstructure:"summary"`
	Skills         []string         `json:"skills" mapstructure:"skills"`
	WorkExperience []WorkExperience `json:"work_experience" mapstructure:"work_experience"`
	Education      []Education      `json:"education" mapstructure:"education"`
	Projects       []Project        `json:"projects,omitempty" mapstructure:"projects"`
	GitHub         string           `json:"github,omitempty" mapstructure:"github"`
	TotalMonths    int              `json:"total_months" mapstructure:"total_months"`
	SourceFile     string           `json:"source_file" mapstructure:"-"`
	// Placeholder marks a profile that could not be extracted or parsed.
	Placeholder bool   `json:"placeholder,omitempty" mapstructure:"-"`
	ResumeText  string `json:"-" mapstructure:"-"`
}

func (c *Candidate) TotalYears() float64 {
	if c == nil || c.TotalMonths <= 0 {
		return 0
	}
	return float64(c.TotalMonths) / 12
}

// Companies returns the distinct employer names in history order, at most limit when limit > 0.
func (c *Candidate) Companies(limit int) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(c.WorkExperience))
	for _, w := range c.WorkExperience {
		name := strings.TrimSpace(w.Company)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		out = append(out, name)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

var degreeLevels = []struct {
	marker string
	level  int
}{
	{"phd", 5}, {"doctor", 5},
	{"master", 4}, {"msc", 4}, {"mtech", 4}, {"mba", 4},
	{"bachelor", 3}, {"bsc", 3}, {"btech", 3}, {"b.s", 3},
	{"diploma", 2}, {"associate", 2},
	{"high school", 1},
}

// DegreeLevel ranks a free-form degree name; 0 means unknown.
func DegreeLevel(degree string) int {
	lower := strings.ToLower(degree)
	for _, d := range degreeLevels {
		if strings.Contains(lower, d.marker) {
			return d.level
		}
	}
	return 0
}

// HighestEducation returns the entry with the highest degree level, or nil.
func (c *Candidate) HighestEducation() *Education {
	var best *Education
	bestLevel := -1
	for i := range c.Education {
		if lvl := DegreeLevel(c.Education[i].Degree); lvl > bestLevel {
			best, bestLevel = &c.Education[i], lvl
		}
	}
	return best
}

// PlaceholderCandidate returns the profile used when a document yields no usable text.
func PlaceholderCandidate(source, reason string) Candidate {
	name := strings.TrimSuffix(source, extOf(source))
	if name == "" {
		name = "Unknown"
	}
	return Candidate{
		Name:        name,
		SourceFile:  source,
		Placeholder: true,
		Summary:     "empty profile: " + reason,
	}
}

func extOf(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[idx:]
	}
	return ""
}
