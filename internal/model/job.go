package model

import "strings"

type SkillPriority string

const (
	MustHave   SkillPriority = "must_have"
	NiceToHave SkillPriority = "nice_to_have"
	Preferred  SkillPriority = "preferred"
)

// ParsePriority maps free-form priority values onto the known set, defaulting to MustHave.
func ParsePriority(s string) SkillPriority {
	switch SkillPriority(strings.ToLower(strings.TrimSpace(s))) {
	case NiceToHave:
		return NiceToHave
	case Preferred:
		return Preferred
	default:
		return MustHave
	}
}

type Skill struct {
	Name          string        `json:"name"`
	Priority      SkillPriority `json:"priority"`
	YearsRequired int           `json:"years_required,omitempty"`
}

// JobRequirements is the structured form of a job description.
type JobRequirements struct {
	Title            string   `json:"title"`
	Description      string   `json:"-"`
	Skills           []Skill  `json:"skills"`
	MinimumYears     int      `json:"minimum_years"`
	Domains          []string `json:"domains,omitempty"`
	MinimumDegree    string   `json:"minimum_degree,omitempty"`
	DegreeRequired   bool     `json:"degree_required"`
	FieldsOfStudy    []string `json:"fields_of_study,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	Location         string   `json:"location,omitempty"`
}

func (j *JobRequirements) MustHaveSkills() []Skill {
	return j.skillsBy(MustHave)
}

// NiceToHaveSkills returns both nice-to-have and preferred skills.
func (j *JobRequirements) NiceToHaveSkills() []Skill {
	return append(j.skillsBy(NiceToHave), j.skillsBy(Preferred)...)
}

func (j *JobRequirements) skillsBy(p SkillPriority) []Skill {
	if j == nil {
		return nil
	}
	out := make([]Skill, 0, len(j.Skills))
	for _, s := range j.Skills {
		if s.Priority == p {
			out = append(out, s)
		}
	}
	return out
}
