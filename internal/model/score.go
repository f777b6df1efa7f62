package model

type Recommendation string

const (
	StrongMatch    Recommendation = "Strong Match"
	GoodMatch      Recommendation = "Good Match"
	PotentialMatch Recommendation = "Potential Match"
	NotRecommended Recommendation = "Not Recommended"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

type SkillScore struct {
	Candidate         string   `json:"candidate"`
	MatchedMustHave   []string `json:"matched_must_have"`
	MissingMustHave   []string `json:"missing_must_have"`
	MatchedNiceToHave []string `json:"matched_nice_to_have"`
	RelatedMatches    []string `json:"related_matches,omitempty"`
	MustHavePercent   float64  `json:"must_have_percent"`
	NiceToHavePercent float64  `json:"nice_to_have_percent"`
	Overall           float64  `json:"overall"`
	Analysis          string   `json:"analysis"`
}

// HasCriticalGaps reports whether any must-have skill is missing.
func (s SkillScore) HasCriticalGaps() bool {
	return len(s.MissingMustHave) > 0
}

type ExperienceScore struct {
	Candidate     string  `json:"candidate"`
	TotalYears    float64 `json:"total_years"`
	RelevantYears float64 `json:"relevant_years"`
	RequiredYears int     `json:"required_years"`
	MeetsMinimum  bool    `json:"meets_minimum"`
	DomainMatch   bool    `json:"domain_match"`
	Trajectory    string  `json:"trajectory"`
	Score         float64 `json:"score"`
	Analysis      string  `json:"analysis"`
}

type EducationScore struct {
	Candidate      string  `json:"candidate"`
	HighestDegree  string  `json:"highest_degree,omitempty"`
	RequiredDegree string  `json:"required_degree,omitempty"`
	MeetsRequired  bool    `json:"meets_required"`
	FieldMatch     bool    `json:"field_match"`
	Score          float64 `json:"score"`
	Analysis       string  `json:"analysis"`
}

// CandidateScore is the weighted combination of the three score components.
type CandidateScore struct {
	Candidate          string          `json:"candidate"`
	Email              string          `json:"email,omitempty"`
	Skill              SkillScore      `json:"skill"`
	Experience         ExperienceScore `json:"experience"`
	Education          EducationScore  `json:"education"`
	WeightedSkill      float64         `json:"weighted_skill"`
	WeightedExperience float64         `json:"weighted_experience"`
	WeightedEducation  float64         `json:"weighted_education"`
	Total              float64         `json:"total"`
	Recommendation     Recommendation  `json:"recommendation"`
	Confidence         Confidence      `json:"confidence"`
	// Unassessed marks a profile that could not be parsed. Its total is 0.
	Unassessed bool     `json:"unassessed,omitempty"`
	Strengths  []string `json:"strengths,omitempty"`
	Concerns   []string `json:"concerns,omitempty"`
}

type RankedCandidate struct {
	Rank            int            `json:"rank"`
	Score           CandidateScore `json:"score"`
	ComparisonNotes string         `json:"comparison_notes,omitempty"`
}
