package model

// Tool identifies an enrichment lookup the coordinator may schedule.
type Tool string

const (
	CompanyLookup Tool = "company_lookup"
	ProfileLookup Tool = "profile_lookup"
	SkillLookup   Tool = "skill_lookup"
)

// AllTools is the closed set of tools, ordered from the cheapest to the most expensive.
var AllTools = []Tool{SkillLookup, ProfileLookup, CompanyLookup}

func (t Tool) Valid() bool {
	for _, known := range AllTools {
		if t == known {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ToolPlan is the set of tools chosen for one candidate.
type ToolPlan struct {
	Tools     []Tool   `json:"tools"`
	Priority  Priority `json:"priority"`
	Rationale string   `json:"rationale"`
	Fallback  bool     `json:"fallback,omitempty"`
}

func (p ToolPlan) Has(t Tool) bool {
	for _, tool := range p.Tools {
		if tool == t {
			return true
		}
	}
	return false
}
