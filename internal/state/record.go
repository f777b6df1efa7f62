// Package state holds the record threaded through every pipeline stage and the
// rules used to fold partial stage results into it.
package state

import (
	"github.com/spigell/screener/internal/model"
)

// SchemaVersion is bumped whenever a field or a merge rule changes.
const SchemaVersion = 1

// Record is the single aggregate owned by a pipeline run. Stages never mutate it;
// they return a Partial that is merged with Apply.
type Record struct {
	JobText   string           `json:"job_text"`
	Documents []model.Document `json:"-"`

	Job        *model.JobRequirements `json:"job_requirements,omitempty"`
	Candidates []model.Candidate      `json:"candidates"`

	SkillScores      []model.SkillScore      `json:"skill_scores,omitempty"`
	ExperienceScores []model.ExperienceScore `json:"experience_scores,omitempty"`
	EducationScores  []model.EducationScore  `json:"education_scores,omitempty"`
	CandidateScores  []model.CandidateScore  `json:"candidate_scores,omitempty"`
	Ranked           []model.RankedCandidate `json:"ranked_candidates,omitempty"`

	ToolPlans  map[string]model.ToolPlan   `json:"tool_plans,omitempty"`
	Enrichment map[string]model.Enrichment `json:"enrichment,omitempty"`

	Quality    *model.QualityCheck `json:"quality_check,omitempty"`
	RetryCount int                 `json:"retry_count"`

	Bias     *model.BiasReport      `json:"bias_report,omitempty"`
	Salaries []model.SalaryEstimate `json:"salary_estimates,omitempty"`
	ATS      []model.ATSScore       `json:"ats_scores,omitempty"`

	Report    string              `json:"report,omitempty"`
	Questions map[string][]string `json:"interview_questions,omitempty"`

	History      []string `json:"history,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	CurrentStage string   `json:"current_stage,omitempty"`
}

// New seeds a record with the raw inputs of a run.
func New(jobText string, docs []model.Document) Record {
	return Record{JobText: jobText, Documents: docs}
}

// CandidateIndex returns the position of the named candidate or -1.
func (r *Record) CandidateIndex(name string) int {
	for i, c := range r.Candidates {
		if c.Name == name {
			return i
		}
	}
	return -1
}
