package state

import (
	"fmt"

	"github.com/spigell/screener/internal/model"
)

// Field names a Record field a stage may write.
type Field string

const (
	FieldJobText          Field = "job_text"
	FieldDocuments        Field = "documents"
	FieldJob              Field = "job_requirements"
	FieldCandidates       Field = "candidates"
	FieldSkillScores      Field = "skill_scores"
	FieldExperienceScores Field = "experience_scores"
	FieldEducationScores  Field = "education_scores"
	FieldCandidateScores  Field = "candidate_scores"
	FieldRanked           Field = "ranked_candidates"
	FieldToolPlans        Field = "tool_plans"
	FieldEnrichment       Field = "enrichment"
	FieldQuality          Field = "quality_check"
	FieldRetryCount       Field = "retry_count"
	FieldBias             Field = "bias_report"
	FieldSalaries         Field = "salary_estimates"
	FieldATS              Field = "ats_scores"
	FieldReport           Field = "report"
	FieldQuestions        Field = "interview_questions"
	FieldHistory          Field = "history"
	FieldErrors           Field = "errors"
	FieldCurrentStage     Field = "current_stage"
)

// MergeRule decides how a partial value is folded into the record.
type MergeRule int

const (
	// Replace supersedes the previous value.
	Replace MergeRule = iota
	// Append concatenates the new values after the existing ones.
	Append
)

func (r MergeRule) String() string {
	switch r {
	case Replace:
		return "replace"
	case Append:
		return "append"
	default:
		return fmt.Sprintf("MergeRule(%d)", int(r))
	}
}

type fieldSpec struct {
	rule     MergeRule
	expected string
	apply    func(*Record, any) bool
	// get reads the merged value back; set for append fields only.
	get func(*Record) any
}

var schema = map[Field]fieldSpec{
	FieldJobText:          replace(func(r *Record, v string) { r.JobText = v }),
	FieldDocuments:        replace(func(r *Record, v []model.Document) { r.Documents = v }),
	FieldJob:              replace(func(r *Record, v *model.JobRequirements) { r.Job = v }),
	FieldCandidates:       appendTo(func(r *Record) *[]model.Candidate { return &r.Candidates }),
	FieldSkillScores:      replace(func(r *Record, v []model.SkillScore) { r.SkillScores = v }),
	FieldExperienceScores: replace(func(r *Record, v []model.ExperienceScore) { r.ExperienceScores = v }),
	FieldEducationScores:  replace(func(r *Record, v []model.EducationScore) { r.EducationScores = v }),
	FieldCandidateScores:  replace(func(r *Record, v []model.CandidateScore) { r.CandidateScores = v }),
	FieldRanked:           replace(func(r *Record, v []model.RankedCandidate) { r.Ranked = v }),
	FieldToolPlans:        replace(func(r *Record, v map[string]model.ToolPlan) { r.ToolPlans = v }),
	FieldEnrichment:       replace(func(r *Record, v map[string]model.Enrichment) { r.Enrichment = v }),
	FieldQuality:          replace(func(r *Record, v *model.QualityCheck) { r.Quality = v }),
	FieldRetryCount:       replace(func(r *Record, v int) { r.RetryCount = v }),
	FieldBias:             replace(func(r *Record, v *model.BiasReport) { r.Bias = v }),
	FieldSalaries:         replace(func(r *Record, v []model.SalaryEstimate) { r.Salaries = v }),
	FieldATS:              replace(func(r *Record, v []model.ATSScore) { r.ATS = v }),
	FieldReport:           replace(func(r *Record, v string) { r.Report = v }),
	FieldQuestions:        replace(func(r *Record, v map[string][]string) { r.Questions = v }),
	FieldHistory:          appendTo(func(r *Record) *[]string { return &r.History }),
	FieldErrors:           appendTo(func(r *Record) *[]string { return &r.Errors }),
	FieldCurrentStage:     replace(func(r *Record, v string) { r.CurrentStage = v }),
}

func replace[T any](set func(*Record, T)) fieldSpec {
	return fieldSpec{
		rule:     Replace,
		expected: fmt.Sprintf("%T", *new(T)),
		apply: func(r *Record, v any) bool {
			typed, ok := v.(T)
			if !ok {
				return false
			}
			set(r, typed)
			return true
		},
	}
}

// appendTo always allocates a fresh slice so the previous record never shares
// a backing array with the merged one.
func appendTo[T any](target func(*Record) *[]T) fieldSpec {
	return fieldSpec{
		rule:     Append,
		expected: fmt.Sprintf("%T", []T{}),
		apply: func(r *Record, v any) bool {
			added, ok := v.([]T)
			if !ok {
				return false
			}
			dst := target(r)
			merged := make([]T, 0, len(*dst)+len(added))
			merged = append(merged, *dst...)
			merged = append(merged, added...)
			*dst = merged
			return true
		},
		get: func(r *Record) any { return *target(r) },
	}
}

// Rule returns the merge rule declared for the field.
func Rule(f Field) (MergeRule, bool) {
	def, ok := schema[f]
	return def.rule, ok
}

// Fields returns every field known to the schema.
func Fields() []Field {
	out := make([]Field, 0, len(schema))
	for f := range schema {
		out = append(out, f)
	}
	return out
}
