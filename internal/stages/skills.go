package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
)

// relatedCredit is the share of a required skill granted for a related one.
const relatedCredit = 0.5

func (s *Set) skills(ctx context.Context, rec state.Record) (state.Partial, error) {
	job := jobOf(rec)
	scores, msgs, err := forEachCandidate(ctx, s, Skills, rec, func(_ context.Context, c model.Candidate) (model.SkillScore, error) {
		return MatchSkills(c, job, rec.Enrichment[c.Name].RelatedSkills), nil
	})
	if err != nil {
		return nil, err
	}
	return withErrors(state.Partial{state.FieldSkillScores: scores}, msgs), nil
}

// MatchSkills compares the candidate's skills to the job's. Matching is exact
// and case-insensitive. related maps a candidate skill to the skills found to
// be related to it; a required skill only reachable through it earns half
// credit and stays listed as missing.
func MatchSkills(c model.Candidate, job *model.JobRequirements, related map[string][]string) model.SkillScore {
	have := make(map[string]bool, len(c.Skills))
	for _, skill := range c.Skills {
		have[strings.ToLower(strings.TrimSpace(skill))] = true
	}

	score := model.SkillScore{Candidate: c.Name}

	var mustRelated, niceRelated int
	for _, req := range job.MustHaveSkills() {
		switch via, ok := relatedVia(req.Name, c.Skills, related); {
		case have[strings.ToLower(req.Name)]:
			score.MatchedMustHave = append(score.MatchedMustHave, req.Name)
		case ok:
			mustRelated++
			score.RelatedMatches = append(score.RelatedMatches, fmt.Sprintf("%s~%s", req.Name, via))
			score.MissingMustHave = append(score.MissingMustHave, req.Name)
		default:
			score.MissingMustHave = append(score.MissingMustHave, req.Name)
		}
	}
	nice := job.NiceToHaveSkills()
	for _, req := range nice {
		switch via, ok := relatedVia(req.Name, c.Skills, related); {
		case have[strings.ToLower(req.Name)]:
			score.MatchedNiceToHave = append(score.MatchedNiceToHave, req.Name)
		case ok:
			niceRelated++
			score.RelatedMatches = append(score.RelatedMatches, fmt.Sprintf("%s~%s", req.Name, via))
		}
	}

	score.MustHavePercent = round1(percent(float64(len(score.MatchedMustHave))+relatedCredit*float64(mustRelated), len(job.MustHaveSkills())))
	score.NiceToHavePercent = round1(percent(float64(len(score.MatchedNiceToHave))+relatedCredit*float64(niceRelated), len(nice)))
	score.Overall = round1(score.MustHavePercent*0.8 + score.NiceToHavePercent*0.2)
	score.Analysis = skillAnalysis(c, score, len(job.MustHaveSkills()))
	return score
}

// relatedVia returns the first candidate skill, in profile order, through
// which required is related.
func relatedVia(required string, skills []string, related map[string][]string) (string, bool) {
	target := strings.ToLower(required)
	for _, skill := range skills {
		for _, r := range related[skill] {
			if strings.ToLower(r) == target {
				return skill, true
			}
		}
	}
	return "", false
}

// percent treats an empty requirement list as fully met.
func percent(matched float64, total int) float64 {
	if total == 0 {
		return 100
	}
	return matched / float64(total) * 100
}

func skillAnalysis(c model.Candidate, score model.SkillScore, mustTotal int) string {
	if c.Placeholder {
		return "Profile could not be parsed; no skills to compare."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Matched %d/%d must-have skills", len(score.MatchedMustHave), mustTotal)
	if len(score.MissingMustHave) > 0 {
		fmt.Fprintf(&b, "; missing: %s", strings.Join(score.MissingMustHave, ", "))
	}
	if len(score.RelatedMatches) > 0 {
		fmt.Fprintf(&b, "; related experience: %s", strings.Join(score.RelatedMatches, ", "))
	}
	b.WriteString(".")
	return b.String()
}
