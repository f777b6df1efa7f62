package stages

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/logger"
	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/pipeline"
	"github.com/spigell/screener/internal/state"
)

// comparedRanks is how many of the top ranks get comparison notes.
const comparedRanks = 5

func (s *Set) score(_ context.Context, rec state.Record) (state.Partial, error) {
	n := len(rec.Candidates)
	if len(rec.SkillScores) != n || len(rec.ExperienceScores) != n || len(rec.EducationScores) != n {
		return nil, pipeline.Fatal(fmt.Errorf("score components are not aligned with %d candidates: skills %d, experience %d, education %d",
			n, len(rec.SkillScores), len(rec.ExperienceScores), len(rec.EducationScores)))
	}

	scores := make([]model.CandidateScore, n)
	for i, c := range rec.Candidates {
		scores[i] = ScoreCandidate(c, rec.SkillScores[i], rec.ExperienceScores[i], rec.EducationScores[i], s.cfg.Weights)
	}

	ranked := Rank(scores)
	for _, r := range ranked {
		s.logger.Info("candidate ranked",
			zap.Int("rank", r.Rank),
			logger.Candidate(r.Score.Candidate),
			zap.Float64("total", r.Score.Total),
			zap.String("recommendation", string(r.Score.Recommendation)),
		)
	}

	return state.Partial{
		state.FieldCandidateScores: scores,
		state.FieldRanked:          ranked,
	}, nil
}

// ScoreCandidate combines the components with w and derives the recommendation.
// A profile that could not be parsed is not assessed and totals 0.
func ScoreCandidate(c model.Candidate, skill model.SkillScore, exp model.ExperienceScore, edu model.EducationScore, w Weights) model.CandidateScore {
	if c.Placeholder {
		out := model.CandidateScore{
			Candidate:      c.Name,
			Email:          c.Email,
			Skill:          skill,
			Experience:     exp,
			Education:      edu,
			Recommendation: model.NotRecommended,
			Confidence:     model.ConfidenceLow,
			Unassessed:     true,
		}
		out.Strengths, out.Concerns = assess(c, skill, exp, edu)
		return out
	}

	ws := skill.Overall * w.Skills
	we := exp.Score * w.Experience
	wd := edu.Score * w.Education
	total := round1(ws + we + wd)

	rec, conf := Recommend(total, skill, exp)
	out := model.CandidateScore{
		Candidate:          c.Name,
		Email:              c.Email,
		Skill:              skill,
		Experience:         exp,
		Education:          edu,
		WeightedSkill:      round1(ws),
		WeightedExperience: round1(we),
		WeightedEducation:  round1(wd),
		Total:              total,
		Recommendation:     rec,
		Confidence:         conf,
	}
	out.Strengths, out.Concerns = assess(c, skill, exp, edu)
	return out
}

// Recommend maps the total onto the recommendation bands and downgrades
// candidates missing must-have skills or the minimum experience.
func Recommend(total float64, skill model.SkillScore, exp model.ExperienceScore) (model.Recommendation, model.Confidence) {
	var (
		rec  model.Recommendation
		conf model.Confidence
	)
	switch {
	case total >= 85:
		rec, conf = model.StrongMatch, model.ConfidenceHigh
	case total >= 70:
		rec, conf = model.GoodMatch, model.ConfidenceMedium
		if total >= 77 {
			conf = model.ConfidenceHigh
		}
	case total >= 55:
		rec, conf = model.PotentialMatch, model.ConfidenceMedium
	default:
		rec, conf = model.NotRecommended, model.ConfidenceMedium
		if total < 40 {
			conf = model.ConfidenceHigh
		}
	}

	if skill.HasCriticalGaps() {
		switch rec {
		case model.StrongMatch:
			rec, conf = model.GoodMatch, model.ConfidenceMedium
		case model.GoodMatch:
			rec, conf = model.PotentialMatch, model.ConfidenceLow
		}
	}
	if !exp.MeetsMinimum && (rec == model.StrongMatch || rec == model.GoodMatch) {
		conf = model.ConfidenceMedium
	}
	return rec, conf
}

func assess(c model.Candidate, skill model.SkillScore, exp model.ExperienceScore, edu model.EducationScore) (strengths, concerns []string) {
	if c.Placeholder {
		return nil, []string{"Profile could not be parsed"}
	}
	if skill.MustHavePercent >= 80 {
		strengths = append(strengths, fmt.Sprintf("Strong must-have skill coverage (%.0f%%)", skill.MustHavePercent))
	}
	if len(skill.MatchedNiceToHave) > 0 {
		strengths = append(strengths, "Nice-to-have skills: "+strings.Join(skill.MatchedNiceToHave, ", "))
	}
	if exp.MeetsMinimum && exp.TotalYears > 0 {
		strengths = append(strengths, fmt.Sprintf("%.1f years of experience", exp.TotalYears))
	}
	if exp.Trajectory == TrajectoryUpward {
		strengths = append(strengths, "Upward career trajectory")
	}
	if edu.MeetsRequired {
		strengths = append(strengths, "Meets the education requirement")
	}

	if len(skill.MissingMustHave) > 0 {
		concerns = append(concerns, "Missing must-have skills: "+strings.Join(skill.MissingMustHave, ", "))
	}
	if !exp.MeetsMinimum {
		concerns = append(concerns, fmt.Sprintf("Below required experience (%.1f of %d years)", exp.TotalYears, exp.RequiredYears))
	}
	if !edu.MeetsRequired && edu.RequiredDegree != "" {
		concerns = append(concerns, "Does not meet the degree requirement ("+edu.RequiredDegree+")")
	}
	return strengths, concerns
}

// Rank orders scores by total, highest first. Equal totals keep their input
// order. The top ranks get notes comparing them with their neighbours.
func Rank(scores []model.CandidateScore) []model.RankedCandidate {
	ordered := make([]model.CandidateScore, len(scores))
	copy(ordered, scores)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Total > ordered[j].Total })

	ranked := make([]model.RankedCandidate, len(ordered))
	for i, sc := range ordered {
		ranked[i] = model.RankedCandidate{
			Rank:            i + 1,
			Score:           sc,
			ComparisonNotes: compare(ordered, i),
		}
	}
	return ranked
}

func compare(ordered []model.CandidateScore, i int) string {
	rank := i + 1
	if rank > comparedRanks || len(ordered) < 2 {
		return ""
	}
	cur := ordered[i]
	parts := []string{fmt.Sprintf("Ranked #%d of %d with %.1f%% (%s).", rank, len(ordered), cur.Total, cur.Recommendation)}
	if i > 0 {
		above := ordered[i-1]
		parts = append(parts, fmt.Sprintf("%.1f points behind #%d %s (%.1f%%).", above.Total-cur.Total, rank-1, above.Candidate, above.Total))
	}
	if i+1 < len(ordered) {
		below := ordered[i+1]
		parts = append(parts, fmt.Sprintf("%.1f points ahead of #%d %s (%.1f%%).", cur.Total-below.Total, rank+1, below.Candidate, below.Total))
	}
	return strings.Join(parts, " ")
}
