package stages

import (
	"context"
	"strings"
	"unicode"

	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
)

const (
	CategoryKeywords = "keyword_optimization"
	CategoryFormat   = "format_compatibility"
	CategorySections = "section_organization"
	CategoryContact  = "contact_information"
	CategoryDensity  = "content_density"
)

var (
	requiredSections = []string{"experience", "education", "skills", "work", "employment", "technical"}
	bonusSections    = []string{"summary", "objective", "projects", "certifications", "achievements"}
	bulletMarkers    = []string{"•", "●", "◦", "-", "*"}
)

func (s *Set) ats(ctx context.Context, rec state.Record) (state.Partial, error) {
	job := jobOf(rec)
	scores, _, err := forEachCandidate(ctx, s, ATS, rec, func(_ context.Context, c model.Candidate) (model.ATSScore, error) {
		return ScoreATS(c, job), nil
	})
	if err != nil {
		return nil, err
	}
	return state.Partial{state.FieldATS: scores}, nil
}

// ScoreATS rates how well the resume text would survive an applicant
// tracking system. The five categories add up to at most 100.
func ScoreATS(c model.Candidate, job *model.JobRequirements) model.ATSScore {
	text := c.ResumeText
	cats := map[string]float64{
		CategoryKeywords: round1(keywordScore(text, job)),
		CategoryFormat:   formatScore(text),
		CategorySections: sectionScore(text),
		CategoryContact:  contactScore(c),
		CategoryDensity:  densityScore(text, c),
	}

	var total float64
	for _, v := range cats {
		total += v
	}
	total = round1(total)

	out := model.ATSScore{
		Candidate:  c.Name,
		Overall:    total,
		Categories: cats,
		Rating:     atsRating(total),
	}
	if cats[CategoryKeywords] < 15 {
		out.Suggestions = append(out.Suggestions, "Add more relevant keywords from job description")
	}
	if cats[CategoryFormat] < 20 {
		out.Suggestions = append(out.Suggestions, "Simplify formatting - avoid tables, images, and complex layouts")
	}
	if cats[CategorySections] < 16 {
		out.Suggestions = append(out.Suggestions, "Add clear section headers (Experience, Education, Skills)")
	}
	if cats[CategoryContact] < 12 {
		out.Suggestions = append(out.Suggestions, "Include email, phone, and a profile URL")
	}
	if cats[CategoryDensity] < 5 {
		out.Suggestions = append(out.Suggestions, "Resume may be too sparse - add more detail about accomplishments")
	}
	return out
}

func keywordScore(text string, job *model.JobRequirements) float64 {
	if text == "" {
		return 0
	}
	if len(job.Skills) == 0 {
		return 20
	}
	lower := strings.ToLower(text)
	var matches int
	for _, skill := range job.Skills {
		if strings.Contains(lower, strings.ToLower(skill.Name)) {
			matches++
		}
	}
	return float64(matches) / float64(len(job.Skills)) * 30
}

func formatScore(text string) float64 {
	if text == "" {
		return 0
	}
	score := 25.0

	var runes, special int
	for _, r := range text {
		runes++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || strings.ContainsRune("_.,;:()-", r) {
			continue
		}
		special++
	}
	if float64(special)/float64(runes) > 0.05 {
		score -= 5
	}
	if len(strings.Split(text, "\n")) < 20 {
		score -= 5
	}

	hasBullets := false
	for _, m := range bulletMarkers {
		if strings.Contains(text, m) {
			hasBullets = true
			break
		}
	}
	if !hasBullets {
		score -= 3
	}
	return max(0, score)
}

func sectionScore(text string) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	var score, bonus float64
	for _, s := range requiredSections {
		if strings.Contains(lower, s) {
			score += 4
		}
	}
	for _, s := range bonusSections {
		if strings.Contains(lower, s) && bonus < 8 {
			bonus += 2
		}
	}
	return min(20, score+bonus)
}

func contactScore(c model.Candidate) float64 {
	var score float64
	if c.Email != "" {
		score += 5
	}
	if c.Phone != "" {
		score += 5
	}
	if c.GitHub != "" || strings.Contains(strings.ToLower(c.ResumeText), "linkedin.com/") {
		score += 5
	}
	return score
}

func densityScore(text string, c model.Candidate) float64 {
	if text == "" {
		return 0
	}
	score := 10.0
	switch words := len(strings.Fields(text)); {
	case words < 200:
		score -= 5
	case words > 1500:
		score -= 2
	}
	if len(c.WorkExperience) > 0 {
		var resp int
		for _, w := range c.WorkExperience {
			resp += len(w.Responsibilities)
		}
		if resp < 2*len(c.WorkExperience) {
			score -= 3
		}
	}
	return max(0, score)
}

func atsRating(total float64) string {
	switch {
	case total >= 85:
		return "Excellent"
	case total >= 70:
		return "Good"
	case total >= 55:
		return "Fair"
	default:
		return "Poor"
	}
}
