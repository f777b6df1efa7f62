package stages

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/extract"
	"github.com/spigell/screener/internal/logger"
	"github.com/spigell/screener/internal/lookup"
	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/pipeline"
	"github.com/spigell/screener/internal/state"
)

const candidateSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string"},
    "skills": {"type": ["array", "null"], "items": {"type": "string"}},
    "work_experience": {"type": ["array", "null"], "items": {"type": "object"}},
    "education": {"type": ["array", "null"], "items": {"type": "object"}},
    "projects": {"type": ["array", "null"], "items": {"type": "object"}}
  }
}`

// maxResumeRunes bounds the resume text sent for structured parsing.
const maxResumeRunes = 12000

const experiencePhrase = "years of experience"

var errNoText = errors.New("no usable text extracted")

func (s *Set) parse(ctx context.Context, rec state.Record) (state.Partial, error) {
	candidates, errs, err := pipeline.FanOut(ctx, s.cfg.Workers, rec.Documents, func(ctx context.Context, _ int, doc model.Document) (model.Candidate, error) {
		return s.parseDocument(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	msgs := candidateErrors(Parse, rec.Documents, func(d model.Document) string { return d.Name }, errs)
	for i, e := range errs {
		if e != nil {
			s.logger.Warn("document parsed with degradation", logger.Stage(Parse), zap.String("document", rec.Documents[i].Name), zap.Error(e))
		}
	}
	for _, i := range uniqueNames(candidates) {
		s.logger.Info("candidate renamed to keep names unique", logger.Stage(Parse), logger.Candidate(candidates[i].Name), zap.String("document", rec.Documents[i].Name))
	}

	return withErrors(state.Partial{state.FieldCandidates: candidates}, msgs), nil
}

// parseDocument always returns a candidate. The error tells what was degraded.
func (s *Set) parseDocument(ctx context.Context, doc model.Document) (model.Candidate, error) {
	text, err := s.deps.Extractor.Extract(ctx, doc)
	if err != nil {
		return model.PlaceholderCandidate(doc.Name, "extraction failed"), fmt.Errorf("extract: %w", err)
	}
	if !extract.Usable(text) {
		return model.PlaceholderCandidate(doc.Name, "document has no usable text"), errNoText
	}

	profile := ProfileFromText(doc.Name, text)

	var parsed model.Candidate
	prompt := render("parse", map[string]string{
		"FILE":   doc.Name,
		"RESUME": truncateRunes(text, maxResumeRunes),
	})
	if err := s.deps.Caller.JSON(ctx, Parse, prompt, candidateSchema, &parsed); err != nil {
		if llmFailed(err) {
			return profile, fmt.Errorf("structured parsing failed, using keyword profile: %w", err)
		}
		return profile, nil
	}

	return mergeProfiles(parsed, profile), nil
}

// ProfileFromText builds a candidate from pattern matching alone.
func ProfileFromText(source, text string) model.Candidate {
	contacts := extract.FindContacts(text)

	c := model.Candidate{
		Name:       extract.GuessName(text),
		Skills:     extract.FindSkills(text),
		GitHub:     contacts.GitHub,
		SourceFile: source,
		ResumeText: text,
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(source, filepath.Ext(source))
	}
	if len(contacts.Emails) > 0 {
		c.Email = contacts.Emails[0]
	}
	if len(contacts.Phones) > 0 {
		c.Phone = contacts.Phones[0]
	}

	lower := strings.ToLower(text)
	if idx := strings.Index(lower, experiencePhrase); idx >= 0 {
		start := max(0, idx-12)
		if m := yearsPattern.FindStringSubmatch(lower[start : idx+len(experiencePhrase)]); m != nil {
			years, _ := strconv.Atoi(m[1])
			c.TotalMonths = years * 12
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > 120 || model.DegreeLevel(line) == 0 {
			continue
		}
		c.Education = append(c.Education, model.Education{Degree: line})
		if len(c.Education) == 3 {
			break
		}
	}
	return c
}

// mergeProfiles fills the gaps of the structured profile with what pattern
// matching found and normalizes the derived fields.
func mergeProfiles(parsed, found model.Candidate) model.Candidate {
	out := parsed
	out.SourceFile = found.SourceFile
	out.ResumeText = found.ResumeText

	if strings.TrimSpace(out.Name) == "" {
		out.Name = found.Name
	}
	if out.Email == "" {
		out.Email = found.Email
	}
	if out.Phone == "" {
		out.Phone = found.Phone
	}
	if out.GitHub == "" {
		out.GitHub = found.GitHub
	}
	out.GitHub = lookup.Username(out.GitHub)

	seen := make(map[string]bool, len(out.Skills))
	skills := make([]string, 0, len(out.Skills)+len(found.Skills))
	for _, skill := range append(append([]string{}, out.Skills...), found.Skills...) {
		key := strings.ToLower(strings.TrimSpace(skill))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		skills = append(skills, strings.TrimSpace(skill))
	}
	out.Skills = skills

	if out.TotalMonths <= 0 {
		for _, w := range out.WorkExperience {
			out.TotalMonths += max(w.Months, 0)
		}
	}
	if out.TotalMonths <= 0 {
		out.TotalMonths = found.TotalMonths
	}
	if len(out.Education) == 0 {
		out.Education = found.Education
	}
	return out
}

// uniqueNames gives every candidate sharing a name the source file as a suffix,
// then a counter if that still collides. Results are keyed by name downstream.
// It returns the indexes of the renamed candidates.
func uniqueNames(candidates []model.Candidate) []int {
	count := make(map[string]int, len(candidates))
	for _, c := range candidates {
		count[nameKey(c.Name)]++
	}
	taken := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if count[nameKey(c.Name)] == 1 {
			taken[nameKey(c.Name)] = true
		}
	}

	var renamed []int
	for i := range candidates {
		if count[nameKey(candidates[i].Name)] < 2 {
			continue
		}
		base := candidates[i].Name
		if src := candidates[i].SourceFile; src != "" {
			base = fmt.Sprintf("%s (%s)", base, src)
		}
		name := base
		for n := 2; taken[nameKey(name)]; n++ {
			name = fmt.Sprintf("%s #%d", base, n)
		}
		taken[nameKey(name)] = true
		if name != candidates[i].Name {
			candidates[i].Name = name
			renamed = append(renamed, i)
		}
	}
	return renamed
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
