package stages

import (
	"embed"
	"fmt"
	"strings"

	"github.com/spigell/screener/internal/model"
)

//go:embed prompts/*.md
var promptFS embed.FS

// render fills the {{KEY}} placeholders of the named prompt template.
func render(name string, vars map[string]string) string {
	raw, err := promptFS.ReadFile("prompts/" + name + ".md")
	if err != nil {
		panic(fmt.Sprintf("prompt %s is not embedded: %v", name, err))
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(string(raw))
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}

func skillNames(skills []model.Skill) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		out = append(out, s.Name)
	}
	return out
}

// workSummary lists at most limit entries of the work history, with the
// company facts when they are known.
func workSummary(work []model.WorkExperience, companies map[string]model.CompanyFacts, limit int) string {
	if len(work) == 0 {
		return "No work experience listed."
	}
	var b strings.Builder
	for i, w := range work {
		if limit > 0 && i == limit {
			break
		}
		fmt.Fprintf(&b, "%d. %s at %s", i+1, w.Title, w.Company)
		if w.Months > 0 {
			fmt.Fprintf(&b, " (%d months)", w.Months)
		}
		b.WriteString("\n")
		if len(w.Technologies) > 0 {
			fmt.Fprintf(&b, "   Technologies: %s\n", strings.Join(firstN(w.Technologies, 5), ", "))
		}
		if len(w.Responsibilities) > 0 {
			fmt.Fprintf(&b, "   Responsibilities: %s\n", strings.Join(firstN(w.Responsibilities, 3), "; "))
		}
		if companies == nil {
			continue
		}
		facts, ok := companies[w.Company]
		switch {
		case !ok:
		case !facts.Found:
			b.WriteString("   Company info: could not verify\n")
		default:
			if facts.Industry != "" {
				fmt.Fprintf(&b, "   Industry: %s\n", facts.Industry)
			}
			if len(facts.TechStack) > 0 {
				fmt.Fprintf(&b, "   Company stack: %s\n", strings.Join(firstN(facts.TechStack, 5), ", "))
			}
		}
	}
	return b.String()
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
