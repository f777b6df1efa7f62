package extract

import (
	"regexp"
	"sort"
	"strings"
)

var (
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern  = regexp.MustCompile(`[+(]?[1-9][0-9 .\-()]{8,}[0-9]`)
	urlPattern    = regexp.MustCompile(`https?://[^\s)>\]]+`)
	githubPattern = regexp.MustCompile(`(?i)github\.com/([A-Za-z0-9](?:[A-Za-z0-9-]{0,38}))`)
)

// KnownSkills is the vocabulary used for keyword skill detection.
var KnownSkills = []string{
	"python", "java", "javascript", "typescript", "c++", "c#", "go", "golang", "rust", "ruby",
	"php", "swift", "kotlin", "scala", "matlab",
	"react", "angular", "vue", "django", "flask", "fastapi", "spring", "express", "node.js",
	".net", "laravel", "rails",
	"tensorflow", "pytorch", "keras", "scikit-learn", "pandas", "numpy", "opencv", "nlp",
	"computer vision", "deep learning", "machine learning", "neural networks", "transformers",
	"llm", "langchain",
	"sql", "mysql", "postgresql", "mongodb", "redis", "elasticsearch", "cassandra", "dynamodb",
	"oracle",
	"aws", "azure", "gcp", "docker", "kubernetes", "jenkins", "gitlab", "terraform", "ansible",
	"ci/cd",
	"git", "linux", "rest", "graphql", "microservices", "agile", "html", "css",
}

// Contacts holds the details found by pattern matching.
type Contacts struct {
	Emails []string
	Phones []string
	URLs   []string
	GitHub string
}

func FindContacts(text string) Contacts {
	c := Contacts{
		Emails: unique(emailPattern.FindAllString(text, -1)),
		Phones: unique(phonePattern.FindAllString(text, -1)),
		URLs:   unique(urlPattern.FindAllString(text, -1)),
	}
	if m := githubPattern.FindStringSubmatch(text); m != nil {
		c.GitHub = m[1]
	}
	for i, p := range c.Phones {
		c.Phones[i] = strings.TrimSpace(p)
	}
	return c
}

// FindSkills returns the known skills mentioned in text, sorted.
func FindSkills(text string) []string {
	lower := " " + strings.ToLower(text) + " "
	var found []string
	for _, skill := range KnownSkills {
		if containsWord(lower, skill) {
			found = append(found, skill)
		}
	}
	sort.Strings(found)
	return found
}

// containsWord matches skill only where it is not glued to other letters or digits.
func containsWord(haystack, skill string) bool {
	from := 0
	for {
		idx := strings.Index(haystack[from:], skill)
		if idx == -1 {
			return false
		}
		start := from + idx
		end := start + len(skill)
		if !isWordByte(haystack[start-1]) && (end >= len(haystack) || !isWordByte(haystack[end])) {
			return true
		}
		from = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}

// resumeHeadings are capitalised lines that open resume sections, not names.
var resumeHeadings = map[string]bool{
	"curriculum vitae":        true,
	"about me":                true,
	"professional summary":    true,
	"career summary":          true,
	"executive summary":       true,
	"career objective":        true,
	"professional profile":    true,
	"personal profile":        true,
	"personal information":    true,
	"personal details":        true,
	"contact information":     true,
	"contact details":         true,
	"work experience":         true,
	"professional experience": true,
	"employment history":      true,
	"work history":            true,
	"technical skills":        true,
	"key skills":              true,
	"core competencies":       true,
}

// GuessName returns the first short line that looks like a person's name.
// Section headings such as "Curriculum Vitae" are skipped.
func GuessName(text string) string {
	for i, line := range strings.Split(text, "\n") {
		if i > 5 {
			break
		}
		line = strings.TrimSpace(line)
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 || strings.ContainsAny(line, "@:/|0123456789") {
			continue
		}
		if resumeHeadings[strings.ToLower(strings.Join(words, " "))] {
			continue
		}
		capitalized := true
		for _, w := range words {
			if w[0] < 'A' || w[0] > 'Z' {
				capitalized = false
				break
			}
		}
		if capitalized {
			return line
		}
	}
	return ""
}

func unique(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
