package model

type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

type BiasFinding struct {
	Kind           string   `json:"kind" mapstructure:"kind"`
	Severity       Severity `json:"severity" mapstructure:"severity"`
	Description    string   `json:"description" mapstructure:"description"`
	Recommendation string   `json:"recommendation,omitempty" mapstructure:"recommendation"`
}

type BiasReport struct {
	Score           float64       `json:"score"`
	Findings        []BiasFinding `json:"findings,omitempty"`
	Fairness        string        `json:"fairness"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

type SalaryEstimate struct {
	Candidate  string  `json:"candidate"`
	Level      string  `json:"level"`
	Min        int     `json:"min"`
	Max        int     `json:"max"`
	Currency   string  `json:"currency"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

type ATSScore struct {
	Candidate   string             `json:"candidate"`
	Overall     float64            `json:"overall"`
	Categories  map[string]float64 `json:"categories"`
	Rating      string             `json:"rating"`
	Suggestions []string           `json:"suggestions,omitempty"`
}
