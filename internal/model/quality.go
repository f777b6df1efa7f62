package model

// QualityCheck is the verdict of the quality gate. It is replaced on every evaluation.
type QualityCheck struct {
	Confidence      float64  `json:"confidence"`
	NeedsRerun      bool     `json:"needs_rerun"`
	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Flagged         []string `json:"flagged,omitempty"`
	// Exhausted is set when a rerun was wanted but the retry cap was reached.
	Exhausted bool `json:"exhausted,omitempty"`
}
