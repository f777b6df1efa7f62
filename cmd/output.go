package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/screener/internal/state"
)

// outputs writes the run artifacts into dir, named after the run id.
type outputs struct {
	dir   string
	runID string
}

func newOutputs(dir, runID string) *outputs {
	return &outputs{dir: dir, runID: runID}
}

func (o *outputs) path(suffix string) string {
	return filepath.Join(o.dir, fmt.Sprintf("screening-%s%s", o.runID, suffix))
}

func (o *outputs) write(suffix string, data []byte) (string, error) {
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := o.path(suffix)
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	return filename, nil
}

func (o *outputs) report(rec state.Record) (string, error) {
	if rec.Report == "" {
		return "", fmt.Errorf("the run produced no report")
	}
	return o.write("-report.md", []byte(rec.Report))
}

func (o *outputs) state(rec state.Record) (string, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return o.write("-state.json", data)
}

func printRanking(rec state.Record) {
	if len(rec.Ranked) == 0 {
		fmt.Println("No candidates were ranked.")
		return
	}
	for _, r := range rec.Ranked {
		sc := r.Score
		if sc.Unassessed {
			fmt.Printf("#%d %-30s not assessed, the resume could not be parsed\n", r.Rank, sc.Candidate)
			continue
		}
		fmt.Printf("#%d %-30s %5.1f%%  %-16s skills %.0f / experience %.0f / education %.0f\n",
			r.Rank, sc.Candidate, sc.Total, sc.Recommendation, sc.Skill.Overall, sc.Experience.Score, sc.Education.Score)
	}
	if len(rec.Errors) > 0 {
		fmt.Printf("\n%d processing notes:\n  %s\n", len(rec.Errors), strings.Join(rec.Errors, "\n  "))
	}
}

func printQuestions(rec state.Record) {
	if len(rec.Questions) == 0 {
		fmt.Println("No interview questions were generated.")
		return
	}
	for _, r := range rec.Ranked {
		questions, ok := rec.Questions[r.Score.Candidate]
		if !ok {
			continue
		}
		fmt.Printf("%s:\n", r.Score.Candidate)
		for i, q := range questions {
			fmt.Printf("  %d. %s\n", i+1, q)
		}
	}
}
