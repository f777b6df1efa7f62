// Package tools plans which enrichment lookups to run for each candidate.
package tools

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/ai"
	"github.com/spigell/screener/internal/logger"
	"github.com/spigell/screener/internal/model"
)

//go:embed prompt.md
var promptTemplate string

const planSchema = `{
  "type": "object",
  "required": ["tools"],
  "properties": {
    "tools": {"type": "array", "items": {"type": "string"}},
    "priority": {"type": "string"},
    "reasoning": {"type": "string"}
  }
}`

type planResponse struct {
	Tools     []string `mapstructure:"tools"`
	Priority  string   `mapstructure:"priority"`
	Reasoning string   `mapstructure:"reasoning"`
}

// Coordinator builds tool plans. With a disabled caller it plans from the
// profile alone.
type Coordinator struct {
	caller *ai.Caller
	logger *zap.Logger
}

func NewCoordinator(caller *ai.Caller, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{caller: caller, logger: log}
}

// FallbackPlan is used whenever the planner fails: the cheapest tool only.
func FallbackPlan(reason string) model.ToolPlan {
	return model.ToolPlan{
		Tools:     []model.Tool{model.AllTools[0]},
		Priority:  model.PriorityMedium,
		Rationale: "default tool set: " + reason,
		Fallback:  true,
	}
}

// Plan decides the tools for candidate. It never fails; planner errors yield
// FallbackPlan.
func (c *Coordinator) Plan(ctx context.Context, candidate model.Candidate, job *model.JobRequirements) model.ToolPlan {
	if !c.caller.Enabled() {
		return RulePlan(candidate)
	}

	var resp planResponse
	prompt := buildPrompt(candidate, job)
	if err := c.caller.JSON(ctx, "tool_planning", prompt, planSchema, &resp); err != nil {
		c.logger.Warn("tool planning failed, using default plan", logger.Candidate(candidate.Name), zap.Error(err))
		return FallbackPlan("planning error")
	}

	tools, dropped := Filter(resp.Tools)
	if len(dropped) > 0 {
		c.logger.Warn("planner returned unknown tools",
			logger.Candidate(candidate.Name),
			zap.Strings("dropped", dropped),
		)
	}
	if len(tools) == 0 && len(dropped) > 0 {
		return FallbackPlan("no valid tools selected")
	}

	return model.ToolPlan{
		Tools:     tools,
		Priority:  normalizePriority(resp.Priority),
		Rationale: strings.TrimSpace(resp.Reasoning),
	}
}

// Filter keeps the known tool ids, de-duplicated in first-seen order, and
// returns the rejected ones.
func Filter(ids []string) (tools []model.Tool, dropped []string) {
	seen := make(map[model.Tool]bool, len(ids))
	for _, id := range ids {
		tool := model.Tool(strings.ToLower(strings.TrimSpace(id)))
		if !tool.Valid() {
			dropped = append(dropped, id)
			continue
		}
		if seen[tool] {
			continue
		}
		seen[tool] = true
		tools = append(tools, tool)
	}
	return tools, dropped
}

// RulePlan picks tools from what the profile offers to look up.
func RulePlan(candidate model.Candidate) model.ToolPlan {
	plan := model.ToolPlan{Priority: model.PriorityLow}
	var reasons []string

	if len(candidate.Skills) > 0 {
		plan.Tools = append(plan.Tools, model.SkillLookup)
		reasons = append(reasons, "skills to relate")
	}
	if candidate.GitHub != "" {
		plan.Tools = append(plan.Tools, model.ProfileLookup)
		plan.Priority = model.PriorityMedium
		reasons = append(reasons, "public profile provided")
	}
	if len(candidate.Companies(1)) > 0 {
		plan.Tools = append(plan.Tools, model.CompanyLookup)
		reasons = append(reasons, "employers to verify")
	}
	if len(plan.Tools) == 3 {
		plan.Priority = model.PriorityHigh
	}

	if len(reasons) == 0 {
		plan.Rationale = "nothing to look up"
	} else {
		plan.Rationale = strings.Join(reasons, "; ")
	}
	return plan
}

func normalizePriority(p string) model.Priority {
	switch model.Priority(strings.ToLower(strings.TrimSpace(p))) {
	case model.PriorityHigh:
		return model.PriorityHigh
	case model.PriorityLow:
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

func buildPrompt(candidate model.Candidate, job *model.JobRequirements) string {
	title := "Technical Role"
	if job != nil && strings.TrimSpace(job.Title) != "" {
		title = job.Title
	}
	prompt := strings.ReplaceAll(promptTemplate, "{{JOB_TITLE}}", title)
	return strings.ReplaceAll(prompt, "{{CANDIDATE}}", summarize(candidate))
}

func summarize(c model.Candidate) string {
	lines := []string{
		"Name: " + c.Name,
		fmt.Sprintf("Experience: %.1f years", c.TotalYears()),
	}
	if len(c.Skills) > 0 {
		skills := c.Skills
		if len(skills) > 10 {
			skills = skills[:10]
		}
		lines = append(lines, "Skills: "+strings.Join(skills, ", "))
	}
	if companies := c.Companies(3); len(companies) > 0 {
		lines = append(lines, "Recent companies: "+strings.Join(companies, ", "))
	}
	if c.GitHub != "" {
		lines = append(lines, "GitHub: "+c.GitHub)
	} else {
		lines = append(lines, "GitHub: not provided")
	}
	if edu := c.HighestEducation(); edu != nil {
		lines = append(lines, fmt.Sprintf("Education: %s from %s", edu.Degree, edu.Institution))
	}
	return strings.Join(lines, "\n")
}
