package pipeline

import "fmt"

// Plan is a compiled graph the driver steps through.
type Plan struct {
	entry  string
	stages map[string]Stage
	next   map[string]string
	cond   *conditionalEdge
	order  []string
}

func (p *Plan) Entry() string { return p.entry }

// Stages returns stage names in execution order for a run without loops.
func (p *Plan) Stages() []string {
	return append([]string(nil), p.order...)
}

func (p *Plan) stage(name string) Stage {
	return p.stages[name]
}

// Describe renders every transition of the plan, one per line.
func (p *Plan) Describe() []string {
	lines := make([]string, 0, len(p.order)+2)
	for _, name := range p.order {
		if to, ok := p.next[name]; ok {
			lines = append(lines, fmt.Sprintf("%s -> %s", name, to))
			continue
		}
		if p.cond != nil && p.cond.from == name {
			for _, route := range []Route{Reanalyze, Continue} {
				if to, ok := p.cond.targets[route]; ok {
					lines = append(lines, fmt.Sprintf("%s -[%s]-> %s", name, route, to))
				}
			}
		}
	}
	return lines
}
