package pipeline

import (
	"fmt"
	"sort"
)

// End is the terminal marker. Edges pointing at End finish the run.
const End = "__end__"

type conditionalEdge struct {
	from    string
	router  Router
	targets map[Route]string
}

// Graph declares stages and the transitions between them. It is turned into an
// executable Plan by Compile.
type Graph struct {
	stages map[string]Stage
	order  []string
	edges  map[string]string
	entry  string
	cond   *conditionalEdge
}

func NewGraph() *Graph {
	return &Graph{
		stages: make(map[string]Stage),
		edges:  make(map[string]string),
	}
}

// AddStage declares a stage under its own name.
func (g *Graph) AddStage(s Stage) error {
	name := s.Name()
	if name == "" || name == End {
		return &GraphError{Stage: name, Reason: "reserved or empty stage name"}
	}
	if _, exists := g.stages[name]; exists {
		return &GraphError{Stage: name, Reason: "stage declared twice"}
	}
	g.stages[name] = s
	g.order = append(g.order, name)
	return nil
}

// AddEdge adds an unconditional transition. Both ends must already be declared,
// except that the destination may be End.
func (g *Graph) AddEdge(from, to string) error {
	if from == to {
		return &GraphError{Stage: from, Reason: fmt.Sprintf("self-referential edge not allowed: %s -> %s", from, to)}
	}
	if _, ok := g.stages[from]; !ok {
		return &GraphError{Stage: from, Reason: "source stage not found"}
	}
	if _, ok := g.stages[to]; !ok && to != End {
		return &GraphError{Stage: to, Reason: "destination stage not found"}
	}
	if err := g.checkFreeOutgoing(from); err != nil {
		return err
	}
	g.edges[from] = to
	return nil
}

// AddConditionalEdge makes router pick the successor of from among targets.
// A graph holds at most one conditional edge.
func (g *Graph) AddConditionalEdge(from string, router Router, targets map[Route]string) error {
	if g.cond != nil {
		return &GraphError{Stage: from, Reason: "only one conditional edge is supported"}
	}
	if router == nil {
		return &GraphError{Stage: from, Reason: "conditional edge without router"}
	}
	if len(targets) == 0 {
		return &GraphError{Stage: from, Reason: "conditional edge without targets"}
	}
	if _, ok := g.stages[from]; !ok {
		return &GraphError{Stage: from, Reason: "source stage not found"}
	}
	if err := g.checkFreeOutgoing(from); err != nil {
		return err
	}

	copied := make(map[Route]string, len(targets))
	for route, to := range targets {
		if _, ok := g.stages[to]; !ok && to != End {
			return &GraphError{Stage: to, Reason: fmt.Sprintf("destination stage for route %s not found", route)}
		}
		copied[route] = to
	}

	g.cond = &conditionalEdge{from: from, router: router, targets: copied}
	return nil
}

// SetEntry marks the first stage of the run. It can be set once.
func (g *Graph) SetEntry(name string) error {
	if _, ok := g.stages[name]; !ok {
		return &GraphError{Stage: name, Reason: "entry stage not found"}
	}
	if g.entry != "" {
		return &GraphError{Stage: name, Reason: fmt.Sprintf("entry already set to %q", g.entry)}
	}
	g.entry = name
	return nil
}

func (g *Graph) checkFreeOutgoing(from string) error {
	if _, ok := g.edges[from]; ok {
		return &GraphError{Stage: from, Reason: "stage already has an outgoing edge"}
	}
	if g.cond != nil && g.cond.from == from {
		return &GraphError{Stage: from, Reason: "stage already has a conditional edge"}
	}
	return nil
}

// Compile validates the declaration and returns the executable plan.
//
// The unconditional edges must form a DAG, every stage needs a way out, every
// stage must be reachable from the entry and the conditional edge must offer
// at least one route that does not lead back to its own source.
func (g *Graph) Compile() (*Plan, error) {
	if g.entry == "" {
		return nil, ErrNoEntry
	}

	for _, name := range g.order {
		_, hasEdge := g.edges[name]
		hasCond := g.cond != nil && g.cond.from == name
		if !hasEdge && !hasCond {
			return nil, &GraphError{Stage: name, Reason: "stage has no outgoing transition"}
		}
	}

	if err := g.detectCycles(); err != nil {
		return nil, err
	}

	reachable := g.reachableFrom(g.entry, true)
	for _, name := range g.order {
		if !reachable[name] {
			return nil, &GraphError{Stage: name, Reason: "stage is unreachable from entry"}
		}
	}

	if g.cond != nil {
		exit := false
		for route, to := range g.cond.targets {
			if to != End && !reachable[to] {
				return nil, &GraphError{Stage: to, Reason: fmt.Sprintf("route %s target unreachable from entry", route)}
			}
			if to == End || !g.reachableFrom(to, false)[g.cond.from] {
				exit = true
			}
		}
		if !exit {
			return nil, &GraphError{Stage: g.cond.from, Reason: "every conditional route loops back to its source"}
		}
	}

	plan := &Plan{
		entry:  g.entry,
		stages: make(map[string]Stage, len(g.stages)),
		next:   make(map[string]string, len(g.edges)),
		cond:   g.cond,
	}
	for k, v := range g.stages {
		plan.stages[k] = v
	}
	for k, v := range g.edges {
		plan.next[k] = v
	}
	plan.order = g.topologicalOrder()

	return plan, nil
}

const (
	unvisited = iota
	visiting
	visited
)

// detectCycles runs a three-colour DFS over the unconditional edges.
func (g *Graph) detectCycles() error {
	marks := make(map[string]int, len(g.stages))

	var visit func(string) error
	visit = func(name string) error {
		switch marks[name] {
		case visited:
			return nil
		case visiting:
			return &GraphError{Stage: name, Reason: "cycle detected involving stage"}
		}
		marks[name] = visiting
		if to, ok := g.edges[name]; ok && to != End {
			if err := visit(to); err != nil {
				return err
			}
		}
		marks[name] = visited
		return nil
	}

	for _, name := range g.order {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) reachableFrom(start string, withConditional bool) map[string]bool {
	seen := map[string]bool{}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] || cur == End {
			continue
		}
		seen[cur] = true
		if to, ok := g.edges[cur]; ok {
			queue = append(queue, to)
		}
		if withConditional && g.cond != nil && g.cond.from == cur {
			for _, to := range sortedTargets(g.cond.targets) {
				queue = append(queue, to)
			}
		}
	}
	return seen
}

// topologicalOrder lists stages in the order a run without loops visits them.
func (g *Graph) topologicalOrder() []string {
	var out []string
	seen := map[string]bool{}
	cur := g.entry
	for cur != End && !seen[cur] {
		seen[cur] = true
		out = append(out, cur)
		next, ok := g.edges[cur]
		if !ok && g.cond != nil && g.cond.from == cur {
			next = g.cond.targets[Continue]
		}
		if next == "" {
			break
		}
		cur = next
	}
	return out
}

func sortedTargets(targets map[Route]string) []string {
	routes := make([]Route, 0, len(targets))
	for r := range targets {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i] < routes[j] })
	out := make([]string, 0, len(routes))
	for _, r := range routes {
		out = append(out, targets[r])
	}
	return out
}
