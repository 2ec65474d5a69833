package graph

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/suhasdasari/S4D5/log"
)

// Runnable is a compiled graph. It is immutable and safe for concurrent Invoke
// calls; every invocation owns its own state.
type Runnable struct {
	name      string
	schema    *Schema
	entry     string
	order     []string
	nodes     map[string]*Node
	next      map[string]string
	routes    map[string]*Router
	terminals map[string]bool

	listeners []Listener
	logger    log.Logger
	now       func() time.Time
	newRunID  func() string
}

// Compile validates the graph and builds an executable plan. Every problem is
// reported in a single *GraphValidationError.
func (g *StateGraph) Compile() (*Runnable, error) {
	violations := g.validate()
	if len(violations) > 0 {
		return nil, &GraphValidationError{Graph: g.name, Violations: violations}
	}

	r := &Runnable{
		name:      g.name,
		schema:    g.schema.Clone(),
		entry:     g.entryPoint,
		order:     slices.Clone(g.order),
		nodes:     make(map[string]*Node, len(g.nodes)),
		next:      make(map[string]string, len(g.edges)),
		routes:    make(map[string]*Router, len(g.routers)),
		terminals: maps.Clone(g.terminals),
		logger:    log.GetDefaultLogger(),
		now:       time.Now,
		newRunID:  func() string { return uuid.NewString() },
	}
	for name, n := range g.nodes {
		node := *n
		node.Inputs = slices.Clone(n.Inputs)
		node.Outputs = slices.Clone(n.Outputs)
		r.nodes[name] = &node
	}
	for _, e := range g.edges {
		r.next[e.From] = e.To
	}
	for from, rt := range g.routers {
		router := *rt
		router.Outcomes = maps.Clone(rt.Outcomes)
		r.routes[from] = &router
	}

	for _, name := range r.unreachable() {
		r.logger.Warn("graph %s: step %s is not reachable from %s", r.displayName(), name, r.entry)
	}

	return r, nil
}

func (g *StateGraph) isTarget(name string) bool {
	_, isNode := g.nodes[name]
	return isNode || g.terminals[name]
}

func (g *StateGraph) validate() []Violation {
	var vs []Violation
	add := func(kind ViolationKind, node, target, format string, args ...any) {
		vs = append(vs, Violation{Kind: kind, Node: node, Target: target, Message: fmt.Sprintf(format, args...)})
	}

	switch {
	case g.entryPoint == "":
		add(ViolationEntryPoint, "", "", "%s", ErrEntryPointNotSet)
	case g.nodes[g.entryPoint] == nil:
		add(ViolationEntryPoint, "", g.entryPoint, "entry point %q is not a declared step", g.entryPoint)
	}

	for _, name := range g.duplicates {
		add(ViolationDuplicateNode, name, "", "step %q is declared more than once", name)
	}

	for _, name := range g.order {
		if g.terminals[name] {
			add(ViolationTerminal, name, name, "step %q shadows a terminal marker", name)
		}
		if g.nodes[name].Function == nil {
			add(ViolationNilFunction, name, "", "step %q has no function", name)
		}
	}

	straight := make(map[string]int)
	for _, e := range g.edges {
		if g.nodes[e.From] == nil {
			add(ViolationUnknownSource, e.From, e.To, "edge %s -> %s starts at undeclared step %q", e.From, e.To, e.From)
		} else {
			straight[e.From]++
		}
		if !g.isTarget(e.To) {
			add(ViolationUnknownTarget, e.From, e.To, "edge %s -> %s points to undeclared step %q", e.From, e.To, e.To)
		}
	}

	for _, from := range g.dupRouters {
		add(ViolationFanOut, from, "", "step %q has more than one conditional edge", from)
	}
	for _, from := range g.routerOrder {
		rt := g.routers[from]
		if g.nodes[from] == nil {
			add(ViolationUnknownSource, from, "", "conditional edge starts at undeclared step %q", from)
		}
		if rt.Route == nil {
			add(ViolationNilFunction, from, "", "conditional edge after %q has no router", from)
		}
		if len(rt.Outcomes) == 0 {
			add(ViolationOutcomes, from, "", "conditional edge after %q has no outcomes", from)
		}
		for _, label := range rt.Labels() {
			target := rt.Outcomes[label]
			if !g.isTarget(target) {
				add(ViolationUnknownTarget, from, target, "outcome %q after %q points to undeclared step %q", label, from, target)
			}
		}
	}

	for _, name := range g.order {
		_, routed := g.routers[name]
		switch n := straight[name]; {
		case n > 1:
			add(ViolationFanOut, name, "", "step %q has %d outgoing edges; only one is allowed", name, n)
		case n == 1 && routed:
			add(ViolationFanOut, name, "", "step %q has both a straight and a conditional edge", name)
		case n == 0 && !routed:
			add(ViolationDeadEnd, name, "", "step %q has no outgoing edge", name)
		}
	}

	vs = append(vs, g.schema.validate()...)
	for _, name := range g.order {
		n := g.nodes[name]
		for _, field := range n.Inputs {
			if _, ok := g.schema.Field(field); !ok {
				add(ViolationSchema, name, field, "step %q reads undeclared field %q", name, field)
			}
		}
		for _, field := range n.Outputs {
			if _, ok := g.schema.Field(field); !ok {
				add(ViolationSchema, name, field, "step %q writes undeclared field %q", name, field)
			}
		}
	}

	if g.nodes[g.entryPoint] != nil {
		for _, cycle := range g.findCycles() {
			add(ViolationCycle, cycle[0], cycle[len(cycle)-1], "cycle %s", strings.Join(cycle, " -> "))
		}
	}

	return vs
}

// successors lists every step or terminal reachable in one hop from name.
func (g *StateGraph) successors(name string) []string {
	var out []string
	for _, e := range g.edges {
		if e.From == name {
			out = append(out, e.To)
		}
	}
	if rt, ok := g.routers[name]; ok {
		for _, label := range rt.Labels() {
			out = append(out, rt.Outcomes[label])
		}
	}
	return out
}

// findCycles runs a depth-first search from the entry point and returns the
// path of every back edge it finds, e.g. [A B C A].
func (g *StateGraph) findCycles() [][]string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int)
	var path []string
	var cycles [][]string

	var visit func(name string)
	visit = func(name string) {
		color[name] = grey
		path = append(path, name)
		for _, next := range g.successors(name) {
			if g.nodes[next] == nil {
				continue
			}
			switch color[next] {
			case grey:
				start := slices.Index(path, next)
				cycle := append(slices.Clone(path[start:]), next)
				cycles = append(cycles, cycle)
			case white:
				visit(next)
			}
		}
		path = path[:len(path)-1]
		color[name] = black
	}
	visit(g.entryPoint)
	return cycles
}

// unreachable lists declared steps the entry point can never lead to.
func (r *Runnable) unreachable() []string {
	seen := map[string]bool{}
	queue := []string{r.entry}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] || r.nodes[name] == nil {
			continue
		}
		seen[name] = true
		if next, ok := r.next[name]; ok {
			queue = append(queue, next)
		}
		if rt, ok := r.routes[name]; ok {
			for _, label := range rt.Labels() {
				queue = append(queue, rt.Outcomes[label])
			}
		}
	}

	var out []string
	for _, name := range r.order {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}

// Name returns the graph name.
func (r *Runnable) Name() string {
	return r.name
}

// Schema returns a copy of the schema the plan merges with.
func (r *Runnable) Schema() *Schema {
	return r.schema.Clone()
}

// EntryPoint returns the first step of every run.
func (r *Runnable) EntryPoint() string {
	return r.entry
}

// Steps returns the step names in declaration order.
func (r *Runnable) Steps() []string {
	return slices.Clone(r.order)
}

// Node returns the compiled step called name.
func (r *Runnable) Node(name string) (Node, bool) {
	n, ok := r.nodes[name]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// IsTerminal reports whether name is a terminal marker of the plan.
func (r *Runnable) IsTerminal(name string) bool {
	return r.terminals[name]
}

// WithListeners returns a copy of the runnable that also notifies listeners.
func (r *Runnable) WithListeners(listeners ...Listener) *Runnable {
	cp := *r
	cp.listeners = append(slices.Clone(r.listeners), listeners...)
	return &cp
}

// WithLogger returns a copy of the runnable logging to logger.
func (r *Runnable) WithLogger(logger log.Logger) *Runnable {
	cp := *r
	cp.logger = logger
	return &cp
}

// WithClock returns a copy of the runnable using now for audit timestamps and durations.
func (r *Runnable) WithClock(now func() time.Time) *Runnable {
	cp := *r
	cp.now = now
	return &cp
}

// WithRunIDs returns a copy of the runnable generating run IDs with fn.
func (r *Runnable) WithRunIDs(fn func() string) *Runnable {
	cp := *r
	cp.newRunID = fn
	return &cp
}

func (r *Runnable) displayName() string {
	if r.name == "" {
		return "graph"
	}
	return r.name
}
