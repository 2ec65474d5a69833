package graph

import (
	"maps"
)

// StateGraph is the mutable definition of a workflow: steps, straight edges,
// conditional edges, an entry point and terminal markers. Nothing is checked
// until Compile, which reports every problem at once.
//
// Example usage:
//
//	g := graph.NewStateGraph(graph.NewSchema(
//		graph.Field{Name: "goal", Type: graph.TypeString},
//	))
//	g.AddNode("plan", "Decompose the goal", planFn)
//	g.AddNode("check", "Screen for risk", checkFn)
//	g.AddEdge("plan", "check")
//	g.AddConditionalEdges("check", riskRouter, map[string]string{
//		"high_risk": graph.END,
//		"pass":      "execute",
//	})
//	g.SetEntryPoint("plan")
//	runnable, err := g.Compile()
type StateGraph struct {
	name string

	schema *Schema

	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]*Node

	// order keeps the declaration order of unique node names
	order []string

	// duplicates records names registered more than once
	duplicates []string

	// edges is a slice of Edge objects representing the connections between nodes
	edges []Edge

	// routers maps a node to the conditional edge leaving it
	routers     map[string]*Router
	routerOrder []string
	dupRouters  []string

	// entryPoint is the name of the entry point node in the graph
	entryPoint string

	terminals map[string]bool
}

// NewStateGraph creates an empty graph. A nil schema is replaced by NewSchema().
func NewStateGraph(schema *Schema) *StateGraph {
	if schema == nil {
		schema = NewSchema()
	}
	return &StateGraph{
		schema:    schema,
		nodes:     make(map[string]*Node),
		routers:   make(map[string]*Router),
		terminals: map[string]bool{END: true},
	}
}

// SetName names the graph in logs, events and validation errors.
func (g *StateGraph) SetName(name string) {
	g.name = name
}

// Name returns the graph name.
func (g *StateGraph) Name() string {
	return g.name
}

// Schema returns the state schema of the graph.
func (g *StateGraph) Schema() *Schema {
	return g.schema
}

// AddNode registers a step. Registering the same name twice is reported by Compile.
func (g *StateGraph) AddNode(name string, description string, fn NodeFunc, opts ...NodeOption) {
	node := &Node{
		Name:        name,
		Description: description,
		Function:    fn,
	}
	for _, opt := range opts {
		opt(node)
	}

	if _, exists := g.nodes[name]; exists {
		g.duplicates = append(g.duplicates, name)
		return
	}
	g.nodes[name] = node
	g.order = append(g.order, name)
}

// AddEdge adds a straight edge between the "from" and "to" nodes
func (g *StateGraph) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// AddConditionalEdges attaches a router to from. The router's label is looked
// up in outcomes to find the next step or terminal marker.
func (g *StateGraph) AddConditionalEdges(from string, route RouterFunc, outcomes map[string]string) {
	if _, exists := g.routers[from]; exists {
		g.dupRouters = append(g.dupRouters, from)
		return
	}
	g.routers[from] = &Router{
		From:     from,
		Route:    route,
		Outcomes: maps.Clone(outcomes),
	}
	g.routerOrder = append(g.routerOrder, from)
}

// SetEntryPoint sets the entry point node name for the state graph
func (g *StateGraph) SetEntryPoint(name string) {
	g.entryPoint = name
}

// AddTerminal declares an additional terminal marker besides END.
func (g *StateGraph) AddTerminal(name string) {
	g.terminals[name] = true
}
