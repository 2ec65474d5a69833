package graph

import (
	"fmt"
	"strings"
)

// Exporter renders a compiled plan as a diagram. Steps are emitted in
// declaration order and outcomes in label order, so output is stable.
type Exporter struct {
	plan *Runnable
}

// NewExporter creates a new exporter for the given plan
func NewExporter(plan *Runnable) *Exporter {
	return &Exporter{plan: plan}
}

// Exporter returns an exporter for the plan.
func (r *Runnable) Exporter() *Exporter {
	return NewExporter(r)
}

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// arrow is one drawable transition. Label is empty for straight edges.
type arrow struct {
	From, To, Label string
}

func (ge *Exporter) arrows() []arrow {
	var out []arrow
	for _, name := range ge.plan.order {
		if to, ok := ge.plan.next[name]; ok {
			out = append(out, arrow{From: name, To: to})
		}
		if rt, ok := ge.plan.routes[name]; ok {
			for _, label := range rt.Labels() {
				out = append(out, arrow{From: name, To: rt.Outcomes[label], Label: label})
			}
		}
	}
	return out
}

// usedTerminals lists the terminal markers some edge points to, in first-use order.
func (ge *Exporter) usedTerminals(arrows []arrow) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range arrows {
		if ge.plan.terminals[a.To] && !seen[a.To] {
			seen[a.To] = true
			out = append(out, a.To)
		}
	}
	return out
}

// DrawMermaid generates a Mermaid diagram representation of the plan
func (ge *Exporter) DrawMermaid() string {
	return ge.DrawMermaidWithOptions(MermaidOptions{
		Direction: "TD",
	})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options
func (ge *Exporter) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	fmt.Fprintf(&sb, "flowchart %s\n", direction)

	sb.WriteString("    START([\"START\"])\n")
	sb.WriteString("    style START fill:#90EE90\n")
	fmt.Fprintf(&sb, "    START --> %s\n", ge.plan.entry)

	for _, name := range ge.plan.order {
		if _, routed := ge.plan.routes[name]; routed {
			fmt.Fprintf(&sb, "    %s{\"%s\"}\n", name, name)
			continue
		}
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", name, name)
	}

	arrows := ge.arrows()
	for _, term := range ge.usedTerminals(arrows) {
		fmt.Fprintf(&sb, "    %s([\"%s\"])\n", term, term)
		fmt.Fprintf(&sb, "    style %s fill:#FFB6C1\n", term)
	}

	for _, a := range arrows {
		if a.Label == "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", a.From, a.To)
			continue
		}
		fmt.Fprintf(&sb, "    %s -.->|%s| %s\n", a.From, a.Label, a.To)
	}

	fmt.Fprintf(&sb, "    style %s fill:#87CEEB\n", ge.plan.entry)
	return sb.String()
}

// DrawDOT generates a DOT (Graphviz) representation of the plan
func (ge *Exporter) DrawDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph G {\n")
	sb.WriteString("    rankdir=TD;\n")
	sb.WriteString("    node [shape=box];\n")
	sb.WriteString("    START [label=\"START\", shape=ellipse, style=filled, fillcolor=lightgreen];\n")
	fmt.Fprintf(&sb, "    START -> %q;\n", ge.plan.entry)
	fmt.Fprintf(&sb, "    %q [style=filled, fillcolor=lightblue];\n", ge.plan.entry)

	arrows := ge.arrows()
	for _, term := range ge.usedTerminals(arrows) {
		fmt.Fprintf(&sb, "    %q [shape=ellipse, style=filled, fillcolor=lightpink];\n", term)
	}
	for _, a := range arrows {
		if a.Label == "" {
			fmt.Fprintf(&sb, "    %q -> %q;\n", a.From, a.To)
			continue
		}
		fmt.Fprintf(&sb, "    %q -> %q [style=dashed, label=%q];\n", a.From, a.To, a.Label)
	}

	sb.WriteString("}\n")
	return sb.String()
}

// DrawASCII generates an ASCII tree representation of the plan
func (ge *Exporter) DrawASCII() string {
	var sb strings.Builder
	visited := make(map[string]bool)

	title := "Graph Execution Flow"
	if ge.plan.name != "" {
		title = fmt.Sprintf("%s (%s)", title, ge.plan.name)
	}
	sb.WriteString(title + ":\n")
	sb.WriteString("├── START\n")

	ge.drawASCIINode(ge.plan.entry, "", "│   ", true, visited, &sb)

	return sb.String()
}

// drawASCIINode recursively draws ASCII representation of nodes. A step that
// is reached a second time is printed once more with a "(see above)" marker.
func (ge *Exporter) drawASCIINode(name, label, prefix string, isLast bool, visited map[string]bool, sb *strings.Builder) {
	connector := "├──"
	nextPrefix := prefix + "│   "
	if isLast {
		connector = "└──"
		nextPrefix = prefix + "    "
	}

	text := name
	if label != "" {
		text = fmt.Sprintf("[%s] %s", label, name)
	}

	if visited[name] {
		fmt.Fprintf(sb, "%s%s %s (see above)\n", prefix, connector, text)
		return
	}
	if ge.plan.terminals[name] {
		fmt.Fprintf(sb, "%s%s %s\n", prefix, connector, text)
		return
	}
	visited[name] = true
	fmt.Fprintf(sb, "%s%s %s\n", prefix, connector, text)

	var children []arrow
	for _, a := range ge.arrows() {
		if a.From == name {
			children = append(children, a)
		}
	}
	for i, a := range children {
		ge.drawASCIINode(a.To, a.Label, nextPrefix, i == len(children)-1, visited, sb)
	}
}
