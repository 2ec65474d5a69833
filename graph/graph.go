package graph

// END is the terminal marker every graph knows about.
const END = "END"

// START labels the entry arrow in exported diagrams. It is not a step.
const START = "START"

// Edge represents a straight edge in the graph.
type Edge struct {
	// From is the name of the node from which the edge originates.
	From string

	// To is the name of the node or terminal marker the edge points to.
	To string
}
