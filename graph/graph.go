package graph

import "errors"

// END is the terminal marker. An edge pointing at END finishes the invocation.
const END = "END"

var (
	// ErrEntryPointNotSet is returned when the entry point node is not set
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")
)

// Edge represents a static directed edge between two named nodes.
type Edge struct {
	From string
	To   string
}
