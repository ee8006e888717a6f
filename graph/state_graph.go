package graph

import (
	"context"
	"fmt"
)

// StateGraph represents a state-based workflow graph with compile-time type
// safety. The type parameter S is the state struct threaded through the nodes.
//
// Execution is strictly sequential: each node has exactly one outgoing static
// edge, and the walk ends when an edge points at END. A node error aborts the
// invocation; there is no retry and no partial result.
//
// Example usage:
//
//	type MyState struct {
//	    Question string
//	    Answer   string
//	}
//
//	g := graph.NewStateGraph[MyState]()
//	g.AddNode("answer", "Answer the question", func(ctx context.Context, state MyState) (MyState, error) {
//	    state.Answer = "42"
//	    return state, nil
//	})
//	g.AddEdge("answer", graph.END)
//	g.SetEntryPoint("answer")
type StateGraph[S any] struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]Node[S]

	// edges is a slice of Edge objects representing the connections between nodes
	edges []Edge

	// entryPoint is the name of the entry point node in the graph
	entryPoint string
}

// Node represents a typed node in the graph.
type Node[S any] struct {
	Name        string
	Description string
	Function    func(ctx context.Context, state S) (S, error)
}

// NewStateGraph creates a new instance of StateGraph.
// The type parameter S specifies the state type.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes: make(map[string]Node[S]),
	}
}

// AddNode adds a new node to the state graph with the given name, description
// and function. Adding a node with an existing name replaces it.
func (g *StateGraph[S]) AddNode(name string, description string, fn func(ctx context.Context, state S) (S, error)) {
	g.nodes[name] = Node[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a new edge to the state graph between the "from" and "to" nodes.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// StateRunnable represents a compiled state graph that can be invoked.
type StateRunnable[S any] struct {
	graph *StateGraph[S]
}

// Compile validates the state graph and returns a StateRunnable instance.
// It fails if the entry point is unset or names a missing node, or if any
// edge references a node the graph does not contain.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("entry point %s: %w", g.entryPoint, ErrNodeNotFound)
	}
	for _, edge := range g.edges {
		if _, ok := g.nodes[edge.From]; !ok {
			return nil, fmt.Errorf("edge from %s: %w", edge.From, ErrNodeNotFound)
		}
		if edge.To == END {
			continue
		}
		if _, ok := g.nodes[edge.To]; !ok {
			return nil, fmt.Errorf("edge to %s: %w", edge.To, ErrNodeNotFound)
		}
	}

	return &StateRunnable[S]{graph: g}, nil
}

// Invoke executes the compiled state graph with the given input state and
// returns the final state. Each node receives the state returned by its
// predecessor; the first node error aborts the walk and is returned wrapped
// with the node name.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	state := initialState
	current := r.graph.entryPoint

	for current != END {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return state, fmt.Errorf("%s: %w", current, ErrNodeNotFound)
		}

		var err error
		state, err = node.Function(ctx, state)
		if err != nil {
			return state, fmt.Errorf("error in node %s: %w", current, err)
		}

		next, err := r.graph.nextNode(current)
		if err != nil {
			return state, err
		}
		current = next
	}

	return state, nil
}

func (g *StateGraph[S]) nextNode(from string) (string, error) {
	for _, edge := range g.edges {
		if edge.From == from {
			return edge.To, nil
		}
	}
	return "", fmt.Errorf("%s: %w", from, ErrNoOutgoingEdge)
}
