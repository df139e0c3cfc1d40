// Package graph provides a typed state-graph execution engine for LLM
// agent workflows. A graph is a set of named nodes connected by static or
// conditional edges; each node is a function from state to updated state.
package graph

import (
	"context"
	"errors"
)

// END is a special constant used to represent the end node in the graph.
const END = "END"

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")
)

// NodeFunction takes a context and the current state and returns a state
// update and an error.
type NodeFunction[S any] func(ctx context.Context, state S) (S, error)

// Node represents a named node in the graph.
type Node[S any] struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Function computes the node's state update.
	Function NodeFunction[S]
}

// Edge represents a static edge between two nodes.
type Edge struct {
	// From is the name of the node from which the edge originates.
	From string

	// To is the name of the node to which the edge points.
	To string
}

// StateMerger merges multiple state updates into a single state when nodes
// fan out. It is only consulted when no Schema is set on the graph.
type StateMerger[S any] func(ctx context.Context, currentState S, newStates []S) (S, error)
