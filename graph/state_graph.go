package graph

import (
	"context"
	"fmt"
	"sync"
)

// StateGraph represents a state-based graph with compile-time type safety.
// The type parameter S is the state threaded through every node.
//
// Example usage:
//
//	g := graph.NewStateGraph[MyState]()
//	g.AddNode("research", "Collect facts", researchNode)
//	g.AddNode("extract", "Extract names", extractNode)
//	g.SetEntryPoint("research")
//	g.AddEdge("research", "extract")
//	g.AddEdge("extract", graph.END)
//	runnable, err := g.Compile()
type StateGraph[S any] struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]Node[S]

	// edges is a slice of Edge objects representing the connections between nodes
	edges []Edge

	// conditionalEdges maps a "From" node to a function deriving the "To" node
	conditionalEdges map[string]func(ctx context.Context, state S) string

	// entryPoint is the name of the entry point node in the graph
	entryPoint string

	// retryPolicy defines retry behavior for failed nodes
	retryPolicy *RetryPolicy

	// stateMerger is an optional function to merge states from parallel execution
	stateMerger StateMerger[S]

	// Schema defines the state structure and update logic
	Schema StateSchema[S]
}

// NewStateGraph creates a new instance of StateGraph.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]Node[S]),
		conditionalEdges: make(map[string]func(ctx context.Context, state S) string),
	}
}

// AddNode adds a new node to the state graph with the given name, description
// and function.
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

// AddConditionalEdge adds a conditional edge where the target node is
// determined at runtime from the current state.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetRetryPolicy sets the retry policy for the graph.
func (g *StateGraph[S]) SetRetryPolicy(policy *RetryPolicy) {
	g.retryPolicy = policy
}

// SetStateMerger sets the state merger function for the state graph.
func (g *StateGraph[S]) SetStateMerger(merger StateMerger[S]) {
	g.stateMerger = merger
}

// SetSchema sets the state schema for the graph.
func (g *StateGraph[S]) SetSchema(schema StateSchema[S]) {
	g.Schema = schema
}

// StateRunnable represents a compiled state graph that can be invoked.
type StateRunnable[S any] struct {
	graph  *StateGraph[S]
	tracer *Tracer
}

// Compile compiles the state graph and returns a StateRunnable instance.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, g.entryPoint)
	}

	return &StateRunnable[S]{graph: g}, nil
}

// SetTracer sets a tracer for observability.
func (r *StateRunnable[S]) SetTracer(tracer *Tracer) {
	r.tracer = tracer
}

// WithTracer returns a new StateRunnable with the given tracer.
func (r *StateRunnable[S]) WithTracer(tracer *Tracer) *StateRunnable[S] {
	return &StateRunnable[S]{
		graph:  r.graph,
		tracer: tracer,
	}
}

// Invoke executes the compiled state graph with the given input state and
// returns the final state.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	state := initialState

	// If a schema is defined, merge initialState into the schema's initial state.
	if r.graph.Schema != nil {
		var err error
		state, err = r.graph.Schema.Update(r.graph.Schema.Init(), initialState)
		if err != nil {
			var zero S
			return zero, fmt.Errorf("failed to initialize state with schema: %w", err)
		}
	}

	var graphSpan *TraceSpan
	if r.tracer != nil {
		graphSpan = r.tracer.StartSpan(ctx, TraceEventGraphStart, "graph")
	}

	finalState, err := r.run(ctx, state)

	// The graph span ends on both the success and the failure path.
	if r.tracer != nil && graphSpan != nil {
		r.tracer.EndSpan(ctx, graphSpan, err)
	}
	return finalState, err
}

// run executes the graph loop from the entry point to END.
func (r *StateRunnable[S]) run(ctx context.Context, state S) (S, error) {
	currentNodes := []string{r.graph.entryPoint}

	for len(currentNodes) > 0 {
		activeNodes := currentNodes[:0]
		for _, node := range currentNodes {
			if node != END {
				activeNodes = append(activeNodes, node)
			}
		}
		currentNodes = activeNodes

		if len(currentNodes) == 0 {
			break
		}

		results, errs := r.executeNodes(ctx, currentNodes, state)
		for _, err := range errs {
			if err != nil {
				var zero S
				return zero, err
			}
		}

		var err error
		state, err = r.mergeState(ctx, state, results)
		if err != nil {
			var zero S
			return zero, err
		}

		currentNodes, err = r.determineNextNodes(ctx, currentNodes, state)
		if err != nil {
			var zero S
			return zero, err
		}
	}

	return state, nil
}

// executeNodes runs the given nodes and returns their results or errors.
// Nodes run concurrently when more than one is active; the app graph is
// strictly sequential, so the common case is a single goroutine per step.
func (r *StateRunnable[S]) executeNodes(ctx context.Context, nodes []string, state S) ([]S, []error) {
	var wg sync.WaitGroup
	results := make([]S, len(nodes))
	errs := make([]error, len(nodes))

	for i, nodeName := range nodes {
		node, ok := r.graph.nodes[nodeName]
		if !ok {
			errs[i] = fmt.Errorf("%w: %s", ErrNodeNotFound, nodeName)
			continue
		}

		idx := i
		n := node
		name := nodeName

		SafeGo(&wg, func() {
			var nodeSpan *TraceSpan
			if r.tracer != nil {
				nodeSpan = r.tracer.StartSpan(ctx, TraceEventNodeStart, name)
			}

			res, err := r.executeNodeWithRetry(ctx, n, state)

			if r.tracer != nil && nodeSpan != nil {
				r.tracer.EndSpan(ctx, nodeSpan, err)
			}

			if err != nil {
				errs[idx] = fmt.Errorf("error in node %s: %w", name, err)
				return
			}
			results[idx] = res
		}, func(panicVal any) {
			errs[idx] = fmt.Errorf("panic in node %s: %v", name, panicVal)
		})
	}
	wg.Wait()
	return results, errs
}

// mergeState merges node results into the current state.
func (r *StateRunnable[S]) mergeState(ctx context.Context, currentState S, results []S) (S, error) {
	state := currentState
	if r.graph.Schema != nil {
		for _, res := range results {
			var err error
			state, err = r.graph.Schema.Update(state, res)
			if err != nil {
				var zero S
				return zero, fmt.Errorf("schema update failed: %w", err)
			}
		}
	} else if r.graph.stateMerger != nil {
		var err error
		state, err = r.graph.stateMerger(ctx, state, results)
		if err != nil {
			var zero S
			return zero, fmt.Errorf("state merge failed: %w", err)
		}
	} else {
		if len(results) > 0 {
			state = results[len(results)-1]
		}
	}
	return state, nil
}

// determineNextNodes determines the next nodes to execute based on static or
// conditional edges.
func (r *StateRunnable[S]) determineNextNodes(ctx context.Context, currentNodes []string, state S) ([]string, error) {
	nextNodesSet := make(map[string]bool)
	var nextNodesList []string

	for _, nodeName := range currentNodes {
		if condition, ok := r.graph.conditionalEdges[nodeName]; ok {
			nextNode := condition(ctx, state)
			if nextNode == "" {
				return nil, fmt.Errorf("conditional edge returned empty next node from %s", nodeName)
			}
			if !nextNodesSet[nextNode] {
				nextNodesSet[nextNode] = true
				nextNodesList = append(nextNodesList, nextNode)
			}
			continue
		}

		foundNext := false
		for _, edge := range r.graph.edges {
			if edge.From == nodeName {
				foundNext = true
				if !nextNodesSet[edge.To] {
					nextNodesSet[edge.To] = true
					nextNodesList = append(nextNodesList, edge.To)
				}
				// No break: fan-out allows multiple edges from the same node.
			}
		}
		if !foundNext {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, nodeName)
		}
	}

	return nextNodesList, nil
}
