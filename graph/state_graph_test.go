package graph

import (
	"context"
	"errors"
	"testing"
)

// TestState is a simple test state
type TestState struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
}

func TestStateGraph_BasicFunctionality(t *testing.T) {
	g := NewStateGraph[TestState]()

	g.AddNode("increment", "Increment counter", func(ctx context.Context, state TestState) (TestState, error) {
		state.Count++
		return state, nil
	})

	g.AddNode("check", "Check count", func(ctx context.Context, state TestState) (TestState, error) {
		if state.Name == "" {
			state.Name = "test"
		}
		return state, nil
	})

	g.SetEntryPoint("increment")
	g.AddEdge("increment", "check")
	g.AddEdge("check", END)

	runnable, err := g.Compile()
	if err != nil {
		t.Fatalf("Failed to compile graph: %v", err)
	}

	finalState, err := runnable.Invoke(context.Background(), TestState{Count: 0})
	if err != nil {
		t.Fatalf("Failed to invoke graph: %v", err)
	}

	if finalState.Count != 1 {
		t.Errorf("Expected count to be 1, got %d", finalState.Count)
	}
	if finalState.Name != "test" {
		t.Errorf("Expected name to be 'test', got '%s'", finalState.Name)
	}
}

func TestStateGraph_ConditionalEdges(t *testing.T) {
	g := NewStateGraph[TestState]()

	g.AddNode("process", "Process", func(ctx context.Context, state TestState) (TestState, error) {
		state.Count++
		return state, nil
	})

	g.AddNode("high", "High count", func(ctx context.Context, state TestState) (TestState, error) {
		state.Name = "high"
		return state, nil
	})

	g.AddNode("low", "Low count", func(ctx context.Context, state TestState) (TestState, error) {
		state.Name = "low"
		return state, nil
	})

	g.SetEntryPoint("process")
	g.AddConditionalEdge("process", func(ctx context.Context, state TestState) string {
		if state.Count > 5 {
			return "high"
		}
		return "low"
	})
	g.AddEdge("high", END)
	g.AddEdge("low", END)

	runnable, err := g.Compile()
	if err != nil {
		t.Fatalf("Failed to compile graph: %v", err)
	}

	finalState, err := runnable.Invoke(context.Background(), TestState{Count: 0})
	if err != nil {
		t.Fatalf("Failed to invoke graph: %v", err)
	}
	if finalState.Name != "low" {
		t.Errorf("Expected name to be 'low', got '%s'", finalState.Name)
	}

	finalState, err = runnable.Invoke(context.Background(), TestState{Count: 10})
	if err != nil {
		t.Fatalf("Failed to invoke graph: %v", err)
	}
	if finalState.Name != "high" {
		t.Errorf("Expected name to be 'high', got '%s'", finalState.Name)
	}
}

func TestStateGraph_ExecutionOrder(t *testing.T) {
	g := NewStateGraph[TestState]()

	var order []string
	g.AddNode("first", "First node", func(ctx context.Context, state TestState) (TestState, error) {
		order = append(order, "first")
		return state, nil
	})
	g.AddNode("second", "Second node", func(ctx context.Context, state TestState) (TestState, error) {
		order = append(order, "second")
		return state, nil
	})

	g.SetEntryPoint("first")
	g.AddEdge("first", "second")
	g.AddEdge("second", END)

	runnable, err := g.Compile()
	if err != nil {
		t.Fatalf("Failed to compile graph: %v", err)
	}

	if _, err := runnable.Invoke(context.Background(), TestState{}); err != nil {
		t.Fatalf("Failed to invoke graph: %v", err)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("Expected execution order [first second], got %v", order)
	}
}

func TestStateGraph_EntryPointNotSet(t *testing.T) {
	g := NewStateGraph[TestState]()
	g.AddNode("only", "Only node", func(ctx context.Context, state TestState) (TestState, error) {
		return state, nil
	})

	_, err := g.Compile()
	if !errors.Is(err, ErrEntryPointNotSet) {
		t.Errorf("Expected ErrEntryPointNotSet, got %v", err)
	}
}

func TestStateGraph_MissingEntryNode(t *testing.T) {
	g := NewStateGraph[TestState]()
	g.SetEntryPoint("ghost")

	_, err := g.Compile()
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound, got %v", err)
	}
}

func TestStateGraph_NoOutgoingEdge(t *testing.T) {
	g := NewStateGraph[TestState]()
	g.AddNode("dangling", "No outgoing edge", func(ctx context.Context, state TestState) (TestState, error) {
		return state, nil
	})
	g.SetEntryPoint("dangling")

	runnable, err := g.Compile()
	if err != nil {
		t.Fatalf("Failed to compile graph: %v", err)
	}

	_, err = runnable.Invoke(context.Background(), TestState{})
	if !errors.Is(err, ErrNoOutgoingEdge) {
		t.Errorf("Expected ErrNoOutgoingEdge, got %v", err)
	}
}

func TestStateGraph_NodeErrorPropagates(t *testing.T) {
	g := NewStateGraph[TestState]()

	boom := errors.New("boom")
	g.AddNode("fail", "Failing node", func(ctx context.Context, state TestState) (TestState, error) {
		return TestState{}, boom
	})
	g.SetEntryPoint("fail")
	g.AddEdge("fail", END)

	runnable, err := g.Compile()
	if err != nil {
		t.Fatalf("Failed to compile graph: %v", err)
	}

	_, err = runnable.Invoke(context.Background(), TestState{})
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped boom error, got %v", err)
	}
}

func TestStateGraph_PanicRecovered(t *testing.T) {
	g := NewStateGraph[TestState]()

	g.AddNode("panic", "Panicking node", func(ctx context.Context, state TestState) (TestState, error) {
		panic("unexpected")
	})
	g.SetEntryPoint("panic")
	g.AddEdge("panic", END)

	runnable, err := g.Compile()
	if err != nil {
		t.Fatalf("Failed to compile graph: %v", err)
	}

	_, err = runnable.Invoke(context.Background(), TestState{})
	if err == nil {
		t.Fatal("Expected error from panicking node, got nil")
	}
}

func TestStateGraph_RetryPolicy(t *testing.T) {
	g := NewStateGraph[TestState]()

	attempts := 0
	g.AddNode("flaky", "Fails once", func(ctx context.Context, state TestState) (TestState, error) {
		attempts++
		if attempts < 2 {
			return TestState{}, errors.New("transient failure")
		}
		state.Count = attempts
		return state, nil
	})
	g.SetEntryPoint("flaky")
	g.AddEdge("flaky", END)
	g.SetRetryPolicy(&RetryPolicy{
		MaxRetries:      2,
		BackoffStrategy: FixedBackoff,
		RetryableErrors: []string{"transient"},
	})

	runnable, err := g.Compile()
	if err != nil {
		t.Fatalf("Failed to compile graph: %v", err)
	}

	finalState, err := runnable.Invoke(context.Background(), TestState{})
	if err != nil {
		t.Fatalf("Failed to invoke graph: %v", err)
	}
	if finalState.Count != 2 {
		t.Errorf("Expected node to succeed on attempt 2, got count %d", finalState.Count)
	}
}

func TestStateGraph_SchemaMerge(t *testing.T) {
	g := NewStateGraph[TestState]()
	g.SetSchema(NewStructSchema(TestState{}, func(current, new TestState) (TestState, error) {
		current.Count += new.Count
		if new.Name != "" {
			current.Name = new.Name
		}
		return current, nil
	}))

	g.AddNode("add", "Adds two", func(ctx context.Context, state TestState) (TestState, error) {
		return TestState{Count: 2}, nil
	})
	g.AddNode("name", "Sets name", func(ctx context.Context, state TestState) (TestState, error) {
		return TestState{Name: "merged"}, nil
	})

	g.SetEntryPoint("add")
	g.AddEdge("add", "name")
	g.AddEdge("name", END)

	runnable, err := g.Compile()
	if err != nil {
		t.Fatalf("Failed to compile graph: %v", err)
	}

	finalState, err := runnable.Invoke(context.Background(), TestState{Count: 1})
	if err != nil {
		t.Fatalf("Failed to invoke graph: %v", err)
	}
	if finalState.Count != 3 {
		t.Errorf("Expected schema-merged count 3, got %d", finalState.Count)
	}
	if finalState.Name != "merged" {
		t.Errorf("Expected name 'merged', got '%s'", finalState.Name)
	}
}

func TestTracer_RecordsSpans(t *testing.T) {
	g := NewStateGraph[TestState]()
	g.AddNode("only", "Only node", func(ctx context.Context, state TestState) (TestState, error) {
		return state, nil
	})
	g.SetEntryPoint("only")
	g.AddEdge("only", END)

	runnable, err := g.Compile()
	if err != nil {
		t.Fatalf("Failed to compile graph: %v", err)
	}

	var events []TraceEvent
	tracer := NewTracer(TraceHookFunc(func(ctx context.Context, span *TraceSpan) {
		if span.EndTime.IsZero() {
			events = append(events, span.Event)
		}
	}))
	runnable.SetTracer(tracer)

	if _, err := runnable.Invoke(context.Background(), TestState{}); err != nil {
		t.Fatalf("Failed to invoke graph: %v", err)
	}

	if len(events) != 2 || events[0] != TraceEventGraphStart || events[1] != TraceEventNodeStart {
		t.Errorf("Expected [graph_start node_start], got %v", events)
	}
	if len(tracer.Spans()) != 2 {
		t.Errorf("Expected 2 recorded spans, got %d", len(tracer.Spans()))
	}
}

func TestTracer_EndsGraphSpanOnNodeError(t *testing.T) {
	g := NewStateGraph[TestState]()
	g.AddNode("broken", "Failing node", func(ctx context.Context, state TestState) (TestState, error) {
		return state, errors.New("boom")
	})
	g.SetEntryPoint("broken")
	g.AddEdge("broken", END)

	runnable, err := g.Compile()
	if err != nil {
		t.Fatalf("Failed to compile graph: %v", err)
	}

	tracer := NewTracer()
	runnable.SetTracer(tracer)

	if _, err := runnable.Invoke(context.Background(), TestState{}); err == nil {
		t.Fatal("Expected node error from Invoke")
	}

	var graphSpan *TraceSpan
	for _, span := range tracer.Spans() {
		if span.Event == TraceEventGraphStart && span.NodeName == "graph" {
			graphSpan = span
		}
	}
	if graphSpan == nil {
		t.Fatal("Graph span not recorded")
	}
	if graphSpan.EndTime.IsZero() {
		t.Error("Graph span left open after node error")
	}
	if graphSpan.Error == nil {
		t.Error("Graph span did not record the node error")
	}
}
