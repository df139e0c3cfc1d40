package graph

// StateSchema defines the structure and update logic for the graph state.
// When set on a graph, each node result is merged into the running state
// through Update instead of replacing it wholesale.
type StateSchema[S any] interface {
	// Init returns the initial state.
	Init() S

	// Update merges the new state into the current state.
	Update(current, new S) (S, error)
}

// StructSchema implements StateSchema for struct state types with a custom
// merge function.
type StructSchema[S any] struct {
	initial S
	merge   func(current, new S) (S, error)
}

// NewStructSchema creates a StateSchema from an initial value and a merge
// function.
//
//	schema := graph.NewStructSchema(MyState{}, func(current, new MyState) (MyState, error) {
//	    current.Messages = append(current.Messages, new.Messages...)
//	    return current, nil
//	})
func NewStructSchema[S any](initial S, merge func(current, new S) (S, error)) *StructSchema[S] {
	return &StructSchema[S]{
		initial: initial,
		merge:   merge,
	}
}

// Init returns the initial state.
func (s *StructSchema[S]) Init() S {
	return s.initial
}

// Update merges the new state into the current state.
func (s *StructSchema[S]) Update(current, new S) (S, error) {
	return s.merge(current, new)
}
