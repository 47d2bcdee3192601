package we

type StoreName string

func (name StoreName) String() string {
	return string(name)
}

type StateType string

func (st StateType) String() string {
	return string(st)
}

type StateTyped interface {
	StateType() StateType
}

func StateTypeOf(state any) StateType {
	if typed, ok := state.(StateTyped); ok {
		return typed.StateType()
	}

	return StateType(NameOf(state))
}

// Snapshot is a read-only copy of a store's state at a revision.
type Snapshot[T any] struct {
	Store    StoreName
	Revision Revision
	Type     StateType
	State    T
}

// Initialized reports whether any action has been applied since the store was created.
func (s Snapshot[T]) Initialized() bool {
	return s.Revision != InitialRevision
}

// Change describes one applied action. Previous and Current are copies; mutating them has no
// effect on the store.
type Change[T any] struct {
	Store      StoreName
	Revision   Revision
	Timestamp  Timestamp
	ActionType ActionType
	Action     Action
	Previous   T
	Current    T
}

func (c Change[T]) Snapshot() Snapshot[T] {
	return Snapshot[T]{
		Store:    c.Store,
		Revision: c.Revision,
		Type:     StateTypeOf(c.Current),
		State:    c.Current,
	}
}
