package we

import "context"

type Subscriber[T any] func(ctx context.Context, change Change[T])

type Unsubscribe func()

// Container is the view of a store handed to presentation code: it can read snapshots, request
// transitions and observe changes, but never writes state directly.
type Container[T any] interface {
	Snapshot() Snapshot[T]
	Dispatch(ctx context.Context, action Action) (Change[T], error)
	Subscribe(subscriber Subscriber[T]) Unsubscribe
}
