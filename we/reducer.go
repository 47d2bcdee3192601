package we

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
)

type Reducer[T any] interface {
	Reduce(state T, action Action) (T, error)
	ReduceRemote(ctx context.Context, state T, action RemoteAction) (T, error)
}

// ReducerFunction adapts a typed transition to a Reducer. The transition receives the state by
// value and returns the next state, so the caller's copy is never touched.
type ReducerFunction[T any, A any] func(state T, action A) T

func (f ReducerFunction[T, A]) Reduce(state T, action Action) (T, error) {
	switch a := action.(type) {
	case A:
		return f(state, a), nil
	case *A:
		if a != nil {
			return f(state, *a), nil
		}
	}

	return state, UnexpectedAction(action)
}

func (f ReducerFunction[T, A]) ReduceRemote(ctx context.Context, state T, action RemoteAction) (T, error) {
	var decoded A

	if !action.Payload.Empty() {
		if err := UnmarshalFromData(ctx, action.Payload, &decoded); err != nil {
			return state, InvalidPayload(action.ActionType, err)
		}
	}

	return f(state, decoded), nil
}

type Reducers[T any] map[ActionType]Reducer[T]

func (r Reducers[T]) Reduce(ctx context.Context, state T, action Action) (T, error) {
	actionType := ActionTypeOf(action)

	_, span := otel.Tracer(tracerName).Start(ctx, fmt.Sprintf("reduce %s", actionType))
	defer span.End()

	reducer := r[actionType]
	if reducer == nil {
		return state, ActionNotFound(actionType)
	}

	var next T
	var err error
	switch a := action.(type) {
	case RemoteAction:
		next, err = reducer.ReduceRemote(ctx, state, a)
	case *RemoteAction:
		next, err = reducer.ReduceRemote(ctx, state, *a)
	default:
		next, err = reducer.Reduce(state, a)
	}

	if err != nil {
		span.RecordError(err)
		return state, errors.Wrap(err, fmt.Sprintf("failed to reduce %s", actionType))
	}

	return next, nil
}

// Handles reports whether a reducer is registered for the action type.
func (r Reducers[T]) Handles(actionType ActionType) bool {
	return r[actionType] != nil
}
