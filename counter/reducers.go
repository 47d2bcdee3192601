package counter

import "github.com/weegigs/wee-counter-go/we"

func incremented(state State, _ Increment) State {
	return State{Value: state.Value + 1}
}

func decremented(state State, _ Decrement) State {
	return State{Value: state.Value - 1}
}

func incrementedByAmount(state State, action IncrementByAmount) State {
	return State{Value: state.Value + action.Amount}
}

func Reducers() we.Reducers[State] {
	return we.Reducers[State]{
		we.ActionTypeOf(Increment{}):         we.ReducerFunction[State, Increment](incremented),
		we.ActionTypeOf(Decrement{}):         we.ReducerFunction[State, Decrement](decremented),
		we.ActionTypeOf(IncrementByAmount{}): we.ReducerFunction[State, IncrementByAmount](incrementedByAmount),
	}
}

var reducers = Reducers()

// Reduce applies action to state and returns the next state. Actions the counter does not know
// leave the state as it was.
func Reduce(state State, action we.Action) State {
	reducer := reducers[we.ActionTypeOf(action)]
	if reducer == nil {
		return state
	}

	next, err := reducer.Reduce(state, action)
	if err != nil {
		return state
	}

	return next
}
