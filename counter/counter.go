package counter

import "github.com/weegigs/wee-counter-go/we"

const StoreName = we.StoreName("counter")

// State is the counter slice. Arithmetic on Value wraps on overflow.
type State struct {
	Value int64 `json:"value"`
}

func (State) StateType() we.StateType {
	return "counter:state"
}

func Initial() State {
	return State{Value: 0}
}
