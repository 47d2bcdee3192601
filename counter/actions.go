package counter

type Increment struct{}

type Decrement struct{}

type IncrementByAmount struct {
	Amount int64 `json:"amount"`
}

const DefaultAmount int64 = 10
