package counter

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/weegigs/wee-counter-go/we"
)

type Store = we.Store[State]

type Container = we.Container[State]

func NewStore(log *zerolog.Logger) *Store {
	return we.NewStore[State](StoreName, Initial(), Reducers(), we.WithLogger[State](log))
}

var Live = wire.NewSet(
	NewStore,
	wire.Bind(new(Container), new(*Store)),
)
