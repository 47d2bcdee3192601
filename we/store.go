package we

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "wee-counter"

type StoreOption[T any] func(store *Store[T])

func WithLogger[T any](log *zerolog.Logger) StoreOption[T] {
	return func(store *Store[T]) {
		store.log = log
	}
}

func WithClock[T any](clock func() time.Time) StoreOption[T] {
	return func(store *Store[T]) {
		store.clock = clock
	}
}

func WithSubscriber[T any](subscriber Subscriber[T]) StoreOption[T] {
	return func(store *Store[T]) {
		store.subscribe(subscriber)
	}
}

func NewStore[T any](name StoreName, initial T, reducers Reducers[T], options ...StoreOption[T]) *Store[T] {
	store := &Store[T]{
		name:      name,
		reducers:  reducers,
		revisions: NewRevisionGenerator(),
		state:     initial,
		revision:  InitialRevision,
	}

	for _, option := range options {
		option(store)
	}

	if store.log == nil {
		store.log = &log.Logger
	}
	if store.clock == nil {
		store.clock = time.Now
	}

	return store
}

// Store owns a single state value and applies actions to it one at a time.
//
// Dispatch is serialized: concurrent callers queue on the dispatch lock, so every action sees
// the state produced by the previous one. Subscribers run on the dispatching goroutine after the
// new state is visible to readers and before Dispatch returns. They must not dispatch.
type Store[T any] struct {
	name      StoreName
	reducers  Reducers[T]
	revisions *RevisionGenerator
	clock     func() time.Time
	log       *zerolog.Logger

	dispatching sync.Mutex

	lk          sync.RWMutex
	state       T
	revision    Revision
	subscribers []subscription[T]
	sequence    uint64
}

type subscription[T any] struct {
	id     uint64
	notify Subscriber[T]
}

var _ Container[int] = (*Store[int])(nil)

func (s *Store[T]) Name() StoreName {
	return s.name
}

func (s *Store[T]) State() T {
	s.lk.RLock()
	defer s.lk.RUnlock()

	return s.state
}

func (s *Store[T]) Revision() Revision {
	s.lk.RLock()
	defer s.lk.RUnlock()

	return s.revision
}

func (s *Store[T]) Snapshot() Snapshot[T] {
	s.lk.RLock()
	defer s.lk.RUnlock()

	return Snapshot[T]{
		Store:    s.name,
		Revision: s.revision,
		Type:     StateTypeOf(s.state),
		State:    s.state,
	}
}

func (s *Store[T]) Dispatch(ctx context.Context, action Action) (Change[T], error) {
	actionType := ActionTypeOf(action)

	ctx, span := otel.Tracer(tracerName).Start(ctx, fmt.Sprintf("dispatch %s", actionType))
	defer span.End()
	span.SetAttributes(
		attribute.String("we.store", s.name.String()),
		attribute.String("we.action", actionType.String()),
	)

	s.dispatching.Lock()
	defer s.dispatching.Unlock()

	// only dispatch writes state, and it holds the dispatch lock
	previous := s.state

	current, err := s.reducers.Reduce(ctx, previous, action)
	if err != nil {
		span.RecordError(err)
		return Change[T]{}, err
	}

	revision := s.revisions.NewRevision(s.clock())
	change := Change[T]{
		Store:      s.name,
		Revision:   revision,
		Timestamp:  revision.Timestamp(),
		ActionType: actionType,
		Action:     action,
		Previous:   previous,
		Current:    current,
	}

	s.lk.Lock()
	s.state = current
	s.revision = change.Revision
	subscribers := make([]subscription[T], len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.lk.Unlock()

	span.SetAttributes(attribute.String("we.revision", change.Revision.String()))
	s.log.Debug().
		Str("store", s.name.String()).
		Str("action", actionType.String()).
		Str("revision", change.Revision.String()).
		Msg("action applied")

	for _, subscriber := range subscribers {
		subscriber.notify(ctx, change)
	}

	return change, nil
}

func (s *Store[T]) Subscribe(subscriber Subscriber[T]) Unsubscribe {
	id := s.subscribe(subscriber)

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

func (s *Store[T]) subscribe(subscriber Subscriber[T]) uint64 {
	s.lk.Lock()
	defer s.lk.Unlock()

	s.sequence++
	s.subscribers = append(s.subscribers, subscription[T]{id: s.sequence, notify: subscriber})

	return s.sequence
}

func (s *Store[T]) unsubscribe(id uint64) {
	s.lk.Lock()
	defer s.lk.Unlock()

	remaining := make([]subscription[T], 0, len(s.subscribers))
	for _, subscription := range s.subscribers {
		if subscription.id != id {
			remaining = append(remaining, subscription)
		}
	}

	s.subscribers = remaining
}
