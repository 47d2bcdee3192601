package we

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tally struct {
	Count int `json:"count"`
}

type bump struct {
	By int `json:"by"`
}

func bumped(state tally, action bump) tally {
	return tally{Count: state.Count + action.By}
}

func tallyReducers() Reducers[tally] {
	return Reducers[tally]{
		ActionTypeOf(bump{}): ReducerFunction[tally, bump](bumped),
	}
}

func newTallyStore() *Store[tally] {
	return NewStore[tally]("tally", tally{}, tallyReducers())
}

func startsAtInitialRevision(t *testing.T) {
	store := newTallyStore()
	snapshot := store.Snapshot()

	assert.Equal(t, InitialRevision, snapshot.Revision)
	assert.False(t, snapshot.Initialized())
	assert.Equal(t, 0, snapshot.State.Count)
	assert.Equal(t, StateType("we:tally"), snapshot.Type)
	assert.Equal(t, StoreName("tally"), snapshot.Store)
}

func appliesTypedActions(t *testing.T) {
	store := newTallyStore()

	change, err := store.Dispatch(context.Background(), bump{By: 3})
	require.NoError(t, err)

	assert.Equal(t, 0, change.Previous.Count)
	assert.Equal(t, 3, change.Current.Count)
	assert.Equal(t, ActionType("we:bump"), change.ActionType)
	assert.Equal(t, change.Revision, store.Revision())
	assert.True(t, store.Snapshot().Initialized())
	assert.Equal(t, 3, store.State().Count)
}

func appliesPointerActions(t *testing.T) {
	store := newTallyStore()

	_, err := store.Dispatch(context.Background(), &bump{By: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, store.State().Count)
}

func appliesRemoteActions(t *testing.T) {
	store := newTallyStore()

	_, err := store.Dispatch(context.Background(), RemoteAction{
		ActionType: "we:bump",
		Payload:    JsonData([]byte(`{"by": 5}`)),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, store.State().Count)
}

func rejectsMalformedRemoteActions(t *testing.T) {
	store := newTallyStore()

	_, err := store.Dispatch(context.Background(), RemoteAction{
		ActionType: "we:bump",
		Payload:    Data{Encoding: "text/plain", Data: []byte("five")},
	})

	var invalid *InvalidEncodingError
	assert.ErrorAs(t, err, &invalid)

	var payload InvalidPayloadError
	if assert.ErrorAs(t, err, &payload) {
		assert.Equal(t, ActionType("we:bump"), payload.Action)
	}
	assert.Equal(t, InitialRevision, store.Revision())
}

func rejectsUnknownActions(t *testing.T) {
	store := newTallyStore()

	_, err := store.Dispatch(context.Background(), TestAction{})

	var notFound ActionNotFoundError
	if assert.ErrorAs(t, err, &notFound) {
		assert.Equal(t, ActionType("we:test-action"), notFound.Action)
	}
	assert.Equal(t, InitialRevision, store.Revision())
}

func notifiesSubscribersInOrder(t *testing.T) {
	store := newTallyStore()

	var changes []Change[tally]
	store.Subscribe(func(ctx context.Context, change Change[tally]) {
		changes = append(changes, change)
	})

	for i := 1; i <= 5; i++ {
		_, err := store.Dispatch(context.Background(), bump{By: i})
		require.NoError(t, err)
	}

	require.Len(t, changes, 5)
	previous := InitialRevision
	for i, change := range changes {
		assert.True(t, change.Revision.After(previous))
		assert.Equal(t, change.Previous.Count+i+1, change.Current.Count)
		previous = change.Revision
	}
	assert.Equal(t, 15, changes[4].Current.Count)
}

func stopsNotifyingUnsubscribed(t *testing.T) {
	store := newTallyStore()

	calls := 0
	unsubscribe := store.Subscribe(func(ctx context.Context, change Change[tally]) {
		calls++
	})

	_, err := store.Dispatch(context.Background(), bump{By: 1})
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()

	_, err = store.Dispatch(context.Background(), bump{By: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func serializesConcurrentDispatch(t *testing.T) {
	store := newTallyStore()
	const workers, each = 8, 250

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				if _, err := store.Dispatch(context.Background(), bump{By: 1}); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*each, store.State().Count)
}

func stampsChangesWithClock(t *testing.T) {
	fixed := time.Date(2021, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	store := NewStore[tally]("tally", tally{}, tallyReducers(), WithClock[tally](func() time.Time { return fixed }))

	change, err := store.Dispatch(context.Background(), bump{By: 1})
	require.NoError(t, err)

	assert.Equal(t, Timestamp("2021-03-04T05:06:07.008Z"), change.Timestamp)
	assert.Equal(t, change.Timestamp, change.Revision.Timestamp())
}

func TestStore(t *testing.T) {
	t.Run("starts at the initial revision", startsAtInitialRevision)
	t.Run("applies typed actions", appliesTypedActions)
	t.Run("applies pointer actions", appliesPointerActions)
	t.Run("applies remote actions", appliesRemoteActions)
	t.Run("rejects malformed remote actions", rejectsMalformedRemoteActions)
	t.Run("rejects unknown actions", rejectsUnknownActions)
	t.Run("notifies subscribers in order", notifiesSubscribersInOrder)
	t.Run("stops notifying unsubscribed", stopsNotifyingUnsubscribed)
	t.Run("serializes concurrent dispatch", serializesConcurrentDispatch)
	t.Run("stamps changes with the store clock", stampsChangesWithClock)
}
