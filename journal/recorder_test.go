package journal

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weegigs/wee-counter-go/we"
)

type test = func(t *testing.T)

type meter struct {
	Reading int `json:"reading"`
}

type advance struct {
	By int `json:"by"`
}

func advanced(state meter, action advance) meter {
	return meter{Reading: state.Reading + action.By}
}

func newMeter() *we.Store[meter] {
	log := zerolog.Nop()
	return we.NewStore[meter](
		"meter",
		meter{},
		we.Reducers[meter]{we.ActionTypeOf(advance{}): we.ReducerFunction[meter, advance](advanced)},
		we.WithLogger[meter](&log),
	)
}

func recordAll(store *we.Store[meter], journal Journal, options ...RecorderOption) func(actions ...we.Action) error {
	return func(actions ...we.Action) error {
		recorder := NewRecorder[meter](journal, options...)
		unsubscribe := recorder.Attach(store)
		defer unsubscribe()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() { done <- recorder.Run(ctx) }()

		for _, action := range actions {
			if _, err := store.Dispatch(context.Background(), action); err != nil {
				cancel()
				<-done
				return err
			}
		}

		cancel()
		return <-done
	}
}

func recordsEveryChange(t *testing.T) {
	store := newMeter()
	journal := NewMemoryJournal()

	err := recordAll(store, journal)(advance{By: 1}, advance{By: 2}, advance{By: 3})
	require.NoError(t, err)

	log, err := journal.Load(context.Background(), "meter")
	require.NoError(t, err)

	require.Len(t, log.Entries, 3)
	assert.Equal(t, store.Revision(), log.Revision)
	for _, entry := range log.Entries {
		assert.Equal(t, we.ActionType("journal:advance"), entry.ActionType)
		assert.Equal(t, we.StoreName("meter"), entry.Store)
	}
	assert.JSONEq(t, `{"by":3}`, string(log.Entries[2].Action.Data))
	assert.JSONEq(t, `{"reading":6}`, string(log.Entries[2].State.Data))
}

func keepsRemotePayloads(t *testing.T) {
	store := newMeter()
	journal := NewMemoryJournal()

	err := recordAll(store, journal)(we.RemoteAction{ActionType: "journal:advance", Payload: we.JsonData([]byte(`{"by":4}`))})
	require.NoError(t, err)

	log, err := journal.Load(context.Background(), "meter")
	require.NoError(t, err)

	require.Len(t, log.Entries, 1)
	assert.JSONEq(t, `{"by":4}`, string(log.Entries[0].Action.Data))
}

func dropsWhenQueueIsFull(t *testing.T) {
	store := newMeter()
	journal := NewMemoryJournal()
	log := zerolog.Nop()

	recorder := NewRecorder[meter](journal, QueueSize(2), RecorderLogger(&log))
	recorder.Attach(store)

	for i := 0; i < 5; i++ {
		_, err := store.Dispatch(context.Background(), advance{By: 1})
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, recorder.Run(ctx))

	loaded, err := journal.Load(context.Background(), "meter")
	require.NoError(t, err)
	assert.Len(t, loaded.Entries, 2)
	assert.Equal(t, 5, store.State().Reading)
}

func batchesEntries(t *testing.T) {
	store := newMeter()
	journal := NewMemoryJournal()

	actions := make([]we.Action, 60)
	for i := range actions {
		actions[i] = advance{By: 1}
	}

	err := recordAll(store, journal, BatchSize(7))(actions...)
	require.NoError(t, err)

	log, err := journal.Load(context.Background(), "meter")
	require.NoError(t, err)
	assert.Len(t, log.Entries, 60)
}

// contextJournal fails appends whose context is already done, as the network backends do.
type contextJournal struct {
	*MemoryJournal
}

func (j contextJournal) Append(ctx context.Context, store we.StoreName, options AppendOptions, entries ...Entry) (we.Revision, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return j.MemoryJournal.Append(ctx, store, options, entries...)
}

func flushesAfterCancel(t *testing.T) {
	for i := 0; i < 50; i++ {
		store := newMeter()
		journal := contextJournal{NewMemoryJournal()}
		log := zerolog.Nop()

		recorder := NewRecorder[meter](journal, BatchSize(1), RecorderLogger(&log))
		unsubscribe := recorder.Attach(store)

		for j := 0; j < 3; j++ {
			_, err := store.Dispatch(context.Background(), advance{By: 1})
			require.NoError(t, err)
		}
		unsubscribe()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, recorder.Run(ctx))

		loaded, err := journal.Load(context.Background(), "meter")
		require.NoError(t, err)
		require.Len(t, loaded.Entries, 3, "run %d", i)
		assert.Equal(t, store.Revision(), loaded.Revision)
	}
}

func TestRecorder(t *testing.T) {
	t.Run("records every change", recordsEveryChange)
	t.Run("keeps remote payloads", keepsRemotePayloads)
	t.Run("drops entries when the queue is full", dropsWhenQueueIsFull)
	t.Run("batches entries", batchesEntries)
	t.Run("flushes queued entries after cancellation", flushesAfterCancel)
}
