package we

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reducerLeavesInputUntouched(t *testing.T) {
	reducer := ReducerFunction[tally, bump](bumped)
	state := tally{Count: 4}

	next, err := reducer.Reduce(state, bump{By: 6})
	require.NoError(t, err)

	assert.Equal(t, 4, state.Count)
	assert.Equal(t, 10, next.Count)
}

func reducerRejectsForeignActions(t *testing.T) {
	reducer := ReducerFunction[tally, bump](bumped)

	next, err := reducer.Reduce(tally{Count: 1}, TestAction{})

	var unexpected UnexpectedActionError
	assert.ErrorAs(t, err, &unexpected)
	assert.Equal(t, 1, next.Count)
}

func reducerRejectsNilPointers(t *testing.T) {
	reducer := ReducerFunction[tally, bump](bumped)

	var action *bump
	_, err := reducer.Reduce(tally{}, action)

	assert.Error(t, err)
}

func remoteReducerDefaultsEmptyPayload(t *testing.T) {
	reducer := ReducerFunction[tally, bump](bumped)

	next, err := reducer.ReduceRemote(context.Background(), tally{Count: 2}, RemoteAction{ActionType: "we:bump"})
	require.NoError(t, err)

	assert.Equal(t, 2, next.Count)
}

func reducersReportRegisteredActions(t *testing.T) {
	reducers := tallyReducers()

	assert.True(t, reducers.Handles("we:bump"))
	assert.False(t, reducers.Handles("we:test-action"))
}

func TestReducers(t *testing.T) {
	t.Run("leaves input untouched", reducerLeavesInputUntouched)
	t.Run("rejects foreign actions", reducerRejectsForeignActions)
	t.Run("rejects nil pointers", reducerRejectsNilPointers)
	t.Run("defaults an empty remote payload", remoteReducerDefaultsEmptyPayload)
	t.Run("reports registered actions", reducersReportRegisteredActions)
}
