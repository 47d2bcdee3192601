package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weegigs/wee-counter-go/counter"
	"github.com/weegigs/wee-counter-go/journal"
	"github.com/weegigs/wee-counter-go/support"
)

func config() support.Config {
	return support.Config{
		Banner:        "test banner",
		HTTPAddr:      "127.0.0.1:0",
		Journal:       support.MemoryJournal,
		TraceExporter: support.NoTraces,
		LogLevel:      "error",
		LogFormat:     support.JSONLogs,
	}
}

func selectsJournals(t *testing.T) {
	log := zerolog.Nop()
	ctx := context.Background()

	memory, cleanup, err := provideJournal(ctx, config(), &log)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &journal.MemoryJournal{}, memory)

	cfg := config()
	cfg.Journal = support.NoJournal
	none, cleanup, err := provideJournal(ctx, cfg, &log)
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, none)

	recorder, unsubscribe := provideRecorder(none, counter.NewStore(&log), &log)
	defer unsubscribe()
	assert.Nil(t, recorder)
}

func servesPages(t *testing.T) {
	log := zerolog.Nop()
	handler := provideHandler(config(), counter.NewStore(&log), &log)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test banner")
}

func journalsUntilShutdown(t *testing.T) {
	log := zerolog.Nop()
	store := counter.NewStore(&log)
	memory := journal.NewMemoryJournal()

	recorder, unsubscribe := provideRecorder(memory, store, &log)
	defer unsubscribe()

	app := newApplication(config(), http.NotFoundHandler(), recorder, &log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.run(ctx) }()

	for i := 0; i < 3; i++ {
		_, err := store.Dispatch(context.Background(), counter.Increment{})
		require.NoError(t, err)
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("application did not stop")
	}

	recorded, err := memory.Load(context.Background(), counter.StoreName)
	require.NoError(t, err)
	assert.Len(t, recorded.Entries, 3)
	assert.Equal(t, store.Revision(), recorded.Revision)
}

func TestServer(t *testing.T) {
	t.Run("selects journals", selectsJournals)
	t.Run("serves pages", servesPages)
	t.Run("journals until shutdown", journalsUntilShutdown)
}
