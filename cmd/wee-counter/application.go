package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/weegigs/wee-counter-go/counter"
	"github.com/weegigs/wee-counter-go/journal"
	"github.com/weegigs/wee-counter-go/support"
)

const shutdownTimeout = 10 * time.Second

type application struct {
	addr     string
	handler  http.Handler
	recorder *journal.Recorder[counter.State]
	log      *zerolog.Logger
}

func newApplication(cfg support.Config, handler http.Handler, recorder *journal.Recorder[counter.State], log *zerolog.Logger) *application {
	return &application{
		addr:     cfg.HTTPAddr,
		handler:  handler,
		recorder: recorder,
		log:      log,
	}
}

// run serves until ctx is done. The recorder outlives the server so the last requests are
// still journaled.
func (app *application) run(ctx context.Context) error {
	recording, stopRecording := context.WithCancel(context.Background())
	defer stopRecording()

	var wg sync.WaitGroup
	if app.recorder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = app.recorder.Run(recording)
		}()
	}

	server := &http.Server{
		Addr:              app.addr,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	failed := make(chan error, 1)
	go func() {
		app.log.Info().Str("addr", app.addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
		close(failed)
	}()

	var err error
	select {
	case <-ctx.Done():
		app.log.Info().Msg("shutting down")
		shutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err = server.Shutdown(shutdown)
		cancel()
	case err = <-failed:
	}

	stopRecording()
	wg.Wait()

	return err
}
