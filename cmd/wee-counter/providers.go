package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/weegigs/wee-counter-go/connectors/wehttp"
	"github.com/weegigs/wee-counter-go/counter"
	"github.com/weegigs/wee-counter-go/journal"
	"github.com/weegigs/wee-counter-go/journal/dynamo"
	"github.com/weegigs/wee-counter-go/journal/eventstore"
	"github.com/weegigs/wee-counter-go/support"
	"github.com/weegigs/wee-counter-go/web"
)

var providers = wire.NewSet(
	provideLogger,
	provideJournal,
	provideRecorder,
	provideHandler,
	newApplication,
)

func provideLogger(cfg support.Config) *zerolog.Logger {
	logger := support.NewLogger(cfg, os.Stderr)
	log.Logger = logger

	return &logger
}

// provideJournal returns a nil journal when journaling is switched off.
func provideJournal(ctx context.Context, cfg support.Config, log *zerolog.Logger) (journal.Journal, func(), error) {
	noop := func() {}

	switch cfg.Journal {
	case support.MemoryJournal:
		return journal.NewMemoryJournal(), noop, nil

	case support.DynamoJournal:
		awsConfig, err := support.AWSConfig(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}

		client := dynamo.Client(awsConfig)
		table := dynamo.TableName(cfg.JournalTable)
		if cfg.DynamoDBEndpoint != "" {
			if err := dynamo.EnsureTable(ctx, client, table); err != nil {
				return nil, nil, fmt.Errorf("prepare journal table: %w", err)
			}
		}

		log.Info().Str("table", table.String()).Msg("journaling to dynamodb")
		return dynamo.NewJournal(client, table), noop, nil

	case support.EventStoreJournal:
		j, err := eventstore.Connect(cfg.EventStoreURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to eventstore: %w", err)
		}

		log.Info().Msg("journaling to eventstore")
		return j, func() {
			if err := j.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close eventstore client")
			}
		}, nil

	default:
		return nil, noop, nil
	}
}

func provideRecorder(j journal.Journal, container counter.Container, log *zerolog.Logger) (*journal.Recorder[counter.State], func()) {
	if j == nil {
		return nil, func() {}
	}

	recorder := journal.NewRecorder[counter.State](j, journal.RecorderLogger(log))
	unsubscribe := recorder.Attach(container)

	return recorder, func() { unsubscribe() }
}

func provideHandler(cfg support.Config, container counter.Container, log *zerolog.Logger) http.Handler {
	router := web.NewRouter(container, web.Banner(cfg.Banner), web.Logger(log))

	return wehttp.WithTelemetry(withLogging(router), "wee-counter")
}
