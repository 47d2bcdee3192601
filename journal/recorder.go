package journal

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/weegigs/wee-counter-go/we"
)

const tracerName = "wee-counter/journal"

const (
	defaultQueueSize    = 256
	defaultBatchSize    = 25
	defaultFlushTimeout = 5 * time.Second
)

type recorderConfig struct {
	log          *zerolog.Logger
	queueSize    int
	batchSize    int
	flushTimeout time.Duration
}

type RecorderOption func(config *recorderConfig)

func RecorderLogger(log *zerolog.Logger) RecorderOption {
	return func(config *recorderConfig) {
		config.log = log
	}
}

func QueueSize(size int) RecorderOption {
	return func(config *recorderConfig) {
		if size > 0 {
			config.queueSize = size
		}
	}
}

func BatchSize(size int) RecorderOption {
	return func(config *recorderConfig) {
		if size > 0 {
			config.batchSize = size
		}
	}
}

// Recorder copies applied changes into a journal without holding up dispatch. Changes are
// queued by the subscriber and written in batches by Run.
type Recorder[T any] struct {
	journal Journal
	queue   chan Entry
	config  recorderConfig
}

func NewRecorder[T any](journal Journal, options ...RecorderOption) *Recorder[T] {
	config := recorderConfig{
		queueSize:    defaultQueueSize,
		batchSize:    defaultBatchSize,
		flushTimeout: defaultFlushTimeout,
	}
	for _, option := range options {
		option(&config)
	}
	if config.log == nil {
		config.log = &log.Logger
	}

	return &Recorder[T]{
		journal: journal,
		queue:   make(chan Entry, config.queueSize),
		config:  config,
	}
}

func (r *Recorder[T]) Attach(container we.Container[T]) we.Unsubscribe {
	return container.Subscribe(r.Record)
}

// Record is a we.Subscriber. It never blocks: when the queue is full the entry is dropped.
func (r *Recorder[T]) Record(_ context.Context, change we.Change[T]) {
	entry, err := EntryFor(change)
	if err != nil {
		r.config.log.Error().Err(err).Str("revision", change.Revision.String()).Msg("failed to encode journal entry")
		return
	}

	select {
	case r.queue <- entry:
	default:
		r.config.log.Warn().Str("revision", change.Revision.String()).Msg("journal queue full, entry dropped")
	}
}

// Run writes queued entries until ctx is done, then flushes whatever is still queued. Writes are
// not cancelled with ctx; each is bounded by the flush timeout instead.
func (r *Recorder[T]) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.flush(ctx)
			return nil
		case entry := <-r.queue:
			r.write(ctx, r.collect(entry))
			if ctx.Err() != nil {
				r.flush(ctx)
				return nil
			}
		}
	}
}

func (r *Recorder[T]) collect(first Entry) []Entry {
	batch := []Entry{first}
	for len(batch) < r.config.batchSize {
		select {
		case entry := <-r.queue:
			batch = append(batch, entry)
		default:
			return batch
		}
	}

	return batch
}

func (r *Recorder[T]) flush(ctx context.Context) {
	for {
		select {
		case entry := <-r.queue:
			r.write(ctx, r.collect(entry))
		default:
			return
		}
	}
}

func (r *Recorder[T]) write(ctx context.Context, batch []Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.flushTimeout)
	defer cancel()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "append entries")
	defer span.End()

	// a recorder may be attached to more than one store
	groups := map[we.StoreName][]Entry{}
	var order []we.StoreName
	for _, entry := range batch {
		if _, ok := groups[entry.Store]; !ok {
			order = append(order, entry.Store)
		}
		groups[entry.Store] = append(groups[entry.Store], entry)
	}

	for _, store := range order {
		entries := groups[store]
		revision, err := r.journal.Append(ctx, store, Options(), entries...)
		if err != nil {
			span.RecordError(err)
			r.config.log.Error().Err(err).Str("store", store.String()).Int("entries", len(entries)).Msg("failed to append journal entries")
			continue
		}

		r.config.log.Debug().Str("store", store.String()).Str("revision", revision.String()).Int("entries", len(entries)).Msg("journal entries appended")
	}
}
