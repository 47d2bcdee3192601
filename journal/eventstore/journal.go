package eventstore

import (
	"context"
	"io"

	"github.com/EventStore/EventStore-Client-Go/esdb"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/weegigs/wee-counter-go/journal"
	"github.com/weegigs/wee-counter-go/we"
)

const (
	tracerName      = "wee-counter/journal/eventstore"
	defaultPageSize = 97
	streamPrefix    = "journal-"
)

type JournalOption func(*Journal)

func PageSize(size int) JournalOption {
	return func(j *Journal) {
		if size <= 0 {
			size = defaultPageSize
		}

		j.pageSize = size
	}
}

func NewJournal(client *esdb.Client, options ...JournalOption) *Journal {
	j := &Journal{
		db:       client,
		pageSize: defaultPageSize,
	}

	for _, option := range options {
		option(j)
	}

	return j
}

// Journal keeps one stream per store. Every entry is an event whose type is the action type and
// whose data is the entry itself.
type Journal struct {
	db       *esdb.Client
	pageSize int
}

var _ journal.Journal = (*Journal)(nil)

func streamID(store we.StoreName) string {
	return streamPrefix + store.String()
}

func (j *Journal) Append(ctx context.Context, store we.StoreName, options journal.AppendOptions, entries ...journal.Entry) (we.Revision, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "append journal")
	defer span.End()

	if len(entries) == 0 {
		return "", journal.ErrNoEntries
	}

	head, err := j.head(ctx, store)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	if !journal.Accepts(head.revision, options, entries) {
		return "", we.RevisionConflict
	}

	events := make([]esdb.EventData, len(entries))
	for i, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal entry")
		}

		events[i] = esdb.EventData{
			ContentType: esdb.JsonContentType,
			EventType:   entry.ActionType.String(),
			Data:        data,
		}
	}

	// the stream position read above pins the append, so a racing writer surfaces as a conflict
	var expected esdb.ExpectedRevision = esdb.NoStream{}
	if head.exists {
		expected = esdb.Revision(head.position)
	}

	_, err = j.db.AppendToStream(ctx, streamID(store), esdb.AppendToStreamOptions{ExpectedRevision: expected}, events...)
	if err != nil {
		if errors.Is(err, esdb.ErrWrongExpectedStreamRevision) {
			return "", we.RevisionConflict
		}

		span.RecordError(err)
		return "", errors.Wrap(err, "failed to append to stream")
	}

	return journal.RevisionOf(entries), nil
}

func (j *Journal) Load(ctx context.Context, store we.StoreName) (journal.Log, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "load journal")
	defer span.End()

	var entries []journal.Entry

	var position esdb.StreamPosition = esdb.Start{}
	for {
		page, last, err := j.read(ctx, store, position)
		if err != nil {
			span.RecordError(err)
			return journal.Log{}, err
		}
		entries = append(entries, page...)
		if len(page) < j.pageSize {
			break
		}

		position = esdb.StreamRevision{Value: last + 1}
	}

	return journal.Log{
		Store:    store,
		Entries:  entries,
		Revision: journal.RevisionOf(entries),
	}, nil
}

type head struct {
	exists   bool
	position uint64
	revision we.Revision
}

func (j *Journal) head(ctx context.Context, store we.StoreName) (head, error) {
	stream, err := j.db.ReadStream(
		ctx, streamID(store), esdb.ReadStreamOptions{
			Direction: esdb.Backwards,
			From:      esdb.End{},
		}, 1,
	)
	if err != nil {
		if errors.Is(err, esdb.ErrStreamNotFound) {
			return head{revision: we.InitialRevision}, nil
		}

		return head{}, errors.Wrap(err, "failed to read stream head")
	}
	defer stream.Close()

	event, err := stream.Recv()
	if errors.Is(err, io.EOF) || errors.Is(err, esdb.ErrStreamNotFound) {
		return head{revision: we.InitialRevision}, nil
	}
	if err != nil {
		return head{}, errors.Wrap(err, "failed to read stream head")
	}

	recorded := event.OriginalEvent()
	entry, err := decode(recorded.Data)
	if err != nil {
		return head{}, err
	}

	return head{exists: true, position: recorded.EventNumber, revision: entry.Revision}, nil
}

func (j *Journal) read(ctx context.Context, store we.StoreName, from esdb.StreamPosition) ([]journal.Entry, uint64, error) {
	stream, err := j.db.ReadStream(
		ctx, streamID(store), esdb.ReadStreamOptions{
			From: from,
		}, uint64(j.pageSize),
	)
	if err != nil {
		if errors.Is(err, esdb.ErrStreamNotFound) || errors.Is(err, io.EOF) {
			return nil, 0, nil
		}

		return nil, 0, errors.Wrap(err, "failed to read stream")
	}
	defer stream.Close()

	var entries []journal.Entry
	var last uint64

	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, esdb.ErrStreamNotFound) {
			return nil, 0, nil
		}
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to read entry")
		}

		recorded := event.OriginalEvent()
		entry, err := decode(recorded.Data)
		if err != nil {
			return nil, 0, err
		}

		entries = append(entries, entry)
		last = recorded.EventNumber
	}

	return entries, last, nil
}

func decode(data []byte) (journal.Entry, error) {
	var entry journal.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return journal.Entry{}, errors.Wrap(err, "failed to unmarshal entry")
	}

	return entry, nil
}
