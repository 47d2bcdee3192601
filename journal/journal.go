package journal

import (
	"context"
	"errors"

	"github.com/weegigs/wee-counter-go/we"
)

type Entry struct {
	Store      we.StoreName  `json:"store" dynamodbav:"store"`
	Revision   we.Revision   `json:"revision" dynamodbav:"revision"`
	ActionType we.ActionType `json:"type" dynamodbav:"type"`
	Timestamp  we.Timestamp  `json:"timestamp" dynamodbav:"timestamp"`
	Action     we.Data       `json:"action" dynamodbav:"action"`
	State      we.Data       `json:"state" dynamodbav:"state"`
}

type Log struct {
	Store    we.StoreName `json:"store"`
	Entries  []Entry      `json:"entries,omitempty"`
	Revision we.Revision  `json:"revision"`
}

type Journal interface {
	Append(ctx context.Context, store we.StoreName, options AppendOptions, entries ...Entry) (we.Revision, error)
	Load(ctx context.Context, store we.StoreName) (Log, error)
}

var ErrNoEntries = errors.New("attempted to append empty list of entries")

type AppendOptions struct {
	ExpectedRevision we.Revision
}

type AppendOption func(modifier *AppendOptions)

func Options(options ...AppendOption) AppendOptions {
	modifiers := &AppendOptions{}
	for _, option := range options {
		option(modifiers)
	}

	return *modifiers
}

func WithExpectedRevision(expectedRevision we.Revision) AppendOption {
	return func(modifier *AppendOptions) {
		modifier.ExpectedRevision = expectedRevision
	}
}

func RevisionOf(entries []Entry) we.Revision {
	count := len(entries)
	if count == 0 {
		return we.InitialRevision
	}

	return entries[count-1].Revision
}

// Accepts reports whether entries may follow a log at current. An expected revision pins the
// log head exactly; without one, entries only have to be newer than the head.
func Accepts(current we.Revision, options AppendOptions, entries []Entry) bool {
	if options.ExpectedRevision != "" && options.ExpectedRevision != current {
		return false
	}

	previous := current
	for _, entry := range entries {
		if !entry.Revision.After(previous) {
			return false
		}
		previous = entry.Revision
	}

	return true
}

func EntryFor[T any](change we.Change[T]) (Entry, error) {
	var action we.Data
	var err error

	switch a := change.Action.(type) {
	case we.RemoteAction:
		action = a.Payload
	case *we.RemoteAction:
		action = a.Payload
	default:
		action, err = we.MarshalToData(a)
		if err != nil {
			return Entry{}, err
		}
	}

	state, err := we.MarshalToData(change.Current)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Store:      change.Store,
		Revision:   change.Revision,
		ActionType: change.ActionType,
		Timestamp:  change.Timestamp,
		Action:     action,
		State:      state,
	}, nil
}
