package journal

import (
	"context"
	"sync"

	"github.com/weegigs/wee-counter-go/we"
)

type MemoryJournal struct {
	lk   sync.RWMutex
	logs map[we.StoreName][]Entry
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{logs: map[we.StoreName][]Entry{}}
}

func (m *MemoryJournal) Append(_ context.Context, store we.StoreName, options AppendOptions, entries ...Entry) (we.Revision, error) {
	if len(entries) == 0 {
		return "", ErrNoEntries
	}

	m.lk.Lock()
	defer m.lk.Unlock()

	existing := m.logs[store]
	if !Accepts(RevisionOf(existing), options, entries) {
		return "", we.RevisionConflict
	}

	m.logs[store] = append(existing, entries...)

	return RevisionOf(entries), nil
}

func (m *MemoryJournal) Load(_ context.Context, store we.StoreName) (Log, error) {
	m.lk.RLock()
	defer m.lk.RUnlock()

	existing := m.logs[store]
	entries := make([]Entry, len(existing))
	copy(entries, existing)

	return Log{
		Store:    store,
		Entries:  entries,
		Revision: RevisionOf(entries),
	}, nil
}

var _ Journal = (*MemoryJournal)(nil)
