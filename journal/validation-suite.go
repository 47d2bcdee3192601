package journal

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/jaswdr/faker"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"

	"github.com/weegigs/wee-counter-go/we"
)

var entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)

func NewValidationSuite(ctx context.Context, journal Journal) *ValidationSuite {
	return &ValidationSuite{
		journal:   journal,
		ctx:       ctx,
		faker:     faker.New(),
		revisions: we.NewRevisionGenerator(),
	}
}

// ValidationSuite checks the behaviour every Journal backend has to share.
type ValidationSuite struct {
	journal   Journal
	ctx       context.Context
	faker     faker.Faker
	revisions *we.RevisionGenerator
}

type validationAction struct {
	TestStringValue string `json:"test_string_value"`
	TestIntValue    int    `json:"test_int_value"`
}

func (s *ValidationSuite) Run(t *testing.T) {
	t.Run("loads an empty log", s.LoadInitial)
	t.Run("loads a log with entries", s.LoadsLogWithEntries)
	t.Run("appends a single entry", s.AppendsSingleEntry)
	t.Run("appends multiple entries in a single transaction", s.AppendsMultipleEntries)
	t.Run("rejects an empty append", s.RejectsEmptyAppend)
	t.Run("returns a revision conflict with an initial revision", s.RevisionConflictOnInitialRevision)
	t.Run("returns a revision conflict on subsequent revision", s.RevisionConflictOnSubsequentRevision)
	t.Run("returns a revision conflict on stale entries", s.RevisionConflictOnStaleEntries)
	t.Run("returns a revision conflict when a batch starts at or before the head", s.RevisionConflictOnOverlappingBatch)
	t.Run("keeps stores apart", s.KeepsStoresApart)
}

func (s *ValidationSuite) MakeTestStoreName() we.StoreName {
	return we.StoreName("go-test-" + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())
}

func (s *ValidationSuite) MakeTestEntry(store we.StoreName) Entry {
	action := validationAction{
		TestStringValue: s.faker.Lorem().Sentence(10),
		TestIntValue:    s.faker.Int(),
	}

	data, err := we.MarshalToData(action)
	if err != nil {
		panic(err)
	}

	now := time.Now()
	return Entry{
		Store:      store,
		Revision:   s.revisions.NewRevision(now),
		ActionType: we.ActionTypeOf(action),
		Timestamp:  we.TimestampFromTime(now),
		Action:     data,
		State:      we.JsonData([]byte(`{"value":1}`)),
	}
}

func (s *ValidationSuite) MakeTestEntries(store we.StoreName, count int) []Entry {
	entries := make([]Entry, count)
	for i := 0; i < count; i++ {
		entries[i] = s.MakeTestEntry(store)
	}

	return entries
}

func (s *ValidationSuite) LoadInitial(t *testing.T) {
	store := s.MakeTestStoreName()
	log, err := s.journal.Load(s.ctx, store)

	if !assert.Nil(t, err) {
		return
	}

	assert.Empty(t, log.Entries)
	assert.Equal(t, we.InitialRevision, log.Revision)
	assert.Equal(t, store, log.Store)
}

func (s *ValidationSuite) LoadsLogWithEntries(t *testing.T) {
	store := s.MakeTestStoreName()
	entries := s.MakeTestEntries(store, 3)

	revision, err := s.journal.Append(s.ctx, store, Options(), entries...)
	if !assert.Nil(t, err) {
		return
	}

	log, err := s.journal.Load(s.ctx, store)
	if !assert.Nil(t, err) {
		return
	}

	if !assert.Len(t, log.Entries, 3) {
		return
	}
	assert.Equal(t, revision, log.Revision)
	assert.Equal(t, store, log.Store)
	for i, entry := range entries {
		loaded := log.Entries[i]
		assert.Equal(t, entry.Revision, loaded.Revision)
		assert.Equal(t, entry.ActionType, loaded.ActionType)
		assert.Equal(t, entry.Timestamp, loaded.Timestamp)
		assert.Equal(t, entry.Action.Encoding, loaded.Action.Encoding)
		assert.JSONEq(t, string(entry.Action.Data), string(loaded.Action.Data))
	}
}

func (s *ValidationSuite) AppendsSingleEntry(t *testing.T) {
	store := s.MakeTestStoreName()
	entry := s.MakeTestEntry(store)

	revision, err := s.journal.Append(s.ctx, store, Options(), entry)

	assert.Nil(t, err)
	assert.Equal(t, entry.Revision, revision)
}

func (s *ValidationSuite) AppendsMultipleEntries(t *testing.T) {
	store := s.MakeTestStoreName()
	entries := s.MakeTestEntries(store, 17)

	revision, err := s.journal.Append(s.ctx, store, Options(), entries...)

	assert.Nil(t, err)
	assert.Equal(t, entries[16].Revision, revision)
}

func (s *ValidationSuite) RejectsEmptyAppend(t *testing.T) {
	_, err := s.journal.Append(s.ctx, s.MakeTestStoreName(), Options())

	assert.ErrorIs(t, err, ErrNoEntries)
}

func (s *ValidationSuite) RevisionConflictOnInitialRevision(t *testing.T) {
	store := s.MakeTestStoreName()

	_, err := s.journal.Append(s.ctx, store, Options(), s.MakeTestEntry(store))
	if !assert.Nil(t, err) {
		return
	}

	_, err = s.journal.Append(s.ctx, store, Options(WithExpectedRevision(we.InitialRevision)), s.MakeTestEntry(store))
	assert.NotNil(t, err)
	assert.Equal(t, we.RevisionConflict, err)
}

func (s *ValidationSuite) RevisionConflictOnSubsequentRevision(t *testing.T) {
	store := s.MakeTestStoreName()

	first, err := s.journal.Append(s.ctx, store, Options(), s.MakeTestEntry(store))
	if !assert.Nil(t, err) {
		return
	}

	_, err = s.journal.Append(s.ctx, store, Options(WithExpectedRevision(first)), s.MakeTestEntry(store))
	if !assert.Nil(t, err) {
		return
	}

	_, err = s.journal.Append(s.ctx, store, Options(WithExpectedRevision(first)), s.MakeTestEntry(store))
	assert.NotNil(t, err)
	assert.Equal(t, we.RevisionConflict, err)
}

func (s *ValidationSuite) RevisionConflictOnStaleEntries(t *testing.T) {
	store := s.MakeTestStoreName()
	stale := s.MakeTestEntry(store)
	fresh := s.MakeTestEntry(store)

	_, err := s.journal.Append(s.ctx, store, Options(), fresh)
	if !assert.Nil(t, err) {
		return
	}

	_, err = s.journal.Append(s.ctx, store, Options(), stale)
	assert.Equal(t, we.RevisionConflict, err)
}

func (s *ValidationSuite) RevisionConflictOnOverlappingBatch(t *testing.T) {
	store := s.MakeTestStoreName()
	stale := s.MakeTestEntry(store)
	head := s.MakeTestEntry(store)
	newer := s.MakeTestEntry(store)

	_, err := s.journal.Append(s.ctx, store, Options(), head)
	if !assert.Nil(t, err) {
		return
	}

	_, err = s.journal.Append(s.ctx, store, Options(), stale, newer)
	assert.Equal(t, we.RevisionConflict, err)

	log, err := s.journal.Load(s.ctx, store)
	if !assert.Nil(t, err) {
		return
	}
	assert.Len(t, log.Entries, 1)
	assert.Equal(t, head.Revision, log.Revision)
}

func (s *ValidationSuite) KeepsStoresApart(t *testing.T) {
	one := s.MakeTestStoreName()
	two := s.MakeTestStoreName()

	_, err := s.journal.Append(s.ctx, one, Options(), s.MakeTestEntries(one, 2)...)
	if !assert.Nil(t, err) {
		return
	}

	log, err := s.journal.Load(s.ctx, two)
	if !assert.Nil(t, err) {
		return
	}

	assert.Empty(t, log.Entries)
}
