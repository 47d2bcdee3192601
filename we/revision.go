package we

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Revision identifies a state a store has passed through. Revisions are ULIDs, so their string
// form sorts in the order they were issued.
type Revision string

// InitialRevision is the revision of a store no action has been applied to.
const InitialRevision = Revision("00000000000000000000000000")

func (revision Revision) String() string {
	return string(revision)
}

func (revision Revision) After(other Revision) bool {
	return revision > other
}

// Timestamp is the millisecond the revision was issued in.
func (revision Revision) Timestamp() Timestamp {
	id := ulid.MustParse(revision.String())
	return TimestampFromTime(ulid.Time(id.Time()))
}

// RevisionGenerator issues strictly increasing revisions. A clock that steps backwards does not
// break the order: the revision is issued in the last millisecond seen instead.
type RevisionGenerator struct {
	lk      sync.Mutex
	last    uint64
	entropy *ulid.MonotonicEntropy
}

func NewRevisionGenerator() *RevisionGenerator {
	seed := rand.New(rand.NewSource(time.Now().UnixNano()))

	return &RevisionGenerator{entropy: ulid.Monotonic(seed, 0)}
}

func (g *RevisionGenerator) NewRevision(t time.Time) Revision {
	g.lk.Lock()
	defer g.lk.Unlock()

	ms := ulid.Timestamp(t)
	if ms < g.last {
		ms = g.last
	}
	g.last = ms

	return Revision(ulid.MustNew(ms, g.entropy).String())
}
