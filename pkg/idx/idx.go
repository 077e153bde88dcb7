package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a ULID used to correlate outbound requests with server logs.
type ID string

// Zero represents the zero value ID.
const Zero ID = ""

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

var (
	globalOnce sync.Once
	global     *generator
)

// generator hands out monotonic ULIDs; the entropy source is not safe for
// concurrent use so it sits behind a mutex.
type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (g *generator) newAt(t time.Time) ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	u := ulid.MustNew(ulid.Timestamp(t), g.entropy)
	return ID(u.String())
}

func initGlobal() {
	global = &generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns a new ID for the current UTC time. IDs created in the same
// millisecond still sort in creation order.
func New() ID {
	globalOnce.Do(initGlobal)
	return global.newAt(time.Now().UTC())
}

// Parse validates s as a ULID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalid
	}

	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}

	return ID(s), nil
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool { return id == Zero }

// String returns the canonical string form.
func (id ID) String() string { return string(id) }
