package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier suitable for storage keys.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Valid reports whether raw parses as a canonical identifier. Client-supplied
// references (project, assignee, lead) are format-checked with this before any
// lookup touches the store.
func Valid(raw string) bool {
	if len(raw) != ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(raw)
	return err == nil
}
