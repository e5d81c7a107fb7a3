// Package idx mints the ULID identifiers used for users, invites, sessions
// and tiers.
package idx

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New mints an ID stamped with the current time.
func New() ID {
	return NewAt(time.Now())
}

// NewAt mints an ID stamped with t. IDs minted within the same millisecond
// still sort in the order they were minted.
func NewAt(t time.Time) ID {
	mu.Lock()
	defer mu.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(t.UTC()), entropy).String())
}

// Parse validates s as a ULID and returns it in canonical upper case, so
// ids pasted in lower case still match stored rows.
func Parse(s string) (ID, error) {
	u, err := ulid.ParseStrict(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return ID(u.String()), nil
}

func (id ID) String() string { return string(id) }
