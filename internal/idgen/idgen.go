// Package idgen produces record identifiers for the local store.
//
// Identifiers are unique within a running process with very high
// probability. They are not coordinated across devices or processes.
package idgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scheme names accepted by New.
const (
	SchemeTimestamp = "timestamp"
	SchemeUUID7     = "uuid7"
)

const (
	suffixLen = 9
	alphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Generator returns a fresh identifier on every call.
type Generator interface {
	NewID() string
}

// New returns the generator for the named scheme.
func New(scheme string) (Generator, error) {
	switch scheme {
	case "", SchemeTimestamp:
		return NewTimestamp(time.Now), nil
	case SchemeUUID7:
		return UUID7{}, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q", scheme)
	}
}

// Timestamp builds ids of the form "<unix millis>-<9 base36 chars>". The
// time component never goes backwards within one generator, even if the
// wall clock does.
type Timestamp struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewTimestamp(now func() time.Time) *Timestamp {
	return &Timestamp{now: now}
}

func (g *Timestamp) NewID() string {
	g.mu.Lock()
	ms := g.now().UnixMilli()
	if ms < g.last {
		ms = g.last
	}
	g.last = ms
	g.mu.Unlock()

	return strconv.FormatInt(ms, 10) + "-" + randomSuffix()
}

func randomSuffix() string {
	buf := make([]byte, suffixLen)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms; fall back to
			// the clock so NewID never fails.
			n = big.NewInt(time.Now().UnixNano() % int64(len(alphabet)))
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf)
}

// UUID7 builds RFC 9562 version 7 UUIDs: time-ordered with a random tail.
type UUID7 struct{}

func (UUID7) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
