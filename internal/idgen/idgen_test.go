package idgen

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

var timestampID = regexp.MustCompile(`^[0-9]+-[0-9a-z]{9}$`)

func TestTimestampFormat(t *testing.T) {
	g := NewTimestamp(func() time.Time { return time.UnixMilli(1700000000123) })
	id := g.NewID()
	if !timestampID.MatchString(id) {
		t.Fatalf("unexpected id format %q", id)
	}
	if !strings.HasPrefix(id, "1700000000123-") {
		t.Fatalf("expected millis prefix, got %q", id)
	}
}

func TestTimestampNeverGoesBackwards(t *testing.T) {
	times := []int64{2000, 1000, 3000}
	i := 0
	g := NewTimestamp(func() time.Time {
		ms := times[i]
		i++
		return time.UnixMilli(ms)
	})

	var prev int64
	for range times {
		id := g.NewID()
		ms, err := strconv.ParseInt(strings.SplitN(id, "-", 2)[0], 10, 64)
		if err != nil {
			t.Fatalf("parse %q: %v", id, err)
		}
		if ms < prev {
			t.Fatalf("time component went backwards: %d after %d", ms, prev)
		}
		prev = ms
	}
	if prev != 3000 {
		t.Fatalf("last millis = %d, want 3000", prev)
	}
}

func TestTimestampUniqueUnderConcurrency(t *testing.T) {
	g := NewTimestamp(time.Now)
	const n = 2000

	var mu sync.Mutex
	seen := make(map[string]struct{}, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.NewID()
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != n {
		t.Fatalf("expected %d unique ids, got %d", n, len(seen))
	}
}

func TestNewSchemes(t *testing.T) {
	g, err := New(SchemeUUID7)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := uuid.Parse(g.NewID())
	if err != nil {
		t.Fatalf("uuid7 id does not parse: %v", err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("version = %d, want 7", parsed.Version())
	}

	g, err = New("")
	if err != nil {
		t.Fatal(err)
	}
	if !timestampID.MatchString(g.NewID()) {
		t.Fatal("default scheme should be timestamp")
	}

	if _, err := New("snowflake"); err == nil {
		t.Fatal("expected error for unknown scheme")
	}
}
