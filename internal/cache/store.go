// Package cache implements the hoard cache engine: a keyed in-memory store
// with per-entry TTLs and the fetch strategies that sit on top of it.
package cache

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"

	hoard "github.com/eugener/hoard/internal"
)

// DefaultTTL is used whenever a Set call omits an explicit TTL and the
// store was built without one.
const DefaultTTL = 5 * time.Minute

// patternCacheSize bounds the memo of compiled invalidation regexes.
const patternCacheSize = 128

// entryOverhead approximates the fixed per-entry bookkeeping cost (struct
// header, timestamps, map bucket share) for the memory estimate.
const entryOverhead = 96

// entry wraps a cached document with its creation time and TTL.
// An entry is live iff now <= createdAt + ttl; once expired it is treated
// as absent by every read path and removed on first contact.
type entry struct {
	data         json.RawMessage
	createdAt    time.Time
	ttl          time.Duration
	etag         string
	lastModified string
}

func (e entry) live(t time.Time) bool {
	return !t.After(e.createdAt.Add(e.ttl))
}

// Store is a mutex-guarded in-memory TTL store. Expiry is strictly
// time-based: there is no size bound and no eviction beyond TTL.
//
// The store owns its entries exclusively; callers only ever see the data
// payload. Hit/miss counters live here because the liveness check that
// classifies a read happens under the same lock.
type Store struct {
	mu         sync.Mutex
	entries    map[string]entry
	hits       uint64
	misses     uint64
	defaultTTL time.Duration

	metrics  Metrics
	patterns *otter.Cache[string, *regexp.Regexp]

	// now is swapped in tests to drive expiry with simulated time.
	now func() time.Time
}

// NewStore creates a Store. A non-positive defaultTTL falls back to
// DefaultTTL; a nil Metrics falls back to NopMetrics.
func NewStore(defaultTTL time.Duration, m Metrics) (*Store, error) {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	if m == nil {
		m = NopMetrics{}
	}
	patterns, err := otter.New[string, *regexp.Regexp](&otter.Options[string, *regexp.Regexp]{
		MaximumSize: patternCacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create pattern cache: %w", err)
	}
	return &Store{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		metrics:    m,
		patterns:   patterns,
		now:        time.Now,
	}, nil
}

// Get returns the cached document payload for key. Absent or expired keys
// count as misses; an expired entry is deleted on the way out.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	doc, ok := s.GetDocument(key)
	if !ok {
		return nil, false
	}
	return doc.Data, true
}

// GetDocument is Get with the entry's validator headers included.
func (s *Store) GetDocument(key string) (*hoard.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.misses++
		s.metrics.Miss()
		return nil, false
	}
	if !e.live(s.now()) {
		delete(s.entries, key)
		s.metrics.Expired()
		s.misses++
		s.metrics.Miss()
		return nil, false
	}
	s.hits++
	s.metrics.Hit()
	return &hoard.Document{Data: e.data, ETag: e.etag, LastModified: e.lastModified}, true
}

// Set stores data under key with createdAt = now. A subsequent Set on the
// same key overwrites wholesale (last write wins, no merge). A non-positive
// ttl uses the store default.
func (s *Store) Set(key string, data json.RawMessage, ttl time.Duration) {
	s.SetDocument(key, &hoard.Document{Data: data}, ttl)
}

// SetDocument stores an origin document, keeping its validator headers on
// the entry.
func (s *Store) SetDocument(key string, doc *hoard.Document, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.entries[key] = entry{
		data:         doc.Data,
		createdAt:    s.now(),
		ttl:          ttl,
		etag:         doc.ETag,
		lastModified: doc.LastModified,
	}
}

// Has reports whether a live entry exists for key. Like Get it deletes an
// expired entry on contact, but unlike Get it never touches the hit/miss
// counters. The asymmetry is deliberate and pinned by tests.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if !e.live(s.now()) {
		delete(s.entries, key)
		s.metrics.Expired()
		return false
	}
	return true
}

// Delete removes key and reports whether an entry was present. Expired but
// unswept entries still count as present here.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	return ok
}

// Clear removes all entries and resets the hit/miss counters to zero.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]entry)
	s.hits = 0
	s.misses = 0
}

// Keys returns a snapshot of all keys, including expired-but-unswept ones.
// No liveness filtering is applied.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// Size returns the raw entry count, again without liveness filtering.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup sweeps all expired entries and returns how many were removed.
// The hit/miss counters are untouched.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if !e.live(now) {
			delete(s.entries, k)
			s.metrics.Expired()
			removed++
		}
	}
	return removed
}

// InvalidatePattern removes every entry whose key matches pattern and
// returns how many were removed. The pattern is compiled as a regular
// expression, not escaped: callers wanting literal matching must escape
// metacharacters themselves.
func (s *Store) InvalidatePattern(pattern string) (int, error) {
	re, err := s.compile(pattern)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k := range s.entries {
		if re.MatchString(k) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

// compile memoizes compiled patterns; repeated invalidations with the same
// pattern skip regexp.Compile.
func (s *Store) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := s.patterns.GetIfPresent(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	s.patterns.Set(pattern, re)
	return re, nil
}

// Stats computes a snapshot from the running counters and current entries.
// Size and the memory estimate cover expired-but-unswept entries too.
func (s *Store) Stats() hoard.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var mem int64
	for k, e := range s.entries {
		mem += int64(len(k)+len(e.data)) + entryOverhead
	}
	st := hoard.Stats{
		Hits:        s.hits,
		Misses:      s.misses,
		Size:        len(s.entries),
		MemoryBytes: mem,
	}
	if total := s.hits + s.misses; total > 0 {
		st.HitRatio = float64(s.hits) / float64(total)
	}
	return st
}

// SetDefaultTTL changes the default applied to subsequent Set calls that
// omit a TTL. Existing entries keep the TTL they were written with.
// Non-positive values are ignored.
func (s *Store) SetDefaultTTL(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultTTL = d
}

// DefaultTTL returns the current default TTL.
func (s *Store) DefaultTTL() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaultTTL
}
