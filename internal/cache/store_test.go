package cache

import (
	"testing"
	"time"
)

// newTestStore returns a store plus a function that advances its clock.
func newTestStore(t *testing.T, defaultTTL time.Duration) (*Store, func(time.Duration)) {
	t.Helper()
	s, err := NewStore(defaultTTL, nil)
	if err != nil {
		t.Fatal(err)
	}
	base := time.Now()
	offset := time.Duration(0)
	s.now = func() time.Time { return base.Add(offset) }
	return s, func(d time.Duration) { offset += d }
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, time.Minute)

	s.Set("k", []byte(`{"v":1}`), time.Minute)
	data, ok := s.Get("k")
	if !ok {
		t.Fatal("should find k")
	}
	if string(data) != `{"v":1}` {
		t.Errorf("data = %s, want %s", data, `{"v":1}`)
	}
}

func TestStore_Expiry(t *testing.T) {
	t.Parallel()
	s, advance := newTestStore(t, time.Minute)

	s.Set("k", []byte(`1`), 30*time.Second)

	// Still live exactly at created_at + ttl.
	advance(30 * time.Second)
	if _, ok := s.Get("k"); !ok {
		t.Error("entry should be live at the TTL boundary")
	}

	advance(time.Nanosecond)
	if _, ok := s.Get("k"); ok {
		t.Error("entry should be expired past the TTL")
	}
	// Expired read removes the entry as a side effect.
	if s.Size() != 0 {
		t.Errorf("size = %d, want 0 after lazy eviction", s.Size())
	}
}

func TestStore_LastWriteWins(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, time.Minute)

	s.Set("k", []byte(`"old"`), time.Minute)
	s.Set("k", []byte(`"new"`), time.Minute)

	data, ok := s.Get("k")
	if !ok {
		t.Fatal("should find k")
	}
	if string(data) != `"new"` {
		t.Errorf("data = %s, want overwrite to win", data)
	}
	if s.Size() != 1 {
		t.Errorf("size = %d, want 1", s.Size())
	}
}

func TestStore_StatsConsistency(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, time.Minute)

	s.Set("a", []byte(`1`), time.Minute)

	// 3 hits, 2 misses.
	s.Get("a")
	s.Get("a")
	s.Get("a")
	s.Get("missing")
	s.Get("missing")

	st := s.Stats()
	if st.Hits != 3 || st.Misses != 2 {
		t.Fatalf("hits/misses = %d/%d, want 3/2", st.Hits, st.Misses)
	}
	if want := 3.0 / 5.0; st.HitRatio != want {
		t.Errorf("hit ratio = %v, want %v", st.HitRatio, want)
	}
}

func TestStore_HitRatioZeroWhenUnused(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, time.Minute)

	if st := s.Stats(); st.HitRatio != 0 {
		t.Errorf("hit ratio = %v, want 0 with no reads", st.HitRatio)
	}
}

// Has evicts expired entries like Get does, but must never move the
// hit/miss counters. The asymmetry is part of the contract.
func TestStore_HasDoesNotCount(t *testing.T) {
	t.Parallel()
	s, advance := newTestStore(t, time.Minute)

	s.Set("live", []byte(`1`), time.Hour)
	s.Set("dead", []byte(`2`), time.Second)
	advance(2 * time.Second)

	if !s.Has("live") {
		t.Error("live entry should be present")
	}
	if s.Has("dead") {
		t.Error("expired entry should not be present")
	}
	if s.Has("absent") {
		t.Error("absent entry should not be present")
	}

	// Has still evicted the expired entry.
	if s.Size() != 1 {
		t.Errorf("size = %d, want 1 after Has evicted the expired entry", s.Size())
	}

	st := s.Stats()
	if st.Hits != 0 || st.Misses != 0 {
		t.Errorf("hits/misses = %d/%d, want 0/0 -- Has must not count", st.Hits, st.Misses)
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, time.Minute)

	s.Set("k", []byte(`1`), time.Minute)
	if !s.Delete("k") {
		t.Error("delete of present key should report true")
	}
	if s.Delete("k") {
		t.Error("delete of absent key should report false")
	}
}

func TestStore_ClearResetsCounters(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, time.Minute)

	s.Set("k", []byte(`1`), time.Minute)
	s.Get("k")
	s.Get("missing")

	s.Clear()

	st := s.Stats()
	if st.Hits != 0 || st.Misses != 0 || st.Size != 0 {
		t.Errorf("stats after clear = %+v, want all zero", st)
	}
}

// Keys and Size are raw snapshots: expired-but-unswept entries still show.
func TestStore_KeysAndSizeUnfiltered(t *testing.T) {
	t.Parallel()
	s, advance := newTestStore(t, time.Minute)

	s.Set("a", []byte(`1`), time.Second)
	s.Set("b", []byte(`2`), time.Hour)
	advance(2 * time.Second)

	if got := s.Size(); got != 2 {
		t.Errorf("size = %d, want 2 (no liveness filtering)", got)
	}
	if got := len(s.Keys()); got != 2 {
		t.Errorf("keys = %d, want 2 (no liveness filtering)", got)
	}
}

func TestStore_Cleanup(t *testing.T) {
	t.Parallel()
	s, advance := newTestStore(t, time.Minute)

	s.Set("a", []byte(`1`), time.Second)
	s.Set("b", []byte(`2`), time.Second)
	s.Set("c", []byte(`3`), time.Hour)
	advance(2 * time.Second)

	if got := s.Cleanup(); got != 2 {
		t.Errorf("cleanup removed = %d, want 2", got)
	}
	if s.Size() != 1 {
		t.Errorf("size = %d, want 1", s.Size())
	}

	// Cleanup never touches the counters.
	st := s.Stats()
	if st.Hits != 0 || st.Misses != 0 {
		t.Errorf("hits/misses = %d/%d, want 0/0 after cleanup", st.Hits, st.Misses)
	}
}

func TestStore_InvalidatePattern(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, time.Minute)

	s.Set("course-1", []byte(`1`), time.Minute)
	s.Set("course-2", []byte(`2`), time.Minute)
	s.Set("lesson-1", []byte(`3`), time.Minute)

	removed, err := s.InvalidatePattern("^course-")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if s.Has("course-1") || s.Has("course-2") {
		t.Error("course keys should be gone")
	}
	if !s.Has("lesson-1") {
		t.Error("lesson-1 should survive")
	}

	// Memoized pattern path.
	removed, err = s.InvalidatePattern("^course-")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0 on second pass", removed)
	}
}

func TestStore_InvalidatePatternBadRegex(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, time.Minute)

	if _, err := s.InvalidatePattern("["); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestStore_DefaultTTL(t *testing.T) {
	t.Parallel()
	s, advance := newTestStore(t, time.Minute)

	if got := s.DefaultTTL(); got != time.Minute {
		t.Fatalf("default TTL = %v, want %v", got, time.Minute)
	}

	// Entry written under the old default keeps its TTL.
	s.Set("old", []byte(`1`), 0)
	s.SetDefaultTTL(time.Hour)
	s.Set("new", []byte(`2`), 0)

	advance(2 * time.Minute)
	if _, ok := s.Get("old"); ok {
		t.Error("entry written under the old default should be expired")
	}
	if _, ok := s.Get("new"); !ok {
		t.Error("entry written under the new default should be live")
	}

	// Non-positive values are ignored.
	s.SetDefaultTTL(0)
	if got := s.DefaultTTL(); got != time.Hour {
		t.Errorf("default TTL = %v, want unchanged %v", got, time.Hour)
	}
}

func TestStore_MemoryEstimateGrowsWithEntries(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, time.Minute)

	s.Set("a", []byte(`{"payload":"xxxxxxxx"}`), time.Minute)
	one := s.Stats().MemoryBytes
	if one <= 0 {
		t.Fatalf("memory estimate = %d, want > 0", one)
	}

	s.Set("b", []byte(`{"payload":"yyyyyyyy"}`), time.Minute)
	two := s.Stats().MemoryBytes
	if two <= one {
		t.Errorf("memory estimate should grow: %d -> %d", one, two)
	}
}
