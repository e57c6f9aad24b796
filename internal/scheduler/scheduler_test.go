package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mindwell/internal/schedule"
	logx "mindwell/pkg/logx"
)

// fakeStore serves definitions from memory.
type fakeStore struct {
	mu   sync.Mutex
	defs map[int64]Definition
	err  error
}

func newFakeStore(defs ...Definition) *fakeStore {
	m := make(map[int64]Definition, len(defs))
	for _, d := range defs {
		m[d.ID] = d
	}
	return &fakeStore{defs: m}
}

func (s *fakeStore) ActiveForUser(ctx context.Context, userID int64) ([]Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []Definition
	for _, d := range s.defs {
		if d.UserID == userID && d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeStore) ByID(ctx context.Context, id int64) (Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Definition{}, s.err
	}
	d, ok := s.defs[id]
	if !ok {
		return Definition{}, ErrNotFound
	}
	return d, nil
}

func (s *fakeStore) put(d Definition) {
	s.mu.Lock()
	s.defs[d.ID] = d
	s.mu.Unlock()
}

func (s *fakeStore) remove(id int64) {
	s.mu.Lock()
	delete(s.defs, id)
	s.mu.Unlock()
}

// recordSink records deliveries and can be told to fail.
type recordSink struct {
	mu        sync.Mutex
	delivered []string
	fail      error
}

func (s *recordSink) Deliver(ctx context.Context, id int64, title, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.delivered = append(s.delivered, title)
	return nil
}

func (s *recordSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

// A fixed reference instant far enough in the future that armed timers
// never elapse during a test.
var testNow = time.Date(2124, time.April, 3, 8, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, store Store, sink Sink) *Scheduler {
	t.Helper()
	s := New(store, sink, logx.Nop())
	s.now = func() time.Time { return testNow }
	t.Cleanup(s.Shutdown)
	return s
}

func def(id, userID int64, title string, rule schedule.Rule, active bool) Definition {
	return Definition{ID: id, UserID: userID, Title: title, Message: "msg", Kind: "custom", Rule: rule, Active: active}
}

// fire runs the fire callback for id with its current generation token,
// as the elapsed timer would.
func fire(t *testing.T, s *Scheduler, id int64) {
	t.Helper()
	s.onFire(id, genOf(t, s.reg, id))
}

func TestScheduleForUserArmsOnlyActive(t *testing.T) {
	t.Parallel()
	rule := schedule.MustRule(9, 0, schedule.EveryDay)
	store := newFakeStore(
		def(1, 10, "water", rule, true),
		def(2, 10, "journal", rule, false),
		def(3, 11, "other user", rule, true),
	)
	s := newTestScheduler(t, store, &recordSink{})

	if err := s.ScheduleForUser(context.Background(), 10); err != nil {
		t.Fatalf("ScheduleForUser error: %v", err)
	}
	if got := s.Armed(); got != 1 {
		t.Fatalf("Armed = %d, want 1", got)
	}
	at, ok := s.reg.FireAt(1)
	if !ok {
		t.Fatal("reminder 1 not armed")
	}
	if want := schedule.NextOccurrence(rule, testNow); !at.Equal(want) {
		t.Fatalf("FireAt = %v, want %v", at, want)
	}
}

func TestScheduleInactiveCancels(t *testing.T) {
	t.Parallel()
	rule := schedule.MustRule(9, 0, schedule.EveryDay)
	store := newFakeStore()
	s := newTestScheduler(t, store, &recordSink{})

	s.Schedule(def(1, 10, "water", rule, true))
	if s.Armed() != 1 {
		t.Fatalf("Armed = %d, want 1", s.Armed())
	}
	s.Schedule(def(1, 10, "water", rule, false))
	if s.Armed() != 0 {
		t.Fatalf("Armed = %d, want 0 after inactive schedule", s.Armed())
	}
}

func TestScheduleTwiceKeepsSecondInstant(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	s := newTestScheduler(t, store, &recordSink{})

	s.Schedule(def(1, 10, "water", schedule.MustRule(9, 0, schedule.EveryDay), true))
	second := schedule.MustRule(18, 30, schedule.EveryDay)
	s.Schedule(def(1, 10, "water", second, true))

	if s.Armed() != 1 {
		t.Fatalf("Armed = %d, want 1", s.Armed())
	}
	at, _ := s.reg.FireAt(1)
	if want := schedule.NextOccurrence(second, testNow); !at.Equal(want) {
		t.Fatalf("FireAt = %v, want %v", at, want)
	}
}

func TestOnFireDeliversAndRearmsStrictlyLater(t *testing.T) {
	t.Parallel()
	rule := schedule.MustRule(9, 0, schedule.EveryDay)
	store := newFakeStore(def(1, 10, "water", rule, true))
	sink := &recordSink{}
	s := newTestScheduler(t, store, sink)

	s.Schedule(def(1, 10, "water", rule, true))
	first, _ := s.reg.FireAt(1)

	// Advance the reference clock past the first occurrence, as if the
	// timer had just elapsed, and run the fire callback directly.
	s.now = func() time.Time { return first }
	fire(t, s, 1)

	if sink.count() != 1 {
		t.Fatalf("delivered %d times, want 1", sink.count())
	}
	if s.Armed() != 1 {
		t.Fatalf("Armed = %d, want exactly one re-armed timer", s.Armed())
	}
	next, _ := s.reg.FireAt(1)
	if !next.After(first) {
		t.Fatalf("re-armed at %v, not strictly after %v", next, first)
	}
}

func TestOnFirePicksUpEditedDefinition(t *testing.T) {
	t.Parallel()
	rule := schedule.MustRule(9, 0, schedule.EveryDay)
	store := newFakeStore(def(1, 10, "water", rule, true))
	sink := &recordSink{}
	s := newTestScheduler(t, store, sink)
	s.Schedule(def(1, 10, "old title", rule, true))

	store.put(def(1, 10, "new title", rule, true))
	fire(t, s, 1)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.delivered) != 1 || sink.delivered[0] != "new title" {
		t.Fatalf("delivered = %v, want the re-read title", sink.delivered)
	}
}

func TestOnFireDeletedDefinitionStopsRecurring(t *testing.T) {
	t.Parallel()
	rule := schedule.MustRule(9, 0, schedule.EveryDay)
	store := newFakeStore(def(1, 10, "water", rule, true))
	sink := &recordSink{}
	s := newTestScheduler(t, store, sink)
	s.Schedule(def(1, 10, "water", rule, true))

	store.remove(1)
	fire(t, s, 1)

	if sink.count() != 0 {
		t.Fatalf("delivered %d times, want 0 for deleted reminder", sink.count())
	}
	if s.Armed() != 0 {
		t.Fatalf("Armed = %d, want 0 after deletion", s.Armed())
	}
}

func TestOnFireDeactivatedDeliversOnceWithoutRearm(t *testing.T) {
	t.Parallel()
	rule := schedule.MustRule(9, 0, schedule.EveryDay)
	store := newFakeStore(def(1, 10, "water", rule, true))
	sink := &recordSink{}
	s := newTestScheduler(t, store, sink)
	s.Schedule(def(1, 10, "water", rule, true))

	store.put(def(1, 10, "water", rule, false))
	fire(t, s, 1)

	if sink.count() != 1 {
		t.Fatalf("delivered %d times, want one best-effort fire", sink.count())
	}
	if s.Armed() != 0 {
		t.Fatalf("Armed = %d, want 0 after deactivation", s.Armed())
	}
}

func TestOnFireStoreFailureSkipsFire(t *testing.T) {
	t.Parallel()
	rule := schedule.MustRule(9, 0, schedule.EveryDay)
	store := newFakeStore(def(1, 10, "water", rule, true))
	sink := &recordSink{}
	s := newTestScheduler(t, store, sink)
	s.Schedule(def(1, 10, "water", rule, true))

	store.mu.Lock()
	store.err = errors.New("disk gone")
	store.mu.Unlock()
	fire(t, s, 1)

	if sink.count() != 0 {
		t.Fatalf("delivered %d times, want 0 on store failure", sink.count())
	}
	if s.Armed() != 0 {
		t.Fatalf("Armed = %d, want 0", s.Armed())
	}
}

func TestOnFireDeliveryFailureStillRearms(t *testing.T) {
	t.Parallel()
	rule := schedule.MustRule(9, 0, schedule.EveryDay)
	store := newFakeStore(def(1, 10, "water", rule, true))
	sink := &recordSink{fail: errors.New("surface unavailable")}
	s := newTestScheduler(t, store, sink)
	s.Schedule(def(1, 10, "water", rule, true))

	fire(t, s, 1)

	if s.Armed() != 1 {
		t.Fatalf("Armed = %d, want 1: recurrence must survive a failed delivery", s.Armed())
	}
}

func TestStaleFireKeepsConcurrentReschedule(t *testing.T) {
	t.Parallel()
	rule := schedule.MustRule(9, 0, schedule.EveryDay)
	store := newFakeStore(def(1, 10, "water", rule, true))
	sink := &recordSink{}
	s := newTestScheduler(t, store, sink)

	s.Schedule(def(1, 10, "water", rule, true))
	stale := genOf(t, s.reg, 1)

	// A user edit lands while the fire callback is in flight: the store
	// row and the armed timer both carry the new rule already.
	edited := schedule.MustRule(18, 30, schedule.EveryDay)
	store.put(def(1, 10, "water", edited, true))
	s.Schedule(def(1, 10, "water", edited, true))
	want, _ := s.reg.FireAt(1)

	s.onFire(1, stale)

	if sink.count() != 1 {
		t.Fatalf("delivered %d times, want 1", sink.count())
	}
	if s.Armed() != 1 {
		t.Fatalf("Armed = %d, want 1", s.Armed())
	}
	at, _ := s.reg.FireAt(1)
	if !at.Equal(want) {
		t.Fatalf("FireAt = %v, want the edit's %v to survive the stale fire", at, want)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	t.Parallel()
	rule := schedule.MustRule(9, 0, schedule.EveryDay)
	store := newFakeStore()
	s := New(store, &recordSink{}, logx.Nop())
	s.now = func() time.Time { return testNow }

	s.Schedule(def(1, 10, "water", rule, true))
	s.Shutdown()
	s.Shutdown()
	if s.Armed() != 0 {
		t.Fatalf("Armed = %d, want 0", s.Armed())
	}
	// Scheduling after shutdown is ignored, not a panic.
	s.Schedule(def(2, 10, "journal", rule, true))
	if s.Armed() != 0 {
		t.Fatalf("Armed = %d, want 0 after shutdown", s.Armed())
	}
}
