package scheduler

import (
	"sync"
	"time"
)

type armedTimer struct {
	at    time.Time
	gen   uint64
	timer *time.Timer
}

// Registry maps reminder ids to armed timers. At most one live timer
// exists per id at all times; cancellation is synchronous with respect to
// the map, though a timer whose callback has already started cannot be
// un-fired.
//
// Each arm is stamped with a generation token, passed to the fire
// callback. A fire that lost a race with a concurrent Replace holds a
// stale token, and Rearm/CancelIf reject it instead of stomping the
// fresh timer.
//
// The mutex covers only map bookkeeping. Fire callbacks run on the timer
// goroutine and must not be invoked while the lock is held.
type Registry struct {
	mu      sync.Mutex
	closed  bool
	nextGen uint64
	timers  map[int64]*armedTimer
}

func NewRegistry() *Registry {
	return &Registry{timers: make(map[int64]*armedTimer)}
}

// Arm schedules onFire at the given instant. It fails with ErrAlreadyArmed
// if a timer for id is present; callers wanting replace semantics use
// Replace.
func (r *Registry) Arm(id int64, at time.Time, onFire func(gen uint64)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if _, ok := r.timers[id]; ok {
		return ErrAlreadyArmed
	}
	r.armLocked(id, at, onFire)
	return nil
}

// Replace atomically cancels any existing timer for id and arms a new one.
// There is no window in which both are live.
func (r *Registry) Replace(id int64, at time.Time, onFire func(gen uint64)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if cur, ok := r.timers[id]; ok {
		cur.timer.Stop()
		delete(r.timers, id)
	}
	r.armLocked(id, at, onFire)
	return nil
}

func (r *Registry) armLocked(id int64, at time.Time, onFire func(gen uint64)) {
	r.nextGen++
	gen := r.nextGen
	r.timers[id] = &armedTimer{
		at:    at,
		gen:   gen,
		timer: time.AfterFunc(time.Until(at), func() { onFire(gen) }),
	}
}

// Rearm replaces the timer for id only while its generation still matches
// gen, and reports whether a new timer was armed. A mismatch means the
// entry was replaced or cancelled after gen was issued; the fresh state
// wins and the caller must not retry.
func (r *Registry) Rearm(id int64, gen uint64, at time.Time, onFire func(gen uint64)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	cur, ok := r.timers[id]
	if !ok || cur.gen != gen {
		return false
	}
	cur.timer.Stop()
	delete(r.timers, id)
	r.armLocked(id, at, onFire)
	return true
}

// CancelIf drops the timer for id only while its generation still
// matches gen. Stale tokens are a no-op.
func (r *Registry) CancelIf(id int64, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.timers[id]; ok && cur.gen == gen {
		cur.timer.Stop()
		delete(r.timers, id)
	}
}

// Cancel stops and removes the timer for id. Cancelling an unarmed id is a
// no-op, not an error.
func (r *Registry) Cancel(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.timers[id]; ok {
		cur.timer.Stop()
		delete(r.timers, id)
	}
}

// CancelAll stops every armed timer.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelAllLocked()
}

// Close cancels every armed timer and rejects future arms. Idempotent.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cancelAllLocked()
}

func (r *Registry) cancelAllLocked() {
	for id, cur := range r.timers {
		cur.timer.Stop()
		delete(r.timers, id)
	}
}

// Len reports how many timers are currently armed.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// FireAt returns the computed fire instant for id, if armed.
func (r *Registry) FireAt(id int64) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.timers[id]
	if !ok {
		return time.Time{}, false
	}
	return cur.at, true
}
