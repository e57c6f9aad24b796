package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mindwell/internal/schedule"
	logx "mindwell/pkg/logx"
)

// Scheduler is the public lifecycle surface of the reminder core. It loads
// definitions from the Store, computes occurrences, and keeps one armed
// timer per active reminder in its Registry. When a timer fires it
// delivers to the Sink and immediately re-arms for the next occurrence.
//
// Fires for one reminder are strictly sequential: onFire completes its
// re-arm before the next occurrence's timer is live. Fires across distinct
// reminders may run concurrently. Nothing here terminates the process;
// every failure degrades to a skipped occurrence or a reminder that stops
// recurring.
type Scheduler struct {
	log   logx.Logger
	store Store
	sink  Sink
	reg   *Registry

	now func() time.Time

	// fireTimeout bounds the store read plus delivery for one occurrence.
	fireTimeout time.Duration
}

func New(store Store, sink Sink, log logx.Logger) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{
		log:         log,
		store:       store,
		sink:        sink,
		reg:         NewRegistry(),
		now:         time.Now,
		fireTimeout: 30 * time.Second,
	}
}

// ScheduleForUser arms every active reminder the store has for the user.
// Inactive definitions are skipped. Called on user-session start and at
// boot; re-running it is harmless since arming goes through Replace.
func (s *Scheduler) ScheduleForUser(ctx context.Context, userID int64) error {
	defs, err := s.store.ActiveForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load reminders for user %d: %w", userID, err)
	}
	n := 0
	for _, def := range defs {
		if !def.Active {
			continue
		}
		s.Schedule(def)
		n++
	}
	s.log.Info("reminders scheduled", logx.Int64("user_id", userID), logx.Int("count", n))
	return nil
}

// Schedule arms (or re-arms) a single definition. Used when a reminder is
// created or its rule/active flag changes. An inactive definition cancels
// any armed timer instead.
func (s *Scheduler) Schedule(def Definition) {
	if !def.Active {
		s.reg.Cancel(def.ID)
		return
	}
	at := schedule.NextOccurrence(def.Rule, s.now())
	id := def.ID
	if err := s.reg.Replace(id, at, func(gen uint64) { s.onFire(id, gen) }); err != nil {
		s.log.Warn("schedule ignored", logx.Int64("reminder_id", id), logx.Err(err))
		return
	}
	s.log.Debug("reminder armed",
		logx.Int64("reminder_id", id),
		logx.String("rule", def.Rule.String()),
		logx.Time("at", at),
	)
}

// CancelReminder drops the armed timer for id. Used on deletion or
// deactivation; unknown ids are a no-op.
func (s *Scheduler) CancelReminder(id int64) {
	s.reg.Cancel(id)
	s.log.Debug("reminder cancelled", logx.Int64("reminder_id", id))
}

// Armed reports how many timers are currently live.
func (s *Scheduler) Armed() int { return s.reg.Len() }

// Shutdown cancels every armed timer and rejects further scheduling.
// Idempotent.
func (s *Scheduler) Shutdown() {
	s.reg.Close()
	s.log.Info("scheduler shut down")
}

// onFire runs on the timer goroutine for one occurrence of one reminder.
// It re-reads the definition so edits made since arming take effect,
// delivers, then re-arms for the next occurrence. gen is the generation
// token of the timer that fired; a Schedule that raced this fire leaves a
// newer token behind, and the guarded Rearm/CancelIf calls keep that
// fresh arm intact.
func (s *Scheduler) onFire(id int64, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), s.fireTimeout)
	defer cancel()

	def, err := s.store.ByID(ctx, id)
	if err != nil {
		// Deleted or unreadable: this occurrence is skipped and the
		// reminder stops recurring until scheduled again.
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("reminder lookup failed", logx.Int64("reminder_id", id), logx.Err(err))
		}
		s.reg.CancelIf(id, gen)
		return
	}

	if err := s.sink.Deliver(ctx, def.ID, def.Title, def.Message); err != nil {
		// A failed delivery never aborts the recurrence.
		s.log.Warn("reminder delivery failed", logx.Int64("reminder_id", id), logx.Err(err))
	} else {
		s.log.Info("reminder fired", logx.Int64("reminder_id", id), logx.String("title", def.Title))
	}

	if !def.Active {
		s.reg.CancelIf(id, gen)
		return
	}

	at := schedule.NextOccurrence(def.Rule, s.now())
	if !s.reg.Rearm(id, gen, at, func(g uint64) { s.onFire(id, g) }) {
		// Replaced, cancelled or shut down since this fire was armed.
		return
	}
	s.log.Debug("reminder re-armed", logx.Int64("reminder_id", id), logx.Time("at", at))
}
