// Package scheduler arms, reschedules and cancels live reminder timers.
// It owns the only shared mutable state in the reminder core: the registry
// map from reminder id to armed timer. Definitions are immutable snapshots
// once handed in; the scheduler re-reads the store at fire time to pick up
// edits.
package scheduler

import (
	"context"
	"errors"

	"mindwell/internal/schedule"
)

var (
	// ErrNotFound is returned by Store implementations when a reminder
	// definition no longer exists.
	ErrNotFound = errors.New("scheduler: reminder not found")

	// ErrAlreadyArmed guards Arm against double-arming one id. Callers
	// that want replace semantics use Replace.
	ErrAlreadyArmed = errors.New("scheduler: timer already armed")

	// ErrClosed is returned once the registry has been shut down.
	ErrClosed = errors.New("scheduler: registry closed")
)

// Definition is a read-only snapshot of a stored reminder, carrying just
// what the scheduler needs to arm a timer and deliver a fire.
type Definition struct {
	ID      int64
	UserID  int64
	Title   string
	Message string
	Kind    string
	Rule    schedule.Rule
	Active  bool
}

// Store supplies reminder definitions. The scheduler never writes through
// this interface; persistence belongs to the storage layer.
type Store interface {
	ActiveForUser(ctx context.Context, userID int64) ([]Definition, error)
	// ByID returns ErrNotFound when the reminder has been deleted.
	ByID(ctx context.Context, id int64) (Definition, error)
}

// Sink consumes fired reminders for display. Delivery is fire-and-forget
// from the scheduler's perspective; errors are observed only for logging.
type Sink interface {
	Deliver(ctx context.Context, id int64, title, message string) error
}
