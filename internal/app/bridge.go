package app

import (
	"context"
	"errors"

	"mindwell/internal/scheduler"
	"mindwell/internal/server"
	"mindwell/internal/storage"
)

// storeBridge adapts the SQLite layer to the scheduler's Store. The
// scheduler never sees row types; it works on Definition snapshots.
type storeBridge struct {
	db *storage.DB
}

func (b storeBridge) ActiveForUser(ctx context.Context, userID int64) ([]scheduler.Definition, error) {
	rows, err := b.db.ActiveRemindersForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	defs := make([]scheduler.Definition, 0, len(rows))
	for _, r := range rows {
		def, err := toDefinition(r)
		if err != nil {
			// A row with a corrupt rule is skipped, not fatal.
			continue
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (b storeBridge) ByID(ctx context.Context, id int64) (scheduler.Definition, error) {
	r, err := b.db.ReminderByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return scheduler.Definition{}, scheduler.ErrNotFound
	}
	if err != nil {
		return scheduler.Definition{}, err
	}
	return toDefinition(r)
}

// meteredSink counts fires and rejected deliveries on their way into the
// pipeline. Async send failures are the pipeline's own concern.
type meteredSink struct {
	sink    scheduler.Sink
	metrics *server.Collector
}

func (m meteredSink) Deliver(ctx context.Context, id int64, title, message string) error {
	m.metrics.ReminderFired()
	err := m.sink.Deliver(ctx, id, title, message)
	if err != nil {
		m.metrics.DeliveryFailed()
	}
	return err
}

func toDefinition(r storage.Reminder) (scheduler.Definition, error) {
	rule, err := r.Rule()
	if err != nil {
		return scheduler.Definition{}, err
	}
	return scheduler.Definition{
		ID:      r.ID,
		UserID:  r.UserID,
		Title:   r.Title,
		Message: r.Message,
		Kind:    r.Kind,
		Rule:    rule,
		Active:  r.Active,
	}, nil
}
