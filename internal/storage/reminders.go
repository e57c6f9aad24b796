package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mindwell/internal/schedule"
)

const reminderCols = "id, user_id, title, message, kind, hour, minute, days, active, created_at, updated_at"

func scanReminder(sc interface{ Scan(...any) error }) (Reminder, error) {
	var (
		r                Reminder
		message          sql.NullString
		days             int64
		created, updated string
	)
	err := sc.Scan(&r.ID, &r.UserID, &r.Title, &message, &r.Kind, &r.Hour, &r.Minute, &days, &r.Active, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Reminder{}, ErrNotFound
	}
	if err != nil {
		return Reminder{}, err
	}
	r.Message = strOrEmpty(message)
	r.Days = schedule.DaySet(days)
	r.CreatedAt = parseTime(created)
	r.UpdatedAt = parseTime(updated)
	return r, nil
}

func (s *DB) CreateReminder(ctx context.Context, r Reminder) (int64, error) {
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (user_id, title, message, kind, hour, minute, days, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Title, nullStr(r.Message), r.Kind, r.Hour, r.Minute, int64(r.Days), r.Active,
		fmtTime(r.CreatedAt), fmtTime(r.UpdatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *DB) UpdateReminder(ctx context.Context, r Reminder) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET title = ?, message = ?, kind = ?, hour = ?, minute = ?, days = ?, active = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		r.Title, nullStr(r.Message), r.Kind, r.Hour, r.Minute, int64(r.Days), r.Active,
		fmtTime(time.Now().UTC()), r.ID, r.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DB) DeleteReminder(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM reminders WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DB) ReminderByID(ctx context.Context, id int64) (Reminder, error) {
	return scanReminder(s.db.QueryRowContext(ctx,
		"SELECT "+reminderCols+" FROM reminders WHERE id = ?", id))
}

func (s *DB) RemindersForUser(ctx context.Context, userID int64) ([]Reminder, error) {
	return s.queryReminders(ctx,
		"SELECT "+reminderCols+" FROM reminders WHERE user_id = ? ORDER BY id", userID)
}

func (s *DB) ActiveRemindersForUser(ctx context.Context, userID int64) ([]Reminder, error) {
	return s.queryReminders(ctx,
		"SELECT "+reminderCols+" FROM reminders WHERE user_id = ? AND active = 1 ORDER BY id", userID)
}

func (s *DB) queryReminders(ctx context.Context, query string, args ...any) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ActiveReminderUserIDs lists the distinct users that have at least one
// active reminder, used to rebuild timers at boot.
func (s *DB) ActiveReminderUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT user_id FROM reminders WHERE active = 1 ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
