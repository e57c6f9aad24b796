package storage

import (
	"context"
	"database/sql"
	"time"
)

func (s *DB) CreateMoodEntry(ctx context.Context, m MoodEntry) (int64, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO mood_entries (user_id, mood, intensity, notes, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.UserID, m.Mood, m.Intensity, nullStr(m.Notes), fmtTime(m.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *DB) MoodEntriesForUser(ctx context.Context, userID int64, limit int) ([]MoodEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, mood, intensity, notes, created_at
		 FROM mood_entries WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MoodEntry
	for rows.Next() {
		var (
			m       MoodEntry
			notes   sql.NullString
			created string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Mood, &m.Intensity, &notes, &created); err != nil {
			return nil, err
		}
		m.Notes = strOrEmpty(notes)
		m.CreatedAt = parseTime(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// MoodCountsSince tallies entries per mood recorded at or after since.
// Stored timestamps are RFC3339 in UTC, so string comparison orders them.
func (s *DB) MoodCountsSince(ctx context.Context, userID int64, since time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mood, COUNT(*) FROM mood_entries
		 WHERE user_id = ? AND created_at >= ? GROUP BY mood`,
		userID, fmtTime(since.UTC()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			mood string
			n    int
		)
		if err := rows.Scan(&mood, &n); err != nil {
			return nil, err
		}
		counts[mood] = n
	}
	return counts, rows.Err()
}

func (s *DB) DeleteMoodEntry(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM mood_entries WHERE id = ? AND user_id = ?", id, userID)
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
