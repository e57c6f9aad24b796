package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const goalCols = "id, user_id, title, description, category, frequency, target, progress, start_date, end_date, completed, created_at, updated_at"

func scanGoal(sc interface{ Scan(...any) error }) (Goal, error) {
	var (
		g                       Goal
		desc, end               sql.NullString
		start, created, updated string
	)
	err := sc.Scan(&g.ID, &g.UserID, &g.Title, &desc, &g.Category, &g.Frequency,
		&g.Target, &g.Progress, &start, &end, &g.Completed, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Goal{}, ErrNotFound
	}
	if err != nil {
		return Goal{}, err
	}
	g.Description = strOrEmpty(desc)
	g.StartDate = parseTime(start)
	g.EndDate = parseTime(strOrEmpty(end))
	g.CreatedAt = parseTime(created)
	g.UpdatedAt = parseTime(updated)
	return g, nil
}

func (s *DB) CreateGoal(ctx context.Context, g Goal) (int64, error) {
	now := time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = now
	}
	if g.StartDate.IsZero() {
		g.StartDate = now
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, title, description, category, frequency, target, progress, start_date, end_date, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Title, nullStr(g.Description), g.Category, g.Frequency, g.Target, g.Progress,
		fmtTime(g.StartDate), nullTime(g.EndDate), g.Completed, fmtTime(g.CreatedAt), fmtTime(g.UpdatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *DB) GoalByID(ctx context.Context, id, userID int64) (Goal, error) {
	return scanGoal(s.db.QueryRowContext(ctx,
		"SELECT "+goalCols+" FROM goals WHERE id = ? AND user_id = ?", id, userID))
}

func (s *DB) GoalsForUser(ctx context.Context, userID int64) ([]Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+goalCols+" FROM goals WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateGoalProgress sets absolute progress and marks the goal completed
// once the target is reached.
func (s *DB) UpdateGoalProgress(ctx context.Context, id, userID int64, progress int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals SET progress = ?, completed = (? >= target), updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		progress, progress, fmtTime(time.Now().UTC()), id, userID)
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

func (s *DB) DeleteGoal(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM goals WHERE id = ? AND user_id = ?", id, userID)
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
