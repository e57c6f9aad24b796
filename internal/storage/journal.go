package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const journalCols = "id, user_id, title, content, prompt, sentiment, created_at, updated_at"

func scanJournalEntry(sc interface{ Scan(...any) error }) (JournalEntry, error) {
	var (
		j                 JournalEntry
		prompt, sentiment sql.NullString
		created, updated  string
	)
	err := sc.Scan(&j.ID, &j.UserID, &j.Title, &j.Content, &prompt, &sentiment, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return JournalEntry{}, ErrNotFound
	}
	if err != nil {
		return JournalEntry{}, err
	}
	j.Prompt = strOrEmpty(prompt)
	j.Sentiment = strOrEmpty(sentiment)
	j.CreatedAt = parseTime(created)
	j.UpdatedAt = parseTime(updated)
	return j, nil
}

func (s *DB) CreateJournalEntry(ctx context.Context, j JournalEntry) (int64, error) {
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = now
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO journal_entries (user_id, title, content, prompt, sentiment, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		j.UserID, j.Title, j.Content, nullStr(j.Prompt), nullStr(j.Sentiment), fmtTime(j.CreatedAt), fmtTime(j.UpdatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *DB) UpdateJournalEntry(ctx context.Context, j JournalEntry) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journal_entries SET title = ?, content = ?, prompt = ?, sentiment = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		j.Title, j.Content, nullStr(j.Prompt), nullStr(j.Sentiment), fmtTime(time.Now().UTC()), j.ID, j.UserID)
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

func (s *DB) JournalEntryByID(ctx context.Context, id, userID int64) (JournalEntry, error) {
	return scanJournalEntry(s.db.QueryRowContext(ctx,
		"SELECT "+journalCols+" FROM journal_entries WHERE id = ? AND user_id = ?", id, userID))
}

func (s *DB) JournalEntriesForUser(ctx context.Context, userID int64, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+journalCols+" FROM journal_entries WHERE user_id = ? ORDER BY id DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		j, err := scanJournalEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *DB) DeleteJournalEntry(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM journal_entries WHERE id = ? AND user_id = ?", id, userID)
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
