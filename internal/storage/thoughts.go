package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const thoughtCols = "id, user_id, situation, automatic_thought, emotions, emotion_intensity, evidence_for, evidence_against, alternative_thought, outcome, new_emotion_intensity, created_at"

func scanThought(sc interface{ Scan(...any) error }) (ThoughtRecord, error) {
	var (
		tr               ThoughtRecord
		evFor, evAgainst sql.NullString
		alt, outcome     sql.NullString
		newIntensity     sql.NullInt64
		created          string
	)
	err := sc.Scan(&tr.ID, &tr.UserID, &tr.Situation, &tr.AutomaticThought, &tr.Emotions,
		&tr.EmotionIntensity, &evFor, &evAgainst, &alt, &outcome, &newIntensity, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return ThoughtRecord{}, ErrNotFound
	}
	if err != nil {
		return ThoughtRecord{}, err
	}
	tr.EvidenceFor = strOrEmpty(evFor)
	tr.EvidenceAgainst = strOrEmpty(evAgainst)
	tr.AlternativeThought = strOrEmpty(alt)
	tr.Outcome = strOrEmpty(outcome)
	if newIntensity.Valid {
		tr.NewEmotionIntensity = int(newIntensity.Int64)
	}
	tr.CreatedAt = parseTime(created)
	return tr, nil
}

func (s *DB) CreateThoughtRecord(ctx context.Context, tr ThoughtRecord) (int64, error) {
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO thought_records (user_id, situation, automatic_thought, emotions, emotion_intensity, evidence_for, evidence_against, alternative_thought, outcome, new_emotion_intensity, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.UserID, tr.Situation, tr.AutomaticThought, tr.Emotions, tr.EmotionIntensity,
		nullStr(tr.EvidenceFor), nullStr(tr.EvidenceAgainst), nullStr(tr.AlternativeThought),
		nullStr(tr.Outcome), tr.NewEmotionIntensity, fmtTime(tr.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *DB) ThoughtRecordsForUser(ctx context.Context, userID int64, limit int) ([]ThoughtRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+thoughtCols+" FROM thought_records WHERE user_id = ? ORDER BY id DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ThoughtRecord
	for rows.Next() {
		tr, err := scanThought(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *DB) DeleteThoughtRecord(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM thought_records WHERE id = ? AND user_id = ?", id, userID)
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
