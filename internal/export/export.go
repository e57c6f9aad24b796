// Package export renders a user's data as CSV for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"mindwell/internal/storage"
)

const dateFormat = "2006-01-02 15:04"

// WriteMoodsCSV streams mood entries as CSV, newest first as given.
func WriteMoodsCSV(w io.Writer, entries []storage.MoodEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "mood", "intensity", "notes"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			formatDate(e.CreatedAt),
			e.Mood,
			strconv.Itoa(e.Intensity),
			e.Notes,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJournalCSV streams journal entries as CSV.
func WriteJournalCSV(w io.Writer, entries []storage.JournalEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "title", "content", "prompt", "sentiment"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			formatDate(e.CreatedAt),
			e.Title,
			e.Content,
			e.Prompt,
			e.Sentiment,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteThoughtsCSV streams CBT thought records as CSV.
func WriteThoughtsCSV(w io.Writer, records []storage.ThoughtRecord) error {
	cw := csv.NewWriter(w)
	header := []string{
		"date", "situation", "automatic_thought", "emotions", "emotion_intensity",
		"evidence_for", "evidence_against", "alternative_thought", "outcome", "new_emotion_intensity",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			formatDate(r.CreatedAt),
			r.Situation,
			r.AutomaticThought,
			r.Emotions,
			strconv.Itoa(r.EmotionIntensity),
			r.EvidenceFor,
			r.EvidenceAgainst,
			r.AlternativeThought,
			r.Outcome,
			strconv.Itoa(r.NewEmotionIntensity),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}
