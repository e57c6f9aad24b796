package storage

import (
	"errors"
	"time"

	"mindwell/internal/schedule"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("storage: not found")

// Config configures the SQLite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	LastLogin    time.Time // zero when the user never logged in
}

type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Reminder is the persisted reminder row. The scheduler works on
// read-only Definition snapshots derived from it.
type Reminder struct {
	ID        int64
	UserID    int64
	Title     string
	Message   string
	Kind      string
	Hour      int
	Minute    int
	Days      schedule.DaySet
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Rule builds the recurrence value for this row.
func (r Reminder) Rule() (schedule.Rule, error) {
	return schedule.NewRule(r.Hour, r.Minute, r.Days)
}

type MoodEntry struct {
	ID        int64
	UserID    int64
	Mood      string
	Intensity int
	Notes     string
	CreatedAt time.Time
}

type JournalEntry struct {
	ID        int64
	UserID    int64
	Title     string
	Content   string
	Prompt    string
	Sentiment string // classifier label, empty when never analyzed
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ThoughtRecord struct {
	ID                  int64
	UserID              int64
	Situation           string
	AutomaticThought    string
	Emotions            string
	EmotionIntensity    int
	EvidenceFor         string
	EvidenceAgainst     string
	AlternativeThought  string
	Outcome             string
	NewEmotionIntensity int
	CreatedAt           time.Time
}

type Goal struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Category    string
	Frequency   string
	Target      int
	Progress    int
	StartDate   time.Time
	EndDate     time.Time // zero for open-ended goals
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
