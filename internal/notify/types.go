package notify

import (
	"context"
	"time"
)

// Config tunes the delivery pipeline.
type Config struct {
	Workers       int
	QueueSize     int
	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
}

// Notification is a single reminder delivery.
type Notification struct {
	ReminderID int64
	UserID     int64
	Title      string
	Message    string
	Kind       string
}

// Adapter sends a rendered notification to one channel.
type Adapter interface {
	Name() string
	SendText(ctx context.Context, n Notification) error
}

// HistoryItem records a completed delivery for status reporting.
type HistoryItem struct {
	At         time.Time
	ReminderID int64
	Title      string
	Adapter    string
}
