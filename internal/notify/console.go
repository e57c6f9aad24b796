package notify

import (
	"context"

	logx "mindwell/pkg/logx"
)

// ConsoleAdapter writes deliveries to the log. It is the default
// channel when no external transport is configured.
type ConsoleAdapter struct {
	log logx.Logger
}

func NewConsoleAdapter(log logx.Logger) *ConsoleAdapter {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &ConsoleAdapter{log: log}
}

func (a *ConsoleAdapter) Name() string { return "console" }

func (a *ConsoleAdapter) SendText(_ context.Context, n Notification) error {
	a.log.Info("reminder",
		logx.Int64("reminder_id", n.ReminderID),
		logx.String("title", n.Title),
		logx.String("message", n.Message))
	return nil
}
