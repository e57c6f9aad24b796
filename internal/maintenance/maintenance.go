// Package maintenance runs periodic housekeeping: expired-session
// pruning and a WAL checkpoint, on a cron schedule.
package maintenance

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"mindwell/internal/storage"
	logx "mindwell/pkg/logx"
)

type Config struct {
	Enabled  bool
	Spec     string // cron spec, default nightly
	Timezone string
}

const defaultSpec = "30 3 * * *"

type Service struct {
	cfg  Config
	db   *storage.DB
	log  logx.Logger
	cron *cron.Cron
}

func New(cfg Config, db *storage.DB, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.Spec) == "" {
		cfg.Spec = defaultSpec
	}
	return &Service{cfg: cfg, db: db, log: log}
}

// Start registers the housekeeping job and starts the cron loop.
// Disabled or misconfigured specs log and do nothing.
func (s *Service) Start() {
	if !s.cfg.Enabled {
		s.log.Debug("maintenance disabled")
		return
	}
	loc := time.Local
	if tz := strings.TrimSpace(s.cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			s.log.Warn("invalid timezone; using local", logx.String("tz", tz), logx.Err(err))
		} else {
			loc = l
		}
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(s.cfg.Spec, s.runOnce); err != nil {
		s.log.Error("invalid maintenance spec", logx.String("spec", s.cfg.Spec), logx.Err(err))
		return
	}
	s.cron = c
	c.Start()
	s.log.Info("maintenance scheduled", logx.String("spec", s.cfg.Spec))
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Service) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("maintenance stop timed out")
	}
}

func (s *Service) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.db.PruneExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		s.log.Warn("session prune failed", logx.Err(err))
	} else if n > 0 {
		s.log.Info("expired sessions pruned", logx.Int64("count", n))
	}

	if err := s.db.Checkpoint(ctx); err != nil {
		s.log.Warn("wal checkpoint failed", logx.Err(err))
	}
}
