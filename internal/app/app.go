// Package app assembles the services: config, logging, storage, the
// reminder scheduler, the delivery pipeline, the HTTP API and the
// housekeeping cron.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"

	"mindwell/internal/auth"
	"mindwell/internal/chat"
	"mindwell/internal/config"
	"mindwell/internal/maintenance"
	"mindwell/internal/notify"
	"mindwell/internal/scheduler"
	"mindwell/internal/server"
	"mindwell/internal/storage"
	logx "mindwell/pkg/logx"
)

type App struct {
	cfgm   *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	db     *storage.DB
	notif  *notify.Service
	sched  *scheduler.Scheduler
	srv    *server.Server
	maint  *maintenance.Service
	errCh  chan error
	cancel context.CancelFunc
}

func New(cfgPath string) (*App, error) {
	bootLog := logx.NewConsole("INFO")
	cfgm := config.NewManager(cfgPath, bootLog)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	busyTimeout, err := config.Duration(cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, logSvc.Logger().With(logx.String("comp", "storage")))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	retryBase, err := config.Duration(cfg.Notify.RetryBase, 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	retryMaxDelay, err := config.Duration(cfg.Notify.RetryMaxDelay, 10*time.Second)
	if err != nil {
		return nil, err
	}
	notifLog := logSvc.Logger().With(logx.String("comp", "notify"))
	adapters := []notify.Adapter{notify.NewConsoleAdapter(notifLog)}
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegramAdapter(notify.TelegramConfig{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.ChatID,
		}, notifLog)
		if err != nil {
			return nil, fmt.Errorf("telegram adapter: %w", err)
		}
		adapters = append(adapters, tg)
	}
	notif := notify.New(notify.Config{
		Workers:       cfg.Notify.Workers,
		QueueSize:     cfg.Notify.QueueSize,
		RatePerSec:    cfg.Notify.RatePerSec,
		RetryMax:      cfg.Notify.RetryMax,
		RetryBase:     retryBase,
		RetryMaxDelay: retryMaxDelay,
	}, notifLog, adapters...)

	reg := prometheus.NewRegistry()
	metrics := server.NewCollector(reg)

	sched := scheduler.New(
		storeBridge{db: db},
		meteredSink{sink: notif, metrics: metrics},
		logSvc.Logger().With(logx.String("comp", "scheduler")),
	)

	sessionTTL, err := config.Duration(cfg.Auth.SessionTTL, 720*time.Hour)
	if err != nil {
		return nil, err
	}
	authSvc := auth.New(db, sessionTTL, logSvc.Logger().With(logx.String("comp", "auth")))

	readTimeout, err := config.Duration(cfg.Server.ReadTimeout, 15*time.Second)
	if err != nil {
		return nil, err
	}
	writeTimeout, err := config.Duration(cfg.Server.WriteTimeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	srv := server.New(server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}, server.Deps{
		Auth:     authSvc,
		DB:       db,
		Bot:      chat.New(logSvc.Logger().With(logx.String("comp", "chat"))),
		Notify:   notif,
		Sched:    sched,
		Metrics:  metrics,
		Gatherer: reg,
	}, logSvc.Logger().With(logx.String("comp", "http")))

	maint := maintenance.New(maintenance.Config{
		Enabled:  cfg.Maintenance.Enabled,
		Spec:     cfg.Maintenance.Spec,
		Timezone: cfg.Scheduler.Timezone,
	}, db, logSvc.Logger().With(logx.String("comp", "maintenance")))

	// Logging follows config reloads; everything else keeps its boot config.
	cfgm.OnChange(func(c *config.Config) {
		logSvc.Apply(logx.Config{
			Level:   c.Logging.Level,
			Console: c.Logging.Console,
			File: logx.FileConfig{
				Enabled: c.Logging.File.Enabled,
				Path:    c.Logging.File.Path,
			},
		})
	})

	return &App{
		cfgm:   cfgm,
		logSvc: logSvc,
		log:    log,
		db:     db,
		notif:  notif,
		sched:  sched,
		srv:    srv,
		maint:  maint,
		errCh:  make(chan error, 1),
	}, nil
}

// Start brings all services up and re-arms every active reminder.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.notif.Start(runCtx)

	if err := a.armAll(runCtx); err != nil {
		a.log.Warn("boot scheduling incomplete", logx.Err(err))
	}

	a.maint.Start()

	go func() {
		if err := a.cfgm.Watch(runCtx); err != nil {
			a.log.Warn("config watcher stopped", logx.Err(err))
		}
	}()

	go func() {
		if err := a.srv.Start(); err != nil {
			a.log.Error("http server failed", logx.Err(err))
			select {
			case a.errCh <- err:
			default:
			}
		}
	}()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("started", logx.Int("armed", a.sched.Armed()))
	return nil
}

// Err reports a fatal server failure, if any.
func (a *App) Err() <-chan error { return a.errCh }

// armAll rebuilds timers for every user with at least one active reminder.
func (a *App) armAll(ctx context.Context) error {
	userIDs, err := a.db.ActiveReminderUserIDs(ctx)
	if err != nil {
		return err
	}
	var firstErr error
	for _, uid := range userIDs {
		if err := a.sched.ScheduleForUser(ctx, uid); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stop shuts everything down in reverse dependency order.
func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	if a.cancel != nil {
		a.cancel()
	}

	if err := a.srv.Stop(ctx); err != nil {
		a.log.Warn("http shutdown", logx.Err(err))
	}
	a.maint.Stop(ctx)
	a.sched.Shutdown()
	a.notif.Stop(ctx)

	if err := a.db.Close(); err != nil {
		a.log.Warn("storage close", logx.Err(err))
	}
	a.log.Info("stopped")
	return a.logSvc.Close()
}
