// Package server is the HTTP API: auth, reminders, mood/journal/CBT
// tracking, the support chatbot, CSV export and operational endpoints.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"mindwell/internal/auth"
	"mindwell/internal/chat"
	"mindwell/internal/notify"
	"mindwell/internal/scheduler"
	"mindwell/internal/storage"
	logx "mindwell/pkg/logx"
)

// ReminderScheduler is the slice of the scheduler the API needs:
// arm on create/update, cancel on delete, bulk-arm on login.
type ReminderScheduler interface {
	Schedule(def scheduler.Definition)
	CancelReminder(id int64)
	ScheduleForUser(ctx context.Context, userID int64) error
	Armed() int
}

type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Deps carries everything the handlers touch.
type Deps struct {
	Auth     *auth.Service
	DB       *storage.DB
	Bot      *chat.Bot
	Notify   *notify.Service
	Sched    ReminderScheduler
	Metrics  *Collector
	Gatherer prometheus.Gatherer
}

type Server struct {
	cfg  Config
	log  logx.Logger
	deps Deps
	http *http.Server
}

func New(cfg Config, deps Deps, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8686"
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	s := &Server{cfg: cfg, log: log, deps: deps}
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Router builds the full route tree. Exposed for httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	if s.deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", MetricsHandler(s.deps.Gatherer))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.With(s.requireSession).Get("/me", s.handleMe)
		r.With(s.requireSession).Post("/logout", s.handleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Route("/api/reminders", func(r chi.Router) {
			r.Get("/", s.handleListReminders)
			r.Post("/", s.handleCreateReminder)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetReminder)
				r.Put("/", s.handleUpdateReminder)
				r.Delete("/", s.handleDeleteReminder)
			})
		})

		r.Route("/api/moods", func(r chi.Router) {
			r.Get("/", s.handleListMoods)
			r.Post("/", s.handleCreateMood)
			r.Delete("/{id}", s.handleDeleteMood)
		})

		r.Route("/api/journal", func(r chi.Router) {
			r.Get("/", s.handleListJournal)
			r.Post("/", s.handleCreateJournal)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetJournal)
				r.Put("/", s.handleUpdateJournal)
				r.Delete("/", s.handleDeleteJournal)
			})
		})

		r.Route("/api/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleCreateGoal)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetGoal)
				r.Put("/progress", s.handleGoalProgress)
				r.Delete("/", s.handleDeleteGoal)
			})
		})

		r.Route("/api/thoughts", func(r chi.Router) {
			r.Get("/", s.handleListThoughts)
			r.Post("/", s.handleCreateThought)
			r.Delete("/{id}", s.handleDeleteThought)
		})

		r.Get("/api/dashboard", s.handleDashboard)

		r.Post("/api/chat", s.handleChat)

		r.Route("/api/export", func(r chi.Router) {
			r.Get("/moods.csv", s.handleExportMoods)
			r.Get("/journal.csv", s.handleExportJournal)
			r.Get("/thoughts.csv", s.handleExportThoughts)
		})

		r.Get("/api/status", s.handleStatus)
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info("http server listening", logx.String("addr", s.cfg.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(sctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	type statusResponse struct {
		Armed   int                  `json:"armed"`
		History []notify.HistoryItem `json:"recent_deliveries"`
	}
	resp := statusResponse{}
	if s.deps.Sched != nil {
		resp.Armed = s.deps.Sched.Armed()
		if s.deps.Metrics != nil {
			s.deps.Metrics.SetRemindersArmed(resp.Armed)
		}
	}
	if s.deps.Notify != nil {
		resp.History = s.deps.Notify.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}
