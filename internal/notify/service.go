// Package notify is the async delivery pipeline for fired reminders:
// a bounded queue feeding a worker pool, with rate limiting and
// retry backoff around each adapter call.
package notify

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	logx "mindwell/pkg/logx"
)

var (
	ErrQueueFull = errors.New("notify: queue full")
	ErrStopped   = errors.New("notify: stopped")
)

const historyCap = 300

// Service fans deliveries out to all configured adapters. It is safe
// for concurrent use and implements the scheduler's delivery sink.
type Service struct {
	log      logx.Logger
	adapters []Adapter

	mu        sync.Mutex
	cfg       Config
	limiter   *rate.Limiter
	queue     chan Notification
	accepting bool
	sendWG    sync.WaitGroup
	workerWG  sync.WaitGroup

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, log logx.Logger, adapters ...Adapter) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{log: log, adapters: adapters}
	s.applyLocked(cfg)
	return s
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 10 * time.Second
	}
	s.cfg = cfg
	// Burst equals the per-second rate so short spikes don't stall workers.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Start spins up the worker pool. Idempotent.
func (s *Service) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.queue != nil {
		s.mu.Unlock()
		return
	}
	s.queue = make(chan Notification, s.cfg.QueueSize)
	s.accepting = true
	workers := s.cfg.Workers
	q := s.queue
	s.mu.Unlock()

	for i := 0; i < workers; i++ {
		s.workerWG.Add(1)
		go func() {
			defer s.workerWG.Done()
			s.workerLoop(ctx, q)
		}()
	}
	s.log.Debug("notify workers started", logx.Int("workers", workers))
}

// Stop blocks intake, drains the queue and waits for workers, or
// returns early when ctx expires.
func (s *Service) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	q := s.queue
	if q == nil || !s.accepting {
		s.mu.Unlock()
		return
	}
	s.accepting = false
	s.mu.Unlock()

	// In-flight enqueues must finish before the queue is closed.
	s.sendWG.Wait()
	close(q)

	done := make(chan struct{})
	go func() {
		s.workerWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Debug("notify drained")
	case <-ctx.Done():
		s.log.Warn("notify stop timed out", logx.Err(ctx.Err()))
	}
}

// Deliver satisfies the scheduler's sink: it enqueues and returns
// without waiting for the send.
func (s *Service) Deliver(ctx context.Context, id int64, title, message string) error {
	return s.Enqueue(ctx, Notification{ReminderID: id, Title: title, Message: message})
}

func (s *Service) Enqueue(ctx context.Context, n Notification) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	s.mu.Lock()
	if !s.accepting || s.queue == nil {
		s.mu.Unlock()
		return ErrStopped
	}
	q := s.queue
	s.sendWG.Add(1)
	s.mu.Unlock()
	defer s.sendWG.Done()

	select {
	case q <- n:
		return nil
	default:
		s.log.Warn("notification dropped", logx.Int64("reminder_id", n.ReminderID))
		return ErrQueueFull
	}
}

// Snapshot copies the recent delivery history, newest last.
func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

func (s *Service) appendHistory(item HistoryItem) {
	s.hmu.Lock()
	s.history = append(s.history, item)
	if len(s.history) > historyCap {
		s.history = s.history[len(s.history)-historyCap:]
	}
	s.hmu.Unlock()
}

func (s *Service) workerLoop(ctx context.Context, q <-chan Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-q:
			if !ok {
				return
			}
			s.sendWithRetry(ctx, n)
		}
	}
}

func (s *Service) sendWithRetry(ctx context.Context, n Notification) {
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	maxAttempts := 1 + cfg.RetryMax

	for _, ad := range s.adapters {
		var lastErr error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			if err := lim.Wait(ctx); err != nil {
				return
			}

			callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := ad.SendText(callCtx, n)
			cancel()
			if err == nil {
				lastErr = nil
				s.appendHistory(HistoryItem{
					At:         time.Now(),
					ReminderID: n.ReminderID,
					Title:      n.Title,
					Adapter:    ad.Name(),
				})
				break
			}
			lastErr = err
			s.log.Debug("delivery attempt failed",
				logx.String("adapter", ad.Name()),
				logx.Int64("reminder_id", n.ReminderID),
				logx.Int("attempt", attempt),
				logx.Err(err))

			if attempt >= maxAttempts {
				break
			}
			t := time.NewTimer(retryDelay(cfg, attempt))
			select {
			case <-t.C:
			case <-ctx.Done():
				if !t.Stop() {
					<-t.C
				}
				return
			}
		}
		if lastErr != nil {
			s.log.Error("delivery failed",
				logx.String("adapter", ad.Name()),
				logx.Int64("reminder_id", n.ReminderID),
				logx.Err(lastErr))
		}
	}
}

// retryDelay is exponential backoff with jitter, capped at RetryMaxDelay.
func retryDelay(cfg Config, attempt int) time.Duration {
	d := cfg.RetryBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cfg.RetryMaxDelay {
			d = cfg.RetryMaxDelay
			break
		}
	}
	j := 0.7 + rand.Float64()*0.6
	d = time.Duration(float64(d) * j)
	if d > cfg.RetryMaxDelay {
		d = cfg.RetryMaxDelay
	}
	if d < 0 {
		return 0
	}
	return d
}
