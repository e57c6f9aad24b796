package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the process metrics exposed on /metrics.
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpLatency    prometheus.Histogram
	remindersArmed prometheus.Gauge
	remindersFired prometheus.Counter
	deliveryErrors prometheus.Counter
	crisisReplies  prometheus.Counter
	logins         prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mindwell_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mindwell_http_request_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		remindersArmed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mindwell_reminders_armed",
			Help: "Reminder timers currently armed.",
		}),
		remindersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mindwell_reminders_fired_total",
			Help: "Reminder occurrences handed to the delivery pipeline.",
		}),
		deliveryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mindwell_deliveries_failed_total",
			Help: "Reminder deliveries rejected by the pipeline.",
		}),
		crisisReplies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mindwell_chat_crisis_replies_total",
			Help: "Chat replies that triggered crisis resources.",
		}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mindwell_logins_total",
			Help: "Successful logins.",
		}),
	}
	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.remindersArmed,
		c.remindersFired,
		c.deliveryErrors,
		c.crisisReplies,
		c.logins,
	)
	return c
}

func (c *Collector) recordRequest(method string, code int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	c.httpLatency.Observe(elapsed.Seconds())
}

// SetRemindersArmed publishes the current armed-timer count.
func (c *Collector) SetRemindersArmed(n int) {
	c.remindersArmed.Set(float64(n))
}

// ReminderFired counts an occurrence handed to the delivery pipeline.
func (c *Collector) ReminderFired() { c.remindersFired.Inc() }

// DeliveryFailed counts a delivery the pipeline refused to accept.
func (c *Collector) DeliveryFailed() { c.deliveryErrors.Inc() }

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
