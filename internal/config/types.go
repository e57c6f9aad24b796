package config

// Config is the top-level application configuration. Files may be YAML or
// JSON; both go through a strict decoder so unknown keys are caught early.
type Config struct {
	Logging     LoggingConfig     `json:"logging"`
	Storage     StorageConfig     `json:"storage"`
	Server      ServerConfig      `json:"server"`
	Notify      NotifyConfig      `json:"notify"`
	Telegram    TelegramConfig    `json:"telegram,omitempty"`
	Scheduler   SchedulerConfig   `json:"scheduler,omitempty"`
	Auth        AuthConfig        `json:"auth,omitempty"`
	Maintenance MaintenanceConfig `json:"maintenance,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type StorageConfig struct {
	Path string `json:"path"`
	// BusyTimeout is a Go duration string (e.g. "5s").
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type ServerConfig struct {
	Addr string `json:"addr"` // default: "127.0.0.1:8686"
	// ReadTimeout/WriteTimeout are Go duration strings.
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
}

// NotifyConfig controls the async reminder delivery pipeline.
// All durations are Go duration strings (e.g. "500ms", "10s").
type NotifyConfig struct {
	Workers       int    `json:"workers,omitempty"`
	QueueSize     int    `json:"queue_size,omitempty"`
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
}

// TelegramConfig enables the optional Telegram delivery adapter.
type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	ChatID  int64  `json:"chat_id,omitempty"`
}

type SchedulerConfig struct {
	// Timezone is an IANA name, e.g. "Asia/Jakarta". Empty means local.
	Timezone string `json:"timezone,omitempty"`
}

type AuthConfig struct {
	// SessionTTL is a Go duration string; default "720h" (30 days).
	SessionTTL string `json:"session_ttl,omitempty"`
}

type MaintenanceConfig struct {
	Enabled bool `json:"enabled"`
	// Spec is a cron expression for the daily housekeeping run.
	// Default: "30 3 * * *".
	Spec string `json:"spec,omitempty"`
}
