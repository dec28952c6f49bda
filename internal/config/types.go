package config

import (
	"path/filepath"
	"time"
)

// Config is the agent configuration stored on disk. It is loaded once at
// startup and treated as immutable for the lifetime of the process.
type Config struct {
	HeartbeatURL string `yaml:"heartbeat_url"`

	ErrorKeywords  []string `yaml:"error_keywords"`
	IgnoreKeywords []string `yaml:"ignore_keywords"`

	CheckIntervalSeconds         int     `yaml:"check_interval_seconds"`
	AudioQualityThresholdSeconds float64 `yaml:"audio_quality_threshold_seconds"`
	MaxAudioAgeHours             int     `yaml:"max_audio_age_hours"`
	MonitorAudio                 bool    `yaml:"monitor_audio"`

	Process  ProcessConfig  `yaml:"process"`
	Paths    PathsConfig    `yaml:"paths"`
	Telegram TelegramConfig `yaml:"telegram"`

	// Listen is the bind address for the local status/metrics server.
	Listen string `yaml:"listen"`

	NATS NATSConfig `yaml:"nats"`
}

// ProcessConfig identifies the monitored process among all running ones.
// RuntimeNames are compared against the executable name (equality,
// case-insensitive); Keywords are matched as plain substrings of the
// command line. Substring semantics are deliberate; these are not
// patterns.
type ProcessConfig struct {
	RuntimeNames []string `yaml:"runtime_names"`
	Keywords     []string `yaml:"keywords"`
}

// PathsConfig locates the monitored application's files. Empty LogFile or
// Recordings are resolved relative to Base.
type PathsConfig struct {
	Base       string `yaml:"base"`
	LogFile    string `yaml:"log_file"`
	Recordings string `yaml:"recordings"`
}

// TelegramConfig holds the alert channel settings.
type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BotToken    string `yaml:"bot_token"`
	ChatID      string `yaml:"chat_id"`
	DisplayName string `yaml:"display_name"`
}

// NATSConfig enables optional per-cycle event publishing when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// CheckInterval returns the cycle cadence as a duration.
func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// QualityThreshold returns the minimum clip duration that counts as a
// quality pass.
func (c Config) QualityThreshold() time.Duration {
	return time.Duration(c.AudioQualityThresholdSeconds * float64(time.Second))
}

// MaxAudioAge returns both the prune age for recordings and the longest
// tolerated gap without audio activity.
func (c Config) MaxAudioAge() time.Duration {
	return time.Duration(c.MaxAudioAgeHours) * time.Hour
}

// LogFile returns the application log path, resolved against Base when
// not set explicitly.
func (c Config) LogFile() string {
	if c.Paths.LogFile != "" {
		return c.Paths.LogFile
	}
	return filepath.Join(c.Paths.Base, "logs", "sdrtrunk_app.log")
}

// RecordingsDir returns the recordings directory, resolved against Base
// when not set explicitly.
func (c Config) RecordingsDir() string {
	if c.Paths.Recordings != "" {
		return c.Paths.Recordings
	}
	return filepath.Join(c.Paths.Base, "recordings")
}
