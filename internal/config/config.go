package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the agent looks for its configuration unless
// overridden by --config or SDRWATCH_CONFIG.
const DefaultPath = "sdrwatch.yaml"

// Default returns the documented default configuration. The keyword lists
// and thresholds match the stock SDRTrunk deployment this agent was
// written for.
func Default() Config {
	base := "SDRTrunk"
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, "SDRTrunk")
	}

	return Config{
		HeartbeatURL: "https://your-heartbeat-endpoint.com/heartbeat",
		ErrorKeywords: []string{
			"ERROR", "CRITICAL", "FAILED", "EXCEPTION", "TIMEOUT",
			"Connection refused", "Network error", "Audio error",
		},
		IgnoreKeywords:               []string{},
		CheckIntervalSeconds:         60,
		AudioQualityThresholdSeconds: 5.0,
		MaxAudioAgeHours:             4,
		MonitorAudio:                 true,
		Process: ProcessConfig{
			RuntimeNames: []string{"java", "java.exe", "javaw.exe"},
			Keywords: []string{
				"sdrtrunk",
				"sdr trunk",
				"sdr-trunk",
				"sdrtrunk.jar",
				"sdrtrunk-",
				"trunking",
			},
		},
		Paths: PathsConfig{
			Base: base,
		},
		Telegram: TelegramConfig{
			Enabled:     false,
			BotToken:    "your_telegram_bot_token_here",
			ChatID:      "your_telegram_channel_id_here",
			DisplayName: "SDRTrunk-Monitor",
		},
		Listen: ":9180",
		NATS: NATSConfig{
			Subject: "sdrwatch.cycles",
		},
	}
}

// Load reads the configuration from path. A missing file is not an
// error: the default configuration is synthesized, persisted to path,
// and returned, so a second Load reads back the identical structure.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			return Config{}, fmt.Errorf("write default config: %w", err)
		}
		applyEnvOverrides(&cfg)
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the fields the monitor cannot run without.
func (c Config) Validate() error {
	if c.CheckIntervalSeconds <= 0 {
		return fmt.Errorf("check_interval_seconds must be positive, got %d", c.CheckIntervalSeconds)
	}
	if c.AudioQualityThresholdSeconds < 0 {
		return fmt.Errorf("audio_quality_threshold_seconds must not be negative, got %v", c.AudioQualityThresholdSeconds)
	}
	if c.MaxAudioAgeHours <= 0 {
		return fmt.Errorf("max_audio_age_hours must be positive, got %d", c.MaxAudioAgeHours)
	}
	if strings.TrimSpace(c.HeartbeatURL) == "" {
		return errors.New("heartbeat_url is required")
	}
	if _, err := url.ParseRequestURI(c.HeartbeatURL); err != nil {
		return fmt.Errorf("invalid heartbeat_url: %w", err)
	}
	if len(c.Process.RuntimeNames) == 0 {
		return errors.New("process.runtime_names must not be empty")
	}
	if len(c.Process.Keywords) == 0 {
		return errors.New("process.keywords must not be empty")
	}
	if c.Telegram.Enabled {
		if strings.TrimSpace(c.Telegram.BotToken) == "" {
			return errors.New("telegram.bot_token is required when telegram is enabled")
		}
		if strings.TrimSpace(c.Telegram.ChatID) == "" {
			return errors.New("telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SDRWATCH_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("SDRWATCH_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
}
