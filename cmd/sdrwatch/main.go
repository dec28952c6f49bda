package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"sdrwatch/internal/config"
	"sdrwatch/internal/health"
	"sdrwatch/internal/logscan"
	"sdrwatch/internal/metrics"
	"sdrwatch/internal/monitor"
	"sdrwatch/internal/notify"
	"sdrwatch/internal/procscan"
	"sdrwatch/internal/recordings"
	"sdrwatch/internal/statusapi"
	"sdrwatch/pkg/bus"
	"sdrwatch/pkg/telemetry"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sdrwatch",
		Short:         "Health monitor for a local SDRTrunk installation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newRunCommand())
	return cmd
}

func newRunCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the monitoring loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath(), "Path to the agent configuration file")
	return cmd
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, middleware, logger, err := telemetry.Init(ctx, "sdrwatch")
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "sdrwatch: telemetry shutdown error: %v\n", err)
		}
	}()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	session := monitor.NewSession(time.Now())

	probe := procscan.New(cfg.Process.RuntimeNames, cfg.Process.Keywords, logger)
	scanner := logscan.New(cfg.ErrorKeywords, cfg.IgnoreKeywords, logger)
	sweeper := recordings.New(cfg.RecordingsDir(), cfg.MaxAudioAge(), cfg.QualityThreshold(), logger)
	alerts := notify.NewTelegram(cfg.Telegram.Enabled, cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.DisplayName, "")
	heartbeat := notify.NewHeartbeat(cfg.HeartbeatURL)

	evaluator := &health.Evaluator{
		Probe:        probe,
		Scanner:      scanner,
		Alerts:       alerts,
		LogPath:      cfg.LogFile(),
		MaxAudioAge:  cfg.MaxAudioAge(),
		MonitorAudio: cfg.MonitorAudio,
		Logger:       logger,
		Metrics:      m,
	}

	mon := &monitor.Monitor{
		Interval:     cfg.CheckInterval(),
		MonitorAudio: cfg.MonitorAudio,
		Sweeper:      sweeper,
		Evaluator:    evaluator,
		Heartbeat:    heartbeat,
		Subject:      cfg.NATS.Subject,
		Username:     resolveUsername(),
		Hostname:     resolveHostname(),
		Logger:       logger,
		Metrics:      m,
		Session:      session,
	}

	if cfg.NATS.URL != "" {
		events, err := bus.Connect(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect event bus: %w", err)
		}
		defer events.Close()
		mon.Publisher = events
	}

	logger.Printf("INFO starting sdrwatch for user %s", mon.Username)
	logger.Printf("INFO log file: %s", cfg.LogFile())
	logger.Printf("INFO recordings: %s", cfg.RecordingsDir())

	errCh := make(chan error, 1)
	server := statusapi.New(cfg.Listen, session, registry, middleware, logger)
	go func() {
		if err := server.Run(ctx); err != nil {
			errCh <- fmt.Errorf("status server: %w", err)
		}
	}()

	if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("SDRWATCH_CONFIG"); v != "" {
		return v
	}
	return config.DefaultPath
}

// resolveUsername mirrors the identity reported in the heartbeat:
// environment first, then the OS account database.
func resolveUsername() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

func resolveHostname() string {
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "unknown"
}
