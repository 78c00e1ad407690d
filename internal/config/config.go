package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config is the fully resolved service configuration.
type Config struct {
	ListenAddr string
	Mode       Mode

	LogFormat LogFormat
	LogLevel  slog.Level

	// AllowedOrigins is the browser Origin allowlist. Empty means same-host
	// only; "*" allows any origin.
	AllowedOrigins []string

	ShutdownTimeout time.Duration

	// MaxClients caps concurrently connected clients. 0 means unlimited.
	MaxClients int

	// WebSocket connection hardening.
	WSIdleTimeout        time.Duration
	WSPingInterval       time.Duration
	MaxMessageBytes      int64
	MaxMessagesPerSecond int

	// SendQueueSize bounds each connection's outbound event queue so one slow
	// consumer cannot stall matchmaking for others.
	SendQueueSize int
}

// Load resolves configuration from DRIFTCHAT_* environment variables and an
// optional config file named by DRIFTCHAT_CONFIG_FILE.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DRIFTCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path := strings.TrimSpace(v.GetString("config_file")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	mode, err := parseMode(v.GetString("mode"))
	if err != nil {
		return Config{}, err
	}

	logFormatRaw := v.GetString("log_format")
	if logFormatRaw == "" {
		logFormatRaw = defaultLogFormatForMode(mode)
	}
	logFormat, err := parseLogFormat(logFormatRaw)
	if err != nil {
		return Config{}, err
	}

	logLevelRaw := v.GetString("log_level")
	if logLevelRaw == "" {
		logLevelRaw = defaultLogLevelForMode(mode)
	}
	logLevel, err := parseLogLevel(logLevelRaw)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr: strings.TrimSpace(v.GetString("listen_addr")),
		Mode:       mode,

		LogFormat: logFormat,
		LogLevel:  logLevel,

		AllowedOrigins: splitOrigins(v.GetString("allowed_origins")),

		ShutdownTimeout: v.GetDuration("shutdown_timeout"),

		MaxClients: v.GetInt("max_clients"),

		WSIdleTimeout:        v.GetDuration("ws_idle_timeout"),
		WSPingInterval:       v.GetDuration("ws_ping_interval"),
		MaxMessageBytes:      v.GetInt64("max_message_bytes"),
		MaxMessagesPerSecond: v.GetInt("max_messages_per_second"),

		SendQueueSize: v.GetInt("send_queue_size"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewLogger constructs the process logger per the configured format/level.
func NewLogger(cfg Config) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	switch cfg.LogFormat {
	case LogFormatText:
		handler = slog.NewTextHandler(logWriter, opts)
	case LogFormatJSON:
		handler = slog.NewJSONHandler(logWriter, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	return slog.New(handler), nil
}

func splitOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ModeDev), "development":
		return ModeDev, nil
	case string(ModeProd), "production":
		return ModeProd, nil
	default:
		return "", fmt.Errorf("invalid mode %q (expected dev or prod)", raw)
	}
}

func parseLogFormat(raw string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogFormatText):
		return LogFormatText, nil
	case string(LogFormatJSON):
		return LogFormatJSON, nil
	default:
		return "", fmt.Errorf("invalid log format %q (expected text or json)", raw)
	}
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (expected debug, info, warn, error)", raw)
	}
}

func defaultLogFormatForMode(mode Mode) string {
	if mode == ModeProd {
		return string(LogFormatJSON)
	}
	return string(LogFormatText)
}

func defaultLogLevelForMode(mode Mode) string {
	if mode == ModeProd {
		return "info"
	}
	return "debug"
}
