package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, ModeDev, cfg.Mode)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, 0, cfg.MaxClients)
	assert.Equal(t, DefaultWSIdleTimeout, cfg.WSIdleTimeout)
	assert.Equal(t, DefaultWSPingInterval, cfg.WSPingInterval)
	assert.Equal(t, DefaultMaxMessageBytes, cfg.MaxMessageBytes)
	assert.Equal(t, DefaultMaxMessagesPerSecond, cfg.MaxMessagesPerSecond)
	assert.Equal(t, DefaultSendQueueSize, cfg.SendQueueSize)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DRIFTCHAT_LISTEN_ADDR", "0.0.0.0:8080")
	t.Setenv("DRIFTCHAT_MODE", "prod")
	t.Setenv("DRIFTCHAT_ALLOWED_ORIGINS", "https://chat.example.com, https://staging.example.com")
	t.Setenv("DRIFTCHAT_MAX_CLIENTS", "500")
	t.Setenv("DRIFTCHAT_WS_IDLE_TIMEOUT", "2m")
	t.Setenv("DRIFTCHAT_WS_PING_INTERVAL", "30s")
	t.Setenv("DRIFTCHAT_MAX_MESSAGES_PER_SECOND", "20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr)
	assert.Equal(t, ModeProd, cfg.Mode)
	assert.Equal(t, []string{"https://chat.example.com", "https://staging.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 500, cfg.MaxClients)
	assert.Equal(t, 2*time.Minute, cfg.WSIdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.WSPingInterval)
	assert.Equal(t, 20, cfg.MaxMessagesPerSecond)
}

func TestLoadModeDrivenLogDefaults(t *testing.T) {
	t.Setenv("DRIFTCHAT_MODE", "prod")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)

	// Explicit settings beat the mode-derived defaults.
	t.Setenv("DRIFTCHAT_LOG_FORMAT", "text")
	t.Setenv("DRIFTCHAT_LOG_LEVEL", "warn")

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad mode", "DRIFTCHAT_MODE", "staging"},
		{"bad log format", "DRIFTCHAT_LOG_FORMAT", "xml"},
		{"bad log level", "DRIFTCHAT_LOG_LEVEL", "verbose"},
		{"empty listen addr", "DRIFTCHAT_LISTEN_ADDR", " "},
		{"negative max clients", "DRIFTCHAT_MAX_CLIENTS", "-1"},
		{"zero idle timeout", "DRIFTCHAT_WS_IDLE_TIMEOUT", "0"},
		{"ping not shorter than idle", "DRIFTCHAT_WS_PING_INTERVAL", "60s"},
		{"zero message budget", "DRIFTCHAT_MAX_MESSAGES_PER_SECOND", "0"},
		{"zero send queue", "DRIFTCHAT_SEND_QUEUE_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSplitOrigins(t *testing.T) {
	assert.Nil(t, splitOrigins(""))
	assert.Equal(t, []string{"*"}, splitOrigins("*"))
	assert.Equal(t,
		[]string{"https://a.example", "https://b.example"},
		splitOrigins(" https://a.example ,, https://b.example "),
	)
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	orig := logWriter
	logWriter = &buf
	t.Cleanup(func() { logWriter = orig })

	jsonLogger, err := NewLogger(Config{LogFormat: LogFormatJSON, LogLevel: slog.LevelInfo})
	require.NoError(t, err)
	jsonLogger.Info("hello", "k", "v")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	textLogger, err := NewLogger(Config{LogFormat: LogFormatText, LogLevel: slog.LevelWarn})
	require.NoError(t, err)
	textLogger.Info("suppressed below level")
	assert.Empty(t, buf.String())
	textLogger.Warn("visible")
	assert.Contains(t, buf.String(), "msg=visible")

	_, err = NewLogger(Config{LogFormat: "xml"})
	assert.Error(t, err)
}
