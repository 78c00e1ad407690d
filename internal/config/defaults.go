package config

import (
	"io"
	"os"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultListenAddr      = "127.0.0.1:3001"
	DefaultShutdownTimeout = 15 * time.Second

	DefaultWSIdleTimeout        = 60 * time.Second
	DefaultWSPingInterval       = 20 * time.Second
	DefaultMaxMessageBytes      = int64(64 * 1024)
	DefaultMaxMessagesPerSecond = 50
	DefaultSendQueueSize        = 64
)

// logWriter is swapped out in tests to capture logger output.
var logWriter io.Writer = os.Stdout

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("mode", string(ModeDev))
	v.SetDefault("log_format", "")
	v.SetDefault("log_level", "")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("shutdown_timeout", DefaultShutdownTimeout)

	v.SetDefault("max_clients", 0)

	v.SetDefault("ws_idle_timeout", DefaultWSIdleTimeout)
	v.SetDefault("ws_ping_interval", DefaultWSPingInterval)
	v.SetDefault("max_message_bytes", DefaultMaxMessageBytes)
	v.SetDefault("max_messages_per_second", DefaultMaxMessagesPerSecond)
	v.SetDefault("send_queue_size", DefaultSendQueueSize)
}
