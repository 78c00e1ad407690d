package config

import "errors"

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	if c.MaxClients < 0 {
		return errors.New("max_clients must not be negative")
	}
	if c.WSIdleTimeout <= 0 {
		return errors.New("ws_idle_timeout must be positive")
	}
	if c.WSPingInterval <= 0 {
		return errors.New("ws_ping_interval must be positive")
	}
	if c.WSPingInterval >= c.WSIdleTimeout {
		return errors.New("ws_ping_interval must be shorter than ws_idle_timeout")
	}
	if c.MaxMessageBytes <= 0 {
		return errors.New("max_message_bytes must be positive")
	}
	if c.MaxMessagesPerSecond <= 0 {
		return errors.New("max_messages_per_second must be positive")
	}
	if c.SendQueueSize <= 0 {
		return errors.New("send_queue_size must be positive")
	}
	return nil
}
