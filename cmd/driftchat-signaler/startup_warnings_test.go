package main

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/driftchat/signaler/internal/config"
)

// recordingHandler captures emitted records so tests can assert on warnings.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func newRecordingLogger() (*slog.Logger, func() []slog.Record) {
	h := &recordingHandler{}
	snapshot := func() []slog.Record {
		h.mu.Lock()
		defer h.mu.Unlock()
		return append([]slog.Record(nil), h.records...)
	}
	return slog.New(h), snapshot
}

func warningCodes(records []slog.Record) []string {
	var codes []string
	for _, r := range records {
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "warning_code" {
				codes = append(codes, a.Value.String())
			}
			return true
		})
	}
	return codes
}

func TestLogStartupWarnings(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		wantCodes []string
	}{
		{
			name: "quiet dev config",
			cfg: config.Config{
				Mode:            config.ModeDev,
				MaxMessageBytes: 64 * 1024,
			},
			wantCodes: nil,
		},
		{
			name: "wildcard origins",
			cfg: config.Config{
				Mode:            config.ModeDev,
				AllowedOrigins:  []string{"*"},
				MaxMessageBytes: 64 * 1024,
			},
			wantCodes: []string{"allowed_origins_wildcard"},
		},
		{
			name: "unlimited clients in prod",
			cfg: config.Config{
				Mode:            config.ModeProd,
				MaxMessageBytes: 64 * 1024,
			},
			wantCodes: []string{"max_clients_unlimited_in_prod"},
		},
		{
			name: "limited clients in prod is quiet",
			cfg: config.Config{
				Mode:            config.ModeProd,
				MaxClients:      1000,
				MaxMessageBytes: 64 * 1024,
			},
			wantCodes: nil,
		},
		{
			name: "oversized message cap",
			cfg: config.Config{
				Mode:            config.ModeDev,
				MaxMessageBytes: 8 * 1024 * 1024,
			},
			wantCodes: []string{"max_message_bytes_large"},
		},
		{
			name: "multiple warnings",
			cfg: config.Config{
				Mode:            config.ModeProd,
				AllowedOrigins:  []string{"https://a.example", "*"},
				MaxMessageBytes: 8 * 1024 * 1024,
			},
			wantCodes: []string{"allowed_origins_wildcard", "max_clients_unlimited_in_prod", "max_message_bytes_large"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, snapshot := newRecordingLogger()

			logStartupWarnings(logger, tt.cfg)

			got := warningCodes(snapshot())
			if len(got) != len(tt.wantCodes) {
				t.Fatalf("warning codes = %v, want %v", got, tt.wantCodes)
			}
			for i := range got {
				if got[i] != tt.wantCodes[i] {
					t.Fatalf("warning codes = %v, want %v", got, tt.wantCodes)
				}
			}
		})
	}
}
