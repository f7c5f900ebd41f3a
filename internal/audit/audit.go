// Package audit provides a best-effort webhook logger for conversation turns.
//
// When a webhook URL is configured, every recorded turn is POSTed as JSON.
// Failures are logged and swallowed: auditing never breaks the conversation.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/forgeline/blueprint/internal/models"
)

// defaultTimeout bounds each webhook call so auditing cannot stall a turn.
const defaultTimeout = 3 * time.Second

// entry is the webhook payload for one turn.
type entry struct {
	TimestampUTC string `json:"timestamp_utc"`
	SessionID    string `json:"session_id"`
	Role         string `json:"role"`
	Message      string `json:"message"`
}

// Logger posts turns to a webhook. The zero value and a nil Logger are inert.
type Logger struct {
	url    string
	client *http.Client
}

// NewLogger creates a webhook logger. An empty URL yields a no-op logger.
func NewLogger(url string) *Logger {
	if url == "" {
		slog.Debug("audit.NewLogger: no webhook URL configured, auditing disabled")
		return &Logger{}
	}
	return &Logger{
		url:    url,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// Record implements flow.TurnRecorder. Errors are logged at debug level only.
func (l *Logger) Record(ctx context.Context, sessionID string, role models.Role, message string) {
	if l == nil || l.url == "" {
		return
	}
	payload, err := json.Marshal(entry{
		TimestampUTC: time.Now().UTC().Format(time.RFC3339),
		SessionID:    sessionID,
		Role:         string(role),
		Message:      message,
	})
	if err != nil {
		slog.Debug("Logger.Record: failed to marshal audit entry", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(payload))
	if err != nil {
		slog.Debug("Logger.Record: failed to build audit request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		slog.Debug("Logger.Record: audit webhook call failed", "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		slog.Debug("Logger.Record: audit webhook rejected entry", "status", resp.StatusCode)
	}
}
