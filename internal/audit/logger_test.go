package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestLog(t *testing.T) {
	buf := captureLog(t)

	Log(context.Background(), Event{
		Type:      EventLeadCaptured,
		SessionID: "s-1",
		EmailHash: "abc",
		Details:   map[string]any{"agent_type": "support", "scraped": true, "chars": 42},
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "lead", entry["audit"])
	assert.Equal(t, "lead_captured", entry["event_type"])
	assert.Equal(t, "s-1", entry["session_id"])
	assert.Equal(t, "abc", entry["email_hash"])
	assert.Equal(t, "support", entry["agent_type"])
	assert.Equal(t, true, entry["scraped"])
	assert.Equal(t, float64(42), entry["chars"])
	assert.NotContains(t, entry, "ip")
}

func TestLogFromRequest(t *testing.T) {
	buf := captureLog(t)

	req := httptest.NewRequest("POST", "/api/create-demo", nil)
	req.Header.Set("User-Agent", "demo-test")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	LogFromRequest(req, Event{Type: EventBookingShown, SessionID: "s-2"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "203.0.113.9", entry["ip"])
	assert.Equal(t, "demo-test", entry["user_agent"])
}
