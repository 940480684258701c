package sse

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nonFlusher struct {
	http.ResponseWriter
}

func TestWriter(t *testing.T) {
	t.Run("sets headers and frames events", func(t *testing.T) {
		rec := httptest.NewRecorder()
		w, err := NewWriter(rec)
		require.NoError(t, err)

		require.NoError(t, w.Send("delta", map[string]string{"text": "hey"}))
		require.NoError(t, w.Ping())
		require.NoError(t, w.Send("done", map[string]int{"messageCount": 1}))

		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
		assert.True(t, rec.Flushed)
		assert.Equal(t,
			"event: delta\ndata: {\"text\":\"hey\"}\n\n: ping\n\nevent: done\ndata: {\"messageCount\":1}\n\n",
			rec.Body.String())
	})

	t.Run("requires a flusher", func(t *testing.T) {
		_, err := NewWriter(nonFlusher{httptest.NewRecorder()})
		assert.True(t, errors.Is(err, ErrStreamingUnsupported))
	})
}

func TestEvents(t *testing.T) {
	t.Run("round trips writer output", func(t *testing.T) {
		rec := httptest.NewRecorder()
		w, err := NewWriter(rec)
		require.NoError(t, err)
		require.NoError(t, w.Send("delta", map[string]string{"text": "a"}))
		require.NoError(t, w.Ping())
		require.NoError(t, w.Send("delta", map[string]string{"text": "b"}))

		var got []Event
		for ev, err := range Events(rec.Body) {
			require.NoError(t, err)
			got = append(got, ev)
		}
		require.Len(t, got, 2)
		assert.Equal(t, "delta", got[0].Type)
		assert.JSONEq(t, `{"text":"a"}`, string(got[0].Data))
		assert.JSONEq(t, `{"text":"b"}`, string(got[1].Data))
	})

	t.Run("joins multi-line data and defaults the type", func(t *testing.T) {
		var got []Event
		for ev, err := range Events(strings.NewReader("data: one\ndata: two\n\n")) {
			require.NoError(t, err)
			got = append(got, ev)
		}
		require.Len(t, got, 1)
		assert.Equal(t, "message", got[0].Type)
		assert.Equal(t, "one\ntwo", string(got[0].Data))
	})

	t.Run("stops when the consumer stops", func(t *testing.T) {
		n := 0
		for range Events(strings.NewReader("data: 1\n\ndata: 2\n\ndata: 3\n\n")) {
			n++
			break
		}
		assert.Equal(t, 1, n)
	})
}
