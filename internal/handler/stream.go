package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cove/agent-demo/internal/sse"
)

// chatStream is an open event stream shared between the turn and a ticker
// that writes comment pings while the completer is quiet.
type chatStream struct {
	mu     sync.Mutex
	writer *sse.Writer
	stop   chan struct{}
	done   chan struct{}
}

func openChatStream(w http.ResponseWriter, interval time.Duration) (*chatStream, error) {
	sw, err := sse.NewWriter(w)
	if err != nil {
		return nil, err
	}

	cs := &chatStream{
		writer: sw,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go cs.keepAlive(interval)
	return cs, nil
}

func (cs *chatStream) keepAlive(interval time.Duration) {
	defer close(cs.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-cs.stop:
			return
		case <-ticker.C:
			cs.mu.Lock()
			err := cs.writer.Ping()
			cs.mu.Unlock()
			if err != nil {
				log.Debug().Err(err).Msg("chat stream ping failed")
				return
			}
		}
	}
}

func (cs *chatStream) send(eventType string, data any) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.writer.Send(eventType, data)
}

// close stops the ticker and waits for it, so nothing writes to the
// response after the handler returns.
func (cs *chatStream) close() {
	close(cs.stop)
	<-cs.done
}
