package service

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cove/agent-demo/internal/database"
	"github.com/cove/agent-demo/internal/llm"
	"github.com/cove/agent-demo/internal/model"
	"github.com/cove/agent-demo/internal/repository"
	"github.com/cove/agent-demo/internal/scraper"
)

// recordingCompleter answers every turn with "reply N" and remembers how
// much history each call saw.
type recordingCompleter struct {
	mu       sync.Mutex
	seen     []int
	failNext bool
}

func (c *recordingCompleter) Complete(ctx context.Context, system string, turns []llm.Turn) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failNext {
		c.failNext = false
		return "", fmt.Errorf("provider unavailable")
	}
	c.seen = append(c.seen, len(turns))
	return fmt.Sprintf("reply %d", len(c.seen)), nil
}

func (c *recordingCompleter) Stream(ctx context.Context, system string, turns []llm.Turn) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		reply, err := c.Complete(ctx, system, turns)
		yield(reply, err)
	}
}

type staticScraper struct{}

func (staticScraper) Scrape(ctx context.Context, url string) (*scraper.Result, error) {
	return &scraper.Result{CompanyName: "Acme", Content: "Acme sells anvils."}, nil
}

func newSQLiteService(t *testing.T) (*DemoService, *recordingCompleter, repository.MessageRepository) {
	t.Helper()

	db, err := database.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	completer := &recordingCompleter{}
	messages := repository.NewMessageRepository(db.DB)
	svc := NewDemoService(db, repository.NewSessionRepository(db.DB), messages,
		staticScraper{}, completer, NewLocalTurnLocker(5*time.Second))
	return svc, completer, messages
}

func startSession(t *testing.T, svc *DemoService) string {
	t.Helper()
	res, err := svc.CreateSession(context.Background(), CreateSessionParams{
		Website: "acme.com", Email: "jane@acme.com", AgentType: "support",
	})
	require.NoError(t, err)
	return res.SessionID
}

func TestConversation(t *testing.T) {
	ctx := context.Background()

	t.Run("history grows by two per exchange and the count is monotonic", func(t *testing.T) {
		svc, completer, messages := newSQLiteService(t)
		sessionID := startSession(t, svc)

		for n := 1; n <= 7; n++ {
			res, err := svc.HandleTurn(ctx, sessionID, fmt.Sprintf("message %d", n))
			require.NoError(t, err)
			assert.Equal(t, n, res.MessageCount)
			assert.Equal(t, fmt.Sprintf("reply %d", n), res.Reply)
		}

		for i, size := range completer.seen {
			n := i + 1
			assert.Equal(t, 2*(n-1)+1, size, "turn %d", n)
		}

		msgs, err := messages.ListBySessionID(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, msgs, 14)
		for i, m := range msgs {
			want := model.RoleUser
			if i%2 == 1 {
				want = model.RoleAssistant
			}
			assert.Equal(t, want, m.Role)
			assert.Equal(t, i+1, m.Seq)
		}

		session, err := svc.GetSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 7, session.MessageCount)
		assert.Equal(t, "Acme", session.CompanyName)
	})

	t.Run("a failed completion leaves the user message and the next turn sends it", func(t *testing.T) {
		svc, completer, messages := newSQLiteService(t)
		sessionID := startSession(t, svc)

		completer.failNext = true
		_, err := svc.HandleTurn(ctx, sessionID, "first")
		require.Error(t, err)

		res, err := svc.HandleTurn(ctx, sessionID, "second")
		require.NoError(t, err)
		assert.Equal(t, 1, res.MessageCount)
		assert.Equal(t, []int{2}, completer.seen)

		msgs, err := messages.ListBySessionID(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, model.RoleUser, msgs[0].Role)
		assert.Equal(t, model.RoleUser, msgs[1].Role)
		assert.Equal(t, model.RoleAssistant, msgs[2].Role)
	})

	t.Run("concurrent turns on one session are serialized", func(t *testing.T) {
		svc, completer, _ := newSQLiteService(t)
		sessionID := startSession(t, svc)

		const turns = 5
		counts := make(chan int, turns)
		var wg sync.WaitGroup
		for i := range turns {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := svc.HandleTurn(ctx, sessionID, fmt.Sprintf("msg %d", i))
				if assert.NoError(t, err) {
					counts <- res.MessageCount
				}
			}()
		}
		wg.Wait()
		close(counts)

		seen := map[int]bool{}
		for c := range counts {
			seen[c] = true
		}
		assert.Len(t, seen, turns)

		session, err := svc.GetSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, turns, session.MessageCount)

		for i, size := range completer.seen {
			assert.Equal(t, 2*i+1, size)
		}
	})

	t.Run("stream turns are counted like plain turns", func(t *testing.T) {
		svc, _, _ := newSQLiteService(t)
		sessionID := startSession(t, svc)

		var streamed string
		res, err := svc.StreamTurn(ctx, sessionID, "hi", nil, func(f string) error {
			streamed += f
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "reply 1", streamed)
		assert.Equal(t, 1, res.MessageCount)
	})

	t.Run("booking flag persists", func(t *testing.T) {
		svc, _, _ := newSQLiteService(t)
		sessionID := startSession(t, svc)

		require.NoError(t, svc.MarkBookingShown(ctx, sessionID))
		require.NoError(t, svc.MarkBookingShown(ctx, sessionID))

		session, err := svc.GetSession(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, session.BookingShown)
	})
}
