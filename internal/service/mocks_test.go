package service

import (
	"context"
	"iter"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/cove/agent-demo/internal/database"
	"github.com/cove/agent-demo/internal/llm"
	"github.com/cove/agent-demo/internal/model"
	"github.com/cove/agent-demo/internal/repository"
	"github.com/cove/agent-demo/internal/scraper"
)

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) IncrementMessageCount(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *mockSessionRepo) MarkBookingShown(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	return m
}

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *mockMessageRepo) ListBySessionID(ctx context.Context, sessionID string) ([]model.Message, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *mockMessageRepo) WithTx(tx *sqlx.Tx) repository.MessageRepository {
	return m
}

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) Scrape(ctx context.Context, url string) (*scraper.Result, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scraper.Result), args.Error(1)
}

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, system string, turns []llm.Turn) (string, error) {
	args := m.Called(ctx, system, turns)
	return args.String(0), args.Error(1)
}

func (m *mockCompleter) Stream(ctx context.Context, system string, turns []llm.Turn) iter.Seq2[string, error] {
	args := m.Called(ctx, system, turns)
	return args.Get(0).(iter.Seq2[string, error])
}

// fragments yields each string in order, then err if non-nil.
func fragments(err error, parts ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}

// directTx runs fn without a real transaction; mock repos ignore the tx.
type directTx struct{}

func (directTx) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}
