package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cove/agent-demo/internal/database"
	"github.com/cove/agent-demo/internal/model"
)

type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	// IncrementMessageCount adds one completed exchange and returns the new count.
	IncrementMessageCount(ctx context.Context, id string) (int, error)
	MarkBookingShown(ctx context.Context, id string) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

type sessionRepo struct {
	db database.DBTX
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, r.db.Rebind(`
		SELECT * FROM demo_sessions WHERE id = ?
	`), id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO demo_sessions
			(id, email, company_url, company_name, agent_type, scraped_content,
			 message_count, booking_shown, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, FALSE, ?, ?)
	`), id, params.Email, params.CompanyURL, params.CompanyName,
		params.AgentType, params.ScrapedContent, now, now)
	if err != nil {
		return nil, err
	}

	var session model.Session
	if err := r.db.GetContext(ctx, &session, r.db.Rebind(`
		SELECT * FROM demo_sessions WHERE id = ?
	`), id); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) IncrementMessageCount(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind(`
		UPDATE demo_sessions SET
			message_count = message_count + 1,
			updated_at = ?
		WHERE id = ?
		RETURNING message_count
	`), time.Now().UTC(), id)
	if err != nil {
		return 0, noRowsAsNotFound(err)
	}
	return count, nil
}

func (r *sessionRepo) MarkBookingShown(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE demo_sessions SET
			booking_shown = TRUE,
			updated_at = ?
		WHERE id = ?
	`), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
