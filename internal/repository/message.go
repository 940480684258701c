package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cove/agent-demo/internal/database"
	"github.com/cove/agent-demo/internal/model"
)

type MessageRepository interface {
	Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error)
	// ListBySessionID returns the session's messages in creation order.
	ListBySessionID(ctx context.Context, sessionID string) ([]model.Message, error)
	WithTx(tx *sqlx.Tx) MessageRepository
}

type messageRepo struct {
	db database.DBTX
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) WithTx(tx *sqlx.Tx) MessageRepository {
	return &messageRepo{db: tx}
}

func (r *messageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	id := uuid.NewString()

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO demo_messages (id, session_id, seq, role, content, created_at)
		VALUES (?, ?, COALESCE((SELECT MAX(seq) FROM demo_messages WHERE session_id = ?), 0) + 1, ?, ?, ?)
	`), id, params.SessionID, params.SessionID, params.Role, params.Content, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	var msg model.Message
	if err := r.db.GetContext(ctx, &msg, r.db.Rebind(`
		SELECT * FROM demo_messages WHERE id = ?
	`), id); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepo) ListBySessionID(ctx context.Context, sessionID string) ([]model.Message, error) {
	msgs := []model.Message{}
	err := r.db.SelectContext(ctx, &msgs, r.db.Rebind(`
		SELECT * FROM demo_messages
		WHERE session_id = ?
		ORDER BY created_at ASC, seq ASC
	`), sessionID)
	return msgs, err
}
