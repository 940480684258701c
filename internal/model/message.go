package model

import (
	"time"
)

type Message struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"sessionId"`
	Seq       int       `db:"seq" json:"seq"`
	Role      Role      `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateMessageParams struct {
	SessionID string
	Role      Role
	Content   string
}
