package repositories

import (
	"context"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
)

// SessionRepository persists practice-run history so users can review past
// answers. The live session itself is owned by the orchestrator; only
// finished answers and the final transcript are written here.
type SessionRepository interface {
	Create(ctx context.Context, record *SessionRecord) error
	AppendAnswer(ctx context.Context, sessionID string, answer entities.Answer) error
	Finish(ctx context.Context, sessionID string, transcript string) error
	GetByID(ctx context.Context, sessionID string) (*SessionRecord, error)
}

// SessionRecord is the persisted shape of one practice run.
type SessionRecord struct {
	SessionID  string            `bson:"session_id"`
	UserID     string            `bson:"user_id"`
	CreatedAt  int64             `bson:"created_at"`
	FinishedAt int64             `bson:"finished_at,omitempty"`
	Transcript string            `bson:"transcript,omitempty"`
	Answers    []entities.Answer `bson:"answers,omitempty"`
}
