package adapters

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
)

// MemorySessionRepository keeps practice-run history in memory. Used when no
// Mongo URI is configured and in tests.
type MemorySessionRepository struct {
	mu      sync.RWMutex
	records map[string]*repositories.SessionRecord
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		records: make(map[string]*repositories.SessionRecord),
	}
}

func (r *MemorySessionRepository) Create(ctx context.Context, record *repositories.SessionRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if record.SessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cpy := *record
	r.records[record.SessionID] = &cpy
	return nil
}

func (r *MemorySessionRepository) AppendAnswer(ctx context.Context, sessionID string, answer entities.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[sessionID]
	if !ok {
		return errors.New("session record not found: " + sessionID)
	}
	record.Answers = append(record.Answers, answer)
	return nil
}

func (r *MemorySessionRepository) Finish(ctx context.Context, sessionID string, transcript string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[sessionID]
	if !ok {
		return errors.New("session record not found: " + sessionID)
	}
	record.FinishedAt = time.Now().Unix()
	record.Transcript = transcript
	return nil
}

func (r *MemorySessionRepository) GetByID(ctx context.Context, sessionID string) (*repositories.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[sessionID]
	if !ok {
		return nil, nil
	}
	cpy := *record
	return &cpy, nil
}
