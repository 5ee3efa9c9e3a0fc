package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
)

// SessionRepository persists practice-run history to MongoDB.
type SessionRepository struct {
	collection *mongo.Collection
}

// NewSessionRepository creates a new MongoDB session repository
func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{
		collection: db.Collection("practice_sessions"),
	}
}

// Create inserts a fresh session record.
func (r *SessionRepository) Create(ctx context.Context, record *repositories.SessionRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if record.SessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to create session record: %w", err)
	}
	return nil
}

// AppendAnswer pushes a finished answer onto the session record.
func (r *SessionRepository) AppendAnswer(ctx context.Context, sessionID string, answer entities.Answer) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}

	update := bson.M{
		"$push": bson.M{"answers": answer},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"session_id": sessionID}, update)
	if err != nil {
		return fmt.Errorf("failed to append answer: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("session record %s not found", sessionID)
	}
	return nil
}

// Finish stamps the record with its final transcript and end time.
func (r *SessionRepository) Finish(ctx context.Context, sessionID string, transcript string) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}

	update := bson.M{
		"$set": bson.M{
			"finished_at": time.Now().Unix(),
			"transcript":  transcript,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"session_id": sessionID}, update)
	if err != nil {
		return fmt.Errorf("failed to finish session record: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("session record %s not found", sessionID)
	}
	return nil
}

// GetByID fetches one session record.
func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*repositories.SessionRecord, error) {
	if sessionID == "" {
		return nil, errors.New("session ID cannot be empty")
	}

	var record repositories.SessionRecord
	err := r.collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session record %s: %w", sessionID, err)
	}
	return &record, nil
}
