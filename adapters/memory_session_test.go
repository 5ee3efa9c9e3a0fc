package adapters

import (
	"context"
	"testing"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
)

func TestMemorySessionRepositoryLifecycle(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	record := &repositories.SessionRecord{
		SessionID: "session-1",
		UserID:    "user-123",
	}
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Expected create to succeed, got %v", err)
	}

	answer := entities.Answer{
		Question: entities.Question{Text: "Why us?"},
		Text:     "Because.",
		Origin:   entities.AnswerOriginGenerated,
	}
	if err := repo.AppendAnswer(ctx, "session-1", answer); err != nil {
		t.Fatalf("Expected append to succeed, got %v", err)
	}

	if err := repo.Finish(ctx, "session-1", "full transcript"); err != nil {
		t.Fatalf("Expected finish to succeed, got %v", err)
	}

	got, err := repo.GetByID(ctx, "session-1")
	if err != nil {
		t.Fatalf("Expected get to succeed, got %v", err)
	}
	if got == nil {
		t.Fatal("Expected a stored record")
	}
	if got.CreatedAt == 0 {
		t.Error("Expected created_at to be stamped")
	}
	if got.FinishedAt == 0 {
		t.Error("Expected finished_at to be stamped")
	}
	if got.Transcript != "full transcript" {
		t.Errorf("Expected transcript to be persisted, got %q", got.Transcript)
	}
	if len(got.Answers) != 1 || got.Answers[0].Text != "Because." {
		t.Errorf("Expected one persisted answer, got %v", got.Answers)
	}
}

func TestMemorySessionRepositoryValidation(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, nil); err == nil {
		t.Error("Expected error for nil record")
	}
	if err := repo.Create(ctx, &repositories.SessionRecord{}); err == nil {
		t.Error("Expected error for missing session ID")
	}
	if err := repo.AppendAnswer(ctx, "missing", entities.Answer{}); err == nil {
		t.Error("Expected error for unknown session")
	}
	if err := repo.Finish(ctx, "missing", ""); err == nil {
		t.Error("Expected error for unknown session")
	}

	got, err := repo.GetByID(ctx, "missing")
	if err != nil {
		t.Errorf("Expected no error for unknown session, got %v", err)
	}
	if got != nil {
		t.Error("Expected nil record for unknown session")
	}
}

func TestMemorySessionRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	record := &repositories.SessionRecord{SessionID: "session-1", UserID: "user-123"}
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Expected create to succeed, got %v", err)
	}

	got, _ := repo.GetByID(ctx, "session-1")
	got.UserID = "tampered"

	again, _ := repo.GetByID(ctx, "session-1")
	if again.UserID != "user-123" {
		t.Error("Expected stored record to be isolated from returned copies")
	}
}
