package entities

import (
	"testing"
	"time"
)

func TestSessionCreation(t *testing.T) {
	userID := "user-123"
	session := NewSession(userID)

	if session.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, session.UserID)
	}

	if session.State != StateIdle {
		t.Errorf("Expected state %s, got %s", StateIdle, session.State)
	}

	if session.ID == "" {
		t.Error("Expected session ID to be set")
	}

	if session.Language != "en-US" {
		t.Errorf("Expected language en-US, got %s", session.Language)
	}

	if session.Epoch != 0 {
		t.Errorf("Expected epoch 0, got %d", session.Epoch)
	}
}

func TestStateTransitions(t *testing.T) {
	session := NewSession("user-123")

	if err := session.TransitionTo(StateTranscribing); err != nil {
		t.Errorf("Expected idle -> transcribing to be allowed, got %v", err)
	}
	if err := session.TransitionTo(StateDetecting); err != nil {
		t.Errorf("Expected transcribing -> detecting to be allowed, got %v", err)
	}
	if err := session.TransitionTo(StateGenerating); err != nil {
		t.Errorf("Expected detecting -> generating to be allowed, got %v", err)
	}

	// Generating never moves back to transcribing directly.
	if err := session.TransitionTo(StateTranscribing); err == nil {
		t.Error("Expected generating -> transcribing to be rejected")
	}
	if session.State != StateGenerating {
		t.Errorf("Expected state unchanged after rejected transition, got %s", session.State)
	}

	// A new question supersedes an in-flight generation in place.
	if err := session.TransitionTo(StateGenerating); err != nil {
		t.Errorf("Expected generating -> generating to be allowed, got %v", err)
	}
}

func TestErrorAndIdleReachableFromAnyState(t *testing.T) {
	for _, start := range []SessionState{StateIdle, StateTranscribing, StateDetecting, StateGenerating, StatePaused, StateError} {
		session := NewSession("user-123")
		session.State = start

		if err := session.TransitionTo(StateError); err != nil {
			t.Errorf("Expected %s -> error to be allowed, got %v", start, err)
		}

		session.State = start
		if err := session.TransitionTo(StateIdle); err != nil {
			t.Errorf("Expected %s -> idle to be allowed, got %v", start, err)
		}
	}
}

func TestEpochAdvancesAndInvalidates(t *testing.T) {
	session := NewSession("user-123")

	first := session.NextEpoch()
	if first != 1 {
		t.Errorf("Expected first epoch 1, got %d", first)
	}
	if !session.IsCurrentEpoch(first) {
		t.Error("Expected first epoch to be current")
	}

	second := session.NextEpoch()
	if session.IsCurrentEpoch(first) {
		t.Error("Expected first epoch to be stale after advancing")
	}
	if !session.IsCurrentEpoch(second) {
		t.Error("Expected second epoch to be current")
	}
}

func TestAppendTranscript(t *testing.T) {
	session := NewSession("user-123")

	session.AppendTranscript("tell me about")
	session.AppendTranscript("yourself")
	session.AppendTranscript("")

	if session.Transcript != "tell me about yourself" {
		t.Errorf("Expected joined transcript, got %q", session.Transcript)
	}

	session.ResetTranscript()
	if session.Transcript != "" {
		t.Errorf("Expected empty transcript after reset, got %q", session.Transcript)
	}
}

func TestExamplesUsedGrowsMonotonically(t *testing.T) {
	session := NewSession("user-123")

	session.MarkExampleUsed("migration project")
	session.MarkExampleUsed("migration project")
	session.MarkExampleUsed("outage story")
	session.MarkExampleUsed("")

	used := session.ExamplesUsed()
	if len(used) != 2 {
		t.Errorf("Expected 2 distinct examples, got %d: %v", len(used), used)
	}
}

func TestClearResetsButKeepsEpochMonotonic(t *testing.T) {
	session := NewSession("user-123")
	session.AppendTranscript("some speech")
	session.MarkExampleUsed("story")
	session.RecordAnswer(Answer{Text: "answer", CreatedAt: time.Now()})
	epoch := session.NextEpoch()
	session.State = StateGenerating

	session.Clear()

	if session.Transcript != "" {
		t.Errorf("Expected transcript cleared, got %q", session.Transcript)
	}
	if len(session.ExamplesUsed()) != 0 {
		t.Error("Expected examples-used cleared")
	}
	if len(session.History) != 0 {
		t.Error("Expected history cleared")
	}
	if session.State != StateIdle {
		t.Errorf("Expected idle state after clear, got %s", session.State)
	}
	if session.IsCurrentEpoch(epoch) {
		t.Error("Expected pre-clear epoch to be stale")
	}
}

func TestSessionValidate(t *testing.T) {
	session := NewSession("user-123")
	if err := session.Validate(); err != nil {
		t.Errorf("Expected valid session, got %v", err)
	}

	session.UserID = ""
	if err := session.Validate(); err == nil {
		t.Error("Expected validation error for missing user ID")
	}

	session.UserID = "user-123"
	session.State = SessionState("bogus")
	if err := session.Validate(); err == nil {
		t.Error("Expected validation error for unknown state")
	}
}
