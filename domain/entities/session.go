package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionState is the single finite state of a practice session. UI-facing
// flags are derived views of this value, never tracked separately.
type SessionState string

const (
	StateIdle         SessionState = "idle"
	StateTranscribing SessionState = "transcribing"
	StateDetecting    SessionState = "detecting"
	StateGenerating   SessionState = "generating"
	StatePaused       SessionState = "paused"
	StateError        SessionState = "error"
)

// Session identifies one practice run. It is owned exclusively by the session
// orchestrator: created on connect, destroyed on disconnect.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	State      SessionState
	Transcript string
	Language   string

	// Epoch distinguishes successive generation attempts. Results carrying a
	// stale epoch are discarded.
	Epoch uint64

	examplesUsed map[string]bool
	History      []Answer
}

// NewSession creates a session in the idle state.
func NewSession(userID string) *Session {
	return &Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		CreatedAt:    time.Now(),
		State:        StateIdle,
		Language:     "en-US",
		examplesUsed: make(map[string]bool),
	}
}

var validTransitions = map[SessionState][]SessionState{
	StateIdle:         {StateTranscribing, StateDetecting, StateGenerating, StatePaused},
	StateTranscribing: {StateDetecting, StateIdle, StatePaused, StateGenerating},
	StateDetecting:    {StateGenerating, StateIdle},
	// A new question may supersede an in-flight generation in place.
	StateGenerating: {StateIdle, StateGenerating},
	StatePaused:     {StateIdle, StateTranscribing},
	StateError:      {StateIdle},
}

// TransitionTo moves the session to next. Error is reachable from any state
// and cancel/clear returns to idle from any state; other moves must follow
// the state machine.
func (s *Session) TransitionTo(next SessionState) error {
	if next == StateError || next == StateIdle {
		s.State = next
		return nil
	}
	for _, allowed := range validTransitions[s.State] {
		if allowed == next {
			s.State = next
			return nil
		}
	}
	return errors.New("invalid state transition from " + string(s.State) + " to " + string(next))
}

// NextEpoch advances the generation epoch, invalidating any in-flight
// generation for this session, and returns the new value.
func (s *Session) NextEpoch() uint64 {
	s.Epoch++
	return s.Epoch
}

// IsCurrentEpoch reports whether a generation result is still live.
func (s *Session) IsCurrentEpoch(epoch uint64) bool {
	return epoch == s.Epoch
}

// AppendTranscript adds a finalized utterance transcription to the
// accumulated transcript.
func (s *Session) AppendTranscript(text string) {
	if text == "" {
		return
	}
	if s.Transcript != "" {
		s.Transcript += " "
	}
	s.Transcript += text
}

// MarkExampleUsed records that an example was referenced by a generated
// answer. The set only grows until an explicit clear.
func (s *Session) MarkExampleUsed(example string) {
	if example == "" {
		return
	}
	s.examplesUsed[example] = true
}

// ExamplesUsed returns the examples referenced so far in this session.
func (s *Session) ExamplesUsed() []string {
	out := make([]string, 0, len(s.examplesUsed))
	for e := range s.examplesUsed {
		out = append(out, e)
	}
	return out
}

// RecordAnswer appends a finished answer to the visible history.
func (s *Session) RecordAnswer(a Answer) {
	s.History = append(s.History, a)
}

// ResetTranscript drops the accumulated transcript, e.g. after a question
// has been consumed.
func (s *Session) ResetTranscript() {
	s.Transcript = ""
}

// Clear resets the session to its initial shape: transcript, examples-used,
// history, and state all return to their post-connect values. The epoch is
// advanced, not reset, so stale generation results stay discardable.
func (s *Session) Clear() {
	s.Transcript = ""
	s.examplesUsed = make(map[string]bool)
	s.History = nil
	s.State = StateIdle
	s.Epoch++
}

func (s *Session) Validate() error {
	if s.UserID == "" {
		return errors.New("user_id is required")
	}
	switch s.State {
	case StateIdle, StateTranscribing, StateDetecting, StateGenerating, StatePaused, StateError:
	default:
		return errors.New("invalid session state")
	}
	return nil
}
