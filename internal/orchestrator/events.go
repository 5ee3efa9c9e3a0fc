package orchestrator

import (
	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
)

// InboundEvent is a client-originated event for one session. All inbound
// traffic, whatever the transport, converges on this enum and is processed
// by the session's single dispatch loop.
type InboundEvent interface {
	isInbound()
}

// ContextEvent bulk-loads the user's interview context at session start.
type ContextEvent struct {
	Context entities.SessionContext
}

// AudioFrameEvent carries one binary audio frame.
type AudioFrameEvent struct {
	Frame entities.AudioFrame
}

// RequestAnswerEvent is the explicit manual trigger, bypassing automatic
// question detection. Category is optional.
type RequestAnswerEvent struct {
	Question string
	Category string
}

// ClearEvent resets session state: transcript, examples-used, answer cache.
type ClearEvent struct{}

// FinalizeAudioEvent forces an end-of-utterance boundary.
type FinalizeAudioEvent struct{}

// PauseEvent stops audio intake until resume.
type PauseEvent struct{}

// ResumeEvent resumes audio intake after a pause.
type ResumeEvent struct{}

// ConfigEvent sets per-session options.
type ConfigEvent struct {
	Language string
}

func (ContextEvent) isInbound()       {}
func (AudioFrameEvent) isInbound()    {}
func (RequestAnswerEvent) isInbound() {}
func (ClearEvent) isInbound()         {}
func (FinalizeAudioEvent) isInbound() {}
func (PauseEvent) isInbound()         {}
func (ResumeEvent) isInbound()        {}
func (ConfigEvent) isInbound()        {}

// OutboundEvent is a server-originated event for the session's streaming
// channel.
type OutboundEvent interface {
	isOutbound()
}

// TranscriptionEvent carries partial or final transcription text plus the
// accumulated transcript.
type TranscriptionEvent struct {
	Text        string
	Accumulated string
	IsFinal     bool
}

// QuestionDetectedEvent announces an automatically detected question.
// Advisory only.
type QuestionDetectedEvent struct {
	Question entities.Question
}

// TemporaryAnswerEvent is a provisional short answer shown before the real
// one, to reduce perceived latency.
type TemporaryAnswerEvent struct {
	Question string
	Answer   string
}

// AnswerEvent is a complete answer delivered synchronously (cache hit).
type AnswerEvent struct {
	Answer entities.Answer
}

// AnswerStreamStartEvent opens token-level streaming of a generated answer.
type AnswerStreamStartEvent struct {
	Question string
	Epoch    uint64
}

// AnswerStreamChunkEvent carries one generated token; Seq is monotonic per
// generation epoch.
type AnswerStreamChunkEvent struct {
	Question string
	Chunk    string
	Epoch    uint64
	Seq      int
}

// AnswerStreamEndEvent closes token-level streaming.
type AnswerStreamEndEvent struct {
	Question string
	Epoch    uint64
}

// ErrorEvent surfaces a session-local, recoverable failure.
type ErrorEvent struct {
	Code    string
	Message string
}

// AckEvent confirms a control message (context, config, clear, finalize).
type AckEvent struct {
	Of      string
	Message string
}

func (TranscriptionEvent) isOutbound()     {}
func (QuestionDetectedEvent) isOutbound()  {}
func (TemporaryAnswerEvent) isOutbound()   {}
func (AnswerEvent) isOutbound()            {}
func (AnswerStreamStartEvent) isOutbound() {}
func (AnswerStreamChunkEvent) isOutbound() {}
func (AnswerStreamEndEvent) isOutbound()   {}
func (ErrorEvent) isOutbound()             {}
func (AckEvent) isOutbound()               {}

// Error codes carried by ErrorEvent.
const (
	CodeTranscriptionUnavailable = "transcription_unavailable"
	CodeGenerationFailure        = "generation_failure"
	CodeMalformedMessage         = "malformed_message"
)

// internal events posted back to the dispatch loop by worker goroutines.
type internalEvent interface {
	isInternal()
}

type transcriptPartial struct {
	gen  uint64
	text string
}

type transcriptFinal struct {
	gen  uint64
	text string
	err  error
}

// contextLoaded reports that bulk-loaded knowledge items became searchable;
// the context ack waits for it.
type contextLoaded struct {
	items int
	err   error
}

type generationHit struct {
	epoch  uint64
	answer entities.Answer
	itemID string
}

type generationStreamStart struct {
	epoch    uint64
	question string
}

type generationChunk struct {
	epoch uint64
	chunk string
}

type generationDone struct {
	epoch    uint64
	answer   entities.Answer
	examples []string
	vector   []float32
	err      error
}

func (transcriptPartial) isInternal()     {}
func (transcriptFinal) isInternal()       {}
func (contextLoaded) isInternal()         {}
func (generationHit) isInternal()         {}
func (generationStreamStart) isInternal() {}
func (generationChunk) isInternal()       {}
func (generationDone) isInternal()        {}
