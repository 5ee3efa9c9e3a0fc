package entities

import (
	"errors"
	"time"
)

// QuestionCategory classifies a detected interview question.
type QuestionCategory string

const (
	CategoryBehavioral  QuestionCategory = "behavioral"
	CategoryTechnical   QuestionCategory = "technical"
	CategorySituational QuestionCategory = "situational"
	CategoryGeneral     QuestionCategory = "general"
)

// AudioFrame is a short binary buffer received from the client. Frames are
// consumed by the segmenter and discarded after transcription.
type AudioFrame struct {
	Sequence  int
	Timestamp time.Time
	Data      []byte
}

// Utterance is a contiguous span of audio bounded by detected silence.
// It is produced by the segmenter and consumed exactly once.
type Utterance struct {
	Start  time.Time
	End    time.Time
	Frames []AudioFrame
}

// Bytes concatenates the frame payloads in sequence order.
func (u *Utterance) Bytes() []byte {
	size := 0
	for _, f := range u.Frames {
		size += len(f.Data)
	}
	buf := make([]byte, 0, size)
	for _, f := range u.Frames {
		buf = append(buf, f.Data...)
	}
	return buf
}

// Question is normalized transcript text with its inferred category.
// Immutable once produced.
type Question struct {
	Text     string
	Category QuestionCategory
}

// AnswerOrigin tags where an answer came from.
type AnswerOrigin string

const (
	AnswerOriginCache     AnswerOrigin = "cache"
	AnswerOriginGenerated AnswerOrigin = "generated"
)

// Answer is final or cached text tied to one question. Never mutated after
// creation; appended to the session's visible history.
type Answer struct {
	Question  Question
	Text      string
	Origin    AnswerOrigin
	ItemID    string // knowledge item that served a cache hit, if any
	CreatedAt time.Time
}

// KnowledgeKind distinguishes the stored knowledge item types.
type KnowledgeKind string

const (
	KnowledgeKindQA    KnowledgeKind = "qa_pair"
	KnowledgeKindStory KnowledgeKind = "star_story"
)

// KnowledgeItem is a stored Q&A pair or STAR story with a precomputed
// similarity vector. Created by the out-of-scope CRUD layer; read-only here.
type KnowledgeItem struct {
	ID         string
	UserID     string
	Kind       KnowledgeKind
	Question   string
	Answer     string
	Embedding  []float32
	UsageCount int
	LastUsedAt time.Time
}

// StarStory is a structured behavioral example supplied as session context.
type StarStory struct {
	Title     string `json:"title"`
	Situation string `json:"situation"`
	Task      string `json:"task"`
	Action    string `json:"action"`
	Result    string `json:"result"`
}

// SessionContext is the bulk context the client loads at session start.
type SessionContext struct {
	UserID        string
	ResumeText    string
	StarStories   []StarStory
	TalkingPoints []string
	QAPairs       []KnowledgeItem
}

func (c *SessionContext) Validate() error {
	if c.UserID == "" {
		return errors.New("user_id is required")
	}
	return nil
}
