package websocket

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/orchestrator"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client-to-server message types
const (
	MessageTypeContext       MessageType = "context"
	MessageTypeConfig        MessageType = "config"
	MessageTypeAudioChunk    MessageType = "audio_chunk"
	MessageTypeRequestAnswer MessageType = "request_answer"
	MessageTypeClear         MessageType = "clear"
	MessageTypeFinalizeAudio MessageType = "finalize_audio"
	MessageTypePause         MessageType = "pause"
	MessageTypeResume        MessageType = "resume"
)

// Server-to-client message types
const (
	MessageTypeTranscription     MessageType = "transcription"
	MessageTypeQuestionDetected  MessageType = "question_detected"
	MessageTypeTemporaryAnswer   MessageType = "temporary_answer"
	MessageTypeAnswer            MessageType = "answer"
	MessageTypeAnswerStreamStart MessageType = "answer_stream_start"
	MessageTypeAnswerStreamChunk MessageType = "answer_stream_chunk"
	MessageTypeAnswerStreamEnd   MessageType = "answer_stream_end"
	MessageTypeError             MessageType = "error"
	MessageTypeAck               MessageType = "ack"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// ContextMessage bulk-loads interview context at session start.
type ContextMessage struct {
	BaseMessage
	UserID        string               `json:"user_id,omitempty"`
	ResumeText    string               `json:"resume_text,omitempty"`
	StarStories   []entities.StarStory `json:"star_stories,omitempty"`
	TalkingPoints []string             `json:"talking_points,omitempty"`
	QAPairs       []QAPair             `json:"qa_pairs,omitempty"`
}

// QAPair is a prepared question/answer supplied as context.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ConfigMessage sets per-session options.
type ConfigMessage struct {
	BaseMessage
	Language string `json:"language,omitempty"`
}

// AudioChunkMessage carries base64 audio for clients that cannot send
// binary frames.
type AudioChunkMessage struct {
	BaseMessage
	AudioData string `json:"audio_data"`
	Sequence  int    `json:"sequence,omitempty"`
}

// RequestAnswerMessage is the explicit manual trigger.
type RequestAnswerMessage struct {
	BaseMessage
	Question string `json:"question"`
	Category string `json:"category,omitempty"`
}

// TranscriptionMessage carries partial or final transcription text.
type TranscriptionMessage struct {
	BaseMessage
	Text        string `json:"text"`
	Accumulated string `json:"accumulated_transcript,omitempty"`
	IsFinal     bool   `json:"is_final"`
}

// QuestionDetectedMessage announces an automatically detected question.
type QuestionDetectedMessage struct {
	BaseMessage
	Question string `json:"question"`
	Category string `json:"category"`
}

// TemporaryAnswerMessage is a provisional answer shown while the real one
// is being produced.
type TemporaryAnswerMessage struct {
	BaseMessage
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AnswerMessage is a complete answer delivered at once (cache hit).
type AnswerMessage struct {
	BaseMessage
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Origin   string `json:"origin"`
	ItemID   string `json:"item_id,omitempty"`
}

// AnswerStreamStartMessage opens token streaming for one answer.
type AnswerStreamStartMessage struct {
	BaseMessage
	Question string `json:"question"`
	Epoch    uint64 `json:"epoch"`
}

// AnswerStreamChunkMessage carries one streamed token.
type AnswerStreamChunkMessage struct {
	BaseMessage
	Question string `json:"question"`
	Chunk    string `json:"chunk"`
	Epoch    uint64 `json:"epoch"`
	Seq      int    `json:"seq"`
}

// AnswerStreamEndMessage closes token streaming.
type AnswerStreamEndMessage struct {
	BaseMessage
	Question string `json:"question"`
	Epoch    uint64 `json:"epoch"`
}

// ErrorMessage surfaces a recoverable session error.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// AckMessage confirms a control message.
type AckMessage struct {
	BaseMessage
	Of      string `json:"of"`
	Message string `json:"message,omitempty"`
}

// DecodeInbound parses a client text message into a session event.
func DecodeInbound(messageBytes []byte) (orchestrator.InboundEvent, error) {
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeContext:
		var msg ContextMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid context message: %w", err)
		}
		sc := entities.SessionContext{
			UserID:        msg.UserID,
			ResumeText:    msg.ResumeText,
			StarStories:   msg.StarStories,
			TalkingPoints: msg.TalkingPoints,
		}
		for _, qa := range msg.QAPairs {
			if qa.Question == "" || qa.Answer == "" {
				continue
			}
			sc.QAPairs = append(sc.QAPairs, entities.KnowledgeItem{
				Kind:     entities.KnowledgeKindQA,
				Question: qa.Question,
				Answer:   qa.Answer,
			})
		}
		return orchestrator.ContextEvent{Context: sc}, nil

	case MessageTypeConfig:
		var msg ConfigMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid config message: %w", err)
		}
		return orchestrator.ConfigEvent{Language: msg.Language}, nil

	case MessageTypeAudioChunk:
		var msg AudioChunkMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid audio chunk message: %w", err)
		}
		data, err := base64.StdEncoding.DecodeString(msg.AudioData)
		if err != nil {
			return nil, fmt.Errorf("invalid audio_data encoding: %w", err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("audio_data is required")
		}
		return orchestrator.AudioFrameEvent{Frame: entities.AudioFrame{
			Sequence:  msg.Sequence,
			Timestamp: time.Now(),
			Data:      data,
		}}, nil

	case MessageTypeRequestAnswer:
		var msg RequestAnswerMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid request_answer message: %w", err)
		}
		if msg.Question == "" {
			return nil, fmt.Errorf("question is required")
		}
		return orchestrator.RequestAnswerEvent{Question: msg.Question, Category: msg.Category}, nil

	case MessageTypeClear:
		return orchestrator.ClearEvent{}, nil
	case MessageTypeFinalizeAudio:
		return orchestrator.FinalizeAudioEvent{}, nil
	case MessageTypePause:
		return orchestrator.PauseEvent{}, nil
	case MessageTypeResume:
		return orchestrator.ResumeEvent{}, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

// EncodeOutbound renders a session event as a wire message.
func EncodeOutbound(ev orchestrator.OutboundEvent) ([]byte, error) {
	now := time.Now().Format(time.RFC3339)

	switch ev := ev.(type) {
	case orchestrator.TranscriptionEvent:
		return json.Marshal(TranscriptionMessage{
			BaseMessage: BaseMessage{Type: MessageTypeTranscription, Timestamp: now},
			Text:        ev.Text,
			Accumulated: ev.Accumulated,
			IsFinal:     ev.IsFinal,
		})
	case orchestrator.QuestionDetectedEvent:
		return json.Marshal(QuestionDetectedMessage{
			BaseMessage: BaseMessage{Type: MessageTypeQuestionDetected, Timestamp: now},
			Question:    ev.Question.Text,
			Category:    string(ev.Question.Category),
		})
	case orchestrator.TemporaryAnswerEvent:
		return json.Marshal(TemporaryAnswerMessage{
			BaseMessage: BaseMessage{Type: MessageTypeTemporaryAnswer, Timestamp: now},
			Question:    ev.Question,
			Answer:      ev.Answer,
		})
	case orchestrator.AnswerEvent:
		return json.Marshal(AnswerMessage{
			BaseMessage: BaseMessage{Type: MessageTypeAnswer, Timestamp: now},
			Question:    ev.Answer.Question.Text,
			Answer:      ev.Answer.Text,
			Origin:      string(ev.Answer.Origin),
			ItemID:      ev.Answer.ItemID,
		})
	case orchestrator.AnswerStreamStartEvent:
		return json.Marshal(AnswerStreamStartMessage{
			BaseMessage: BaseMessage{Type: MessageTypeAnswerStreamStart, Timestamp: now},
			Question:    ev.Question,
			Epoch:       ev.Epoch,
		})
	case orchestrator.AnswerStreamChunkEvent:
		return json.Marshal(AnswerStreamChunkMessage{
			BaseMessage: BaseMessage{Type: MessageTypeAnswerStreamChunk, Timestamp: now},
			Question:    ev.Question,
			Chunk:       ev.Chunk,
			Epoch:       ev.Epoch,
			Seq:         ev.Seq,
		})
	case orchestrator.AnswerStreamEndEvent:
		return json.Marshal(AnswerStreamEndMessage{
			BaseMessage: BaseMessage{Type: MessageTypeAnswerStreamEnd, Timestamp: now},
			Question:    ev.Question,
			Epoch:       ev.Epoch,
		})
	case orchestrator.ErrorEvent:
		return json.Marshal(ErrorMessage{
			BaseMessage: BaseMessage{Type: MessageTypeError, Timestamp: now},
			Code:        ev.Code,
			Message:     ev.Message,
		})
	case orchestrator.AckEvent:
		return json.Marshal(AckMessage{
			BaseMessage: BaseMessage{Type: MessageTypeAck, Timestamp: now},
			Of:          ev.Of,
			Message:     ev.Message,
		})
	default:
		return nil, fmt.Errorf("unsupported outbound event type: %T", ev)
	}
}
