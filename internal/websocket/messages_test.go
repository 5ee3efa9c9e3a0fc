package websocket

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/orchestrator"
)

func TestDecodeContextMessage(t *testing.T) {
	raw := `{
		"type": "context",
		"user_id": "user-123",
		"resume_text": "Engineer with five years of Go.",
		"star_stories": [
			{"title": "Outage", "situation": "s", "task": "t", "action": "a", "result": "r"}
		],
		"talking_points": ["ownership"],
		"qa_pairs": [
			{"question": "Why us?", "answer": "Because."},
			{"question": "", "answer": "dropped"}
		]
	}`

	ev, err := DecodeInbound([]byte(raw))
	if err != nil {
		t.Fatalf("Expected decode to succeed, got %v", err)
	}

	ctx, ok := ev.(orchestrator.ContextEvent)
	if !ok {
		t.Fatalf("Expected a context event, got %T", ev)
	}
	if ctx.Context.UserID != "user-123" {
		t.Errorf("Expected user-123, got %s", ctx.Context.UserID)
	}
	if len(ctx.Context.StarStories) != 1 || ctx.Context.StarStories[0].Title != "Outage" {
		t.Errorf("Unexpected stories %v", ctx.Context.StarStories)
	}
	if len(ctx.Context.QAPairs) != 1 {
		t.Fatalf("Expected incomplete QA pairs to be dropped, got %d", len(ctx.Context.QAPairs))
	}
	if ctx.Context.QAPairs[0].Kind != entities.KnowledgeKindQA {
		t.Errorf("Expected qa_pair kind, got %s", ctx.Context.QAPairs[0].Kind)
	}
}

func TestDecodeAudioChunkMessage(t *testing.T) {
	audio := base64.StdEncoding.EncodeToString([]byte("pcm-bytes"))
	raw := `{"type": "audio_chunk", "audio_data": "` + audio + `", "sequence": 7}`

	ev, err := DecodeInbound([]byte(raw))
	if err != nil {
		t.Fatalf("Expected decode to succeed, got %v", err)
	}

	frame, ok := ev.(orchestrator.AudioFrameEvent)
	if !ok {
		t.Fatalf("Expected an audio frame event, got %T", ev)
	}
	if frame.Frame.Sequence != 7 {
		t.Errorf("Expected sequence 7, got %d", frame.Frame.Sequence)
	}
	if string(frame.Frame.Data) != "pcm-bytes" {
		t.Errorf("Unexpected frame payload %q", frame.Frame.Data)
	}
}

func TestDecodeAudioChunkRejectsBadBase64(t *testing.T) {
	raw := `{"type": "audio_chunk", "audio_data": "not base64!!"}`
	if _, err := DecodeInbound([]byte(raw)); err == nil {
		t.Error("Expected invalid base64 to be rejected")
	}
}

func TestDecodeRequestAnswer(t *testing.T) {
	ev, err := DecodeInbound([]byte(`{"type": "request_answer", "question": "Why Go?", "category": "technical"}`))
	if err != nil {
		t.Fatalf("Expected decode to succeed, got %v", err)
	}
	req, ok := ev.(orchestrator.RequestAnswerEvent)
	if !ok {
		t.Fatalf("Expected a request answer event, got %T", ev)
	}
	if req.Question != "Why Go?" || req.Category != "technical" {
		t.Errorf("Unexpected event %+v", req)
	}

	if _, err := DecodeInbound([]byte(`{"type": "request_answer"}`)); err == nil {
		t.Error("Expected a missing question to be rejected")
	}
}

func TestDecodeControlMessages(t *testing.T) {
	cases := []struct {
		raw  string
		want interface{}
	}{
		{`{"type": "clear"}`, orchestrator.ClearEvent{}},
		{`{"type": "finalize_audio"}`, orchestrator.FinalizeAudioEvent{}},
		{`{"type": "pause"}`, orchestrator.PauseEvent{}},
		{`{"type": "resume"}`, orchestrator.ResumeEvent{}},
		{`{"type": "config", "language": "ko-KR"}`, orchestrator.ConfigEvent{Language: "ko-KR"}},
	}
	for _, c := range cases {
		ev, err := DecodeInbound([]byte(c.raw))
		if err != nil {
			t.Errorf("DecodeInbound(%s) failed: %v", c.raw, err)
			continue
		}
		if ev != c.want {
			t.Errorf("DecodeInbound(%s) = %#v, want %#v", c.raw, ev, c.want)
		}
	}
}

func TestDecodeRejectsUnknownAndMalformed(t *testing.T) {
	if _, err := DecodeInbound([]byte(`{"type": "reboot"}`)); err == nil {
		t.Error("Expected unknown message type to be rejected")
	}
	if _, err := DecodeInbound([]byte(`{not json`)); err == nil {
		t.Error("Expected malformed JSON to be rejected")
	}
}

func TestEncodeAnswerStreamChunk(t *testing.T) {
	payload, err := EncodeOutbound(orchestrator.AnswerStreamChunkEvent{
		Question: "Why Go?",
		Chunk:    "Because of ",
		Epoch:    3,
		Seq:      2,
	})
	if err != nil {
		t.Fatalf("Expected encode to succeed, got %v", err)
	}

	var msg AnswerStreamChunkMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if msg.Type != MessageTypeAnswerStreamChunk {
		t.Errorf("Expected type %s, got %s", MessageTypeAnswerStreamChunk, msg.Type)
	}
	if msg.Seq != 2 || msg.Epoch != 3 || msg.Chunk != "Because of " {
		t.Errorf("Unexpected message %+v", msg)
	}
	if msg.Timestamp == "" {
		t.Error("Expected a timestamp")
	}
}

func TestEncodeAnswer(t *testing.T) {
	payload, err := EncodeOutbound(orchestrator.AnswerEvent{
		Answer: entities.Answer{
			Question: entities.Question{Text: "Why Go?", Category: entities.CategoryTechnical},
			Text:     "Concurrency.",
			Origin:   entities.AnswerOriginCache,
			ItemID:   "item-9",
		},
	})
	if err != nil {
		t.Fatalf("Expected encode to succeed, got %v", err)
	}

	var msg AnswerMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if msg.Origin != string(entities.AnswerOriginCache) {
		t.Errorf("Expected cache origin, got %s", msg.Origin)
	}
	if msg.ItemID != "item-9" {
		t.Errorf("Expected item-9, got %s", msg.ItemID)
	}
}

func TestEncodeErrorAndAck(t *testing.T) {
	payload, err := EncodeOutbound(orchestrator.ErrorEvent{
		Code:    orchestrator.CodeGenerationFailure,
		Message: "provider timeout",
	})
	if err != nil {
		t.Fatalf("Expected encode to succeed, got %v", err)
	}
	if !strings.Contains(string(payload), `"error_code":"generation_failure"`) {
		t.Errorf("Unexpected error payload %s", payload)
	}

	payload, err = EncodeOutbound(orchestrator.AckEvent{Of: "clear", Message: "session cleared"})
	if err != nil {
		t.Fatalf("Expected encode to succeed, got %v", err)
	}
	if !strings.Contains(string(payload), `"of":"clear"`) {
		t.Errorf("Unexpected ack payload %s", payload)
	}
}
