package segmenter

import (
	"encoding/binary"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
)

func testConfig() Config {
	return Config{
		SilenceWindow:   100 * time.Millisecond,
		SilenceLevel:    500,
		MaxBufferFrames: 64,
	}
}

func pcmFrame(seq int, ts time.Time, amplitude int16) entities.AudioFrame {
	data := make([]byte, 320) // 160 LINEAR16 samples
	for i := 0; i < len(data); i += 2 {
		binary.LittleEndian.PutUint16(data[i:], uint16(amplitude))
	}
	return entities.AudioFrame{Sequence: seq, Timestamp: ts, Data: data}
}

func loudFrame(seq int, ts time.Time) entities.AudioFrame {
	return pcmFrame(seq, ts, 10000)
}

func silentFrame(seq int, ts time.Time) entities.AudioFrame {
	return pcmFrame(seq, ts, 0)
}

func drain(s *Segmenter) (entities.Utterance, bool) {
	select {
	case u := <-s.Utterances():
		return u, true
	default:
		return entities.Utterance{}, false
	}
}

func TestEmitsUtteranceAfterSilenceWindow(t *testing.T) {
	s := New(testConfig(), zap.NewNop())
	start := time.Now()

	s.Push(loudFrame(0, start))
	for i := 1; i <= 10; i++ {
		s.Push(silentFrame(i, start.Add(time.Duration(i)*50*time.Millisecond)))
	}

	u, ok := drain(s)
	if !ok {
		t.Fatal("Expected an utterance after sustained silence")
	}
	if len(u.Frames) == 0 {
		t.Fatal("Expected utterance to carry frames")
	}
	if u.Frames[0].Sequence != 0 {
		t.Errorf("Expected utterance to start at frame 0, got %d", u.Frames[0].Sequence)
	}
	if !u.End.After(u.Start) {
		t.Error("Expected utterance end after start")
	}
}

func TestLeadingSilenceProducesNothing(t *testing.T) {
	s := New(testConfig(), zap.NewNop())
	start := time.Now()

	for i := 0; i < 20; i++ {
		s.Push(silentFrame(i, start.Add(time.Duration(i)*50*time.Millisecond)))
	}

	if _, ok := drain(s); ok {
		t.Error("Expected no utterance from silence alone")
	}
	if s.Flush(start.Add(time.Second)) {
		t.Error("Expected flush of unvoiced audio to report nothing")
	}
}

func TestFlushForcesBoundary(t *testing.T) {
	s := New(testConfig(), zap.NewNop())
	start := time.Now()

	s.Push(loudFrame(0, start))
	s.Push(loudFrame(1, start.Add(50*time.Millisecond)))

	if !s.Flush(start.Add(60 * time.Millisecond)) {
		t.Fatal("Expected flush to emit buffered speech")
	}

	u, ok := drain(s)
	if !ok {
		t.Fatal("Expected an utterance after flush")
	}
	if len(u.Frames) != 2 {
		t.Errorf("Expected 2 frames, got %d", len(u.Frames))
	}

	// The buffer must be consumed exactly once.
	if s.Flush(start.Add(time.Second)) {
		t.Error("Expected second flush to report nothing")
	}
}

func TestResetDropsBufferedAudio(t *testing.T) {
	s := New(testConfig(), zap.NewNop())
	start := time.Now()

	s.Push(loudFrame(0, start))
	s.Reset()

	if s.Flush(start.Add(time.Second)) {
		t.Error("Expected nothing to flush after reset")
	}
}

func TestDropsOldestFramesWhenRingFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBufferFrames = 4
	s := New(cfg, zap.NewNop())
	start := time.Now()

	for i := 0; i < 6; i++ {
		s.Push(loudFrame(i, start.Add(time.Duration(i)*50*time.Millisecond)))
	}
	if !s.Flush(start.Add(time.Second)) {
		t.Fatal("Expected flush to emit buffered speech")
	}

	u, ok := drain(s)
	if !ok {
		t.Fatal("Expected an utterance")
	}
	if len(u.Frames) != 4 {
		t.Fatalf("Expected ring to cap at 4 frames, got %d", len(u.Frames))
	}
	if u.Frames[0].Sequence != 2 {
		t.Errorf("Expected oldest frames dropped, first sequence is %d", u.Frames[0].Sequence)
	}
}

func TestFrameRMS(t *testing.T) {
	if got := frameRMS(nil); got != 0 {
		t.Errorf("Expected 0 RMS for empty frame, got %f", got)
	}
	if got := frameRMS([]byte{1}); got != 0 {
		t.Errorf("Expected 0 RMS for sub-sample frame, got %f", got)
	}

	frame := pcmFrame(0, time.Now(), 1000)
	if got := frameRMS(frame.Data); got != 1000 {
		t.Errorf("Expected RMS 1000 for constant samples, got %f", got)
	}
}
