// Package segmenter turns a stream of audio frames into discrete utterances
// bounded by detected silence.
package segmenter

import (
	"encoding/binary"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
)

// Config tunes voice-activity detection.
type Config struct {
	// SilenceWindow is how long the level must stay below SilenceLevel before
	// an utterance boundary is emitted.
	SilenceWindow time.Duration
	// SilenceLevel is the RMS amplitude below which a frame counts as silent.
	SilenceLevel float64
	// MaxBufferFrames bounds the frame ring; the oldest frames are dropped
	// when a slow consumer lets the buffer fill.
	MaxBufferFrames int
}

func DefaultConfig() Config {
	return Config{
		SilenceWindow:   800 * time.Millisecond,
		SilenceLevel:    500,
		MaxBufferFrames: 512,
	}
}

// Segmenter buffers incoming frames, keeps a rolling energy estimate, and
// emits an utterance once silence exceeds the configured window. It never
// blocks frame ingestion: utterances that cannot be delivered are dropped
// with a warning and the frames are kept for the next boundary.
type Segmenter struct {
	cfg    Config
	logger *zap.Logger

	out chan entities.Utterance

	frames       []entities.AudioFrame
	voiced       bool
	silenceSince time.Time
	level        float64 // rolling RMS estimate
	dropped      int
}

func New(cfg Config, logger *zap.Logger) *Segmenter {
	if cfg.SilenceWindow <= 0 {
		cfg.SilenceWindow = 800 * time.Millisecond
	}
	if cfg.MaxBufferFrames <= 0 {
		cfg.MaxBufferFrames = 512
	}
	return &Segmenter{
		cfg:    cfg,
		logger: logger,
		out:    make(chan entities.Utterance, 4),
	}
}

// Utterances delivers segmented spans of audio.
func (s *Segmenter) Utterances() <-chan entities.Utterance {
	return s.out
}

// Push ingests one frame and emits an utterance if a silence boundary was
// crossed. Safe to call from a single goroutine only.
func (s *Segmenter) Push(frame entities.AudioFrame) {
	s.buffer(frame)

	rms := frameRMS(frame.Data)
	// Exponential smoothing keeps one loud click from ending the silence run.
	s.level = 0.7*s.level + 0.3*rms

	if s.level >= s.cfg.SilenceLevel {
		s.voiced = true
		s.silenceSince = time.Time{}
		return
	}

	if !s.voiced {
		// Leading silence, nothing to bound yet.
		return
	}

	if s.silenceSince.IsZero() {
		s.silenceSince = frame.Timestamp
		return
	}

	if frame.Timestamp.Sub(s.silenceSince) >= s.cfg.SilenceWindow {
		s.emit(frame.Timestamp)
	}
}

// Flush forces an utterance boundary regardless of silence, e.g. when the
// client signals end of audio. Returns false if nothing was buffered.
func (s *Segmenter) Flush(now time.Time) bool {
	if !s.voiced || len(s.frames) == 0 {
		return false
	}
	s.emit(now)
	return true
}

// Reset drops all buffered audio and detection state.
func (s *Segmenter) Reset() {
	s.frames = nil
	s.voiced = false
	s.silenceSince = time.Time{}
	s.level = 0
	s.dropped = 0
}

func (s *Segmenter) buffer(frame entities.AudioFrame) {
	if len(s.frames) >= s.cfg.MaxBufferFrames {
		s.frames = s.frames[1:]
		s.dropped++
		if s.dropped%100 == 1 {
			s.logger.Warn("Frame ring full, dropping oldest audio",
				zap.Int("dropped", s.dropped))
		}
	}
	s.frames = append(s.frames, frame)
}

func (s *Segmenter) emit(end time.Time) {
	utterance := entities.Utterance{
		Start:  s.frames[0].Timestamp,
		End:    end,
		Frames: s.frames,
	}

	select {
	case s.out <- utterance:
		s.frames = nil
		s.voiced = false
		s.silenceSince = time.Time{}
	default:
		// Consumer is behind. Keep the frames buffered so the speech rolls
		// into the next boundary instead of blocking ingestion.
		s.logger.Warn("Utterance channel full, deferring boundary",
			zap.Int("bufferedFrames", len(s.frames)))
		s.silenceSince = time.Time{}
	}
}

// frameRMS computes the root-mean-square amplitude of LINEAR16 little-endian
// samples. Odd trailing bytes are ignored.
func frameRMS(data []byte) float64 {
	if len(data) < 2 {
		return 0
	}
	var sum float64
	n := len(data) / 2
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(data[2*i:]))
		sum += float64(sample) * float64(sample)
	}
	return math.Sqrt(sum / float64(n))
}
