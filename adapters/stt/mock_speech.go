package stt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
)

// MockSpeechToText is a placeholder implementation for speech recognition
type MockSpeechToText struct {
	logger *zap.Logger
	// Transcript, when set, is returned as the final transcription of every
	// stream regardless of the audio fed in.
	Transcript string
	// Fail makes every stream report an unavailable provider.
	Fail bool
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{logger: logger}
}

// InitTranscribeStreaming creates a new mock streaming session
func (s *MockSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	if s.Fail {
		return nil, repositories.ErrTranscriptionUnavailable
	}

	s.logger.Info("Initializing mock streaming transcription",
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding),
		zap.String("language", config.Language))

	return &MockSpeechToTextStream{
		logger:   s.logger,
		fixed:    s.Transcript,
		partials: make(chan string, 8),
	}, nil
}

// MockSpeechToTextStream is a mock implementation of streaming speech recognition
type MockSpeechToTextStream struct {
	logger        *zap.Logger
	fixed         string
	audioReceived bool
	transcription string
	partials      chan string
	closed        bool
}

// Stream implements mock streaming audio processing
func (m *MockSpeechToTextStream) Stream(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	m.audioReceived = true

	if m.fixed != "" {
		m.transcription = m.fixed
	} else {
		// Canned responses keyed on cumulative chunk size
		switch {
		case len(data) > 10000:
			m.transcription = "Tell me about a time you had to resolve a conflict on your team."
		case len(data) > 1000:
			m.transcription = "Tell me about yourself."
		default:
			m.transcription = "Hello."
		}
	}

	select {
	case m.partials <- m.transcription:
	default:
	}

	return nil
}

func (m *MockSpeechToTextStream) Partials() <-chan string {
	return m.partials
}

// End returns the mock transcription result
func (m *MockSpeechToTextStream) End() (string, error) {
	if !m.closed {
		m.closed = true
		close(m.partials)
	}

	if !m.audioReceived {
		return "", fmt.Errorf("no audio data received")
	}

	if m.transcription == "" {
		return "", fmt.Errorf("no speech detected in audio")
	}

	m.logger.Info("Ending mock transcription stream", zap.String("result", m.transcription))
	return m.transcription, nil
}

// TranscribeAudio implements repositories.SpeechToText
func (s *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	stream, err := s.InitTranscribeStreaming(ctx, config)
	if err != nil {
		return "", err
	}
	if err := stream.Stream(audioData); err != nil {
		return "", err
	}
	return stream.End()
}
