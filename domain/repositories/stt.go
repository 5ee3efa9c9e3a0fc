package repositories

import "context"

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// TranscribeAudio converts audio data to text in one shot
	TranscribeAudio(ctx context.Context, audioData []byte, config AudioConfig) (string, error)
	// InitTranscribeStreaming initializes a streaming transcription session
	InitTranscribeStreaming(ctx context.Context, config AudioConfig) (SpeechToTextStreaming, error)
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// SpeechToTextStreaming is one in-flight transcription. Partials delivers
// interim hypotheses as the provider produces them; End closes the audio
// stream and blocks for the final transcription. Cancelling the context
// passed to InitTranscribeStreaming abandons the stream.
type SpeechToTextStreaming interface {
	Stream(data []byte) error
	Partials() <-chan string
	End() (string, error)
}
