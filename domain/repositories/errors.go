package repositories

import "errors"

// Session-local, recoverable failure classes. None of these are fatal to the
// server process.
var (
	// ErrTranscriptionUnavailable means the speech-to-text provider is
	// unreachable or errored. The session surfaces an error event and stays
	// alive, resuming on the next utterance.
	ErrTranscriptionUnavailable = errors.New("transcription provider unavailable")

	// ErrEmbeddingFailure means the embedding provider errored during
	// matching. Treated as an automatic cache miss.
	ErrEmbeddingFailure = errors.New("embedding provider failure")

	// ErrGenerationFailure means the generative provider errored or timed out
	// mid-stream. Partial tokens already emitted are kept.
	ErrGenerationFailure = errors.New("answer generation failure")
)
