package repositories

import "context"

// AnswerPrompt is the bounded context assembled for one generation.
type AnswerPrompt struct {
	Question      string
	Category      string
	ResumeExcerpt string
	BestStory     string
	TalkingPoints []string
	ExamplesUsed  []string
}

// AnswerGenerator abstracts the generative answer provider.
type AnswerGenerator interface {
	// GenerateAnswerStream invokes the provider in streaming mode. Tokens are
	// delivered on the returned channel as they arrive; the channel is closed
	// on completion. A mid-stream provider error is delivered once on the
	// error channel after the token channel closes. Cancelling ctx abandons
	// the provider call.
	GenerateAnswerStream(ctx context.Context, prompt AnswerPrompt) (<-chan string, <-chan error)
}
