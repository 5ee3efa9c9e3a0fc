package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
)

const (
	defaultModel          = "gemini-2.0-flash"
	defaultTemperature    = 0.7
	defaultTopP           = 0.95
	defaultMaxTokens      = 1024
	defaultTimeoutSeconds = 60
	maxAttempts           = 3
)

const systemPrompt = `You are an interview coaching assistant. Your job is to help the candidate answer interview questions effectively.

Based on the candidate's background information (resume, STAR stories, talking points), generate a concise, natural-sounding answer that:
1. Directly addresses the question
2. Uses specific examples from their experience when relevant
3. Follows the STAR format for behavioral questions
4. Is conversational and authentic, not robotic
5. Can be delivered in about 1-2 minutes

Keep the answer focused and avoid unnecessary filler. The candidate will use this as a guide, not read it verbatim.`

// GeminiGenerator implements AnswerGenerator using Google's Gemini API
type GeminiGenerator struct {
	client  *genai.Client
	logger  *zap.Logger
	model   string
	timeout time.Duration
}

// NewGeminiGenerator creates a new Gemini answer generator
func NewGeminiGenerator(ctx context.Context, apiKey string, logger *zap.Logger) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:  client,
		logger:  logger,
		model:   defaultModel,
		timeout: defaultTimeoutSeconds * time.Second,
	}, nil
}

// GenerateAnswerStream streams a generated answer token by token. The token
// channel is closed on completion; a provider error is delivered once on the
// error channel afterwards. Cancelling ctx abandons the provider call.
func (g *GeminiGenerator) GenerateAnswerStream(ctx context.Context, prompt repositories.AnswerPrompt) (<-chan string, <-chan error) {
	tokens := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(tokens)

		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		contents := []*genai.Content{
			genai.NewContentFromText(systemPrompt, genai.RoleUser),
			genai.NewContentFromText(BuildUserPrompt(prompt), genai.RoleUser),
		}

		config := &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(defaultTemperature)),
			TopP:            genai.Ptr(float32(defaultTopP)),
			MaxOutputTokens: defaultMaxTokens,
		}

		var lastErr error
		for attempt := 0; attempt < maxAttempts; attempt++ {
			if attempt > 0 {
				g.logger.Warn("Retrying answer generation",
					zap.Int("attempt", attempt+1),
					zap.Error(lastErr))
				select {
				case <-time.After(time.Duration(attempt) * time.Second):
				case <-ctx.Done():
					errs <- fmt.Errorf("%w: %v", repositories.ErrGenerationFailure, ctx.Err())
					return
				}
			}

			emitted, err := g.streamOnce(ctx, contents, config, tokens)
			if err == nil {
				return
			}
			lastErr = err

			// Once tokens have reached the client a retry would duplicate
			// them; surface the failure instead.
			if emitted || ctx.Err() != nil {
				break
			}
		}

		errs <- fmt.Errorf("%w: %v", repositories.ErrGenerationFailure, lastErr)
	}()

	return tokens, errs
}

func (g *GeminiGenerator) streamOnce(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig, tokens chan<- string) (bool, error) {
	emitted := false

	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
		if err != nil {
			return emitted, err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text == "" {
				continue
			}
			select {
			case tokens <- part.Text:
				emitted = true
			case <-ctx.Done():
				return emitted, ctx.Err()
			}
		}
	}

	return emitted, nil
}

// BuildUserPrompt renders the bounded generation context into prompt text.
func BuildUserPrompt(p repositories.AnswerPrompt) string {
	var sb strings.Builder

	sb.WriteString("CANDIDATE BACKGROUND:\n")

	var sections []string
	if p.ResumeExcerpt != "" {
		sections = append(sections, "RESUME:\n"+p.ResumeExcerpt)
	}
	if p.BestStory != "" {
		sections = append(sections, "MOST RELEVANT STORY:\n"+p.BestStory)
	}
	if len(p.TalkingPoints) > 0 {
		points := make([]string, 0, len(p.TalkingPoints))
		for _, tp := range p.TalkingPoints {
			points = append(points, "- "+tp)
		}
		sections = append(sections, "KEY TALKING POINTS:\n"+strings.Join(points, "\n"))
	}
	if len(sections) == 0 {
		sections = append(sections, "No specific context provided.")
	}
	sb.WriteString(strings.Join(sections, "\n\n---\n\n"))

	if len(p.ExamplesUsed) > 0 {
		sb.WriteString("\n\nEXAMPLES ALREADY USED THIS SESSION (do not repeat these):\n")
		for _, e := range p.ExamplesUsed {
			sb.WriteString("- " + e + "\n")
		}
	}

	sb.WriteString("\n\nINTERVIEW QUESTION")
	if p.Category != "" {
		sb.WriteString(" (" + p.Category + ")")
	}
	sb.WriteString(":\n" + p.Question + "\n\nGenerate a suggested answer:")

	return sb.String()
}
