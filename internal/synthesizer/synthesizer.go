// Package synthesizer assembles a bounded generation context for a missed
// question and streams the provider's answer token by token.
package synthesizer

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
)

const (
	maxResumeChars   = 2000
	maxTalkingPoints = 10
)

// Request carries everything one generation needs.
type Request struct {
	Question entities.Question
	Context  entities.SessionContext
	// BestStory is the closest persisted STAR story, offered as inspiration
	// even when it scored below the hit threshold. May be nil.
	BestStory *entities.KnowledgeItem
	// ExamplesUsed lists examples already referenced this session, so the
	// provider is instructed not to repeat them.
	ExamplesUsed []string
}

// Synthesis is the outcome of a completed (or failed mid-stream) generation.
type Synthesis struct {
	Answer entities.Answer
	// ExamplesReferenced names the stories the generated text drew on, for
	// the session's examples-used set.
	ExamplesReferenced []string
}

// Synthesizer drives the generative answer provider.
type Synthesizer struct {
	generator repositories.AnswerGenerator
	logger    *zap.Logger
}

func New(generator repositories.AnswerGenerator, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{generator: generator, logger: logger}
}

// Stream invokes the provider and forwards each produced chunk to emit as it
// arrives. emit returning false stops forwarding (cooperative cancellation);
// the provider call is abandoned via ctx by the caller. On a mid-stream
// provider failure the partial text collected so far is kept in the returned
// synthesis alongside the error.
func (s *Synthesizer) Stream(ctx context.Context, req Request, emit func(chunk string) bool) (Synthesis, error) {
	prompt := s.buildPrompt(req)

	tokens, errs := s.generator.GenerateAnswerStream(ctx, prompt)

	var text strings.Builder
	for chunk := range tokens {
		text.WriteString(chunk)
		if !emit(chunk) {
			s.logger.Debug("Generation cancelled mid-stream",
				zap.String("question", req.Question.Text))
			break
		}
	}

	err := <-errs

	synthesis := Synthesis{
		Answer: entities.Answer{
			Question:  req.Question,
			Text:      text.String(),
			Origin:    entities.AnswerOriginGenerated,
			CreatedAt: time.Now(),
		},
		ExamplesReferenced: referencedExamples(text.String(), req),
	}
	return synthesis, err
}

func (s *Synthesizer) buildPrompt(req Request) repositories.AnswerPrompt {
	points := req.Context.TalkingPoints
	if len(points) > maxTalkingPoints {
		points = points[:maxTalkingPoints]
	}

	return repositories.AnswerPrompt{
		Question:      req.Question.Text,
		Category:      string(req.Question.Category),
		ResumeExcerpt: truncate(req.Context.ResumeText, maxResumeChars),
		BestStory:     s.pickStory(req),
		TalkingPoints: points,
		ExamplesUsed:  req.ExamplesUsed,
	}
}

// pickStory prefers the persisted nearest story; without one it falls back to
// the session-context story with the highest word overlap with the question.
func (s *Synthesizer) pickStory(req Request) string {
	if req.BestStory != nil {
		return req.BestStory.Question + "\n" + req.BestStory.Answer
	}

	story, ok := closestStory(req.Question.Text, req.Context.StarStories)
	if !ok {
		return ""
	}
	return formatStory(story)
}

func formatStory(st entities.StarStory) string {
	var sb strings.Builder
	sb.WriteString("Story: " + st.Title)
	sb.WriteString("\nSituation: " + st.Situation)
	sb.WriteString("\nTask: " + st.Task)
	sb.WriteString("\nAction: " + st.Action)
	sb.WriteString("\nResult: " + st.Result)
	return sb.String()
}

// closestStory scores stories by question-word overlap.
func closestStory(question string, stories []entities.StarStory) (entities.StarStory, bool) {
	if len(stories) == 0 {
		return entities.StarStory{}, false
	}

	qWords := wordSet(question)
	best, bestScore := 0, -1
	for i, st := range stories {
		score := 0
		for w := range wordSet(st.Title + " " + st.Situation) {
			if qWords[w] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return stories[best], true
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if len(w) > 3 {
			set[strings.Trim(w, ".,?!")] = true
		}
	}
	return set
}

// referencedExamples finds which story titles the generated text mentions.
// The offered story counts as referenced even without a literal title match,
// since the provider was told to draw on it.
func referencedExamples(text string, req Request) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var refs []string

	add := func(title string) {
		if title != "" && !seen[title] {
			seen[title] = true
			refs = append(refs, title)
		}
	}

	for _, st := range req.Context.StarStories {
		if st.Title != "" && strings.Contains(lower, strings.ToLower(st.Title)) {
			add(st.Title)
		}
	}
	if text != "" && req.BestStory != nil {
		add(req.BestStory.Question)
	}
	return refs
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
