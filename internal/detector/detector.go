// Package detector decides whether accumulated transcript text contains a
// complete, answerable interview question and tags its category. Detection is
// advisory: the orchestrator also accepts explicit answer requests, and both
// paths converge downstream.
package detector

import (
	"strings"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
)

var questionOpeners = []string{
	"what", "how", "why", "when", "where", "who", "which", "whose",
	"can you", "could you", "would you", "will you", "should you",
	"do you", "did you", "does", "have you", "has",
	"describe", "tell me", "explain", "share", "talk about",
	"give me", "walk me through", "think of",
}

var behavioralMarkers = []string{
	"tell me about a time", "describe a time", "describe a situation",
	"give me an example of", "have you ever", "talk about a time",
	"walk me through a time", "tell me about yourself", "greatest weakness",
	"greatest strength", "biggest challenge", "proudest",
}

var situationalMarkers = []string{
	"what would you do", "how would you handle", "how would you respond",
	"imagine", "suppose", "if you were", "what if", "hypothetically",
}

var technicalMarkers = []string{
	"how does", "how do you implement", "what is the difference",
	"explain how", "explain the", "design a", "what happens when",
	"algorithm", "complexity", "architecture", "debug", "optimize",
	"data structure", "database", "deploy", "scale",
}

// Detect inspects transcript text and reports whether it now contains one
// complete question. Malformed input never panics; classification falls back
// to the general category.
func Detect(transcript string) (entities.Question, bool) {
	text := strings.TrimSpace(transcript)
	if !IsLikelyQuestion(text) {
		return entities.Question{}, false
	}
	if !IsLikelyComplete(text) {
		return entities.Question{}, false
	}
	return entities.Question{
		Text:     text,
		Category: Categorize(text),
	}, true
}

// IsLikelyQuestion is a fast keyword pre-filter that rules out text that is
// definitely not a question, avoiding downstream work.
func IsLikelyQuestion(text string) bool {
	if len(text) < 5 {
		return false
	}

	lower := strings.ToLower(strings.TrimSpace(text))

	if strings.Contains(text, "?") {
		return true
	}

	for _, opener := range questionOpeners {
		if strings.HasPrefix(lower, opener) {
			return true
		}
	}

	padded := " " + lower + " "
	for _, opener := range questionOpeners {
		if strings.Contains(padded, " "+opener+" ") {
			return true
		}
	}

	// Short text with no indicators is not a question; longer text gets the
	// benefit of the doubt.
	return len(strings.Fields(text)) >= 8
}

// IsLikelyComplete checks that a question is syntactically finished: minimum
// token count plus terminal punctuation, or enough length to stand alone.
func IsLikelyComplete(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	words := len(strings.Fields(text))
	if words < 5 {
		return false
	}

	if strings.HasSuffix(text, "?") {
		return true
	}
	if words >= 8 {
		return true
	}

	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!")
}

// Categorize tags a question as behavioral, situational, technical or
// general. Marker order matters: behavioral phrasing ("tell me about a time
// you debugged...") wins over the technical words inside it.
func Categorize(text string) entities.QuestionCategory {
	lower := strings.ToLower(text)

	for _, m := range behavioralMarkers {
		if strings.Contains(lower, m) {
			return entities.CategoryBehavioral
		}
	}
	for _, m := range situationalMarkers {
		if strings.Contains(lower, m) {
			return entities.CategorySituational
		}
	}
	for _, m := range technicalMarkers {
		if strings.Contains(lower, m) {
			return entities.CategoryTechnical
		}
	}
	return entities.CategoryGeneral
}

// TemporaryAnswer returns a short provisional opener for a question category,
// shown while the real answer is being matched or generated.
func TemporaryAnswer(category entities.QuestionCategory) string {
	switch category {
	case entities.CategoryBehavioral:
		return "Let me think of a specific example from my experience..."
	case entities.CategoryTechnical:
		return "Let me walk through the key concepts here..."
	case entities.CategorySituational:
		return "Let me consider how I would approach that situation..."
	default:
		return "Let me gather my thoughts on that..."
	}
}
