package detector

import (
	"testing"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
)

func TestDetectCompleteQuestion(t *testing.T) {
	question, ok := Detect("Tell me about a time you led a project?")
	if !ok {
		t.Fatal("Expected a question to be detected")
	}
	if question.Category != entities.CategoryBehavioral {
		t.Errorf("Expected behavioral category, got %s", question.Category)
	}
	if question.Text != "Tell me about a time you led a project?" {
		t.Errorf("Unexpected question text %q", question.Text)
	}
}

func TestDetectRejectsNonQuestions(t *testing.T) {
	cases := []string{
		"",
		"ok",
		"thanks for coming in today",
		"so",
	}
	for _, text := range cases {
		if _, ok := Detect(text); ok {
			t.Errorf("Expected %q not to be detected as a question", text)
		}
	}
}

func TestDetectRejectsIncompleteQuestion(t *testing.T) {
	// Question opener but too few words and no terminal punctuation.
	if _, ok := Detect("what about"); ok {
		t.Error("Expected incomplete question to be rejected")
	}
}

func TestIsLikelyQuestion(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"What is a goroutine?", true},
		{"tell me about yourself", true},
		{"Could you walk me through your resume", true},
		{"so anyway what brought you here", true}, // mid-sentence opener
		{"great", false},
		{"nice to meet you", false},
		{"the weather was really quite nice on the way here today", true}, // long text gets benefit of the doubt
	}
	for _, c := range cases {
		if got := IsLikelyQuestion(c.text); got != c.want {
			t.Errorf("IsLikelyQuestion(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestIsLikelyComplete(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"What is your greatest strength?", true},
		{"what is your", false},                            // under the token minimum
		{"describe a situation where you disagreed", false}, // 6 words, no terminal punctuation
		{"describe a situation where you disagreed with your manager", true}, // long enough to stand alone
		{"tell me about your last project.", true},
		{"", false},
	}
	for _, c := range cases {
		if got := IsLikelyComplete(c.text); got != c.want {
			t.Errorf("IsLikelyComplete(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		text string
		want entities.QuestionCategory
	}{
		{"Tell me about a time you debugged a production outage", entities.CategoryBehavioral},
		{"What would you do if a teammate missed a deadline?", entities.CategorySituational},
		{"What is the difference between a mutex and a channel?", entities.CategoryTechnical},
		{"Why do you want to work here?", entities.CategoryGeneral},
	}
	for _, c := range cases {
		if got := Categorize(c.text); got != c.want {
			t.Errorf("Categorize(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}

func TestBehavioralWinsOverTechnicalMarkers(t *testing.T) {
	// Contains "debug" but the behavioral phrasing should win.
	got := Categorize("Describe a time you had to debug a distributed system")
	if got != entities.CategoryBehavioral {
		t.Errorf("Expected behavioral, got %s", got)
	}
}

func TestTemporaryAnswerPerCategory(t *testing.T) {
	seen := map[string]bool{}
	for _, category := range []entities.QuestionCategory{
		entities.CategoryBehavioral,
		entities.CategoryTechnical,
		entities.CategorySituational,
		entities.CategoryGeneral,
	} {
		answer := TemporaryAnswer(category)
		if answer == "" {
			t.Errorf("Expected a temporary answer for %s", category)
		}
		seen[answer] = true
	}
	if len(seen) != 4 {
		t.Errorf("Expected distinct openers per category, got %d", len(seen))
	}
}
