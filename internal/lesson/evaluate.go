package lesson

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// NextQuestion is the question unlocked by a correct answer. It never
// carries the answer or explanation.
type NextQuestion struct {
	Level    int      `json:"level"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Outcome is the result of one quiz submission.
type Outcome struct {
	Correct      bool          `json:"correct"`
	Feedback     string        `json:"feedback"`
	NextQuestion *NextQuestion `json:"nextQuestion,omitempty"`
	MasteryLevel *int          `json:"masteryLevel,omitempty"`
}

// NormalizeAnswer trims surrounding space and case-folds s.
func NormalizeAnswer(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Evaluate grades answer against the question at level. It is a pure
// function: progress is implied by level alone, so a client may repeat or
// skip levels.
func Evaluate(questions []QuizQuestion, level int, answer string) (Outcome, error) {
	if !ValidLevel(level) {
		return Outcome{}, fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidLevel, level, LevelCount)
	}
	if len(questions) != LevelCount {
		return Outcome{}, fmt.Errorf("session has %d quiz questions, want %d", len(questions), LevelCount)
	}

	q := questions[level-1]
	label := strings.TrimSpace(q.CorrectAnswer)
	explanation := strings.TrimSpace(q.Explanation)

	if NormalizeAnswer(answer) != NormalizeAnswer(label) {
		mastery := level - 1
		return Outcome{
			Correct:      false,
			Feedback:     strings.TrimSpace(fmt.Sprintf("Incorrect. The correct answer is: %s. %s", label, explanation)),
			MasteryLevel: &mastery,
		}, nil
	}

	if explanation == "" {
		explanation = "Well done!"
	}
	out := Outcome{
		Correct:  true,
		Feedback: "Correct! " + explanation,
	}

	if level == LevelCount {
		mastery := LevelCount
		out.MasteryLevel = &mastery
		return out, nil
	}

	next := questions[level]
	out.NextQuestion = &NextQuestion{
		Level:    level + 1,
		Question: next.Question,
		Options:  append([]string(nil), next.Options...),
	}
	return out, nil
}
