// Package lesson builds four-slide lessons with a progressive quiz and
// evaluates quiz answers against stored sessions.
package lesson

import "time"

const (
	// SlideCount is the number of slides in every session.
	SlideCount = 4
	// LevelCount is the number of quiz levels; question i is level i+1.
	LevelCount = 4
)

// Session is a persisted lesson. It is written once and never mutated.
type Session struct {
	ID            string         `json:"id"`
	Topic         string         `json:"topic"`
	Slides        []Slide        `json:"slides"`
	QuizQuestions []QuizQuestion `json:"quiz_questions"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Slide is one slide. Narration drives audio and is persisted but never
// sent to clients. ImageURL and AudioURL are set by enrichment.
type Slide struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Narration string `json:"narration"`
	ImageURL  string `json:"imageUrl,omitempty"`
	AudioURL  string `json:"audioUrl,omitempty"`
}

// QuizQuestion is one multiple-choice question.
type QuizQuestion struct {
	Level         int      `json:"level"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Level describes a quiz level for display.
type Level struct {
	Number      int    `json:"level"`
	Name        string `json:"levelName"`
	Description string `json:"description"`
}

var levels = [LevelCount]Level{
	{1, "Beginner", "Basic recall and definition questions"},
	{2, "Intermediate", "Application and understanding questions"},
	{3, "Advanced", "Clinical reasoning and analysis"},
	{4, "Expert", "Complex integration and expert-level problems"},
}

// LevelInfo returns the catalogue entry for level n.
func LevelInfo(n int) (Level, bool) {
	if !ValidLevel(n) {
		return Level{}, false
	}
	return levels[n-1], true
}

// ValidLevel reports whether n is a quiz level.
func ValidLevel(n int) bool {
	return n >= 1 && n <= LevelCount
}

// Source says where generated content came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Lesson is the result of building a session, with provenance for logs
// and tests. Session.Slides carry enrichment fields.
type Lesson struct {
	Session       Session
	SlideSource   Source
	QuizSource    Source
	AudioFailures int
}
