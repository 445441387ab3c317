package lesson

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLevel is returned for a level outside 1..LevelCount.
	ErrInvalidLevel = errors.New("invalid level")
	// ErrSessionNotFound is returned when no session has the given id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidTopic is returned for an empty topic.
	ErrInvalidTopic = errors.New("topic is required")
)

// Stage names a generation step.
type Stage string

const (
	StageSlides Stage = "slides"
	StageQuiz   Stage = "quiz"
)

// GenerationError reports unusable generator output. It is always replaced
// by fallback content and never reaches a caller of the Service.
type GenerationError struct {
	Stage Stage
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
