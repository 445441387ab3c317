// Package fallback serves the fixed lesson and quiz used whenever the
// content model cannot produce a usable one.
package fallback

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Size is the number of slides and of quiz questions in every lesson.
const Size = 4

const placeholder = "{topic}"

//go:embed content.yaml
var defaultContent []byte

// Slide is a fallback slide before topic substitution.
type Slide struct {
	Title     string `yaml:"title"`
	Content   string `yaml:"content"`
	Narration string `yaml:"narration"`
}

// Question is a fallback quiz question. Its level is its position.
type Question struct {
	Question      string   `yaml:"question"`
	Options       []string `yaml:"options"`
	CorrectAnswer string   `yaml:"correct_answer"`
	Explanation   string   `yaml:"explanation"`
}

type document struct {
	Slides []Slide    `yaml:"slides"`
	Quiz   []Question `yaml:"quiz"`
}

// Content holds the loaded templates. It is immutable after construction.
type Content struct {
	doc document
}

// Default returns the embedded templates.
func Default() *Content {
	c, err := parse(defaultContent)
	if err != nil {
		panic(fmt.Sprintf("embedded fallback content is invalid: %v", err))
	}
	return c
}

// Load returns the templates from path, or the embedded defaults when path
// is empty.
func Load(path string) (*Content, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fallback content: %w", err)
	}
	c, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("fallback content loaded", "path", path)
	return c, nil
}

func parse(data []byte) (*Content, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing fallback content: %w", err)
	}
	if len(doc.Slides) != Size {
		return nil, fmt.Errorf("fallback content has %d slides, want %d", len(doc.Slides), Size)
	}
	if len(doc.Quiz) != Size {
		return nil, fmt.Errorf("fallback content has %d questions, want %d", len(doc.Quiz), Size)
	}
	for i, q := range doc.Quiz {
		if len(q.Options) != Size {
			return nil, fmt.Errorf("fallback question %d has %d options, want %d", i+1, len(q.Options), Size)
		}
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return nil, fmt.Errorf("fallback question %d has no correct answer", i+1)
		}
	}
	return &Content{doc: doc}, nil
}

// Slides returns the fallback slides for topic.
func (c *Content) Slides(topic string) []Slide {
	out := make([]Slide, len(c.doc.Slides))
	for i, s := range c.doc.Slides {
		out[i] = Slide{
			Title:     fill(s.Title, topic),
			Content:   fill(s.Content, topic),
			Narration: fill(s.Narration, topic),
		}
	}
	return out
}

// Quiz returns the fallback questions for topic, in level order.
func (c *Content) Quiz(topic string) []Question {
	out := make([]Question, len(c.doc.Quiz))
	for i, q := range c.doc.Quiz {
		opts := make([]string, len(q.Options))
		for j, o := range q.Options {
			opts[j] = fill(o, topic)
		}
		out[i] = Question{
			Question:      fill(q.Question, topic),
			Options:       opts,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   fill(q.Explanation, topic),
		}
	}
	return out
}

func fill(s, topic string) string {
	return strings.ReplaceAll(s, placeholder, topic)
}
