package lesson

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Roshan0411/medlearn-ai/internal/ai"
)

// ContentGenerator produces raw lesson content. Implementations return an
// error for anything other than exactly SlideCount slides or LevelCount
// questions; the Service substitutes fallback content on any error.
type ContentGenerator interface {
	GenerateSlides(ctx context.Context, topic string) ([]Slide, error)
	GenerateQuiz(ctx context.Context, topic string, slides []Slide) ([]QuizQuestion, error)
}

const (
	slidesMaxTokens = 2000
	quizMaxTokens   = 1500
	temperature     = 0.7
)

const slidesSchema = `{
  "type": "object",
  "required": ["slides"],
  "properties": {
    "slides": {
      "type": "array",
      "minItems": 4,
      "maxItems": 4,
      "items": {
        "type": "object",
        "required": ["title", "content", "narration"],
        "properties": {
          "title":     {"type": "string", "pattern": "\\S"},
          "content":   {"type": "string", "pattern": "\\S"},
          "narration": {"type": "string"}
        }
      }
    }
  }
}`

const quizSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 4,
      "maxItems": 4,
      "items": {
        "type": "object",
        "required": ["question", "options", "correct_answer"],
        "properties": {
          "level":          {"type": "integer"},
          "question":       {"type": "string", "pattern": "\\S"},
          "options":        {"type": "array", "minItems": 4, "maxItems": 4, "items": {"type": "string"}},
          "correct_answer": {"type": "string", "pattern": "\\S"},
          "explanation":    {"type": "string"}
        }
      }
    }
  }
}`

// AIGenerator asks a chat model for lesson JSON and validates the reply
// against a JSON schema before decoding it.
type AIGenerator struct {
	llm    ai.Completer
	model  string
	slides *gojsonschema.Schema
	quiz   *gojsonschema.Schema
}

// NewAIGenerator compiles the response schemas. An empty model lets each
// provider use its default.
func NewAIGenerator(llm ai.Completer, model string) (*AIGenerator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(slidesSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling slides schema: %w", err)
	}
	q, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(quizSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling quiz schema: %w", err)
	}
	return &AIGenerator{llm: llm, model: model, slides: s, quiz: q}, nil
}

func (g *AIGenerator) GenerateSlides(ctx context.Context, topic string) ([]Slide, error) {
	var doc struct {
		Slides []Slide `json:"slides"`
	}
	if err := g.complete(ctx, ai.TaskLesson, slidesPrompt(topic), slidesMaxTokens, g.slides, &doc); err != nil {
		return nil, &GenerationError{Stage: StageSlides, Err: err}
	}

	out := make([]Slide, len(doc.Slides))
	for i, s := range doc.Slides {
		out[i] = Slide{
			Title:     strings.TrimSpace(s.Title),
			Content:   strings.TrimSpace(s.Content),
			Narration: strings.TrimSpace(s.Narration),
		}
	}
	return out, nil
}

func (g *AIGenerator) GenerateQuiz(ctx context.Context, topic string, slides []Slide) ([]QuizQuestion, error) {
	var doc struct {
		Questions []QuizQuestion `json:"questions"`
	}
	if err := g.complete(ctx, ai.TaskQuiz, quizPrompt(topic, slides), quizMaxTokens, g.quiz, &doc); err != nil {
		return nil, &GenerationError{Stage: StageQuiz, Err: err}
	}

	// Levels follow array position whatever the model numbered them.
	for i := range doc.Questions {
		doc.Questions[i].Level = i + 1
		doc.Questions[i].CorrectAnswer = strings.TrimSpace(doc.Questions[i].CorrectAnswer)
	}
	return doc.Questions, nil
}

func (g *AIGenerator) complete(ctx context.Context, task ai.TaskType, prompt string, maxTokens int, schema *gojsonschema.Schema, dst any) error {
	resp, err := g.llm.Complete(ctx, ai.CompletionRequest{
		Messages:    []ai.Message{{Role: "user", Content: prompt}},
		Model:       g.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Task:        task,
	})
	if err != nil {
		return err
	}

	raw, err := ai.ExtractJSONObject(resp.Content)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("parsing completion: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("completion does not match schema: %s", strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decoding completion: %w", err)
	}
	return nil
}

func slidesPrompt(topic string) string {
	return fmt.Sprintf(`You are an expert medical educator. Create exactly 4 educational slides about: %s

For each slide, provide:
1. A clear title
2. 3-4 bullet points of content
3. A natural narration script (2-3 sentences)

Format your response EXACTLY as JSON:
{
  "slides": [
    {
      "title": "Slide 1 Title",
      "content": "• Point 1\n• Point 2\n• Point 3",
      "narration": "Natural speaking script for this slide."
    }
  ]
}

The "slides" array must contain exactly 4 entries.
Return ONLY valid JSON, no other text.`, topic)
}

func quizPrompt(topic string, slides []Slide) string {
	var b strings.Builder
	for i, s := range slides {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s: %s", s.Title, s.Content)
	}

	return fmt.Sprintf(`Based on this medical content about %s:

%s

Create exactly 4 multiple-choice quiz questions with progressive difficulty:
- Level 1: Basic recall
- Level 2: Understanding/comprehension
- Level 3: Application
- Level 4: Analysis/synthesis

Format as JSON:
{
  "questions": [
    {
      "level": 1,
      "question": "Question text?",
      "options": ["A) Option 1", "B) Option 2", "C) Option 3", "D) Option 4"],
      "correct_answer": "A",
      "explanation": "Brief explanation why this is correct."
    }
  ]
}

Return ONLY valid JSON.`, topic, b.String())
}
