package lesson

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Roshan0411/medlearn-ai/internal/fallback"
	"github.com/Roshan0411/medlearn-ai/internal/media"
)

const (
	defaultGenerationTimeout = 60 * time.Second
	defaultEnrichConcurrency = SlideCount
)

var errNoGenerator = errors.New("no content generator configured")

// Enricher attaches an image and narration audio to one slide.
type Enricher interface {
	Enrich(ctx context.Context, req media.Request) media.Result
}

// Progress stages reported while a lesson is built.
const (
	ProgressContent = "content"
	ProgressSlide   = "slide"
	ProgressQuiz    = "quiz"
	ProgressSave    = "save"
)

// Progress is one step of lesson creation, for streaming clients.
type Progress struct {
	Stage   string `json:"stage"`
	Slide   int    `json:"slide,omitempty"`
	Total   int    `json:"total,omitempty"`
	Message string `json:"message"`
}

// ProgressFunc receives progress updates. Calls are serialized.
type ProgressFunc func(Progress)

// SlidesResult is the outcome of slide generation.
type SlidesResult struct {
	Slides []Slide
	Source Source
	Err    error
}

// QuizResult is the outcome of quiz generation.
type QuizResult struct {
	Questions []QuizQuestion
	Source    Source
	Err       error
}

// ServiceConfig holds dependencies for the lesson service.
type ServiceConfig struct {
	Generator         ContentGenerator // nil serves fallback content only
	Enricher          Enricher
	Store             Store
	Events            EventLogger
	Fallback          *fallback.Content
	GenerationTimeout time.Duration // one generation step across all providers
	EnrichConcurrency int
	NewID             func() string
	Now               func() time.Time
}

// Service builds sessions and evaluates quiz answers.
type Service struct {
	gen         ContentGenerator
	enricher    Enricher
	store       Store
	events      EventLogger
	fallback    *fallback.Content
	timeout     time.Duration
	concurrency int
	newID       func() string
	now         func() time.Time
}

// NewService creates a lesson service. Store and Enricher are required.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Enricher == nil {
		return nil, fmt.Errorf("enricher is required")
	}

	s := &Service{
		gen:         cfg.Generator,
		enricher:    cfg.Enricher,
		store:       cfg.Store,
		events:      cfg.Events,
		fallback:    cfg.Fallback,
		timeout:     cfg.GenerationTimeout,
		concurrency: cfg.EnrichConcurrency,
		newID:       cfg.NewID,
		now:         cfg.Now,
	}
	if s.events == nil {
		s.events = NopEventLogger{}
	}
	if s.fallback == nil {
		s.fallback = fallback.Default()
	}
	if s.timeout <= 0 {
		s.timeout = defaultGenerationTimeout
	}
	if s.concurrency <= 0 {
		s.concurrency = defaultEnrichConcurrency
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// CreateSession builds, enriches and persists a lesson for topic.
func (s *Service) CreateSession(ctx context.Context, topic string) (*Lesson, error) {
	return s.CreateSessionWithProgress(ctx, topic, nil)
}

// CreateSessionWithProgress is CreateSession reporting each step to report.
// Content generation failures are replaced with fallback content; only
// cancellation and storage failures are returned.
func (s *Service) CreateSessionWithProgress(ctx context.Context, topic string, report ProgressFunc) (*Lesson, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrInvalidTopic
	}

	var mu sync.Mutex
	emit := func(p Progress) {
		if report == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		report(p)
	}

	id := s.newID()
	log := slog.With("session_id", id)
	log.Info("creating lesson", "topic", topic)

	emit(Progress{Stage: ProgressContent, Message: "Generating lesson content"})
	slides := s.generateSlides(ctx, topic)
	if slides.Err != nil {
		log.Warn("slide generation failed, using fallback", "error", slides.Err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enriched, audioFailures, err := s.enrich(ctx, id, slides.Slides, emit)
	if err != nil {
		return nil, err
	}

	emit(Progress{Stage: ProgressQuiz, Message: "Generating quiz questions"})
	quiz := s.generateQuiz(ctx, topic, slides.Slides)
	if quiz.Err != nil {
		log.Warn("quiz generation failed, using fallback", "error", quiz.Err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess := Session{
		ID:            id,
		Topic:         topic,
		Slides:        persistedSlides(slides.Slides),
		QuizQuestions: quiz.Questions,
		CreatedAt:     s.now().UTC(),
	}

	emit(Progress{Stage: ProgressSave, Message: "Saving session"})
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	s.logEvent(ctx, Event{
		SessionID: id,
		EventType: EventLessonCreated,
		Data: map[string]any{
			"topic":          topic,
			"slide_source":   string(slides.Source),
			"quiz_source":    string(quiz.Source),
			"audio_failures": audioFailures,
		},
	})

	log.Info("lesson created",
		"slide_source", slides.Source,
		"quiz_source", quiz.Source,
		"audio_failures", audioFailures,
	)

	sess.Slides = enriched
	return &Lesson{
		Session:       sess,
		SlideSource:   slides.Source,
		QuizSource:    quiz.Source,
		AudioFailures: audioFailures,
	}, nil
}

func (s *Service) generateSlides(ctx context.Context, topic string) SlidesResult {
	err := errNoGenerator
	if s.gen != nil {
		gctx, cancel := context.WithTimeout(ctx, s.timeout)
		var slides []Slide
		slides, err = s.gen.GenerateSlides(gctx, topic)
		cancel()
		if err == nil && len(slides) != SlideCount {
			err = &GenerationError{Stage: StageSlides, Err: fmt.Errorf("got %d slides, want %d", len(slides), SlideCount)}
		}
		if err == nil {
			return SlidesResult{Slides: slides, Source: SourceModel}
		}
	}

	fb := s.fallback.Slides(topic)
	out := make([]Slide, len(fb))
	for i, f := range fb {
		out[i] = Slide{Title: f.Title, Content: f.Content, Narration: f.Narration}
	}
	return SlidesResult{Slides: out, Source: SourceFallback, Err: err}
}

func (s *Service) generateQuiz(ctx context.Context, topic string, slides []Slide) QuizResult {
	err := errNoGenerator
	if s.gen != nil {
		gctx, cancel := context.WithTimeout(ctx, s.timeout)
		var qs []QuizQuestion
		qs, err = s.gen.GenerateQuiz(gctx, topic, slides)
		cancel()
		if err == nil && len(qs) != LevelCount {
			err = &GenerationError{Stage: StageQuiz, Err: fmt.Errorf("got %d questions, want %d", len(qs), LevelCount)}
		}
		if err == nil {
			for i := range qs {
				qs[i].Level = i + 1
			}
			return QuizResult{Questions: qs, Source: SourceModel}
		}
	}

	fb := s.fallback.Quiz(topic)
	out := make([]QuizQuestion, len(fb))
	for i, f := range fb {
		out[i] = QuizQuestion{
			Level:         i + 1,
			Question:      f.Question,
			Options:       f.Options,
			CorrectAnswer: f.CorrectAnswer,
			Explanation:   f.Explanation,
		}
	}
	return QuizResult{Questions: out, Source: SourceFallback, Err: err}
}

// enrich fans out one Enrich call per slide; results are placed by index.
func (s *Service) enrich(ctx context.Context, id string, slides []Slide, emit ProgressFunc) ([]Slide, int, error) {
	out := make([]Slide, len(slides))
	results := make([]media.Result, len(slides))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	var done int
	var mu sync.Mutex
	for i, sl := range slides {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.enricher.Enrich(gctx, media.Request{
				SessionID: id,
				Index:     i,
				Title:     sl.Title,
				Narration: sl.Narration,
			})

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			emit(Progress{
				Stage:   ProgressSlide,
				Slide:   n,
				Total:   len(slides),
				Message: fmt.Sprintf("Prepared slide %d of %d", n, len(slides)),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	failures := 0
	for i, sl := range slides {
		sl.ImageURL = results[i].ImageURL
		sl.AudioURL = results[i].AudioURL
		if results[i].AudioErr != nil {
			failures++
		}
		out[i] = sl
	}
	return out, failures, nil
}

// EvaluateAnswer grades one quiz submission. The level is checked before
// the session is looked up.
func (s *Service) EvaluateAnswer(ctx context.Context, sessionID string, level int, answer string) (Outcome, error) {
	if !ValidLevel(level) {
		return Outcome{}, fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidLevel, level, LevelCount)
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return Outcome{}, err
	}

	out, err := Evaluate(sess.QuizQuestions, level, answer)
	if err != nil {
		return Outcome{}, err
	}

	data := map[string]any{"level": level, "correct": out.Correct}
	if out.MasteryLevel != nil {
		data["mastery_level"] = *out.MasteryLevel
	}
	s.logEvent(ctx, Event{SessionID: sessionID, EventType: EventQuizEvaluated, Data: data})
	return out, nil
}

// GetSession loads a stored session.
func (s *Service) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// HealthCheck reports whether the session store is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

func (s *Service) logEvent(ctx context.Context, e Event) {
	if err := s.events.LogEvent(ctx, e); err != nil {
		slog.Warn("failed to log event", "type", e.EventType, "session_id", e.SessionID, "error", err)
	}
}
