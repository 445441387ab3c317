package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrAudioDisabled is reported when no synthesizer is configured.
var ErrAudioDisabled = errors.New("audio synthesis not configured")

// Request describes one slide to enrich. Index is zero-based.
type Request struct {
	SessionID string
	Index     int
	Title     string
	Narration string
}

// Result is the enrichment of one slide. AudioURL is empty when AudioErr
// is set; ImageURL is always usable.
type Result struct {
	ImageURL string
	AudioURL string
	AudioErr error
}

// AudioFileName is the deterministic name of a slide's narration file.
func AudioFileName(sessionID string, index int) string {
	return fmt.Sprintf("%s_slide_%d.mp3", sessionID, index+1)
}

// Enricher attaches an image and narration audio to a slide.
type Enricher struct {
	images    *Images
	tts       Synthesizer
	audioDir  string
	urlPrefix string
	timeout   time.Duration
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithSynthesizer enables narration audio.
func WithSynthesizer(s Synthesizer) EnricherOption {
	return func(e *Enricher) {
		e.tts = s
	}
}

// WithAudioTimeout bounds each synthesis call.
func WithAudioTimeout(d time.Duration) EnricherOption {
	return func(e *Enricher) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithAudioURLPrefix sets the public path audio files are served under.
func WithAudioURLPrefix(prefix string) EnricherOption {
	return func(e *Enricher) {
		e.urlPrefix = strings.TrimSuffix(prefix, "/")
	}
}

// NewEnricher writes audio into audioDir, creating it if needed.
func NewEnricher(images *Images, audioDir string, opts ...EnricherOption) (*Enricher, error) {
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audio directory: %w", err)
	}
	e := &Enricher{
		images:    images,
		audioDir:  audioDir,
		urlPrefix: "/static/audio",
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Enrich never fails as a whole: a bad image description degrades to a
// placeholder and an audio failure is reported in Result.AudioErr.
func (e *Enricher) Enrich(ctx context.Context, req Request) Result {
	var res Result

	img, err := e.images.URL(req.Title)
	if err != nil {
		slog.Warn("image generation failed, using placeholder",
			"session_id", req.SessionID,
			"slide", req.Index+1,
			"error", err,
		)
		img = e.images.Placeholder(req.Title)
	}
	res.ImageURL = img

	url, err := e.audio(ctx, req)
	if err != nil {
		res.AudioErr = err
		if !errors.Is(err, ErrAudioDisabled) {
			slog.Warn("audio generation failed",
				"session_id", req.SessionID,
				"slide", req.Index+1,
				"error", err,
			)
		}
		return res
	}
	res.AudioURL = url
	return res
}

func (e *Enricher) audio(ctx context.Context, req Request) (string, error) {
	if e.tts == nil {
		return "", ErrAudioDisabled
	}

	name := AudioFileName(req.SessionID, req.Index)
	if req.SessionID == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid audio file name %q", name)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	data, err := e.tts.Synthesize(ctx, strings.TrimSpace(req.Narration))
	if err != nil {
		return "", fmt.Errorf("synthesizing slide %d: %w", req.Index+1, err)
	}
	if err := writeFileAtomic(filepath.Join(e.audioDir, name), data); err != nil {
		return "", err
	}
	return e.urlPrefix + "/" + name, nil
}

// writeFileAtomic keeps half-written files from ever being served.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".audio-*")
	if err != nil {
		return fmt.Errorf("creating audio file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing audio file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod audio file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming audio file: %w", err)
	}
	return nil
}
