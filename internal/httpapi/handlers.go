package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Roshan0411/medlearn-ai/internal/export"
	"github.com/Roshan0411/medlearn-ai/internal/lesson"
)

const readyTimeout = 3 * time.Second

type learnRequest struct {
	Query string `json:"query"`
}

// slideView is a slide as sent to clients. Narration is never exposed and
// a missing audio file is null.
type slideView struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ImageURL string  `json:"imageUrl"`
	AudioURL *string `json:"audioUrl"`
}

type learnResponse struct {
	SessionID string      `json:"sessionId"`
	Slides    []slideView `json:"slides"`
}

type evaluateRequest struct {
	SessionID string `json:"sessionId"`
	Level     *int   `json:"level"`
	Answer    string `json:"answer"`
}

type sessionSlide struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type sessionQuestion struct {
	Level       int      `json:"level"`
	LevelName   string   `json:"levelName"`
	Description string   `json:"description"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
}

type sessionResponse struct {
	SessionID string            `json:"sessionId"`
	Topic     string            `json:"topic"`
	CreatedAt time.Time         `json:"createdAt"`
	Slides    []sessionSlide    `json:"slides"`
	Quiz      []sessionQuestion `json:"quiz"`
}

func slideViews(slides []lesson.Slide) []slideView {
	out := make([]slideView, len(slides))
	for i, s := range slides {
		v := slideView{Title: s.Title, Content: s.Content, ImageURL: s.ImageURL}
		if s.AudioURL != "" {
			audio := s.AudioURL
			v.AudioURL = &audio
		}
		out[i] = v
	}
	return out
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "MedLearn AI API is running!",
		"status":  "healthy",
		"version": Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleAPITest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "API is working"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	var degraded []string
	for _, c := range s.opts.Checks {
		err := c.Checker.HealthCheck(ctx)
		if err == nil {
			continue
		}
		slog.Warn("readiness check failed", "component", c.Name, "optional", c.Optional, "error", err)
		if c.Optional {
			degraded = append(degraded, c.Name)
			continue
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":    "unavailable",
			"component": c.Name,
		})
		return
	}

	if len(degraded) > 0 {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "degraded": degraded})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	l, err := s.svc.CreateSessionWithProgress(r.Context(), req.Query, nil)
	if err != nil {
		if r.Context().Err() != nil {
			slog.Info("lesson request cancelled by client", "error", err)
			return
		}
		writeServiceError(w, r, err, "Error generating lesson")
		return
	}

	writeJSON(w, http.StatusOK, learnResponse{
		SessionID: l.Session.ID,
		Slides:    slideViews(l.Session.Slides),
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Level == nil {
		writeError(w, http.StatusBadRequest, "Level is required")
		return
	}

	out, err := s.svc.EvaluateAnswer(r.Context(), req.SessionID, *req.Level, req.Answer)
	if err != nil {
		if errors.Is(err, lesson.ErrInvalidLevel) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid level. Must be between 1 and %d", lesson.LevelCount))
			return
		}
		writeServiceError(w, r, err, "Error evaluating answer")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err, "Error loading session")
		return
	}

	resp := sessionResponse{
		SessionID: sess.ID,
		Topic:     sess.Topic,
		CreatedAt: sess.CreatedAt,
		Slides:    make([]sessionSlide, len(sess.Slides)),
		Quiz:      make([]sessionQuestion, len(sess.QuizQuestions)),
	}
	for i, sl := range sess.Slides {
		resp.Slides[i] = sessionSlide{Title: sl.Title, Content: sl.Content}
	}
	for i, q := range sess.QuizQuestions {
		info, _ := lesson.LevelInfo(q.Level)
		resp.Quiz[i] = sessionQuestion{
			Level:       q.Level,
			LevelName:   info.Name,
			Description: info.Description,
			Question:    q.Question,
			Options:     q.Options,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err, "Error loading session")
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, sess); err != nil {
		writeServiceError(w, r, err, "Error exporting session")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(sess.ID)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write export", "session_id", sess.ID, "error", err)
	}
}
