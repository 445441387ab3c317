package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Roshan0411/medlearn-ai/internal/lesson"
)

const streamWriteTimeout = 10 * time.Second

// streamMessage is one frame on /api/learn/stream.
type streamMessage struct {
	Type      string      `json:"type"`
	Stage     string      `json:"stage,omitempty"`
	Slide     int         `json:"slide,omitempty"`
	Total     int         `json:"total,omitempty"`
	Message   string      `json:"message,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
	Slides    []slideView `json:"slides,omitempty"`
	Detail    string      `json:"detail,omitempty"`
}

// handleLearnStream builds a lesson like POST /api/learn, reporting each
// step over a WebSocket before sending the result.
func (s *Server) handleLearnStream(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originHosts(s.origins),
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	// The client sends nothing; CloseRead cancels ctx when it disconnects.
	ctx, cancel := context.WithCancel(conn.CloseRead(r.Context()))
	defer cancel()

	send := func(m streamMessage) error {
		wctx, wcancel := context.WithTimeout(ctx, streamWriteTimeout)
		defer wcancel()
		return wsjson.Write(wctx, conn, m)
	}

	l, err := s.svc.CreateSessionWithProgress(ctx, query, func(p lesson.Progress) {
		if err := send(streamMessage{
			Type:    "progress",
			Stage:   p.Stage,
			Slide:   p.Slide,
			Total:   p.Total,
			Message: p.Message,
		}); err != nil {
			cancel()
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			slog.Info("lesson stream closed by client", "error", err)
			return
		}
		slog.Error("Error generating lesson", "error", err)
		_ = send(streamMessage{Type: "error", Detail: "Error generating lesson"})
		conn.Close(websocket.StatusInternalError, "lesson failed")
		return
	}

	if err := send(streamMessage{
		Type:      "result",
		SessionID: l.Session.ID,
		Slides:    slideViews(l.Session.Slides),
	}); err != nil {
		slog.Warn("failed to send lesson result", "session_id", l.Session.ID, "error", err)
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
