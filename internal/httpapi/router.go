// Package httpapi is the HTTP transport for lesson creation and quiz
// evaluation.
package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/Roshan0411/medlearn-ai/internal/lesson"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// StaticPrefix is where files under Options.StaticDir are served.
const StaticPrefix = "/static"

// devOrigins are always allowed in addition to the configured frontend.
var devOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"http://127.0.0.1:5173",
}

// LessonService is the part of lesson.Service the handlers use.
type LessonService interface {
	CreateSessionWithProgress(ctx context.Context, topic string, report lesson.ProgressFunc) (*lesson.Lesson, error)
	EvaluateAnswer(ctx context.Context, sessionID string, level int, answer string) (lesson.Outcome, error)
	GetSession(ctx context.Context, id string) (*lesson.Session, error)
}

// HealthChecker is a dependency checked by /readyz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Check names a HealthChecker for readiness reporting. An Optional check
// is reported as degraded but never fails readiness.
type Check struct {
	Name     string
	Checker  HealthChecker
	Optional bool
}

// Options configures the router.
type Options struct {
	FrontendURL   string
	StaticDir     string
	ExportEnabled bool
	Checks        []Check
}

// Server holds handler dependencies.
type Server struct {
	svc     LessonService
	opts    Options
	origins []string
}

// NewRouter returns the complete HTTP handler with CORS and request logging.
func NewRouter(svc LessonService, opts Options) http.Handler {
	s := &Server{svc: svc, opts: opts, origins: allowedOrigins(opts.FrontendURL)}

	r := mux.NewRouter()
	r.Use(requestLogger)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/test", s.handleAPITest).Methods(http.MethodGet)
	api.HandleFunc("/learn", s.handleLearn).Methods(http.MethodPost)
	api.HandleFunc("/learn/stream", s.handleLearnStream).Methods(http.MethodGet)
	api.HandleFunc("/quiz/evaluate", s.handleEvaluate).Methods(http.MethodPost)
	api.HandleFunc("/session/{id}", s.handleGetSession).Methods(http.MethodGet)
	if opts.ExportEnabled {
		api.HandleFunc("/session/{id}/export", s.handleExport).Methods(http.MethodGet)
	}

	if opts.StaticDir != "" {
		r.PathPrefix(StaticPrefix + "/").Handler(http.StripPrefix(StaticPrefix+"/", noListing(http.FileServer(http.Dir(opts.StaticDir)))))
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func allowedOrigins(frontend string) []string {
	origins := []string{}
	if f := strings.TrimSuffix(strings.TrimSpace(frontend), "/"); f != "" {
		origins = append(origins, f)
	}
	for _, o := range devOrigins {
		if len(origins) > 0 && origins[0] == o {
			continue
		}
		origins = append(origins, o)
	}
	return origins
}

// originHosts converts origins to host patterns for the WebSocket origin check.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}

// noListing hides directory indexes.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
