package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Roshan0411/medlearn-ai/internal/lesson"
	"github.com/Roshan0411/medlearn-ai/internal/platform/config"
)

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MEDLEARN_DATABASE_URL", "memory")
	t.Setenv("MEDLEARN_MEDIA_STATIC_DIR", filepath.Join(dir, "static"))
	t.Setenv("MEDLEARN_CACHE_URL", "")
	t.Setenv("MEDLEARN_AI_HUGGINGFACE_TOKEN", "")
	t.Setenv("HUGGINGFACE_TOKEN", "")
	t.Setenv("MEDLEARN_AI_OPENAI_API_KEY", "")
	t.Setenv("MEDLEARN_AI_OPENROUTER_API_KEY", "")
	t.Setenv("MEDLEARN_AI_OLLAMA_ENABLED", "")
	t.Setenv("MEDLEARN_TTS_GOOGLE_API_KEY", "")
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return cfg
}

func TestNewApp_Endpoints(t *testing.T) {
	cfg := testConfig(t, nil)
	handler, cleanup, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer cleanup()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "health returns 200",
			method:     http.MethodGet,
			path:       "/health",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"healthy"}`,
		},
		{
			name:       "readyz returns 200",
			method:     http.MethodGet,
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
		{
			name:       "unknown session returns 404",
			method:     http.MethodPost,
			path:       "/api/quiz/evaluate",
			body:       `{"sessionId":"nonexistent-id","level":1,"answer":"A"}`,
			wantStatus: http.StatusNotFound,
			wantBody:   `{"detail":"Session not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestNewApp_UnreachableProviderDegradesReadiness(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := testConfig(t, map[string]string{
		"MEDLEARN_AI_OLLAMA_ENABLED": "true",
		"MEDLEARN_AI_OLLAMA_URL":     url,
		"MEDLEARN_AI_TIMEOUT":        "2",
	})
	handler, cleanup, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer cleanup()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	want := `{"degraded":["ai"],"status":"ready"}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestNewApp_FallbackLessonWithoutProviders(t *testing.T) {
	cfg := testConfig(t, nil)
	handler, cleanup, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/api/learn", strings.NewReader(`{"query":"Sepsis"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SessionID string `json:"sessionId"`
		Slides    []struct {
			Title    string  `json:"title"`
			ImageURL string  `json:"imageUrl"`
			AudioURL *string `json:"audioUrl"`
		} `json:"slides"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Slides) != 4 {
		t.Fatalf("len(slides) = %d, want 4", len(resp.Slides))
	}
	for i, s := range resp.Slides {
		if s.AudioURL != nil {
			t.Errorf("slides[%d].audioUrl = %q, want null without a TTS key", i, *s.AudioURL)
		}
		if !strings.HasPrefix(s.ImageURL, "https://image.pollinations.ai/prompt/") {
			t.Errorf("slides[%d].imageUrl = %q", i, s.ImageURL)
		}
	}
}

func TestNewApp_InvalidCacheURL(t *testing.T) {
	cfg := testConfig(t, map[string]string{"MEDLEARN_CACHE_URL": "not-a-redis-url"})
	if _, _, err := newApp(context.Background(), cfg); err == nil {
		t.Error("newApp() should fail with an invalid cache URL")
	}
}

func TestOpenStore(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"memory", "memory", "*lesson.MemoryStore"},
		{"sqlite", "sqlite://" + filepath.Join(t.TempDir(), "db", "medlearn.db"), "*lesson.SQLiteStore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, map[string]string{"MEDLEARN_DATABASE_URL": tt.url})
			store, events, checks, closeFn, err := openStore(context.Background(), cfg)
			if err != nil {
				t.Fatalf("openStore() error = %v", err)
			}
			defer closeFn()

			switch tt.want {
			case "*lesson.MemoryStore":
				if _, ok := store.(*lesson.MemoryStore); !ok {
					t.Errorf("store = %T, want %s", store, tt.want)
				}
			case "*lesson.SQLiteStore":
				if _, ok := store.(*lesson.SQLiteStore); !ok {
					t.Errorf("store = %T, want %s", store, tt.want)
				}
			}
			if _, ok := events.(lesson.NopEventLogger); !ok {
				t.Errorf("events = %T, want NopEventLogger", events)
			}
			if len(checks) != 1 || checks[0].Name != "database" {
				t.Errorf("checks = %+v", checks)
			}
		})
	}
}

func TestNewAIRouter(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want []string
	}{
		{"none", nil, nil},
		{"huggingface", map[string]string{"MEDLEARN_AI_HUGGINGFACE_TOKEN": "hf_x"}, []string{"huggingface"}},
		{
			"fallback order",
			map[string]string{
				"MEDLEARN_AI_HUGGINGFACE_TOKEN":  "hf_x",
				"MEDLEARN_AI_OPENAI_API_KEY":     "sk-x",
				"MEDLEARN_AI_OPENROUTER_API_KEY": "sk-or-x",
				"MEDLEARN_AI_OLLAMA_ENABLED":     "true",
			},
			[]string{"huggingface", "openai", "openrouter", "ollama"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAIRouter(testConfig(t, tt.env))
			got := router.Names()
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Names() = %v, want %v", got, tt.want)
			}
			if router.HasProvider() != (len(tt.want) > 0) {
				t.Errorf("HasProvider() = %v", router.HasProvider())
			}
		})
	}
}
