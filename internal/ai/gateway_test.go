package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Roshan0411/medlearn-ai/internal/ai"
)

func TestMockProvider_Complete(t *testing.T) {
	mock := ai.NewMockProvider("test response")

	resp, err := mock.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "user", Content: "Hello"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "test response" {
		t.Errorf("Content = %q, want %q", resp.Content, "test response")
	}
	if resp.Model != "mock" {
		t.Errorf("Model = %q, want %q", resp.Model, "mock")
	}
	if got := len(mock.Requests()); got != 1 {
		t.Errorf("Requests() len = %d, want 1", got)
	}
}

func TestMockProvider_ByTask(t *testing.T) {
	mock := &ai.MockProvider{
		Response: "default",
		ByTask:   map[ai.TaskType]string{ai.TaskQuiz: "quiz json"},
	}

	lesson, _ := mock.Complete(context.Background(), ai.CompletionRequest{Task: ai.TaskLesson})
	quiz, _ := mock.Complete(context.Background(), ai.CompletionRequest{Task: ai.TaskQuiz})

	if lesson.Content != "default" {
		t.Errorf("lesson content = %q, want default", lesson.Content)
	}
	if quiz.Content != "quiz json" {
		t.Errorf("quiz content = %q, want quiz json", quiz.Content)
	}
}

func TestMockProvider_HealthCheck(t *testing.T) {
	mock := ai.NewMockProvider("response")
	if err := mock.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	mock.Err = errors.New("down")
	if err := mock.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should surface Err")
	}
}

func TestTaskType_String(t *testing.T) {
	tests := []struct {
		task     ai.TaskType
		expected string
	}{
		{ai.TaskLesson, "lesson"},
		{ai.TaskQuiz, "quiz"},
		{ai.TaskType(42), "unknown"},
	}
	for _, tt := range tests {
		if tt.task.String() != tt.expected {
			t.Errorf("TaskType.String() = %q, want %q", tt.task.String(), tt.expected)
		}
	}
}

func TestCompletionResponse_TotalTokens(t *testing.T) {
	resp := ai.CompletionResponse{InputTokens: 100, OutputTokens: 50}
	if got := resp.TotalTokens(); got != 150 {
		t.Errorf("TotalTokens() = %d, want 150", got)
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare", `{"slides":[]}`, `{"slides":[]}`, false},
		{"prose around", "Here you go:\n{\"a\":1}\nHope this helps!", `{"a":1}`, false},
		{"code fence", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, false},
		{"no braces", "I cannot help with that.", "", true},
		{"reversed", "} oops {", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ai.ExtractJSONObject(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractJSONObject() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractJSONObject() = %q, want %q", got, tt.want)
			}
		})
	}
}
