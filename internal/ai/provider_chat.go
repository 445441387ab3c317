package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultHuggingFaceBaseURL = "https://router.huggingface.co/v1"
	defaultOpenRouterBaseURL  = "https://openrouter.ai/api/v1"

	defaultHuggingFaceModel = "mistralai/Mistral-7B-Instruct-v0.2"
)

// ChatProvider implements Provider for any endpoint speaking the OpenAI
// chat-completions protocol: OpenAI itself, the Hugging Face inference
// router, OpenRouter and Ollama's /v1 surface.
type ChatProvider struct {
	name         string
	apiKey       string
	baseURL      string
	defaultModel string
	healthURL    string
	headers      map[string]string
	client       *http.Client
}

// ChatOption configures a ChatProvider.
type ChatOption func(*ChatProvider)

// WithBaseURL sets the API base URL; the provider appends /chat/completions.
func WithBaseURL(url string) ChatOption {
	return func(p *ChatProvider) {
		p.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ChatOption {
	return func(p *ChatProvider) {
		p.client = client
	}
}

// WithDefaultModel sets the model used when a request leaves Model empty.
func WithDefaultModel(model string) ChatOption {
	return func(p *ChatProvider) {
		if model != "" {
			p.defaultModel = model
		}
	}
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) ChatOption {
	return func(p *ChatProvider) {
		p.headers[key] = value
	}
}

// WithProviderName sets the name reported in logs and responses.
func WithProviderName(name string) ChatOption {
	return func(p *ChatProvider) {
		p.name = name
	}
}

// NewChatProvider creates a provider for an OpenAI-compatible endpoint.
func NewChatProvider(apiKey string, opts ...ChatOption) *ChatProvider {
	p := &ChatProvider{
		name:         "openai",
		apiKey:       apiKey,
		baseURL:      defaultOpenAIBaseURL,
		defaultModel: "gpt-4o-mini",
		headers:      map[string]string{},
		client:       http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewOpenAIProvider creates a provider for the OpenAI API.
func NewOpenAIProvider(apiKey string, opts ...ChatOption) *ChatProvider {
	return NewChatProvider(apiKey, opts...)
}

// NewHuggingFaceProvider creates a provider for the Hugging Face inference
// router, which serves open models behind an OpenAI-compatible API.
func NewHuggingFaceProvider(token string, opts ...ChatOption) *ChatProvider {
	opts = append([]ChatOption{
		WithProviderName("huggingface"),
		WithBaseURL(defaultHuggingFaceBaseURL),
		WithDefaultModel(defaultHuggingFaceModel),
	}, opts...)
	return NewChatProvider(token, opts...)
}

// NewOpenRouterProvider creates a provider for OpenRouter.
func NewOpenRouterProvider(apiKey string, opts ...ChatOption) *ChatProvider {
	opts = append([]ChatOption{
		WithProviderName("openrouter"),
		WithBaseURL(defaultOpenRouterBaseURL),
		WithDefaultModel("mistralai/mistral-7b-instruct"),
		WithHeader("X-Title", "MedLearn AI"),
	}, opts...)
	return NewChatProvider(apiKey, opts...)
}

// NewOllamaProvider creates a provider for a self-hosted Ollama server.
// Ollama needs no credentials and reports liveness on /api/tags.
func NewOllamaProvider(serverURL string, opts ...ChatOption) *ChatProvider {
	serverURL = strings.TrimSuffix(serverURL, "/")
	opts = append([]ChatOption{
		WithProviderName("ollama"),
		WithBaseURL(serverURL + "/v1"),
		WithDefaultModel("llama3:8b"),
	}, opts...)
	p := NewChatProvider("", opts...)
	p.healthURL = serverURL + "/api/tags"
	return p
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Model   string       `json:"model"`
	Usage   chatUsage    `json:"usage"`
}

func (p *ChatProvider) Name() string { return p.name }

func (p *ChatProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	body := chatRequest{
		Model:     model,
		Messages:  make([]chatMessage, len(req.Messages)),
		MaxTokens: req.MaxTokens,
	}
	for i, m := range req.Messages {
		body.Messages[i] = chatMessage(m)
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		body.Temperature = &temp
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	p.authorize(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return CompletionResponse{}, fmt.Errorf("%s api error (status %d): %s", p.name, resp.StatusCode, truncate(string(respBody), 512))
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return CompletionResponse{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(out.Choices) == 0 {
		return CompletionResponse{}, fmt.Errorf("no choices in response")
	}

	if out.Model == "" {
		out.Model = model
	}
	return CompletionResponse{
		Content:      out.Choices[0].Message.Content,
		Model:        out.Model,
		Provider:     p.name,
		InputTokens:  out.Usage.PromptTokens,
		OutputTokens: out.Usage.CompletionTokens,
	}, nil
}

func (p *ChatProvider) HealthCheck(ctx context.Context) error {
	url := p.healthURL
	if url == "" {
		url = p.baseURL + "/models"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (p *ChatProvider) authorize(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
