package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const defaultTTSEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"

// ErrEmptyText is returned when there is nothing to speak.
var ErrEmptyText = errors.New("narration text is empty")

// Synthesizer renders text to MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// GoogleTTS calls the Google Cloud Text-to-Speech REST API.
type GoogleTTS struct {
	apiKey       string
	endpoint     string
	voice        string
	languageCode string
	client       *http.Client
}

// GoogleTTSOption configures a GoogleTTS.
type GoogleTTSOption func(*GoogleTTS)

// WithEndpoint overrides the synthesize endpoint.
func WithEndpoint(endpoint string) GoogleTTSOption {
	return func(g *GoogleTTS) {
		g.endpoint = endpoint
	}
}

// WithVoice selects the voice name and language code.
func WithVoice(name, languageCode string) GoogleTTSOption {
	return func(g *GoogleTTS) {
		if name != "" {
			g.voice = name
		}
		if languageCode != "" {
			g.languageCode = languageCode
		}
	}
}

// WithTTSHTTPClient sets a custom HTTP client.
func WithTTSHTTPClient(client *http.Client) GoogleTTSOption {
	return func(g *GoogleTTS) {
		g.client = client
	}
}

// NewGoogleTTS creates a synthesizer authenticated with an API key.
func NewGoogleTTS(apiKey string, opts ...GoogleTTSOption) *GoogleTTS {
	g := &GoogleTTS{
		apiKey:       apiKey,
		endpoint:     defaultTTSEndpoint,
		voice:        "en-US-Neural2-F",
		languageCode: "en-US",
		client:       http.DefaultClient,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type ttsRequest struct {
	Input       ttsInput       `json:"input"`
	Voice       ttsVoice       `json:"voice"`
	AudioConfig ttsAudioConfig `json:"audioConfig"`
}

type ttsInput struct {
	Text string `json:"text"`
}

type ttsVoice struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
}

type ttsAudioConfig struct {
	AudioEncoding string `json:"audioEncoding"`
}

type ttsResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize returns MP3 bytes for text.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	body, err := json.Marshal(ttsRequest{
		Input:       ttsInput{Text: text},
		Voice:       ttsVoice{LanguageCode: g.languageCode, Name: g.voice},
		AudioConfig: ttsAudioConfig{AudioEncoding: "MP3"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// The key goes in a header: transport errors quote the request URL.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts api error (status %d)", resp.StatusCode)
	}

	var out ttsResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts returned no audio")
	}
	return audio, nil
}
