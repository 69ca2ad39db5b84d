package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is the public generateContent API base.
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

	transcribeTemperature = 0.1
	cleanupTemperature    = 0.3

	maxAttempts = 3

	audioMIMEType = "audio/mp3"
)

// RemoteCallError is returned after all retry attempts are exhausted.
type RemoteCallError struct {
	Status int
	Body   string
}

// Error formats the failure with the last observed status and body.
func (e *RemoteCallError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("remote call failed: %s", e.Body)
	}
	return fmt.Sprintf("remote call failed with status %d: %s", e.Status, e.Body)
}

// Config contains remote client configuration.
type Config struct {
	Endpoint        string
	Model           string
	APIKey          string
	Timeout         time.Duration
	MaxOutputTokens int
}

// Client performs generateContent calls with retry and backoff.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient creates a generateContent client.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}
	if config.MaxOutputTokens <= 0 {
		config.MaxOutputTokens = 8192
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
		sleep:  sleepCtx,
	}, nil
}

// Transcribe sends the prompt with the encoded audio clip attached inline
// and returns the raw transcript text.
func (c *Client) Transcribe(ctx context.Context, prompt string, audio []byte) (string, error) {
	parts := []part{
		{Text: prompt},
		{InlineData: &inlineData{
			MIMEType: audioMIMEType,
			Data:     base64.StdEncoding.EncodeToString(audio),
		}},
	}
	return c.generate(ctx, parts, transcribeTemperature)
}

// Cleanup sends a text-only prompt (with the raw transcript embedded by the
// caller) and returns the cleaned text.
func (c *Client) Cleanup(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, []part{{Text: prompt}}, cleanupTemperature)
}

// generate performs one generateContent call with up to maxAttempts tries.
// The wait before retry attempt n is 2*n seconds.
func (c *Client) generate(ctx context.Context, parts []part, temperature float64) (string, error) {
	payload := generateRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: c.config.MaxOutputTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s",
		strings.TrimRight(c.config.Endpoint, "/"), c.config.Model, c.config.APIKey)

	lastErr := &RemoteCallError{}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, respBody, err := c.post(ctx, url, body)
		if err == nil && status == http.StatusOK {
			return parseTranscript(c.logger, respBody)
		}

		if err != nil {
			lastErr = &RemoteCallError{Body: err.Error()}
			c.logger.Warn("Request failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", maxAttempts),
				slog.String("error", err.Error()),
			)
		} else {
			lastErr = &RemoteCallError{Status: status, Body: string(respBody)}
			c.logger.Warn("API error response",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", maxAttempts),
				slog.Int("status", status),
			)
		}

		if attempt < maxAttempts {
			wait := time.Duration(2*attempt) * time.Second
			if err := c.sleep(ctx, wait); err != nil {
				return "", err
			}
		}
	}

	return "", lastErr
}

// post performs a single HTTP request and reads the full response body.
func (c *Client) post(ctx context.Context, url string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response body: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

// parseTranscript extracts candidates[0].content.parts[0].text. A payload
// missing the expected fields yields empty text, not an error; callers must
// tolerate empty output.
func parseTranscript(logger *slog.Logger, body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parsing response JSON: %w", err)
	}

	if len(resp.Candidates) == 0 ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		logger.Warn("Response missing candidate text, treating as empty result")
		return "", nil
	}

	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), nil
}

// sleepCtx waits for the given duration or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wire types for the generateContent request/response bodies.

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
