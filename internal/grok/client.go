// Package grok is a minimal client for the xAI chat-completions endpoint.
//
// Only the subset needed for image description and text rewriting is
// modelled: a POST of {model, messages, max_tokens} with bearer auth, where a
// message's content is either a plain string or a list of typed parts.
// Non-200 responses surface as *APIError so callers can degrade gracefully.
package grok

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the xAI chat-completions endpoint.
	DefaultBaseURL = "https://api.x.ai/v1/chat/completions"

	// DefaultModel is a vision-capable Grok model.
	DefaultModel = "grok-4"

	// DefaultMaxTokens bounds completion length.
	DefaultMaxTokens = 500

	// FailurePlaceholder is returned by DescribeImage when the call fails.
	FailurePlaceholder = "Prompt generation failed."
)

// DescribeInstruction is sent alongside every image.
const DescribeInstruction = "Describe this image in precise English detail, focusing only on visible elements without any creative interpretation. " +
	"Structure as a prompt for AI video generation: subject, appearance, clothing, action, environment, lighting, camera angle, style."

// Message is one chat turn. Content is a string or []ContentPart.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart is a typed element of a multi-part message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries a data URI or remote URL.
type ImageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// APIError is a non-200 response from the endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("grok API error (status %d): %s", e.StatusCode, e.Body)
}

// Client issues synchronous chat-completion requests.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL overrides the endpoint URL.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithModel overrides the model name.
func WithModel(m string) Option { return func(c *Client) { c.model = m } }

// WithMaxTokens overrides the completion budget.
func WithMaxTokens(n int) Option { return func(c *Client) { c.maxTokens = n } }

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// NewClient creates a client authenticated with apiKey. The default HTTP
// client carries no timeout; pass WithHTTPClient to bound calls.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		maxTokens:  DefaultMaxTokens,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Complete sends messages and returns the trimmed text of the first choice.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Str("model", c.model).
		Dur("duration", time.Since(start)).
		Msg("Grok API call complete")

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// CompleteText sends a system instruction and a single user turn.
func (c *Client) CompleteText(ctx context.Context, system, user string) (string, error) {
	var msgs []Message
	if system != "" {
		msgs = append(msgs, Message{Role: "system", Content: system})
	}
	msgs = append(msgs, Message{Role: "user", Content: user})
	return c.Complete(ctx, msgs)
}

// DataURI encodes a JPEG buffer as a data URI.
func DataURI(jpegData []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)
}

// DescribeImage asks the model for a literal description of jpegData.
// On failure it returns FailurePlaceholder together with the error, so the
// caller can keep going with a degraded result and surface a warning.
func (c *Client) DescribeImage(ctx context.Context, jpegData []byte) (string, error) {
	text, err := c.Complete(ctx, []Message{{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: DescribeInstruction},
			{Type: "image_url", ImageURL: &ImageURL{URL: DataURI(jpegData)}},
		},
	}})
	if err != nil {
		log.Warn().Err(err).Msg("Image description failed")
		return FailurePlaceholder, err
	}
	return text, nil
}
