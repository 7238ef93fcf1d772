package tutorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrTurnInFlight is returned when the server rejects a message because
// the session is already streaming a reply.
var ErrTurnInFlight = errors.New("a turn is already streaming for this session")

// Client talks to the tutor backend. The chat endpoint streams plain
// text chunks; errors before the stream starts arrive as a JSON
// envelope with a non-200 status.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			// Streams run long; per-request contexts bound them instead.
			Timeout: 0,
		},
	}
}

type sendMessageRequest struct {
	ChatSessionId string `json:"chat_session_id"`
	Chat          string `json:"chat"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Messages []completionMessage `json:"messages"`
	Context  string              `json:"context"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SendMessage submits a question to a session and returns the response
// body to stream from. The caller owns closing it.
func (c *Client) SendMessage(ctx context.Context, sessionId, message string) (io.ReadCloser, error) {
	body := sendMessageRequest{
		ChatSessionId: sessionId,
		Chat:          message,
	}
	return c.postStream(ctx, "/api/tutor/v1/chat", body)
}

// Complete runs a stateless completion over caller-supplied messages
// and document context.
func (c *Client) Complete(ctx context.Context, messages []Message, docContext string) (io.ReadCloser, error) {
	req := completionRequest{
		Messages: make([]completionMessage, len(messages)),
		Context:  docContext,
	}
	for i, m := range messages {
		req.Messages[i] = completionMessage{Role: m.Role, Content: m.Content}
	}
	return c.postStream(ctx, "/api/tutor/v1/completions", req)
}

func (c *Client) postStream(ctx context.Context, path string, payload interface{}) (io.ReadCloser, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return resp.Body, nil
	}

	defer resp.Body.Close()
	if resp.StatusCode == http.StatusConflict {
		return nil, ErrTurnInFlight
	}

	var envelope errorEnvelope
	decoder := json.NewDecoder(io.LimitReader(resp.Body, 64*1024))
	if err := decoder.Decode(&envelope); err == nil && envelope.Message != "" {
		return nil, fmt.Errorf("server error (%d): %s", resp.StatusCode, envelope.Message)
	}
	return nil, fmt.Errorf("server error: status %d", resp.StatusCode)
}

// WaitStreamDeadline is a helper for callers that want a default bound
// on a turn when they have no tighter context.
func WaitStreamDeadline(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return context.WithTimeout(parent, timeout)
}
