package tutorclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendMessageStreamsBody(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("The answer "))
		_, _ = w.Write([]byte("streams in parts."))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-token")
	body, err := client.SendMessage(context.Background(), "session-1", "What is ATP?")
	assert.NoError(t, err)
	defer body.Close()

	text, err := io.ReadAll(body)
	assert.NoError(t, err)
	assert.Equal(t, "The answer streams in parts.", string(text))

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "/api/tutor/v1/chat", gotPath)
	assert.Equal(t, "session-1", gotBody["chat_session_id"])
	assert.Equal(t, "What is ATP?", gotBody["chat"])
}

func TestSendMessageConflictMapsToErrTurnInFlight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"code":    409,
			"message": "a reply is already streaming for this session",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-token")
	_, err := client.SendMessage(context.Background(), "session-1", "Again?")
	assert.ErrorIs(t, err, ErrTurnInFlight)
}

func TestSendMessageSurfacesEnvelopeMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"code":    404,
			"message": "chat session not found",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-token")
	_, err := client.SendMessage(context.Background(), "session-1", "Hello")
	assert.ErrorContains(t, err, "chat session not found")
}

func TestCompletePostsMessagesAndContext(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Messages []completionMessage `json:"messages"`
		Context  string              `json:"context"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	body, err := client.Complete(context.Background(), []Message{
		{Role: "user", Content: "Summarize page 3."},
	}, "[Page 3]: Some content")
	assert.NoError(t, err)
	body.Close()

	assert.Equal(t, "/api/tutor/v1/completions", gotPath)
	assert.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "[Page 3]: Some content", gotBody.Context)
}
