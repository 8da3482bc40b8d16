package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/ujian/internal/llm/prompts"
)

func newTestClient(t *testing.T, content string, status int) (*Client, *[]openai.ChatCompletionRequest) {
	t.Helper()
	var requests []openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/models":
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"test-model","object":"model"}]}`))
		case "/chat/completions":
			var req openai.ChatCompletionRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			requests = append(requests, req)
			if status != http.StatusOK {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
				return
			}
			_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
				Choices: []openai.ChatCompletionChoice{
					{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	set, err := prompts.Load(prompts.Default)
	if err != nil {
		t.Fatalf("prompts.Load: %v", err)
	}
	return New(srv.URL, "test-key", "test-model", set, prompts.Standard), &requests
}

func TestReviewEssay(t *testing.T) {
	c, requests := newTestClient(t, `{"score": 72.5, "feedback": "Cukup baik."}`, http.StatusOK)

	r, err := c.ReviewEssay(context.Background(), "Jelaskan iklim tropis.", "Panas dan lembap.")
	if err != nil {
		t.Fatalf("ReviewEssay: %v", err)
	}
	if r.Score != 72.5 || r.Feedback != "Cukup baik." {
		t.Errorf("unexpected review %+v", r)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*requests))
	}
	req := (*requests)[0]
	if req.Model != "test-model" {
		t.Errorf("model = %q", req.Model)
	}
	if !strings.Contains(req.Messages[0].Content, "Panas dan lembap.") {
		t.Error("prompt should contain the answer")
	}
}

func TestReviewEssayClampsScore(t *testing.T) {
	tests := []struct {
		content string
		want    float64
	}{
		{`{"score": 140, "feedback": ""}`, 100},
		{`{"score": -3, "feedback": ""}`, 0},
	}
	for _, tt := range tests {
		c, _ := newTestClient(t, tt.content, http.StatusOK)
		r, err := c.ReviewEssay(context.Background(), "q", "a")
		if err != nil {
			t.Fatalf("ReviewEssay: %v", err)
		}
		if r.Score != tt.want {
			t.Errorf("score = %v, want %v", r.Score, tt.want)
		}
	}
}

func TestReviewEssayErrors(t *testing.T) {
	c, _ := newTestClient(t, `not json`, http.StatusOK)
	if _, err := c.ReviewEssay(context.Background(), "q", "a"); err == nil {
		t.Error("expected parse error")
	}

	c, _ = newTestClient(t, "", http.StatusInternalServerError)
	if _, err := c.ReviewEssay(context.Background(), "q", "a"); err == nil {
		t.Error("expected API error")
	}
}

func TestPing(t *testing.T) {
	c, _ := newTestClient(t, "", http.StatusOK)
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if c.Model() != "test-model" {
		t.Errorf("Model() = %q", c.Model())
	}
}
