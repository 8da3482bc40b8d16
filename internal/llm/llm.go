// Package llm asks an OpenAI-compatible model for essay review suggestions.
// Suggestions are advisory; nothing here changes a graded row.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/ujian/internal/llm/prompts"
)

// MaxScore is the top of the review scale.
const MaxScore = 100

// Review is the model's assessment of one essay answer.
type Review struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api      *openai.Client
	model    string
	prompts  *prompts.Set
	variant  prompts.Variant
	language string
}

// New creates a new LLM client. An empty baseURL uses the OpenAI default.
func New(baseURL, apiKey, modelName string, set *prompts.Set, variant prompts.Variant) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:      openai.NewClientWithConfig(config),
		model:    modelName,
		prompts:  set,
		variant:  variant,
		language: "Indonesian",
	}
}

// WithLanguage sets the language feedback is written in.
func (c *Client) WithLanguage(lang string) *Client {
	c.language = lang
	return c
}

// Model returns the model name reviews are requested from.
func (c *Client) Model() string { return c.model }

// Ping checks that the API is reachable and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM ping: %w", err)
	}
	return nil
}

// ReviewEssay asks the model to score an essay answer from 0 to MaxScore.
func (c *Client) ReviewEssay(ctx context.Context, question, answer string) (*Review, error) {
	prompt, err := c.prompts.BuildReviewPrompt(c.variant, prompts.ReviewData{
		QuestionText: question,
		Answer:       answer,
		MaxScore:     MaxScore,
		Language:     c.language,
	})
	if err != nil {
		return nil, fmt.Errorf("build review prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM review API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("LLM returned no choices for review")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM review response", "raw", raw)

	var r Review
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("parse review response: %w (raw: %s)", err, raw)
	}
	r.Score = clampScore(r.Score)
	return &r, nil
}

func clampScore(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return math.Max(0, math.Min(MaxScore, s))
}
