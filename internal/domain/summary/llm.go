package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Summarizer turns a transcript into a structured clinical note.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (*StructuredNote, error)
	ModelVersion() string
}

// OpenAIClient calls a chat-completions compatible endpoint. Temperature is
// pinned low; drafting notes is an extraction task, not a creative one.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		baseURL: "https://api.openai.com/v1",
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// WithBaseURL points the client at a different endpoint, used in tests and
// for self-hosted compatible servers.
func (c *OpenAIClient) WithBaseURL(u string) *OpenAIClient {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

func (c *OpenAIClient) ModelVersion() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Summarize(ctx context.Context, transcript string) (*StructuredNote, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(summaryPromptTemplate, transcript)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("llm returned %d: %s", resp.StatusCode, b)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode llm response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}

	return parseNote(out.Choices[0].Message.Content)
}

// parseNote extracts the JSON object from the model's reply, tolerating
// markdown fences around it.
func parseNote(content string) (*StructuredNote, error) {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			content = content[start : end+1]
		}
	}

	var note StructuredNote
	if err := json.Unmarshal([]byte(content), &note); err != nil {
		return nil, fmt.Errorf("parse structured note: %w", err)
	}
	if note.Summary == "" {
		return nil, fmt.Errorf("structured note missing summary")
	}
	return &note, nil
}
