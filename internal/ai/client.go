// Package ai is a thin client for an OpenAI-compatible chat completions
// endpoint, used for photo identification and semantic item search.
package ai

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
)

// Client calls a chat completions API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient creates a client against the given base URL. baseURL should be
// the completions endpoint itself, e.g. https://api.openai.com/v1/chat/completions.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

// Identification is the model's reading of an item photo.
type Identification struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
	Confidence  float64  `json:"confidence"`
}

// SearchCandidate is one item offered to the model for ranking.
type SearchCandidate struct {
	ID         uint     `json:"id"`
	Name       string   `json:"name"`
	Location   string   `json:"location"`
	Categories []string `json:"categories"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const identifyPrompt = `You identify household items from photos for an inventory app.
Respond with a single JSON object, no prose:
{"name": "...", "description": "...", "categories": ["..."], "confidence": 0.0}
name is a short item name, description one or two sentences, categories
between two and five generic category names, confidence your certainty
from 0 to 1.`

// IdentifyItem asks the model to name and describe the item in a photo.
func (c *Client) IdentifyItem(ctx context.Context, imageData []byte, mimeType string) (*Identification, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))
	content, err := c.complete(ctx, []chatMessage{
		{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: identifyPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	var ident Identification
	if err := json.Unmarshal(extractJSON(content), &ident); err != nil {
		return nil, fmt.Errorf("unparseable identification response: %w", err)
	}
	if ident.Name == "" {
		return nil, fmt.Errorf("identification response missing name")
	}
	return &ident, nil
}

const searchPrompt = `You match a natural-language query against a household inventory.
Given the query and the item list, respond with a single JSON array of the
matching item ids ordered from best match to worst, e.g. [4,12,7]. Return
[] when nothing matches. No prose.`

// RankItems asks the model which candidate items match a query, ordered by
// relevance. IDs not present in the candidate set are discarded.
func (c *Client) RankItems(ctx context.Context, query string, candidates []SearchCandidate) ([]uint, error) {
	payload, err := json.Marshal(candidates)
	if err != nil {
		return nil, err
	}
	content, err := c.complete(ctx, []chatMessage{
		{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: fmt.Sprintf("%s\n\nQuery: %s\n\nItems: %s", searchPrompt, query, payload)},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	var ids []uint
	if err := json.Unmarshal(extractJSON(content), &ids); err != nil {
		return nil, fmt.Errorf("unparseable ranking response: %w", err)
	}

	known := make(map[uint]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}
	filtered := ids[:0]
	for _, id := range ids {
		if known[id] {
			filtered = append(filtered, id)
		}
	}
	return filtered, nil
}

func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   512,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai request returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("malformed ai response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("ai error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ai response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// extractJSON strips markdown code fences some models wrap around JSON.
func extractJSON(content string) []byte {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}
	return []byte(content)
}
