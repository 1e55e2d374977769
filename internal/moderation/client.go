package moderation

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

// ErrNotConfigured is returned when no API key is set; the gate treats it
// like any other classifier error and falls back.
var ErrNotConfigured = errors.New("moderation API key not configured")

// Screening is the raw classifier output for one piece of text.
type Screening struct {
	Flagged    bool
	Categories []string
	Scores     map[string]float64
}

// Client calls the OpenAI moderations endpoint.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type moderationRequest struct {
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []struct {
		Flagged        bool               `json:"flagged"`
		Categories     map[string]bool    `json:"categories"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

// Check classifies the given text. Transport, HTTP, and decode failures come
// back as errors; interpreting them is the gate's job.
func (c *Client) Check(ctx context.Context, text string) (Screening, error) {
	if c.apiKey == "" {
		return Screening{}, ErrNotConfigured
	}

	body, _ := json.Marshal(moderationRequest{Input: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return Screening{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Screening{}, fmt.Errorf("moderation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return Screening{}, fmt.Errorf("moderation API error: status %d: %s", resp.StatusCode, respBody)
	}

	var decoded moderationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Screening{}, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Results) == 0 {
		return Screening{}, errors.New("moderation API returned no results")
	}

	result := decoded.Results[0]
	screening := Screening{
		Flagged: result.Flagged,
		Scores:  result.CategoryScores,
	}
	for category, hit := range result.Categories {
		if hit {
			screening.Categories = append(screening.Categories, category)
		}
	}
	return screening, nil
}
