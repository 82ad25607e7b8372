// Package extractor talks to the external visual trade-data service.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tradeproof/internal/models"
)

// TradeExtractor produces structured trade contents for a screenshot. The
// implementation is opaque to the review pipeline: a failure only disqualifies
// that one image, never the queue.
type TradeExtractor interface {
	ExtractTradeData(ctx context.Context, imagePath string) (*models.TradeData, error)
}

// Client is an HTTP client for the extractor service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an extractor client. The timeout bounds the heavy CV
// call per image.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type extractRequest struct {
	ImagePath string `json:"image_path"`
}

// ExtractTradeData asks the service for the trade contents of one image.
func (c *Client) ExtractTradeData(ctx context.Context, imagePath string) (*models.TradeData, error) {
	body, err := json.Marshal(extractRequest{ImagePath: imagePath})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extract request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("extractor returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var trade models.TradeData
	if err := json.NewDecoder(resp.Body).Decode(&trade); err != nil {
		return nil, fmt.Errorf("failed to decode extract response: %w", err)
	}

	return &trade, nil
}
