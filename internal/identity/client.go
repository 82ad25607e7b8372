package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// The platform API rejects oversized batches; the original curation pass
// capped requests at 200 usernames.
const maxBatchSize = 200

// Client verifies username batches against the platform user API.
type Client struct {
	verifyURL  string
	httpClient *http.Client
}

// NewClient creates a verification client for the given endpoint.
func NewClient(verifyURL string) *Client {
	return &Client{
		verifyURL: verifyURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type verifyRequest struct {
	Usernames          []string `json:"usernames"`
	ExcludeBannedUsers bool     `json:"excludeBannedUsers"`
}

// VerifiedUser is one existing user returned by the platform.
type VerifiedUser struct {
	RequestedUsername string `json:"requestedUsername"`
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	DisplayName       string `json:"displayName"`
}

// VerifyResponse is the platform's answer to a batch lookup. Usernames
// missing from Data do not exist.
type VerifyResponse struct {
	Data []VerifiedUser `json:"data"`
}

// VerifyUsernames checks which of the given usernames exist on the platform.
// Batches beyond the API limit are truncated.
func (c *Client) VerifyUsernames(ctx context.Context, usernames []string) (*VerifyResponse, error) {
	if len(usernames) > maxBatchSize {
		usernames = usernames[:maxBatchSize]
	}

	body, err := json.Marshal(verifyRequest{
		Usernames:          usernames,
		ExcludeBannedUsers: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("verification service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result VerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode verification response: %w", err)
	}

	return &result, nil
}
