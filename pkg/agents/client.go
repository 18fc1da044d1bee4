package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Client talks to the agent platform's HTTP surface: the agent list and the
// API key validation endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// ValidationResult is the server's verdict on an API key.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// List fetches the agent roster from GET /agents.
func (c *Client) List(ctx context.Context) ([]Agent, error) {
	if c == nil {
		return nil, errors.New("agents client is nil")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/agents", nil)
	if err != nil {
		return nil, errors.Wrap(err, "build agents request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch agents")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch agents: unexpected status %d", resp.StatusCode)
	}
	var payload struct {
		Agents []Agent `json:"agents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decode agents response")
	}
	log.Debug().Str("component", "agents").Int("count", len(payload.Agents)).Msg("fetched agent list")
	return payload.Agents, nil
}

// ValidateKey posts an API key to /api/validate-key. A reachable server that
// rejects the key is not an error; the verdict is in the result.
func (c *Client) ValidateKey(ctx context.Context, apiKey string) (ValidationResult, error) {
	if c == nil {
		return ValidationResult{}, errors.New("agents client is nil")
	}
	body, err := json.Marshal(map[string]string{"api_key": strings.TrimSpace(apiKey)})
	if err != nil {
		return ValidationResult{}, errors.Wrap(err, "encode validate-key request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/validate-key", bytes.NewReader(body))
	if err != nil {
		return ValidationResult{}, errors.Wrap(err, "build validate-key request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return ValidationResult{}, errors.Wrap(err, "validate key")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return ValidationResult{}, errors.Errorf("validate key: unexpected status %d", resp.StatusCode)
	}
	var result ValidationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ValidationResult{}, errors.Wrap(err, "decode validate-key response")
	}
	return result, nil
}
