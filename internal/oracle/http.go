package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rxtech-lab/argo-race/pkg/errors"
)

// HTTPOracle talks to an OpenAI-compatible chat-completions endpoint.
type HTTPOracle struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// HTTPOracleConfig configures the HTTP oracle client.
type HTTPOracleConfig struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string `yaml:"base_url" validate:"required,url"`
	APIKey  string `yaml:"api_key" validate:"required"`
	Model   string `yaml:"model" validate:"required"`
	// TimeoutSeconds bounds a single chat call. Defaults to 60.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// NewHTTPOracle creates an oracle client for an OpenAI-compatible endpoint.
func NewHTTPOracle(config HTTPOracleConfig) *HTTPOracle {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if config.TimeoutSeconds <= 0 {
		timeout = 60 * time.Second
	}

	return &HTTPOracle{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		model:   config.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Chat implements Oracle.
func (o *HTTPOracle) Chat(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	payload := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeOracleRequestFailed, "failed to encode chat request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeOracleRequestFailed, "failed to build chat request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeOracleUnavailable, "chat request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeOracleUnavailable, "failed to read chat response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf(errors.ErrCodeOracleRequestFailed, "chat request returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", errors.Wrap(errors.ErrCodeOracleRequestFailed, "failed to decode chat response", err)
	}

	if len(parsed.Choices) == 0 {
		return "", errors.New(errors.ErrCodeOracleRequestFailed, fmt.Sprintf("chat response has no choices: %s", string(respBody)))
	}

	return parsed.Choices[0].Message.Content, nil
}
