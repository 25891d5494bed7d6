// Package llamacpp implements the llm.Provider interface against a llama.cpp
// server's /completion endpoint.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/user/sheetpilot/pkg/llm"
)

const defaultTimeout = 5 * time.Minute

// Client talks to a llama.cpp server over HTTP.
type Client struct {
	config     *llm.Config
	httpClient *http.Client
}

// New creates a client with the given configuration. Inference is slow by
// nature; the timeout defaults to minutes, not seconds.
func New(config *llm.Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// completionRequest is the llama.cpp /completion request body.
type completionRequest struct {
	Prompt        string   `json:"prompt"`
	NPredict      int      `json:"n_predict,omitempty"`
	Temperature   float32  `json:"temperature,omitempty"`
	TopP          float32  `json:"top_p,omitempty"`
	RepeatPenalty float32  `json:"repeat_penalty,omitempty"`
	Stop          []string `json:"stop,omitempty"`
	Stream        bool     `json:"stream"`
}

// completionResponse is the llama.cpp /completion response body.
type completionResponse struct {
	Content         string `json:"content"`
	TokensEvaluated int    `json:"tokens_evaluated"`
	TokensPredicted int    `json:"tokens_predicted"`
}

// Complete sends a completion request and returns the generated text.
func (c *Client) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	reqBody := completionRequest{
		Prompt:        req.Prompt,
		NPredict:      req.MaxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		RepeatPenalty: req.RepeatPenalty,
		Stop:          req.Stop,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.config.BaseURL + "/completion"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", llm.ErrTimeout, err)
		}
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var compResp completionResponse
	if err := json.Unmarshal(respBody, &compResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return &llm.CompletionResponse{
		Text: compResp.Content,
		Usage: llm.Usage{
			PromptTokens:     compResp.TokensEvaluated,
			CompletionTokens: compResp.TokensPredicted,
			TotalTokens:      compResp.TokensEvaluated + compResp.TokensPredicted,
		},
	}, nil
}

// isTimeout reports whether the transport error was a deadline expiry.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
