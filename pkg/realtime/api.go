package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient posts QnA requests to the reader backend. It implements
// QnAPoster and VerbalPoster.
type APIClient struct {
	BaseURL string
	Token   TokenProvider
	Client  *http.Client
}

var (
	_ QnAPoster    = &APIClient{}
	_ VerbalPoster = &APIClient{}
)

// NewAPIClient creates a client for the given server base URL.
func NewAPIClient(baseURL string, token TokenProvider) *APIClient {
	return &APIClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// PostQnA submits a text question; the answer arrives over the channel.
func (c *APIClient) PostQnA(ctx context.Context, req QnARequest) error {
	_, err := c.post(ctx, "/api/reader/v1/post-qna", req)
	return err
}

// PostVerbalQnA submits a recorded question and returns the transcription.
func (c *APIClient) PostVerbalQnA(ctx context.Context, req VerbalQnARequest) (string, error) {
	body, err := c.post(ctx, "/api/reader/v1/post-verbal-qna", req)
	if err != nil {
		return "", err
	}

	var res struct {
		Data struct {
			Transcribed string `json:"transcribed"`
		} `json:"data"`
		Transcribed string `json:"transcribed"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("decode verbal qna response: %w", err)
	}
	if res.Data.Transcribed != "" {
		return res.Data.Transcribed, nil
	}
	return res.Transcribed, nil
}

func (c *APIClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.Token != nil {
		token, err := c.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qna request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		// The backend puts the failure detail in the response body.
		return nil, fmt.Errorf("qna error: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
