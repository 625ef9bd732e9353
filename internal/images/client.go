package images

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client calls a hosted image-generation API and returns the URL of the
// rendered asset.
type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type generateReq struct {
	Prompt string `json:"prompt"`
	Kind   string `json:"kind"`
	Style  string `json:"style"`
}

type generateResp struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

func (c *Client) Generate(ctx context.Context, prompt, imageType, style string) (string, error) {
	if c.Client == nil {
		return "", errors.New("images: http client is nil")
	}
	if c.BaseURL == "" {
		return "", errors.New("images: base url is required")
	}

	b, err := json.Marshal(generateReq{Prompt: prompt, Kind: imageType, Style: style})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/images", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("images: status %d", resp.StatusCode)
	}

	var decoded generateResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != "" {
		return "", errors.New(decoded.Error)
	}
	if decoded.URL == "" {
		return "", errors.New("images: empty url in response")
	}
	return decoded.URL, nil
}
