package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lexfield/contentpipe/internal/pipeline"
)

// BrowserlessClient talks to a hosted headless-browser service for
// script-heavy sites and falls back to the service's plain-fetch endpoint
// otherwise.
type BrowserlessClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewBrowserlessClient(baseURL, token string) *BrowserlessClient {
	if baseURL == "" {
		baseURL = "https://chrome.browserless.io"
	}
	return &BrowserlessClient{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type scrapeReq struct {
	URL      string `json:"url"`
	Headless bool   `json:"headless"`
}

type scrapeResp struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (c *BrowserlessClient) Extract(ctx context.Context, url string, headless bool) (*pipeline.ScrapedPage, error) {
	if c.Client == nil {
		return nil, errors.New("scrape: http client is nil")
	}

	b, err := json.Marshal(scrapeReq{URL: url, Headless: headless})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/scrape?token=%s", c.BaseURL, c.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("scrape: status %d for %s", resp.StatusCode, url)
	}

	var decoded scrapeResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if decoded.Error != "" {
		return nil, errors.New(decoded.Error)
	}
	if decoded.URL == "" {
		decoded.URL = url
	}

	return &pipeline.ScrapedPage{
		URL:   decoded.URL,
		Title: decoded.Title,
		Text:  decoded.Text,
	}, nil
}
