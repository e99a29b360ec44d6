package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"canvas/internal/remote"
)

var (
	ErrEmptyResult = errors.New("generation returned no images")
	ErrRejected    = errors.New("generation rejected the request")
	ErrDisabled    = errors.New("generation endpoint not configured")
)

// Request: source image (data URL or http URL), number of outputs, optional prompt
type Request struct {
	Image   string `json:"image"`
	Outputs int    `json:"outputs"`
	Prompt  string `json:"prompt,omitempty"`
}

type Variation struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
	ID     string `json:"id"`
}

type Response struct {
	Success    bool        `json:"success"`
	Multiplies []Variation `json:"multiplies"`
	Count      int         `json:"count"`
	Error      string      `json:"error,omitempty"`
}

// Client calls the image variation endpoint
type Client struct {
	url    string
	remote *remote.Client
}

func NewClient(url string, rc *remote.Client) *Client {
	return &Client{url: strings.TrimSpace(url), remote: rc}
}

// Generate: non-2xx, success=false and empty results are all failures
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	if c.url == "" {
		return nil, ErrDisabled
	}

	var resp Response
	if err := c.remote.PostJSON(ctx, c.url, req, &resp); err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "success=false"
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	usable := resp.Multiplies[:0:0]
	for _, v := range resp.Multiplies {
		if strings.TrimSpace(v.URL) != "" {
			usable = append(usable, v)
		}
	}
	if len(usable) == 0 {
		return nil, ErrEmptyResult
	}
	resp.Multiplies = usable
	resp.Count = len(usable)

	return &resp, nil
}
