// Package vision talks to the Computer Vision "analyze" REST endpoint.
package vision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	AnalyzePath           = "/analyze"
	SubscriptionKeyHeader = "Ocp-Apim-Subscription-Key"
	ContentTypeOctet      = "application/octet-stream"

	RetryWaitMin = 1 * time.Second
	RetryWaitMax = 10 * time.Second
)

// Options configure a Client. Endpoint is the API base, for example
// https://westeurope.api.cognitive.microsoft.com/vision/v1.0.
type Options struct {
	Endpoint       string
	APIKey         string
	VisualFeatures string
	Language       string
	Details        string
	Timeout        time.Duration
	RetryMax       int
}

type Client struct {
	opts Options
	hc   *retryablehttp.Client
}

// APIError is returned for any non-2xx response. Body holds the raw response
// text, which the service usually sends as JSON.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("analyze request failed with status %d: %s", e.StatusCode, e.Body)
}

func NewClient(opts Options) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryWaitMin = RetryWaitMin
	hc.RetryWaitMax = RetryWaitMax
	hc.RetryMax = opts.RetryMax
	hc.Logger = nil
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.Timeout > 0 {
		hc.HTTPClient.Timeout = opts.Timeout
	}

	return &Client{opts: opts, hc: hc}
}

// AnalyzeURL returns the full request URL including query parameters.
func (c *Client) AnalyzeURL() (string, error) {
	u, err := url.Parse(strings.TrimSuffix(c.opts.Endpoint, "/") + AnalyzePath)
	if err != nil {
		return "", fmt.Errorf("failed to parse endpoint: %w", err)
	}

	q := u.Query()
	if c.opts.VisualFeatures != "" {
		q.Set("visualFeatures", c.opts.VisualFeatures)
	}
	if c.opts.Details != "" {
		q.Set("details", c.opts.Details)
	}
	if c.opts.Language != "" {
		q.Set("language", c.opts.Language)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Analyze posts image bytes and returns the response body as text.
func (c *Client) Analyze(ctx context.Context, image []byte) (string, error) {
	uri, err := c.AnalyzeURL()
	if err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, uri, image)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(SubscriptionKeyHeader, c.opts.APIKey)
	req.Header.Set("Content-Type", ContentTypeOctet)

	log.Debug("uploading image", "size", humanize.Bytes(uint64(len(image))), "url", uri)

	// The passthrough error handler hands back the last response once retries
	// are exhausted, so a response takes precedence over the error.
	resp, err := c.hc.Do(req)
	if resp == nil {
		if err == nil {
			err = fmt.Errorf("no response from %s", uri)
		}
		return "", fmt.Errorf("analyze request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return string(body), nil
}
