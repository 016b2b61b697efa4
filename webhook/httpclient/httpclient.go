package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hookrelay/dispatch/webhook"
)

/* Client is the production implementation of webhook.HttpClient, wrapping
 * net/http.Client. Every request carries the caller's context so the
 * dispatch engine's drain deadline can cancel in-flight deliveries.
 */
type Client struct {
	http *http.Client
}

// New creates a Client with the given request timeout, applied per-request
// on top of whatever deadline ctx already carries.
func New(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// Post sends req.Body to req.URL with req.Headers, returning the response
// status or an error wrapped as webhook.HttpError if the request never
// reached the server (DNS failure, connection refused, context cancelled).
func (c *Client) Post(ctx context.Context, req webhook.HttpRequest) (webhook.HttpResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return webhook.HttpResponse{}, webhook.HttpError{Cause: fmt.Errorf("building request: %w", err)}
	}

	for _, h := range req.Headers {
		httpReq.Header.Add(h.Name, h.Value)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return webhook.HttpResponse{}, webhook.HttpError{Cause: err}
	}
	defer resp.Body.Close()

	return webhook.HttpResponse{StatusCode: resp.StatusCode}, nil
}

var _ webhook.HttpClient = (*Client)(nil)
