package webhook

import "context"

/* HttpRequest is the dispatch engine's abstract outgoing request: a single
 * event's content, or a JSON array of batched events' contents.
 */
type HttpRequest struct {
	URL     string
	Body    []byte
	Headers Headers
}

// HttpResponse carries just what the engine needs to classify an outcome.
type HttpResponse struct {
	StatusCode int
}

// IsSuccess reports whether the response status is in [200, 299].
func (r HttpResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

/* HttpClient is the narrow capability the Dispatcher needs from an HTTP
 * transport. Implementations must honour ctx cancellation so the engine can
 * enforce its drain deadline on shutdown.
 */
type HttpClient interface {
	Post(ctx context.Context, req HttpRequest) (HttpResponse, error)
}
