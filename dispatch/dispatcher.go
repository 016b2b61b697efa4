package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/hookrelay/dispatch/webhook"
	"github.com/hookrelay/dispatch/webhook/signature"
)

/* Dispatcher drives the HTTP client for one Dispatch unit: it marks the
 * unit's events Delivering, builds the request (signing it when the
 * webhook carries a secret), submits it, and classifies the outcome by
 * marking the events Delivered or Failed.
 */
type Dispatcher struct {
	events    webhook.WebhookEventRepo
	client    webhook.HttpClient
	errors    *ErrorChannel
	retention RetentionConfig
}

// NewDispatcher creates a Dispatcher over events and client, surfacing
// repository failures on errors and applying retention to terminal events
// per retention.
func NewDispatcher(events webhook.WebhookEventRepo, client webhook.HttpClient, errors *ErrorChannel, retention RetentionConfig) *Dispatcher {
	return &Dispatcher{events: events, client: client, errors: errors, retention: retention}
}

// Dispatch submits d and returns its outcome. Events are always marked
// Delivering before the request is sent and Delivered/Failed after, so a
// crash mid-flight leaves them recoverable as Delivering on restart.
func (d *Dispatcher) Dispatch(ctx context.Context, du Dispatch) Outcome {
	for _, e := range du.Events {
		if err := d.setStatus(ctx, e.Key, webhook.Delivering); err != nil {
			return Outcome{Success: false, Err: err}
		}
	}

	req, err := buildRequest(du)
	if err != nil {
		wrapped := webhook.InternalError{Cause: err}
		d.errors.Emit(wrapped)
		for _, e := range du.Events {
			_ = d.setStatus(ctx, e.Key, webhook.Failed)
		}
		return Outcome{Success: false, Err: wrapped}
	}

	resp, postErr := d.client.Post(ctx, req)

	var outcomeErr error
	success := postErr == nil && resp.IsSuccess()
	switch {
	case postErr != nil:
		outcomeErr = postErr
	case !resp.IsSuccess():
		outcomeErr = fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}

	if !success {
		log.Printf("dispatch %s: webhook %d failed: %v", du.CorrelationID, du.Webhook.ID, outcomeErr)
	}

	finalStatus := webhook.Delivered
	ttl := d.retention.FailedTTL
	if !success {
		finalStatus = webhook.Failed
	} else {
		ttl = d.retention.DeliveredTTL
	}
	for _, e := range du.Events {
		_ = d.setStatus(ctx, e.Key, finalStatus)
		if ttl > 0 {
			if err := d.events.SetTTL(ctx, e.Key, ttl); err != nil {
				d.errors.Emit(webhook.RepoError{Cause: fmt.Errorf("setting event retention TTL: %w", err)})
			}
		}
	}

	return Outcome{Success: success, Err: outcomeErr}
}

// setStatus writes an event's status, retrying up to a small internal bound
// before surfacing a RepoError on the error channel.
func (d *Dispatcher) setStatus(ctx context.Context, key webhook.EventKey, status webhook.EventStatus) error {
	if err := withRepoRetry(ctx, func() error { return d.events.SetEventStatus(ctx, key, status) }); err != nil {
		wrapped := webhook.RepoError{Cause: err}
		d.errors.Emit(wrapped)
		return wrapped
	}
	return nil
}

// buildRequest constructs the outgoing HTTP request for du: the raw
// content for a single dispatch, or a JSON array of each event's content
// as a string element for a batch — Content is opaque to the engine and
// not guaranteed to be valid JSON, so it is never re-embedded unescaped —
// under the headers shared by the batch's key.
func buildRequest(du Dispatch) (webhook.HttpRequest, error) {
	var body []byte
	var headers webhook.Headers

	if !du.Batched {
		e := du.Events[0]
		body = []byte(e.Content)
		headers = e.Headers
	} else {
		contents := make([]string, len(du.Events))
		for i, e := range du.Events {
			contents[i] = e.Content
		}
		raw, err := json.Marshal(contents)
		if err != nil {
			return webhook.HttpRequest{}, fmt.Errorf("marshaling batch: %w", err)
		}
		body = raw
		headers = du.Events[0].BatchKey().Headers()
	}

	if du.Webhook.SigningSecret != "" {
		secret, err := signature.ParseSecret(du.Webhook.SigningSecret)
		if err != nil {
			return webhook.HttpRequest{}, fmt.Errorf("parsing signing secret: %w", err)
		}
		msgID := strconv.FormatInt(du.Events[0].Key.EventID, 10)
		sig, err := signature.Sign(secret, msgID, time.Now(), body)
		if err != nil {
			return webhook.HttpRequest{}, fmt.Errorf("signing request: %w", err)
		}
		headers = headers.With("webhook-signature", sig.String())
	}

	return webhook.HttpRequest{
		URL:     du.Webhook.URL,
		Body:    body,
		Headers: headers,
	}, nil
}
