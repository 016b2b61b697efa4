package dispatch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hookrelay/dispatch/dispatch"
	"github.com/hookrelay/dispatch/webhook"
	"github.com/hookrelay/dispatch/webhook/httpclient"
	"github.com/hookrelay/dispatch/webhook/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventRepo is a minimal in-memory webhook.WebhookEventRepo, enough to
// observe the status transitions a Dispatcher drives.
type fakeEventRepo struct {
	mu       sync.Mutex
	statuses map[webhook.EventKey]webhook.EventStatus
	history  map[webhook.EventKey][]webhook.EventStatus
	ttls     map[webhook.EventKey]time.Duration
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		statuses: make(map[webhook.EventKey]webhook.EventStatus),
		history:  make(map[webhook.EventKey][]webhook.EventStatus),
		ttls:     make(map[webhook.EventKey]time.Duration),
	}
}

func (f *fakeEventRepo) GetEvent(ctx context.Context, key webhook.EventKey) (webhook.WebhookEvent, bool, error) {
	return webhook.WebhookEvent{}, false, nil
}

func (f *fakeEventRepo) GetEventsByStatuses(ctx context.Context, statuses []webhook.EventStatus) ([]webhook.WebhookEvent, error) {
	return nil, nil
}

func (f *fakeEventRepo) CreateEvent(ctx context.Context, e webhook.WebhookEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[e.Key] = webhook.New
	f.history[e.Key] = append(f.history[e.Key], webhook.New)
	return nil
}

func (f *fakeEventRepo) SetEventStatus(ctx context.Context, key webhook.EventKey, status webhook.EventStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[key] = status
	f.history[key] = append(f.history[key], status)
	return nil
}

func (f *fakeEventRepo) SetTTL(ctx context.Context, key webhook.EventKey, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[key] = ttl
	return nil
}

func (f *fakeEventRepo) ttlOf(key webhook.EventKey) (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ttl, ok := f.ttls[key]
	return ttl, ok
}

func (f *fakeEventRepo) SubscribeToNewEvents(ctx context.Context) (<-chan webhook.WebhookEvent, error) {
	ch := make(chan webhook.WebhookEvent)
	close(ch)
	return ch, nil
}

func (f *fakeEventRepo) historyOf(key webhook.EventKey) []webhook.EventStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]webhook.EventStatus, len(f.history[key]))
	copy(out, f.history[key])
	return out
}

func singleDispatch(url string, e webhook.WebhookEvent, wh webhook.Webhook) dispatch.Dispatch {
	wh.URL = url
	return dispatch.Dispatch{Webhook: wh, Events: []webhook.WebhookEvent{e}}
}

func TestDispatcherDispatchSuccessMarksDelivered(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := newFakeEventRepo()
	client := httpclient.New(5 * time.Second)
	errs := dispatch.NewErrorChannel(8)
	d := dispatch.NewDispatcher(repo, client, errs, dispatch.RetentionConfig{})

	key := webhook.EventKey{WebhookID: 1, EventID: 1}
	e := webhook.WebhookEvent{Key: key, WebhookID: 1, Content: `{"a":1}`}

	outcome := d.Dispatch(context.Background(), singleDispatch(server.URL, e, webhook.Webhook{ID: 1}))

	assert.True(t, outcome.Success)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, `{"a":1}`, gotBody)
	assert.Equal(t, []webhook.EventStatus{webhook.Delivering, webhook.Delivered}, repo.historyOf(key))
}

func TestDispatcherDispatchFailureMarksFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	repo := newFakeEventRepo()
	client := httpclient.New(5 * time.Second)
	errs := dispatch.NewErrorChannel(8)
	d := dispatch.NewDispatcher(repo, client, errs, dispatch.RetentionConfig{})

	key := webhook.EventKey{WebhookID: 1, EventID: 2}
	e := webhook.WebhookEvent{Key: key, WebhookID: 1, Content: `{}`}

	outcome := d.Dispatch(context.Background(), singleDispatch(server.URL, e, webhook.Webhook{ID: 1}))

	assert.False(t, outcome.Success)
	assert.Error(t, outcome.Err)
	assert.Equal(t, []webhook.EventStatus{webhook.Delivering, webhook.Failed}, repo.historyOf(key))
}

func TestDispatcherDispatchAppliesRetentionTTLToDeliveredEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := newFakeEventRepo()
	client := httpclient.New(5 * time.Second)
	errs := dispatch.NewErrorChannel(8)
	d := dispatch.NewDispatcher(repo, client, errs, dispatch.RetentionConfig{DeliveredTTL: time.Hour, FailedTTL: 24 * time.Hour})

	key := webhook.EventKey{WebhookID: 1, EventID: 3}
	e := webhook.WebhookEvent{Key: key, WebhookID: 1, Content: `{}`}

	outcome := d.Dispatch(context.Background(), singleDispatch(server.URL, e, webhook.Webhook{ID: 1}))
	assert.True(t, outcome.Success)

	ttl, ok := repo.ttlOf(key)
	require.True(t, ok, "a Delivered event must have SetTTL called on it")
	assert.Equal(t, time.Hour, ttl, "the Delivered TTL, not the Failed TTL, must apply")
}

func TestDispatcherDispatchAppliesRetentionTTLToFailedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	repo := newFakeEventRepo()
	client := httpclient.New(5 * time.Second)
	errs := dispatch.NewErrorChannel(8)
	d := dispatch.NewDispatcher(repo, client, errs, dispatch.RetentionConfig{DeliveredTTL: time.Hour, FailedTTL: 24 * time.Hour})

	key := webhook.EventKey{WebhookID: 1, EventID: 4}
	e := webhook.WebhookEvent{Key: key, WebhookID: 1, Content: `{}`}

	outcome := d.Dispatch(context.Background(), singleDispatch(server.URL, e, webhook.Webhook{ID: 1}))
	assert.False(t, outcome.Success)

	ttl, ok := repo.ttlOf(key)
	require.True(t, ok, "a Failed event must have SetTTL called on it")
	assert.Equal(t, 24*time.Hour, ttl, "the Failed TTL, not the Delivered TTL, must apply")
}

func TestDispatcherDispatchSkipsSetTTLWhenRetentionUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := newFakeEventRepo()
	client := httpclient.New(5 * time.Second)
	errs := dispatch.NewErrorChannel(8)
	d := dispatch.NewDispatcher(repo, client, errs, dispatch.RetentionConfig{})

	key := webhook.EventKey{WebhookID: 1, EventID: 5}
	e := webhook.WebhookEvent{Key: key, WebhookID: 1, Content: `{}`}

	d.Dispatch(context.Background(), singleDispatch(server.URL, e, webhook.Webhook{ID: 1}))

	_, ok := repo.ttlOf(key)
	assert.False(t, ok, "a zero retention TTL must leave the event's record unexpiring")
}

func TestDispatcherDispatchBatchSendsJSONArray(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	repo := newFakeEventRepo()
	client := httpclient.New(5 * time.Second)
	errs := dispatch.NewErrorChannel(8)
	d := dispatch.NewDispatcher(repo, client, errs, dispatch.RetentionConfig{})

	events := []webhook.WebhookEvent{
		{Key: webhook.EventKey{WebhookID: 1, EventID: 1}, WebhookID: 1, Content: `{"a":1}`},
		{Key: webhook.EventKey{WebhookID: 1, EventID: 2}, WebhookID: 1, Content: `{"a":2}`},
	}

	outcome := d.Dispatch(context.Background(), dispatch.Dispatch{
		Webhook: webhook.Webhook{ID: 1, URL: server.URL},
		Events:  events,
		Batched: true,
	})

	assert.True(t, outcome.Success)
	assert.Equal(t, `["{\"a\":1}","{\"a\":2}"]`, gotBody)
}

// TestDispatcherDispatchBatchToleratesNonJSONContent guards against
// re-embedding event content as raw JSON: WebhookEvent.Content is opaque to
// the engine, so a batch mixing non-JSON content with JSON content must
// still marshal and deliver rather than fail with an invalid-JSON error.
func TestDispatcherDispatchBatchToleratesNonJSONContent(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	repo := newFakeEventRepo()
	client := httpclient.New(5 * time.Second)
	errs := dispatch.NewErrorChannel(8)
	d := dispatch.NewDispatcher(repo, client, errs, dispatch.RetentionConfig{})

	events := []webhook.WebhookEvent{
		{Key: webhook.EventKey{WebhookID: 1, EventID: 1}, WebhookID: 1, Content: `<event>not json</event>`},
		{Key: webhook.EventKey{WebhookID: 1, EventID: 2}, WebhookID: 1, Content: `{"a":2}`},
	}

	outcome := d.Dispatch(context.Background(), dispatch.Dispatch{
		Webhook: webhook.Webhook{ID: 1, URL: server.URL},
		Events:  events,
		Batched: true,
	})

	assert.True(t, outcome.Success)
	assert.Equal(t, `["<event>not json</event>","{\"a\":2}"]`, gotBody)
}

// TestDispatcherDispatchBuildRequestFailureMarksFailed guards the
// buildRequest error path: events were already marked Delivering, so a
// signing failure must still leave them in a terminal state instead of
// stuck.
func TestDispatcherDispatchBuildRequestFailureMarksFailed(t *testing.T) {
	repo := newFakeEventRepo()
	client := httpclient.New(5 * time.Second)
	errs := dispatch.NewErrorChannel(8)
	d := dispatch.NewDispatcher(repo, client, errs, dispatch.RetentionConfig{})

	key := webhook.EventKey{WebhookID: 1, EventID: 1}
	e := webhook.WebhookEvent{Key: key, WebhookID: 1, Content: `{}`}

	outcome := d.Dispatch(context.Background(), singleDispatch("http://example.invalid", e, webhook.Webhook{
		ID:            1,
		SigningSecret: "not-a-valid-secret",
	}))

	assert.False(t, outcome.Success)
	assert.Error(t, outcome.Err)
	assert.Equal(t, []webhook.EventStatus{webhook.Delivering, webhook.Failed}, repo.historyOf(key))
}

func TestDispatcherDispatchSignsWhenSecretPresent(t *testing.T) {
	var gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("webhook-signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	secret, err := signature.GenerateSecret(32)
	require.NoError(t, err)

	repo := newFakeEventRepo()
	client := httpclient.New(5 * time.Second)
	errs := dispatch.NewErrorChannel(8)
	d := dispatch.NewDispatcher(repo, client, errs, dispatch.RetentionConfig{})

	key := webhook.EventKey{WebhookID: 1, EventID: 1}
	e := webhook.WebhookEvent{Key: key, WebhookID: 1, Content: `{}`}
	wh := webhook.Webhook{ID: 1, URL: server.URL, SigningSecret: secret.String()}

	outcome := d.Dispatch(context.Background(), dispatch.Dispatch{Webhook: wh, Events: []webhook.WebhookEvent{e}})

	require.True(t, outcome.Success)
	assert.Contains(t, gotSignature, "v1,")
}

func TestDispatcherDispatchTransportErrorEmitsNoRepoError(t *testing.T) {
	repo := newFakeEventRepo()
	client := httpclient.New(100 * time.Millisecond)
	errs := dispatch.NewErrorChannel(8)
	sub := errs.Subscribe()
	d := dispatch.NewDispatcher(repo, client, errs, dispatch.RetentionConfig{})

	key := webhook.EventKey{WebhookID: 1, EventID: 1}
	e := webhook.WebhookEvent{Key: key, WebhookID: 1, Content: `{}`}

	outcome := d.Dispatch(context.Background(), singleDispatch("http://127.0.0.1:1", e, webhook.Webhook{ID: 1}))

	assert.False(t, outcome.Success)
	require.Error(t, outcome.Err)
	var httpErr webhook.HttpError
	assert.ErrorAs(t, outcome.Err, &httpErr)

	select {
	case <-sub:
		t.Fatal("transport failure should not itself be routed through the error channel")
	case <-time.After(20 * time.Millisecond):
	}
}
