package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/hookrelay/dispatch/webhook"
	"github.com/redis/go-redis/v9"
)

/* Redis-backed implementation of webhook.WebhookRepo and
 * webhook.WebhookEventRepo.
 *
 * Webhooks live in Redis Hashes (webhook:{id}); their status changes are
 * also appended to a stream so operator-driven re-enables can be observed
 * without polling. Events live in Hashes (event:{webhookId}:{eventId}) plus
 * a status index (Set per status) for GetEventsByStatuses, and newly
 * created events are appended to a single Stream consumed through a
 * consumer group so a crashed engine resumes from where it left off.
 */

const (
	webhookKeyPrefix       = "webhook"
	webhookUpdatesStream   = "webhook-updates"
	webhookUpdatesGroup    = "webhook-updates-workers"
	eventKeyPrefix         = "event"
	eventsStream           = "events"
	eventsGroup            = "dispatch-engine"
	eventsConsumer         = "engine"
	eventStatusIndexPrefix = "events-by-status"
)

type Repository struct {
	client   *redis.Client
	consumer string
}

// NewRepository creates a new Redis-backed webhook and event repository.
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{client: client, consumer: eventsConsumer}, nil
}

// NewRepositoryFromClient wraps an already-constructed client, used by tests
// against a testcontainers-provisioned Redis instance.
func NewRepositoryFromClient(client *redis.Client) *Repository {
	return &Repository{client: client, consumer: eventsConsumer}
}

func webhookKey(id int64) string {
	return fmt.Sprintf("%s:%d", webhookKeyPrefix, id)
}

func eventKey(key webhook.EventKey) string {
	return fmt.Sprintf("%s:%d:%d", eventKeyPrefix, key.WebhookID, key.EventID)
}

func statusIndexKey(status webhook.EventStatus) string {
	return fmt.Sprintf("%s:%s", eventStatusIndexPrefix, status)
}

// GetWebhook retrieves a webhook registration by id.
func (r *Repository) GetWebhook(ctx context.Context, id int64) (webhook.Webhook, bool, error) {
	data, err := r.client.HGetAll(ctx, webhookKey(id)).Result()
	if err != nil {
		return webhook.Webhook{}, false, fmt.Errorf("getting webhook: %w", err)
	}
	if len(data) == 0 {
		return webhook.Webhook{}, false, nil
	}

	mode, err := webhook.NewDeliveryMode(data["delivery_mode"])
	if err != nil {
		return webhook.Webhook{}, false, fmt.Errorf("parsing delivery mode: %w", err)
	}

	var filters []string
	if raw, ok := data["event_type_filters"]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &filters); err != nil {
			return webhook.Webhook{}, false, fmt.Errorf("unmarshaling event type filters: %w", err)
		}
	}

	wh := webhook.Webhook{
		ID:               id,
		URL:              data["url"],
		Label:            data["label"],
		Status:           parseStatus(data["status_kind"], data["status_since"]),
		DeliveryMode:     mode,
		SigningSecret:    data["signing_secret"],
		EventTypeFilters: filters,
		CreatedAt:        time.Unix(parseInt64(data["created_at"]), 0),
		UpdatedAt:        time.Unix(parseInt64(data["updated_at"]), 0),
	}
	if raw, ok := data["max_batch_size"]; ok && raw != "" {
		size := int(parseInt64(raw))
		wh.MaxBatchSize = &size
	}
	if raw, ok := data["max_batch_wait_ms"]; ok && raw != "" {
		wait := time.Duration(parseInt64(raw)) * time.Millisecond
		wh.MaxBatchWait = &wait
	}
	return wh, true, nil
}

// PutWebhook registers or replaces a webhook. Not part of WebhookRepo (the
// core never creates webhooks), but used by cmd/server to seed
// registrations from the operator registry on startup.
func (r *Repository) PutWebhook(ctx context.Context, wh webhook.Webhook) error {
	filtersJSON, err := json.Marshal(wh.EventTypeFilters)
	if err != nil {
		return fmt.Errorf("marshaling event type filters: %w", err)
	}

	now := time.Now()
	fields := map[string]interface{}{
		"url":                wh.URL,
		"label":              wh.Label,
		"status_kind":        wh.Status.Kind.String(),
		"status_since":       formatSince(wh.Status.Since),
		"delivery_mode":      wh.DeliveryMode.String(),
		"signing_secret":     wh.SigningSecret,
		"event_type_filters": string(filtersJSON),
		"updated_at":         now.Unix(),
	}
	if wh.CreatedAt.IsZero() {
		fields["created_at"] = now.Unix()
	} else {
		fields["created_at"] = wh.CreatedAt.Unix()
	}
	if wh.MaxBatchSize != nil {
		fields["max_batch_size"] = *wh.MaxBatchSize
	}
	if wh.MaxBatchWait != nil {
		fields["max_batch_wait_ms"] = wh.MaxBatchWait.Milliseconds()
	}

	if err := r.client.HSet(ctx, webhookKey(wh.ID), fields).Err(); err != nil {
		return fmt.Errorf("storing webhook: %w", err)
	}
	return nil
}

// SetWebhookStatus updates a webhook's status and appends the change to the
// update stream so subscribers observe operator-driven transitions.
func (r *Repository) SetWebhookStatus(ctx context.Context, id int64, status webhook.Status) error {
	err := r.client.HSet(ctx, webhookKey(id), map[string]interface{}{
		"status_kind":  status.Kind.String(),
		"status_since": formatSince(status.Since),
		"updated_at":   time.Now().Unix(),
	}).Err()
	if err != nil {
		return fmt.Errorf("updating webhook status: %w", err)
	}

	_, err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: webhookUpdatesStream,
		Values: map[string]interface{}{
			"webhook_id":   id,
			"status_kind":  status.Kind.String(),
			"status_since": formatSince(status.Since),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("publishing webhook update: %w", err)
	}
	return nil
}

// SubscribeToWebhookUpdates streams operator-driven status changes. The
// returned channel is closed when ctx is cancelled.
func (r *Repository) SubscribeToWebhookUpdates(ctx context.Context) (<-chan webhook.WebhookUpdate, error) {
	r.client.XGroupCreateMkStream(ctx, webhookUpdatesStream, webhookUpdatesGroup, "0")

	out := make(chan webhook.WebhookUpdate)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    webhookUpdatesGroup,
				Consumer: r.consumer,
				Streams:  []string{webhookUpdatesStream, ">"},
				Count:    10,
				Block:    time.Second,
			}).Result()
			if err != nil {
				continue
			}

			for _, s := range streams {
				for _, msg := range s.Messages {
					update, ok := parseWebhookUpdate(msg.Values)
					if ok {
						select {
						case out <- update:
						case <-ctx.Done():
							return
						}
					}
					r.client.XAck(ctx, webhookUpdatesStream, webhookUpdatesGroup, msg.ID)
				}
			}
		}
	}()
	return out, nil
}

func parseWebhookUpdate(values map[string]interface{}) (webhook.WebhookUpdate, bool) {
	idStr, _ := values["webhook_id"].(string)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return webhook.WebhookUpdate{}, false
	}
	kindStr, _ := values["status_kind"].(string)
	sinceStr, _ := values["status_since"].(string)
	return webhook.WebhookUpdate{
		WebhookID: id,
		Status:    parseStatus(kindStr, sinceStr),
	}, true
}

// GetEvent retrieves a single event by its key.
func (r *Repository) GetEvent(ctx context.Context, key webhook.EventKey) (webhook.WebhookEvent, bool, error) {
	data, err := r.client.HGetAll(ctx, eventKey(key)).Result()
	if err != nil {
		return webhook.WebhookEvent{}, false, fmt.Errorf("getting event: %w", err)
	}
	if len(data) == 0 {
		return webhook.WebhookEvent{}, false, nil
	}
	e, err := decodeEvent(key, data)
	return e, true, err
}

// CreateEvent stores a new event (status New) and publishes it on the
// events stream for the Subscription Loop.
func (r *Repository) CreateEvent(ctx context.Context, e webhook.WebhookEvent) error {
	headersJSON, err := json.Marshal(e.Headers)
	if err != nil {
		return fmt.Errorf("marshaling headers: %w", err)
	}

	key := eventKey(e.Key)
	fields := map[string]interface{}{
		"event_id":   e.Key.EventID,
		"webhook_id": e.WebhookID,
		"content":    e.Content,
		"headers":    string(headersJSON),
		"status":     webhook.New.String(),
		"created_at": time.Now().UnixNano(),
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.SAdd(ctx, statusIndexKey(webhook.New), key)
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: eventsStream,
		Values: map[string]interface{}{
			"event_id":   e.Key.EventID,
			"webhook_id": e.WebhookID,
		},
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing event: %w", err)
	}
	return nil
}

// SetEventStatus transitions an event's status, refusing transitions that
// are not legal per EventStatus.CanTransitionTo.
func (r *Repository) SetEventStatus(ctx context.Context, key webhook.EventKey, status webhook.EventStatus) error {
	k := eventKey(key)
	current, err := r.client.HGet(ctx, k, "status").Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("reading current status: %w", err)
	}
	from := webhook.NewEventStatus(current)

	if !from.CanTransitionTo(status) {
		return webhook.InvalidStateChangeError{Key: key, From: from, To: status}
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, k, "status", status.String())
	pipe.SRem(ctx, statusIndexKey(from), k)
	pipe.SAdd(ctx, statusIndexKey(status), k)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("updating event status: %w", err)
	}
	return nil
}

// GetEventsByStatuses returns every event currently in one of the given
// statuses, used at startup to find crash-recovered Delivering events.
func (r *Repository) GetEventsByStatuses(ctx context.Context, statuses []webhook.EventStatus) ([]webhook.WebhookEvent, error) {
	var keys []string
	for _, s := range statuses {
		members, err := r.client.SMembers(ctx, statusIndexKey(s)).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning status index: %w", err)
		}
		keys = append(keys, members...)
	}

	events := make([]webhook.WebhookEvent, 0, len(keys))
	for _, k := range keys {
		data, err := r.client.HGetAll(ctx, k).Result()
		if err != nil || len(data) == 0 {
			continue
		}
		webhookID := parseInt64(data["webhook_id"])
		eventID := parseInt64(data["event_id"])
		e, err := decodeEvent(webhook.EventKey{WebhookID: webhookID, EventID: eventID}, data)
		if err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

// SetTTL sets an expiration time on an event's stored record.
func (r *Repository) SetTTL(ctx context.Context, key webhook.EventKey, ttl time.Duration) error {
	if err := r.client.Expire(ctx, eventKey(key), ttl).Err(); err != nil {
		return fmt.Errorf("setting TTL on event: %w", err)
	}
	return nil
}

// SubscribeToNewEvents streams events as they are created, via a consumer
// group so entries added while the engine was down are delivered after a
// restart. Every entry read is acknowledged right away, whether or not it
// was handed off, and pending entries are never re-read.
func (r *Repository) SubscribeToNewEvents(ctx context.Context) (<-chan webhook.WebhookEvent, error) {
	if err := r.client.XGroupCreateMkStream(ctx, eventsStream, eventsGroup, "0").Err(); err != nil {
		// BUSYGROUP means it already exists; anything else would surface
		// from XReadGroup below, so it's safe to keep going.
		_ = err
	}

	out := make(chan webhook.WebhookEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    eventsGroup,
				Consumer: r.consumer,
				Streams:  []string{eventsStream, ">"},
				Count:    10,
				Block:    time.Second,
			}).Result()
			if err != nil {
				continue
			}

			for _, s := range streams {
				for _, msg := range s.Messages {
					webhookID := parseInt64(fmt.Sprintf("%v", msg.Values["webhook_id"]))
					eventID := parseInt64(fmt.Sprintf("%v", msg.Values["event_id"]))
					e, ok, err := r.GetEvent(ctx, webhook.EventKey{WebhookID: webhookID, EventID: eventID})
					if err == nil && ok {
						select {
						case out <- e:
						case <-ctx.Done():
							r.client.XAck(ctx, eventsStream, eventsGroup, msg.ID)
							return
						}
					}
					r.client.XAck(ctx, eventsStream, eventsGroup, msg.ID)
				}
			}
		}
	}()
	return out, nil
}

// Close closes the Redis connection.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
// (used by the metrics collector).
func (r *Repository) GetClient() *redis.Client {
	return r.client
}

func decodeEvent(key webhook.EventKey, data map[string]string) (webhook.WebhookEvent, error) {
	var headers webhook.Headers
	if raw, ok := data["headers"]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &headers); err != nil {
			return webhook.WebhookEvent{}, fmt.Errorf("unmarshaling headers: %w", err)
		}
	}
	return webhook.WebhookEvent{
		Key:       key,
		WebhookID: key.WebhookID,
		Content:   data["content"],
		Headers:   headers,
		Status:    webhook.NewEventStatus(data["status"]),
		CreatedAt: parseInt64(data["created_at"]),
	}, nil
}

func parseStatus(kind, since string) webhook.Status {
	k := webhook.NewStatusKind(kind)
	s := webhook.Status{Kind: k}
	if since != "" {
		if t, err := time.Parse(time.RFC3339Nano, since); err == nil {
			s.Since = t
		}
	}
	return s
}

func formatSince(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
