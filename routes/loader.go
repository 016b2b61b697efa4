package routes

import (
	"fmt"
	"os"

	"github.com/hookrelay/dispatch/webhook"
	"gopkg.in/yaml.v3"
)

/* Loader manages the operator-declared webhook registry (webhooks.yaml).
 * Provides in-memory lookup for fast access and feeds cmd/validate-config,
 * cmd/server's seeding of the webhook repository on startup, and the admin
 * HTTP layer's listing and enable checks.
 */

// File represents the structure of webhooks.yaml.
type File struct {
	Webhooks []Entry `yaml:"webhooks"`
}

// Entry represents a single webhook in the YAML file.
type Entry struct {
	WebhookID        int64    `yaml:"webhook_id"`
	URL              string   `yaml:"url"`
	Label            string   `yaml:"label"`
	Mode             string   `yaml:"delivery_mode"`
	SigningSecret    string   `yaml:"signing_secret"`
	EventTypeFilters []string `yaml:"event_type_filters"`
	MaxBatchSize     *int     `yaml:"max_batch_size"`
	MaxBatchWait     *int     `yaml:"max_batch_wait_seconds"`
}

// Loader holds the loaded registrations.
type Loader struct {
	registrations map[int64]*Registration
}

// NewLoader creates a new registry loader.
func NewLoader() *Loader {
	return &Loader{
		registrations: make(map[int64]*Registration),
	}
}

// Load reads and parses the webhooks.yaml file.
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading webhook registry file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing webhook registry YAML: %w", err)
	}

	for _, entry := range file.Webhooks {
		mode, err := webhook.NewDeliveryMode(entry.Mode)
		if err != nil {
			return fmt.Errorf("parsing delivery mode for webhook %d: %w", entry.WebhookID, err)
		}

		reg := &Registration{
			WebhookID:        entry.WebhookID,
			URL:              entry.URL,
			Label:            entry.Label,
			Mode:             mode,
			SigningSecret:    entry.SigningSecret,
			EventTypeFilters: entry.EventTypeFilters,
			MaxBatchSize:     entry.MaxBatchSize,
			MaxBatchWait:     entry.MaxBatchWait,
		}

		if err := reg.Validate(); err != nil {
			return fmt.Errorf("validating webhook registration: %w", err)
		}

		l.registrations[reg.WebhookID] = reg
	}

	return nil
}

// Get retrieves a registration by webhook id.
func (l *Loader) Get(webhookID int64) (*Registration, error) {
	reg, exists := l.registrations[webhookID]
	if !exists {
		return nil, fmt.Errorf("webhook not found in registry: %d", webhookID)
	}
	return reg, nil
}

// List returns all loaded registrations.
func (l *Loader) List() []*Registration {
	regs := make([]*Registration, 0, len(l.registrations))
	for _, reg := range l.registrations {
		regs = append(regs, reg)
	}
	return regs
}

// Exists checks if a webhook id exists in the registry.
func (l *Loader) Exists(webhookID int64) bool {
	_, exists := l.registrations[webhookID]
	return exists
}
