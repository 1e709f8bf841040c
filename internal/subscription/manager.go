// Package subscription manages the Consolidate webhook registrations that
// feed the receiver and keeps their signing secrets.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mattjoyce/consolidate-bridge/internal/graphql"
)

var (
	// ErrSpaceInURL rejects subscriber URLs that carry an encoded space.
	ErrSpaceInURL = errors.New("subscriber url must not contain spaces")
	// ErrDeleteRejected is returned when the API did not confirm a deletion.
	ErrDeleteRejected = errors.New("webhook deletion was not confirmed")
	// ErrNoSecret is returned for subscriptions stored without a secret.
	ErrNoSecret = errors.New("subscription has no secret")
)

const listWebhooksQuery = `
query ListWebhooks {
  webhooks {
    id
    name
    subscriberUrl
    eventTypes
  }
}`

const createWebhookMutation = `
mutation CreateWebhook($input: CreateWebhookInput!) {
  createWebhook(input: $input) {
    webhookSubscription {
      id
      name
      subscriberUrl
      eventTypes
      secret
    }
  }
}`

const deleteWebhookMutation = `
mutation DeleteWebhook($input: DeleteWebhookInput!) {
  deleteWebhook(input: $input) {
    success
  }
}`

// RemoteWebhook is a webhook registration as listed by the API.
type RemoteWebhook struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	SubscriberURL string   `json:"subscriberUrl"`
	EventTypes    []string `json:"eventTypes"`
}

type Manager struct {
	client GraphQLDoer
	store  *Store
	logger *slog.Logger
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func NewManager(client GraphQLDoer, store *Store, opts ...Option) *Manager {
	m := &Manager{client: client, store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Remote lists the webhooks registered with the API.
func (m *Manager) Remote(ctx context.Context) ([]RemoteWebhook, error) {
	resp, err := m.client.Do(ctx, graphql.Request{Query: listWebhooksQuery})
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	var hooks []RemoteWebhook
	if !resp.Get("data.webhooks").IsArray() {
		return hooks, nil
	}
	if err := resp.Decode("data.webhooks", &hooks); err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	return hooks, nil
}

// CheckExists reports whether a remote webhook with this name and url
// already covers every requested event. A match is recorded locally so a
// later Delete can remove it.
func (m *Manager) CheckExists(ctx context.Context, name, url string, events []string) (bool, error) {
	hooks, err := m.Remote(ctx)
	if err != nil {
		return false, err
	}

	for _, h := range hooks {
		if h.Name != name || h.SubscriberURL != url || !eventsExist(h.EventTypes, events) {
			continue
		}
		if err := m.store.Save(ctx, Subscription{
			Name:          name,
			WebhookID:     h.ID,
			SubscriberURL: url,
			EventTypes:    events,
		}); err != nil {
			return false, err
		}
		m.logger.Info("webhook subscription exists", "subscription", name, "webhook_id", h.ID)
		return true, nil
	}
	return false, nil
}

// eventsExist reports whether every requested event is in available.
func eventsExist(available, requested []string) bool {
	for _, want := range requested {
		found := false
		for _, have := range available {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Create registers a webhook and stores its id and signing secret.
func (m *Manager) Create(ctx context.Context, name, url string, events []string) (*Subscription, error) {
	if name == "" {
		return nil, fmt.Errorf("subscription name is empty")
	}
	if url == "" {
		return nil, fmt.Errorf("subscriber url is empty")
	}
	if strings.Contains(url, "%20") {
		return nil, ErrSpaceInURL
	}
	if events == nil {
		events = []string{}
	}

	resp, err := m.client.Do(ctx, graphql.Request{
		Query: createWebhookMutation,
		Variables: map[string]any{
			"input": map[string]any{"name": name, "url": url, "eventTypes": events},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create webhook %s: %w", name, err)
	}

	created := resp.Get("data.createWebhook.webhookSubscription")
	id := created.Get("id").String()
	if id == "" {
		return nil, fmt.Errorf("create webhook %s: response has no id", name)
	}

	sub := Subscription{
		Name:          name,
		WebhookID:     id,
		SubscriberURL: url,
		EventTypes:    events,
		Secret:        created.Get("secret").String(),
	}
	if err := m.store.Save(ctx, sub); err != nil {
		return nil, err
	}
	m.logger.Info("webhook subscription created", "subscription", name, "webhook_id", id, "events", len(events))
	return m.store.Get(ctx, name)
}

// Delete removes the remote webhook and then the local record. Deleting an
// unknown subscription is a no-op.
func (m *Manager) Delete(ctx context.Context, name string) error {
	sub, err := m.store.Get(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	resp, err := m.client.Do(ctx, graphql.Request{
		Query:     deleteWebhookMutation,
		Variables: map[string]any{"input": map[string]any{"id": sub.WebhookID}},
	})
	if err != nil {
		return fmt.Errorf("delete webhook %s: %w", name, err)
	}
	if !resp.Get("data.deleteWebhook.success").Bool() {
		return fmt.Errorf("delete webhook %s: %w", name, ErrDeleteRejected)
	}

	if err := m.store.Delete(ctx, name); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	m.logger.Info("webhook subscription deleted", "subscription", name, "webhook_id", sub.WebhookID)
	return nil
}

// Secret returns the signing secret of a stored subscription.
func (m *Manager) Secret(ctx context.Context, name string) (string, error) {
	sub, err := m.store.Get(ctx, name)
	if err != nil {
		return "", err
	}
	if sub.Secret == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNoSecret)
	}
	return sub.Secret, nil
}

// ReceiverSecrets returns a secret source for the webhook receiver.
// Subscriptions that are not stored yet, or were stored without a secret,
// resolve to an empty secret with a nil error.
func (m *Manager) ReceiverSecrets() ReceiverSecrets {
	return ReceiverSecrets{m: m}
}

// ReceiverSecrets reports missing secrets as "not ready" rather than errors.
type ReceiverSecrets struct {
	m *Manager
}

func (r ReceiverSecrets) Secret(ctx context.Context, name string) (string, error) {
	secret, err := r.m.Secret(ctx, name)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoSecret) {
		return "", nil
	}
	return secret, err
}

// List returns the locally stored subscriptions.
func (m *Manager) List(ctx context.Context) ([]*Subscription, error) {
	return m.store.List(ctx)
}
