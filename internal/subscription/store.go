package subscription

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no subscription is stored under a name.
var ErrNotFound = errors.New("subscription not found")

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Subscription is a remote webhook registration known to this bridge.
type Subscription struct {
	Name          string    `json:"name"`
	WebhookID     string    `json:"webhook_id"`
	SubscriberURL string    `json:"subscriber_url"`
	EventTypes    []string  `json:"event_types"`
	Secret        string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store persists subscriptions in the SQLite subscriptions table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save inserts or replaces the subscription stored under s.Name. An empty
// Secret keeps the stored one.
func (s *Store) Save(ctx context.Context, sub Subscription) error {
	if sub.Name == "" {
		return fmt.Errorf("subscription name is empty")
	}
	events := sub.EventTypes
	if events == nil {
		events = []string{}
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshal event types: %w", err)
	}
	now := time.Now().UTC().Format(timeLayout)

	_, err = s.db.ExecContext(ctx, `
INSERT INTO subscriptions(name, webhook_id, subscriber_url, event_types, secret, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
  webhook_id = excluded.webhook_id,
  subscriber_url = excluded.subscriber_url,
  event_types = excluded.event_types,
  secret = COALESCE(excluded.secret, subscriptions.secret),
  updated_at = excluded.updated_at;
`, sub.Name, sub.WebhookID, sub.SubscriberURL, string(eventsJSON), nullString(sub.Secret), now, now)
	if err != nil {
		return fmt.Errorf("save subscription %s: %w", sub.Name, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, name string) (*Subscription, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE name = ?;`, name)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription %s: %w", name, err)
	}
	return sub, nil
}

// List returns every stored subscription ordered by name.
func (s *Store) List(ctx context.Context) ([]*Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("list subscriptions: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE name = ?;`, name)
	if err != nil {
		return fmt.Errorf("delete subscription %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subscription %s: %w", name, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const subscriptionColumns = `name, webhook_id, subscriber_url, event_types, secret, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row scanner) (*Subscription, error) {
	var (
		sub        Subscription
		eventsJSON string
		secret     sql.NullString
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(&sub.Name, &sub.WebhookID, &sub.SubscriberURL, &eventsJSON, &secret, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(eventsJSON), &sub.EventTypes); err != nil {
		return nil, fmt.Errorf("decode event types: %w", err)
	}
	sub.Secret = secret.String

	var err error
	if sub.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sub.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &sub, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
