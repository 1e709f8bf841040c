package queue

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

const defaultListLimit = 50

// timeLayout is fixed width so timestamps sort correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Queue struct {
	db     *sql.DB
	logger *slog.Logger
}

type Option func(*Queue)

// WithLogger sets the logger used for queue diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

func New(db *sql.DB, opts ...Option) *Queue {
	q := &Queue{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// DedupeKey fingerprints a delivery by message id and raw body. Redelivery of
// the same message maps to the same key.
func DedupeKey(messageID string, payload []byte) string {
	h := blake3.New()
	_, _ = h.Write([]byte(messageID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func (q *Queue) Enqueue(ctx context.Context, req EnqueueRequest) (EnqueueResult, error) {
	if req.Endpoint == "" {
		return EnqueueResult{}, fmt.Errorf("endpoint is empty")
	}
	if req.MessageID == "" {
		return EnqueueResult{}, fmt.Errorf("message_id is empty")
	}
	if len(req.Payload) == 0 {
		return EnqueueResult{}, fmt.Errorf("payload is empty")
	}

	dedupeKey := req.DedupeKey
	if dedupeKey == "" {
		dedupeKey = DedupeKey(req.MessageID, req.Payload)
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(timeLayout)

	res, err := q.db.ExecContext(ctx, `
INSERT INTO deliveries(
  id, endpoint, subscription, message_id, event_type, payload, status, dedupe_key, received_at
)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(dedupe_key) DO NOTHING;
`, id, req.Endpoint, nullString(req.Subscription), req.MessageID, nullString(req.EventType),
		string(req.Payload), StatusPending, dedupeKey, now)
	if err != nil {
		return EnqueueResult{}, fmt.Errorf("enqueue delivery: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return EnqueueResult{}, fmt.Errorf("enqueue delivery: %w", err)
	}
	if n > 0 {
		return EnqueueResult{ID: id}, nil
	}

	var existing string
	if err := q.db.QueryRowContext(ctx, `SELECT id FROM deliveries WHERE dedupe_key = ?;`, dedupeKey).Scan(&existing); err != nil {
		return EnqueueResult{}, fmt.Errorf("load duplicate delivery: %w", err)
	}
	q.logger.Debug("duplicate delivery ignored", "delivery_id", existing, "message_id", req.MessageID)
	return EnqueueResult{ID: existing, Duplicate: true}, nil
}

// Dequeue claims the oldest pending delivery. Returns (nil, nil) if there is
// nothing pending.
func (q *Queue) Dequeue(ctx context.Context) (*Delivery, error) {
	nowS := time.Now().UTC().Format(timeLayout)

	row := q.db.QueryRowContext(ctx, `
WITH next AS (
  SELECT id
  FROM deliveries
  WHERE status = ?
  ORDER BY received_at ASC, rowid ASC
  LIMIT 1
)
UPDATE deliveries
SET status = ?, claimed_at = ?
WHERE id IN (SELECT id FROM next)
RETURNING `+deliveryColumns+`;
`, StatusPending, StatusClaimed, nowS)

	d, err := scanDelivery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue delivery: %w", err)
	}
	return d, nil
}

// Ack marks a delivery as consumed.
func (q *Queue) Ack(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delivery id is empty")
	}
	now := time.Now().UTC().Format(timeLayout)
	res, err := q.db.ExecContext(ctx, `UPDATE deliveries SET status = ?, acked_at = ? WHERE id = ?;`, StatusAcked, now, id)
	if err != nil {
		return fmt.Errorf("ack delivery: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ack delivery: %w", err)
	}
	if n == 0 {
		return ErrDeliveryNotFound
	}
	return nil
}

// Release puts a claimed delivery back to pending so it is handed out again.
func (q *Queue) Release(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE deliveries SET status = ?, claimed_at = NULL WHERE id = ? AND status = ?;`,
		StatusPending, id, StatusClaimed)
	if err != nil {
		return fmt.Errorf("release delivery: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release delivery: %w", err)
	}
	if n == 0 {
		return ErrDeliveryNotFound
	}
	return nil
}

func (q *Queue) Get(ctx context.Context, id string) (*Delivery, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = ?;`, id)
	d, err := scanDelivery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeliveryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	return d, nil
}

// List returns deliveries newest first. An empty status lists all of them.
func (q *Queue) List(ctx context.Context, status Status, limit int) ([]*Delivery, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = q.db.QueryContext(ctx, `SELECT `+deliveryColumns+` FROM deliveries ORDER BY received_at DESC, rowid DESC LIMIT ?;`, limit)
	} else {
		rows, err = q.db.QueryContext(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE status = ? ORDER BY received_at DESC, rowid DESC LIMIT ?;`, status, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []*Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return out, nil
}

const deliveryColumns = `id, endpoint, subscription, message_id, event_type, payload, status, dedupe_key, received_at, claimed_at, acked_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDelivery(s scanner) (*Delivery, error) {
	var (
		d            Delivery
		subscription sql.NullString
		eventType    sql.NullString
		payload      string
		statusS      string
		receivedAtS  string
		claimedAtS   sql.NullString
		ackedAtS     sql.NullString
	)
	if err := s.Scan(
		&d.ID, &d.Endpoint, &subscription, &d.MessageID, &eventType, &payload, &statusS, &d.DedupeKey,
		&receivedAtS, &claimedAtS, &ackedAtS,
	); err != nil {
		return nil, err
	}

	d.Subscription = subscription.String
	d.EventType = eventType.String
	d.Payload = []byte(payload)
	d.Status = Status(statusS)
	if t, err := time.Parse(timeLayout, receivedAtS); err == nil {
		d.ReceivedAt = t
	}
	d.ClaimedAt = parseNullTime(claimedAtS)
	d.AckedAt = parseNullTime(ackedAtS)
	return &d, nil
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
