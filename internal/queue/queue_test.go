package queue

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mattjoyce/consolidate-bridge/internal/storage"
)

func openTestQueue(t *testing.T) (*Queue, *sql.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "state.db")
	db, err := storage.OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db), db
}

func TestQueueEnqueueDequeueFIFO(t *testing.T) {
	t.Parallel()
	q, _ := openTestQueue(t)
	ctx := context.Background()

	r1, err := q.Enqueue(ctx, EnqueueRequest{
		Endpoint:     "/webhook/consolidate",
		Subscription: "crm-events",
		MessageID:    "msg_1",
		EventType:    "DataEntryCreated",
		Payload:      []byte(`{"n":1}`),
	})
	if err != nil {
		t.Fatalf("Enqueue 1: %v", err)
	}
	r2, err := q.Enqueue(ctx, EnqueueRequest{
		Endpoint:  "/webhook/consolidate",
		MessageID: "msg_2",
		Payload:   []byte(`{"n":2}`),
	})
	if err != nil {
		t.Fatalf("Enqueue 2: %v", err)
	}

	d1, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue 1: %v", err)
	}
	if d1 == nil || d1.ID != r1.ID || d1.Status != StatusClaimed || d1.ClaimedAt == nil {
		t.Fatalf("unexpected delivery1: %#v", d1)
	}
	if d1.Subscription != "crm-events" || d1.EventType != "DataEntryCreated" || string(d1.Payload) != `{"n":1}` {
		t.Fatalf("delivery1 fields not persisted: %#v", d1)
	}

	d2, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue 2: %v", err)
	}
	if d2 == nil || d2.ID != r2.ID || d2.Subscription != "" {
		t.Fatalf("unexpected delivery2: %#v", d2)
	}

	d3, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue 3: %v", err)
	}
	if d3 != nil {
		t.Fatalf("expected empty queue, got %#v", d3)
	}
}

func TestQueueEnqueueDeduplicates(t *testing.T) {
	t.Parallel()
	q, db := openTestQueue(t)
	ctx := context.Background()

	req := EnqueueRequest{Endpoint: "/hook", MessageID: "msg_1", Payload: []byte(`{"a":1}`)}
	first, err := q.Enqueue(ctx, req)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if first.Duplicate {
		t.Fatal("first enqueue should not be a duplicate")
	}

	second, err := q.Enqueue(ctx, req)
	if err != nil {
		t.Fatalf("Enqueue duplicate: %v", err)
	}
	if !second.Duplicate || second.ID != first.ID {
		t.Fatalf("expected duplicate of %s, got %#v", first.ID, second)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM deliveries;").Scan(&count); err != nil {
		t.Fatalf("count deliveries: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 delivery row, got %d", count)
	}
}

func TestQueueAckAndRelease(t *testing.T) {
	t.Parallel()
	q, _ := openTestQueue(t)
	ctx := context.Background()

	r, err := q.Enqueue(ctx, EnqueueRequest{Endpoint: "/hook", MessageID: "m", Payload: []byte(`{}`)})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.Dequeue(ctx); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if err := q.Release(ctx, r.ID); err != nil {
		t.Fatalf("Release: %v", err)
	}

	again, err := q.Dequeue(ctx)
	if err != nil || again == nil || again.ID != r.ID {
		t.Fatalf("expected released delivery again, got %#v err=%v", again, err)
	}

	if err := q.Ack(ctx, r.ID); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	got, err := q.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusAcked || got.AckedAt == nil {
		t.Fatalf("expected acked delivery, got %#v", got)
	}

	if err := q.Ack(ctx, "missing"); !errors.Is(err, ErrDeliveryNotFound) {
		t.Fatalf("Ack missing: got %v, want ErrDeliveryNotFound", err)
	}
	if _, err := q.Get(ctx, "missing"); !errors.Is(err, ErrDeliveryNotFound) {
		t.Fatalf("Get missing: got %v, want ErrDeliveryNotFound", err)
	}
}

func TestQueueList(t *testing.T) {
	t.Parallel()
	q, _ := openTestQueue(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := q.Enqueue(ctx, EnqueueRequest{Endpoint: "/hook", MessageID: id, Payload: []byte(`{}`)}); err != nil {
			t.Fatalf("Enqueue %s: %v", id, err)
		}
	}
	d, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if err := q.Ack(ctx, d.ID); err != nil {
		t.Fatalf("Ack: %v", err)
	}

	all, err := q.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(all))
	}
	if all[0].MessageID != "c" {
		t.Fatalf("expected newest first, got %s", all[0].MessageID)
	}

	pending, err := q.List(ctx, StatusPending, 10)
	if err != nil {
		t.Fatalf("List pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending deliveries, got %d", len(pending))
	}
}

func TestQueueEnqueueValidation(t *testing.T) {
	t.Parallel()
	q, _ := openTestQueue(t)

	bad := []EnqueueRequest{
		{MessageID: "m", Payload: []byte(`{}`)},
		{Endpoint: "/hook", Payload: []byte(`{}`)},
		{Endpoint: "/hook", MessageID: "m"},
	}
	for i, req := range bad {
		if _, err := q.Enqueue(context.Background(), req); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestDedupeKey(t *testing.T) {
	a := DedupeKey("msg_1", []byte(`{}`))
	if len(a) != 64 {
		t.Fatalf("DedupeKey length = %d, want 64", len(a))
	}
	if a != DedupeKey("msg_1", []byte(`{}`)) {
		t.Fatal("DedupeKey should be deterministic")
	}
	if a == DedupeKey("msg_2", []byte(`{}`)) {
		t.Fatal("different message ids should differ")
	}
}
