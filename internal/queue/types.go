package queue

import (
	"encoding/json"
	"errors"
	"time"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusClaimed Status = "claimed"
	StatusAcked   Status = "acked"
)

// Delivery is a verified webhook delivery waiting to be consumed by the
// workflow host.
type Delivery struct {
	ID           string
	Endpoint     string
	Subscription string
	MessageID    string
	EventType    string
	Payload      json.RawMessage
	Status       Status
	DedupeKey    string
	ReceivedAt   time.Time
	ClaimedAt    *time.Time
	AckedAt      *time.Time
}

type EnqueueRequest struct {
	Endpoint     string
	Subscription string
	MessageID    string
	EventType    string
	// Payload is the raw request body exactly as it was signed.
	Payload json.RawMessage
	// DedupeKey defaults to DedupeKey(MessageID, Payload) when empty.
	DedupeKey string
}

// EnqueueResult reports the stored delivery id. Duplicate is true when an
// identical delivery was already queued and no new row was written.
type EnqueueResult struct {
	ID        string
	Duplicate bool
}

var ErrDeliveryNotFound = errors.New("delivery not found")
