package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattjoyce/consolidate-bridge/internal/log"
	"github.com/mattjoyce/consolidate-bridge/internal/queue"
)

func runDeliveryNoun(args []string) int {
	action, actionArgs, code, ok := nounAction(args, printDeliveryHelp)
	if !ok {
		return code
	}
	switch action {
	case "list", "get", "next", "ack", "release":
		return runDeliveryAction(action, actionArgs)
	default:
		return unknownAction("delivery", action)
	}
}

func printDeliveryHelp(w io.Writer) {
	fmt.Fprint(w, `Usage:
  consolidate-bridge delivery list [--status pending|claimed|acked] [--limit N]
  consolidate-bridge delivery get <id>
  consolidate-bridge delivery next       Claim the oldest pending delivery
  consolidate-bridge delivery ack <id>   Mark a delivery as consumed
  consolidate-bridge delivery release <id>
                                         Return a claimed delivery to pending
`)
}

type deliveryView struct {
	ID           string          `json:"id"`
	Endpoint     string          `json:"endpoint"`
	Subscription string          `json:"subscription,omitempty"`
	MessageID    string          `json:"message_id"`
	EventType    string          `json:"event_type,omitempty"`
	Status       queue.Status    `json:"status"`
	ReceivedAt   time.Time       `json:"received_at"`
	ClaimedAt    *time.Time      `json:"claimed_at,omitempty"`
	AckedAt      *time.Time      `json:"acked_at,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

func viewOf(d *queue.Delivery, withPayload bool) deliveryView {
	v := deliveryView{
		ID:           d.ID,
		Endpoint:     d.Endpoint,
		Subscription: d.Subscription,
		MessageID:    d.MessageID,
		EventType:    d.EventType,
		Status:       d.Status,
		ReceivedAt:   d.ReceivedAt,
		ClaimedAt:    d.ClaimedAt,
		AckedAt:      d.AckedAt,
	}
	if withPayload {
		v.Payload = d.Payload
	}
	return v
}

func runDeliveryAction(action string, args []string) int {
	fs := newFlagSet(action)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	status := fs.String("status", "", "Filter by status")
	limit := fs.Int("limit", 0, "Maximum number of deliveries")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	needsID := action == "get" || action == "ack" || action == "release"
	if needsID && fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: consolidate-bridge delivery %s <id>\n", action)
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	log.Setup(cfg.Service.LogLevel)

	ctx := context.Background()
	db, err := openState(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer db.Close()
	q := queue.New(db, queue.WithLogger(log.WithComponent("queue")))

	switch action {
	case "list":
		deliveries, err := q.List(ctx, queue.Status(*status), *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		views := make([]deliveryView, 0, len(deliveries))
		for _, d := range deliveries {
			views = append(views, viewOf(d, false))
		}
		return printJSON(views)

	case "get":
		d, err := q.Get(ctx, fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		return printJSON(viewOf(d, true))

	case "next":
		d, err := q.Dequeue(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		if d == nil {
			fmt.Fprintln(os.Stderr, "No pending deliveries")
			return 0
		}
		return printJSON(viewOf(d, true))

	case "ack":
		err = q.Ack(ctx, fs.Arg(0))
	default:
		err = q.Release(ctx, fs.Arg(0))
	}

	if errors.Is(err, queue.ErrDeliveryNotFound) {
		fmt.Fprintf(os.Stderr, "Delivery %s not found\n", fs.Arg(0))
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	fmt.Printf("Delivery %s %s\n", fs.Arg(0), pastTense[action])
	return 0
}

var pastTense = map[string]string{
	"ack":     "acked",
	"release": "released",
}
