package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattjoyce/consolidate-bridge/internal/config"
	"github.com/mattjoyce/consolidate-bridge/internal/log"
	"github.com/mattjoyce/consolidate-bridge/internal/subscription"
)

func runSubscriptionNoun(args []string) int {
	action, actionArgs, code, ok := nounAction(args, printSubscriptionHelp)
	if !ok {
		return code
	}
	switch action {
	case "create", "check", "delete", "list":
		return runSubscriptionAction(action, actionArgs)
	default:
		return unknownAction("subscription", action)
	}
}

func printSubscriptionHelp(w io.Writer) {
	fmt.Fprint(w, `Usage:
  consolidate-bridge subscription create --name <name> [--url <url>] [--event <type>]...
  consolidate-bridge subscription check  --name <name> [--url <url>] [--event <type>]...
  consolidate-bridge subscription delete --name <name>
  consolidate-bridge subscription list

--url and --event default to the webhook endpoint bound to the
subscription name (webhooks.public_url + path, and its events).
`)
}

func runSubscriptionAction(action string, args []string) int {
	fs := newFlagSet(action)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	name := fs.String("name", "", "Subscription name")
	url := fs.String("url", "", "Subscriber URL")
	var events stringList
	fs.Var(&events, "event", "Event type (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if action != "list" && *name == "" {
		fmt.Fprintln(os.Stderr, "--name is required")
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

	manager := subscription.NewManager(newClient(cfg), subscription.NewStore(db),
		subscription.WithLogger(log.WithSubscription(*name)))

	if action == "create" || action == "check" {
		if err := endpointDefaults(cfg, *name, url, &events); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
	}

	switch action {
	case "create":
		sub, err := manager.Create(ctx, *name, *url, events)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Create failed: %v\n", err)
			return 1
		}
		return printJSON(sub)
	case "check":
		exists, err := manager.CheckExists(ctx, *name, *url, events)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Check failed: %v\n", err)
			return 1
		}
		return printJSON(map[string]any{"name": *name, "url": *url, "exists": exists})
	case "delete":
		if err := manager.Delete(ctx, *name); err != nil {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
			return 1
		}
		fmt.Printf("Deleted subscription %s\n", *name)
		return 0
	default:
		subs, err := manager.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			return 1
		}
		if subs == nil {
			subs = []*subscription.Subscription{}
		}
		return printJSON(subs)
	}
}

// endpointDefaults fills url and events from the endpoint bound to name.
func endpointDefaults(cfg *config.Config, name string, url *string, events *stringList) error {
	ep, ok := cfg.Endpoint(name)
	if *url == "" {
		if !ok {
			return fmt.Errorf("no webhook endpoint is bound to subscription %q; pass --url", name)
		}
		resolved, err := cfg.PublicEndpointURL(ep.Path)
		if err != nil {
			return err
		}
		*url = resolved
	}
	if len(*events) == 0 && ok {
		*events = append(*events, ep.Events...)
	}
	return nil
}
