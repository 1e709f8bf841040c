package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattjoyce/consolidate-bridge/internal/fieldvalue"
	"github.com/mattjoyce/consolidate-bridge/internal/log"
	"github.com/mattjoyce/consolidate-bridge/internal/mapping"
)

func printLookupHelp(w io.Writer) {
	fmt.Fprint(w, `Usage:
  consolidate-bridge lookup <name> [flags] [--config <path>]

Names:
  columns       Mappable fields  (--collection <dc> | --entry <id>) [--type <key>]... [--update]
  calendars     Calendars you can edit
  collections   Data collections
  search-hints  Data collection hints for dataEntry search
  users         Users invitable to appointments
  mailboxes     Your mailboxes
  aliases       Alias addresses of a mailbox (--mailbox <id>)
  types         Data types of a collection (--collection <dc> | --entry <id>)
`)
}

func runLookupNoun(args []string) int {
	name, lookupArgs, code, ok := nounAction(args, printLookupHelp)
	if !ok {
		return code
	}

	fs := newFlagSet(name)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	collection := fs.String("collection", "", "Data collection")
	entry := fs.String("entry", "", "Data entry id whose collection is used")
	mailbox := fs.String("mailbox", "", "Mailbox id")
	forUpdate := fs.Bool("update", false, "Columns for an update (nothing required)")
	var types stringList
	fs.Var(&types, "type", "Data type key (repeatable)")
	if err := fs.Parse(lookupArgs); err != nil {
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	log.Setup(cfg.Service.LogLevel)

	ctx := context.Background()
	m := mapping.New(newClient(cfg), mapping.WithLogger(log.WithComponent("mapping")))

	dataCollection := func() (string, error) {
		if *entry != "" {
			return m.DataCollectionOf(ctx, *entry)
		}
		return *collection, nil
	}

	var (
		result any
		opts   []fieldvalue.Option
	)
	switch name {
	case "columns":
		dc, derr := dataCollection()
		if derr != nil {
			err = derr
			break
		}
		result, err = m.Columns(ctx, dc, types, *forUpdate)
	case "calendars":
		opts, err = m.Calendars(ctx)
	case "collections":
		opts, err = m.DataCollections(ctx)
	case "search-hints":
		opts, err = m.DataCollectionsGlobalSearch(ctx)
	case "users":
		opts, err = m.InvitableUsers(ctx)
	case "mailboxes":
		opts, err = m.Mailboxes(ctx)
	case "aliases":
		opts, err = m.MailboxAliases(ctx, *mailbox)
	case "types":
		dc, derr := dataCollection()
		if derr != nil {
			err = derr
			break
		}
		opts, err = m.Types(ctx, dc)
	default:
		return unknownAction("lookup", name)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
		return 1
	}
	if result == nil {
		result = opts
	}
	return printJSON(result)
}
