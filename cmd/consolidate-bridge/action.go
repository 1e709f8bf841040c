package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattjoyce/consolidate-bridge/internal/actions"
	"github.com/mattjoyce/consolidate-bridge/internal/log"
)

func runActionNoun(args []string) int {
	action, actionArgs, code, ok := nounAction(args, printActionHelp)
	if !ok {
		return code
	}
	switch action {
	case "list":
		for _, op := range actions.New(nil).Operations() {
			fmt.Println(op)
		}
		return 0
	case "run":
		return runActionRun(actionArgs)
	default:
		return unknownAction("action", action)
	}
}

func printActionHelp(w io.Writer) {
	fmt.Fprint(w, `Usage:
  consolidate-bridge action list
  consolidate-bridge action run <resource> <operation> [--params <file|->] [--config <path>]

run prints the resulting items as a JSON array. Params are the JSON object
of the operation, e.g. {"id": "..."} for dataEntry getById.
`)
}

func runActionRun(args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: consolidate-bridge action run <resource> <operation> [--params <file|->]")
		return 1
	}
	resource, operation := args[0], args[1]

	fs := newFlagSet("run")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	paramsPath := fs.String("params", "", "Params JSON file, or - for stdin")
	if err := fs.Parse(args[2:]); err != nil {
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	log.Setup(cfg.Service.LogLevel)

	params := json.RawMessage(`{}`)
	if *paramsPath != "" {
		data, err := readInput(*paramsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read params: %v\n", err)
			return 1
		}
		params = data
	}

	router := actions.New(newClient(cfg), actions.WithLogger(log.WithComponent("actions")))
	items, err := router.Execute(context.Background(), resource, operation, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Action failed: %v\n", err)
		return 1
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return printJSON(items)
}
