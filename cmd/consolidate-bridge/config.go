package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/consolidate-bridge/internal/config"
	"github.com/mattjoyce/consolidate-bridge/internal/webhook"
)

func runConfigNoun(args []string) int {
	action, actionArgs, code, ok := nounAction(args, printConfigHelp)
	if !ok {
		return code
	}
	switch action {
	case "check":
		return runConfigCheck(actionArgs)
	case "get":
		return runConfigGet(actionArgs)
	case "show":
		return runConfigShow(actionArgs)
	case "lock":
		return runConfigLock(actionArgs)
	default:
		return unknownAction("config", action)
	}
}

func printConfigHelp(w io.Writer) {
	fmt.Fprint(w, `Usage:
  consolidate-bridge config check [--remote]   Validate syntax, references and integrity
  consolidate-bridge config get <path>         Print one value, e.g. consolidate.base_url
  consolidate-bridge config show               Print the effective config (secrets masked)
  consolidate-bridge config lock               Write .checksums for the config file

All actions accept --config <file|dir>.
`)
}

func runConfigCheck(args []string) int {
	fs := newFlagSet("check")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	remote := fs.Bool("remote", false, "Also test the API key against Consolidate")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration check FAILED: %v\n", err)
		return 1
	}
	if cfg.Webhooks != nil {
		if _, err := webhook.FromGlobalConfig(cfg.Webhooks, cfg.Tokens); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration check FAILED: %v\n", err)
			return 1
		}
	}
	if *remote {
		if err := newClient(cfg).Ping(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration check FAILED: %v\n", err)
			return 1
		}
	}

	fmt.Printf("Configuration check PASSED: %s\n", cfg.SourcePath)
	return 0
}

func runConfigGet(args []string) int {
	fs := newFlagSet("get")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: consolidate-bridge config get <path>")
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}
	value, err := cfg.GetPath(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if s, ok := value.(string); ok {
		fmt.Println(s)
		return 0
	}
	return printJSON(value)
}

func runConfigShow(args []string) int {
	fs := newFlagSet("show")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}
	out, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render config: %v\n", err)
		return 1
	}
	fmt.Print(string(out))
	return 0
}

func runConfigLock(args []string) int {
	fs := newFlagSet("lock")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	target := *configPath
	if target == "" {
		discovered, err := config.Discover()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		target = discovered
	}

	locked, err := config.Lock(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lock failed: %v\n", err)
		return 1
	}
	for _, f := range locked.Files {
		fmt.Printf("%s  %s\n", f.Digest, f.Name)
	}
	fmt.Printf("Wrote %s\n", locked.ManifestPath)
	return 0
}
