package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/mattjoyce/consolidate-bridge/internal/config"
	"github.com/mattjoyce/consolidate-bridge/internal/graphql"
	"github.com/mattjoyce/consolidate-bridge/internal/log"
	"github.com/mattjoyce/consolidate-bridge/internal/storage"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage(os.Stderr)
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	case "serve":
		return runServe(args)
	case "webhook":
		return runWebhookNoun(args)
	case "subscription":
		return runSubscriptionNoun(args)
	case "delivery":
		return runDeliveryNoun(args)
	case "field":
		return runFieldNoun(args)
	case "action":
		return runActionNoun(args)
	case "lookup":
		return runLookupNoun(args)
	case "config":
		return runConfigNoun(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage(os.Stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `consolidate-bridge - Consolidate CRM actions and verified webhooks

Usage:
  consolidate-bridge <noun> <action> [flags]

Commands:
  serve                          Run the webhook receiver
  webhook sign|verify            Sign or verify a webhook payload
  subscription create|delete|check|list
                                 Manage Consolidate webhook subscriptions
  delivery list|get|next|ack|release
                                 Consume verified deliveries
  field token|kind|encode        Inspect the field value codec
  action list|run                Run a resource/operation against the API
  lookup <name>                  Fetch option lists and mapping columns
  config check|get|show|lock     Validate and inspect configuration
  version                        Show version information

Most commands accept --config <file|dir>. Without it the config is
discovered via $`+config.EnvConfigPath+`, ~/.config/consolidate-bridge,
/etc/consolidate-bridge and ./config.yaml.
`)
}

// nounAction splits args into an action and its arguments and handles the
// help tokens shared by every noun.
func nounAction(args []string, help func(io.Writer)) (string, []string, int, bool) {
	if len(args) < 1 {
		help(os.Stderr)
		return "", nil, 1, false
	}
	if isHelpToken(args[0]) {
		help(os.Stdout)
		return "", nil, 0, false
	}
	return args[0], args[1:], 0, true
}

func unknownAction(noun, action string) int {
	fmt.Fprintf(os.Stderr, "Unknown %s action: %s\n", noun, action)
	return 1
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		discovered, err := config.Discover()
		if err != nil {
			return nil, err
		}
		configPath = discovered
	}
	return config.Load(configPath)
}

func newClient(cfg *config.Config) *graphql.Client {
	return graphql.New(cfg.Consolidate.BaseURL, cfg.APIKeyValue(),
		graphql.WithTimeout(cfg.Consolidate.Timeout),
		graphql.WithLogger(log.WithComponent("graphql")),
	)
}

func openState(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		return nil, fmt.Errorf("open state %s: %w", cfg.State.Path, err)
	}
	return db, nil
}

func printJSON(v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render JSON: %v\n", err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}

// readInput reads a file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := newFlagSet("version")
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: consolidate-bridge version [--json]")
		return 1
	}

	info := currentVersionInfo()
	if *jsonOut {
		return printJSON(info)
	}

	fmt.Printf("consolidate-bridge %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	commit := strings.TrimSpace(gitCommit)
	if commit == "" || commit == "unknown" {
		commit = readBuildSetting("vcs.revision")
	}
	if commit != "" {
		if len(commit) > 12 {
			commit = commit[:12]
		}
		info.Commit = commit
	}

	built := strings.TrimSpace(buildDate)
	if built == "" || built == "unknown" {
		built = readBuildSetting("vcs.time")
	}
	if t, err := time.Parse(time.RFC3339Nano, built); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}
	return info
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return strings.TrimSpace(setting.Value)
		}
	}
	return ""
}
