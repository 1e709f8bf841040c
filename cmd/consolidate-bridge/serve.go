package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattjoyce/consolidate-bridge/internal/config"
	"github.com/mattjoyce/consolidate-bridge/internal/lock"
	"github.com/mattjoyce/consolidate-bridge/internal/log"
	"github.com/mattjoyce/consolidate-bridge/internal/queue"
	"github.com/mattjoyce/consolidate-bridge/internal/subscription"
	"github.com/mattjoyce/consolidate-bridge/internal/webhook"
)

func runServe(args []string) int {
	fs := newFlagSet("serve")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	ensure := fs.Bool("ensure-subscriptions", false, "Create missing Consolidate subscriptions for configured endpoints before serving")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if cfg.Webhooks == nil || len(cfg.Webhooks.Endpoints) == 0 {
		fmt.Fprintln(os.Stderr, "No webhook endpoints configured (webhooks.endpoints is empty)")
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("consolidate-bridge starting", "version", version, "config", cfg.SourcePath)

	lockPath := lock.PathFor(cfg.State.Path)
	pidLock, err := lock.Acquire(lockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock", "path", lockPath, "error", err)
		return 1
	}
	defer pidLock.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openState(ctx, cfg)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return 1
	}
	defer db.Close()

	q := queue.New(db, queue.WithLogger(log.WithComponent("queue")))
	manager := subscription.NewManager(newClient(cfg), subscription.NewStore(db),
		subscription.WithLogger(log.WithComponent("subscription")))

	if *ensure {
		if err := ensureSubscriptions(ctx, cfg, manager); err != nil {
			logger.Error("failed to ensure subscriptions", "error", err)
			return 1
		}
	}

	webhookConfig, err := webhook.FromGlobalConfig(cfg.Webhooks, cfg.Tokens)
	if err != nil {
		logger.Error("failed to configure webhooks", "error", err)
		return 1
	}
	server := webhook.New(webhookConfig, q, log.WithComponent("webhook"), webhook.WithSecretSource(manager.ReceiverSecrets()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	logger.Info("consolidate-bridge running (press Ctrl+C to stop)", "listen", webhookConfig.Listen, "endpoints", len(webhookConfig.Endpoints))

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("webhook server failed", "error", err)
		return 1
	}

	logger.Info("consolidate-bridge stopped")
	return 0
}

// ensureSubscriptions registers every subscription-backed endpoint that is
// not yet registered under its public URL.
func ensureSubscriptions(ctx context.Context, cfg *config.Config, manager *subscription.Manager) error {
	for _, ep := range cfg.Webhooks.Endpoints {
		if ep.Subscription == "" {
			continue
		}
		url, err := cfg.PublicEndpointURL(ep.Path)
		if err != nil {
			return err
		}

		logger := log.WithSubscription(ep.Subscription)
		exists, err := manager.CheckExists(ctx, ep.Subscription, url, ep.Events)
		if err != nil {
			return err
		}
		if exists {
			if _, err := manager.Secret(ctx, ep.Subscription); err == nil {
				logger.Info("subscription already registered", "url", url)
				continue
			}
			// Registered elsewhere without a secret we can verify with.
			if err := manager.Delete(ctx, ep.Subscription); err != nil {
				return err
			}
		}

		if _, err := manager.Create(ctx, ep.Subscription, url, ep.Events); err != nil {
			return err
		}
		logger.Info("subscription registered", "url", url, "events", ep.Events)
	}
	return nil
}
