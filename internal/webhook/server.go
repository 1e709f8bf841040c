package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tidwall/gjson"

	"github.com/mattjoyce/consolidate-bridge/internal/queue"
)

// Server receives signed Consolidate webhook deliveries and queues the ones
// that verify.
type Server struct {
	config  Config
	queue   DeliveryQueuer
	secrets SecretSource
	logger  *slog.Logger
	server  *http.Server

	// verifierOpts apply to every per-request Verifier.
	verifierOpts []VerifierOption

	endpoints map[string]*EndpointConfig
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithSecretSource sets where subscription-backed endpoints find their secret.
func WithSecretSource(src SecretSource) ServerOption {
	return func(s *Server) { s.secrets = src }
}

// WithVerifierOptions passes options to each Verifier, e.g. a fixed clock.
func WithVerifierOptions(opts ...VerifierOption) ServerOption {
	return func(s *Server) { s.verifierOpts = append(s.verifierOpts, opts...) }
}

// New creates a new webhook server instance.
func New(config Config, q DeliveryQueuer, logger *slog.Logger, opts ...ServerOption) *Server {
	endpoints := make(map[string]*EndpointConfig)
	for i := range config.Endpoints {
		ep := &config.Endpoints[i]
		if ep.MaxBodySize == 0 {
			ep.MaxBodySize = DefaultMaxBodySize
		}
		endpoints[ep.Path] = ep
	}

	s := &Server{
		config:    config,
		queue:     q,
		logger:    logger,
		endpoints: endpoints,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts the webhook HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", s.config.Listen, "endpoints", len(s.endpoints))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	for path := range s.endpoints {
		r.Post(path, s.handleWebhook)
	}

	return r
}

// loggingMiddleware logs requests without bodies or signature headers.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	endpoint, ok := s.endpoints[r.URL.Path]
	if !ok {
		s.respondError(w, http.StatusNotFound, "endpoint not found")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, endpoint.MaxBodySize+1))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if int64(len(body)) > endpoint.MaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	secret, err := s.secretFor(ctx, endpoint)
	if err != nil {
		s.logger.Error("webhook secret lookup failed",
			"path", r.URL.Path,
			"subscription", endpoint.Subscription,
			"error", err,
		)
		s.respondError(w, http.StatusServiceUnavailable, "webhook not ready")
		return
	}
	if secret == "" {
		s.logger.Warn("webhook secret not available",
			"path", r.URL.Path,
			"subscription", endpoint.Subscription,
		)
		s.respondError(w, http.StatusServiceUnavailable, "webhook not ready")
		return
	}

	verifier, err := NewVerifier(secret, s.verifierOpts...)
	if err != nil {
		s.logger.Error("webhook secret unusable",
			"path", r.URL.Path,
			"subscription", endpoint.Subscription,
			"error", err,
		)
		s.respondError(w, http.StatusServiceUnavailable, "webhook not ready")
		return
	}

	if _, err := verifier.Verify(body, r.Header); err != nil {
		var verr *VerificationError
		kind := "unknown"
		if errors.As(err, &verr) {
			kind = verr.Kind.Error()
		}
		s.logger.Warn("webhook verification failed",
			"path", r.URL.Path,
			"reason", kind,
		)
		s.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	msgID := headerValue(r.Header, HeaderID)
	result, err := s.queue.Enqueue(ctx, queue.EnqueueRequest{
		Endpoint:     endpoint.Path,
		Subscription: endpoint.Subscription,
		MessageID:    msgID,
		EventType:    eventType(body),
		Payload:      json.RawMessage(body),
		DedupeKey:    queue.DedupeKey(msgID, body),
	})
	if err != nil {
		s.logger.Error("failed to enqueue webhook delivery",
			"path", r.URL.Path,
			"message_id", msgID,
			"error", err,
		)
		s.respondError(w, http.StatusInternalServerError, "failed to enqueue delivery")
		return
	}

	s.logger.Info("webhook delivery accepted",
		"path", r.URL.Path,
		"message_id", msgID,
		"delivery_id", result.ID,
		"duplicate", result.Duplicate,
	)

	s.respondJSON(w, http.StatusAccepted, AcceptedResponse{DeliveryID: result.ID, Duplicate: result.Duplicate})
}

func (s *Server) secretFor(ctx context.Context, ep *EndpointConfig) (string, error) {
	if ep.Secret != "" {
		return ep.Secret, nil
	}
	if s.secrets == nil || ep.Subscription == "" {
		return "", nil
	}
	return s.secrets.Secret(ctx, ep.Subscription)
}

// eventType reads the event name Consolidate puts in the payload, if any.
func eventType(body []byte) string {
	for _, path := range []string{"eventType", "type", "event"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}
