// Package webhook verifies and receives Consolidate webhook deliveries.
//
// Deliveries are signed with the subscription secret Consolidate issues when
// a webhook is created. A secret looks like "whsec_" followed by the base64
// key. Each delivery carries three headers:
//
//	webhook-id:        unique message id
//	webhook-timestamp: unix seconds when the message was signed
//	webhook-signature: space separated "v1,<base64 HMAC-SHA256>" tokens
//
// The signed content is "{webhook-id}.{webhook-timestamp}.{raw body}". The
// body must be the exact bytes received; re-serialised JSON will not verify.
//
// # Verification
//
// Verifier.Verify checks, in order and stopping at the first failure:
//
//  1. all three headers are present
//  2. the timestamp is an integer within DefaultTolerance of now
//  3. at least one v1 signature matches (constant-time compare)
//
// Every failure is a *VerificationError; use errors.Is with
// ErrMissingHeaders, ErrInvalidTimestamp, ErrTimestampOutOfRange or
// ErrSignatureMismatch to tell them apart.
//
// # Receiver
//
// Server exposes one POST route per configured endpoint:
//
//	webhooks:
//	  listen: "127.0.0.1:8091"
//	  endpoints:
//	    - path: /webhooks/contacts
//	      subscription: contacts     # secret comes from the subscription store
//	    - path: /webhooks/legacy
//	      secret_ref: legacy_secret  # static secret from tokens
//	      max_body_size: 512KB
//
// Responses:
//
//   - 202 Accepted: verified and queued, body {"delivery_id": ...}
//   - 401 Unauthorized: verification failed (reason logged, never returned)
//   - 404 Not Found: unknown path
//   - 413 Payload Too Large: body exceeds max_body_size
//   - 503 Service Unavailable: no secret yet for the endpoint's subscription
//   - 500 Internal Server Error: queue write failed
package webhook
