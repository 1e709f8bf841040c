package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Header names of the signed webhook envelope.
const (
	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"
)

const (
	secretPrefix     = "whsec_"
	signatureVersion = "v1"

	// DefaultTolerance bounds how far a delivery timestamp may drift from
	// the local clock in either direction.
	DefaultTolerance = 5 * time.Minute
)

// Verifier signs and verifies webhook deliveries with a shared HMAC-SHA256
// key. The key is fixed at construction; a Verifier is safe for concurrent use.
type Verifier struct {
	key       []byte
	now       func() time.Time
	tolerance time.Duration
}

type VerifierOption func(*verifierOptions)

type verifierOptions struct {
	raw       bool
	now       func() time.Time
	tolerance time.Duration
}

// WithRawSecret uses the secret string's bytes as the key instead of
// base64-decoding it.
func WithRawSecret() VerifierOption {
	return func(o *verifierOptions) { o.raw = true }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) VerifierOption {
	return func(o *verifierOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithTolerance overrides DefaultTolerance.
func WithTolerance(d time.Duration) VerifierOption {
	return func(o *verifierOptions) {
		if d > 0 {
			o.tolerance = d
		}
	}
}

// NewVerifier builds a Verifier from a subscription secret. By default the
// secret is "whsec_" + base64(key); the prefix is optional.
func NewVerifier(secret string, opts ...VerifierOption) (*Verifier, error) {
	o := verifierOptions{now: time.Now, tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}

	if secret == "" {
		return nil, ErrEmptySecret
	}

	var key []byte
	if o.raw {
		key = []byte(secret)
	} else {
		decoded, err := decodeSecret(strings.TrimPrefix(secret, secretPrefix))
		if err != nil {
			return nil, err
		}
		key = decoded
	}

	return newVerifier(key, o)
}

// NewVerifierFromKey builds a Verifier from raw key bytes.
func NewVerifierFromKey(key []byte, opts ...VerifierOption) (*Verifier, error) {
	o := verifierOptions{now: time.Now, tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}
	return newVerifier(append([]byte(nil), key...), o)
}

func newVerifier(key []byte, o verifierOptions) (*Verifier, error) {
	if len(key) == 0 {
		return nil, ErrEmptySecret
	}
	return &Verifier{key: key, now: o.now, tolerance: o.tolerance}, nil
}

// decodeSecret accepts padded and unpadded, standard and URL-safe base64.
func decodeSecret(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		if key, err := enc.DecodeString(s); err == nil {
			return key, nil
		}
	}
	return nil, ErrSecretEncoding
}

// Sign returns the versioned signature "v1,<base64 hmac>" over
// "{msgID}.{unix seconds}.{payload}".
func (v *Verifier) Sign(msgID string, timestamp time.Time, payload []byte) string {
	mac := hmac.New(sha256.New, v.key)
	fmt.Fprintf(mac, "%s.%d.", msgID, timestamp.Unix())
	mac.Write(payload)
	return signatureVersion + "," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify authenticates payload against the envelope headers and returns the
// JSON-decoded payload. Checks run in order and stop at the first failure:
// header presence, timestamp format, timestamp window, signature match.
//
// The signature header may carry several space separated "version,signature"
// tokens; any v1 token that matches is accepted and other versions are
// ignored. Comparison is constant time.
func (v *Verifier) Verify(payload []byte, headers http.Header) (any, error) {
	msgID := headerValue(headers, HeaderID)
	msgTimestamp := headerValue(headers, HeaderTimestamp)
	msgSignature := headerValue(headers, HeaderSignature)

	if msgID == "" || msgTimestamp == "" || msgSignature == "" {
		return nil, verificationError(ErrMissingHeaders, "")
	}

	timestamp, err := v.verifyTimestamp(msgTimestamp)
	if err != nil {
		return nil, err
	}

	_, expected, _ := strings.Cut(v.Sign(msgID, timestamp, payload), ",")

	for _, versioned := range strings.Split(msgSignature, " ") {
		version, signature, ok := strings.Cut(versioned, ",")
		if !ok || version != signatureVersion {
			continue
		}
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return decodePayload(payload)
		}
	}
	return nil, verificationError(ErrSignatureMismatch, "")
}

// VerifyMap is Verify for plain header maps with arbitrary key casing.
func (v *Verifier) VerifyMap(payload []byte, headers map[string]string) (any, error) {
	h := make(http.Header, len(headers))
	for k, val := range headers {
		h[k] = []string{val}
	}
	return v.Verify(payload, h)
}

// VerifyRequest reads the raw body of r and verifies it. The body must not
// have been parsed or re-encoded upstream.
func (v *Verifier) VerifyRequest(r *http.Request) ([]byte, any, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read webhook body: %w", err)
	}
	payload, err := v.Verify(body, r.Header)
	return body, payload, err
}

func (v *Verifier) verifyTimestamp(header string) (time.Time, error) {
	ts, err := strconv.ParseInt(strings.TrimSpace(header), 10, 64)
	if err != nil {
		return time.Time{}, verificationError(ErrInvalidTimestamp, "")
	}

	now := v.now().Unix()
	tol := int64(v.tolerance / time.Second)
	if ts < now-tol {
		return time.Time{}, verificationError(ErrTimestampOutOfRange, "too old")
	}
	if ts > now+tol {
		return time.Time{}, verificationError(ErrTimestampOutOfRange, "too new")
	}
	return time.Unix(ts, 0), nil
}

func decodePayload(payload []byte) (any, error) {
	var out any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, &VerificationError{Kind: ErrInvalidPayload, Err: err}
	}
	return out, nil
}

// headerValue looks a header up case-insensitively, including maps that were
// built by hand rather than through http.Header.Set.
func headerValue(h http.Header, name string) string {
	if v := h.Get(name); v != "" {
		return v
	}
	for k, vals := range h {
		if strings.EqualFold(k, name) && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}
