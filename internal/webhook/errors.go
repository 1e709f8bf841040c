package webhook

import "errors"

// Construction errors. These are configuration problems and should stop
// startup, not be reported per request.
var (
	ErrEmptySecret    = errors.New("webhook secret can't be empty")
	ErrSecretEncoding = errors.New("webhook secret must be a base64 string")
)

// Verification failure kinds. Every Verify error is a *VerificationError
// whose Kind is one of these, so callers can use errors.Is.
var (
	ErrMissingHeaders      = errors.New("missing required headers")
	ErrInvalidTimestamp    = errors.New("invalid signature headers")
	ErrTimestampOutOfRange = errors.New("message timestamp out of range")
	ErrSignatureMismatch   = errors.New("no matching signature found")
	ErrInvalidPayload      = errors.New("payload is not valid JSON")
)

// VerificationError is returned for any delivery that fails verification.
// It is terminal: the same request must not be retried.
type VerificationError struct {
	Kind   error
	Detail string
	Err    error
}

func (e *VerificationError) Error() string {
	msg := "webhook verification failed: " + e.Kind.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *VerificationError) Is(target error) bool {
	return target == e.Kind
}

func (e *VerificationError) Unwrap() error { return e.Err }

func verificationError(kind error, detail string) *VerificationError {
	return &VerificationError{Kind: kind, Detail: detail}
}
