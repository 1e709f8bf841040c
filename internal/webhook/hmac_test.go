package webhook

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"
)

const (
	testSecret  = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"
	testMsgID   = "msg_p5jXN8AQM9LWM0D4loKWxJek"
	testPayload = `{"test": 2432232314}`
	testUnix    = int64(1614265330)
	testSig     = "v1,g0hM9SsE+OTPJTGt/tmIKtSyZlE3uFJELVlNIOLJ1OE="
)

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func testHeaders(id string, ts int64, sig string) http.Header {
	h := http.Header{}
	h.Set(HeaderID, id)
	h.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	h.Set(HeaderSignature, sig)
	return h
}

func newTestVerifier(t *testing.T, now int64) *Verifier {
	t.Helper()
	v, err := NewVerifier(testSecret, WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	return v
}

func TestSignKnownVector(t *testing.T) {
	v := newTestVerifier(t, testUnix)
	if got := v.Sign(testMsgID, time.Unix(testUnix, 0), []byte(testPayload)); got != testSig {
		t.Errorf("Sign() = %s, want %s", got, testSig)
	}
}

func TestVerify(t *testing.T) {
	v := newTestVerifier(t, testUnix)
	payload := []byte(testPayload)

	tests := []struct {
		name    string
		payload []byte
		headers http.Header
		wantErr error
	}{
		{
			name:    "valid",
			payload: payload,
			headers: testHeaders(testMsgID, testUnix, testSig),
		},
		{
			name:    "one of several signatures matches",
			payload: payload,
			headers: testHeaders(testMsgID, testUnix, "v1,Ceo5qEr07ixe2NLpvHk3FH9bwy/WavXrAFQ/9tdO6mc= "+testSig),
		},
		{
			name:    "other versions are skipped",
			payload: payload,
			headers: testHeaders(testMsgID, testUnix, "v2,garbage "+testSig),
		},
		{
			name:    "only unknown versions",
			payload: payload,
			headers: testHeaders(testMsgID, testUnix, "v2,"+strings.TrimPrefix(testSig, "v1,")),
			wantErr: ErrSignatureMismatch,
		},
		{
			name:    "tampered body",
			payload: []byte(`{"test": 2432232315}`),
			headers: testHeaders(testMsgID, testUnix, testSig),
			wantErr: ErrSignatureMismatch,
		},
		{
			name:    "different message id",
			payload: payload,
			headers: testHeaders("msg_other", testUnix, testSig),
			wantErr: ErrSignatureMismatch,
		},
		{
			name:    "missing id",
			payload: payload,
			headers: func() http.Header {
				h := testHeaders(testMsgID, testUnix, testSig)
				h.Del(HeaderID)
				return h
			}(),
			wantErr: ErrMissingHeaders,
		},
		{
			name:    "missing signature",
			payload: payload,
			headers: func() http.Header {
				h := testHeaders(testMsgID, testUnix, testSig)
				h.Del(HeaderSignature)
				return h
			}(),
			wantErr: ErrMissingHeaders,
		},
		{
			name:    "non-integer timestamp",
			payload: payload,
			headers: func() http.Header {
				h := testHeaders(testMsgID, testUnix, testSig)
				h.Set(HeaderTimestamp, "1614265330.5")
				return h
			}(),
			wantErr: ErrInvalidTimestamp,
		},
		{
			name:    "signature without version",
			payload: payload,
			headers: testHeaders(testMsgID, testUnix, strings.TrimPrefix(testSig, "v1,")),
			wantErr: ErrSignatureMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Verify(tt.payload, tt.headers)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Verify() error = %v", err)
				}
				m, ok := got.(map[string]any)
				if !ok || m["test"] != float64(2432232314) {
					t.Errorf("Verify() payload = %#v", got)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Verify() error = %v, want %v", err, tt.wantErr)
			}
			var verr *VerificationError
			if !errors.As(err, &verr) {
				t.Errorf("Verify() error %T is not a *VerificationError", err)
			}
		})
	}
}

func TestVerifyTimestampWindow(t *testing.T) {
	payload := []byte(testPayload)

	tests := []struct {
		name    string
		offset  int64
		abs     *int64
		wantErr error
	}{
		{name: "exactly now", offset: 0},
		{name: "300s old", offset: -300},
		{name: "300s ahead", offset: 300},
		{name: "301s old", offset: -301, wantErr: ErrTimestampOutOfRange},
		{name: "301s ahead", offset: 301, wantErr: ErrTimestampOutOfRange},
		{name: "min int64", abs: int64Ptr(math.MinInt64), wantErr: ErrTimestampOutOfRange},
		{name: "max int64", abs: int64Ptr(math.MaxInt64), wantErr: ErrTimestampOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := testUnix
			ts := now + tt.offset
			if tt.abs != nil {
				ts = *tt.abs
			}
			v := newTestVerifier(t, now)
			sig := v.Sign(testMsgID, time.Unix(ts, 0), payload)

			_, err := v.Verify(payload, testHeaders(testMsgID, ts, sig))
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestVerifyTimestampMessages(t *testing.T) {
	v := newTestVerifier(t, testUnix)
	payload := []byte(testPayload)

	_, err := v.Verify(payload, testHeaders(testMsgID, testUnix-1000, testSig))
	if err == nil || !strings.Contains(err.Error(), "too old") {
		t.Errorf("old timestamp error = %v, want too old", err)
	}

	_, err = v.Verify(payload, testHeaders(testMsgID, testUnix+1000, testSig))
	if err == nil || !strings.Contains(err.Error(), "too new") {
		t.Errorf("future timestamp error = %v, want too new", err)
	}
}

func TestVerifyRejectsEverySingleByteMutation(t *testing.T) {
	v := newTestVerifier(t, testUnix)
	payload := []byte(testPayload)
	_, sig, _ := strings.Cut(testSig, ",")

	for i := range len(sig) {
		mutated := []byte(sig)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}

		_, err := v.Verify(payload, testHeaders(testMsgID, testUnix, "v1,"+string(mutated)))
		if !errors.Is(err, ErrSignatureMismatch) {
			t.Fatalf("mutation at %d: error = %v, want signature mismatch", i, err)
		}
	}
}

func TestVerifyHeaderCaseInsensitive(t *testing.T) {
	v := newTestVerifier(t, testUnix)

	_, err := v.VerifyMap([]byte(testPayload), map[string]string{
		"Webhook-Id":        testMsgID,
		"WEBHOOK-TIMESTAMP": strconv.FormatInt(testUnix, 10),
		"webhook-signature": testSig,
	})
	if err != nil {
		t.Fatalf("VerifyMap() error = %v", err)
	}
}

func TestVerifyInvalidJSONPayload(t *testing.T) {
	v := newTestVerifier(t, testUnix)
	payload := []byte("not json")
	sig := v.Sign(testMsgID, time.Unix(testUnix, 0), payload)

	_, err := v.Verify(payload, testHeaders(testMsgID, testUnix, sig))
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("Verify() error = %v, want invalid payload", err)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	now := time.Now().Unix()
	for _, payload := range []string{`{}`, `[]`, `"x"`, `{"nested":{"a":[1,2,3]}}`, `null`} {
		v := newTestVerifier(t, now)
		sig := v.Sign("msg_1", time.Unix(now, 0), []byte(payload))
		if _, err := v.Verify([]byte(payload), testHeaders("msg_1", now, sig)); err != nil {
			t.Errorf("round trip %s: %v", payload, err)
		}
	}
}

func TestNewVerifier(t *testing.T) {
	t.Run("empty secret", func(t *testing.T) {
		if _, err := NewVerifier(""); !errors.Is(err, ErrEmptySecret) {
			t.Errorf("error = %v, want ErrEmptySecret", err)
		}
	})

	t.Run("prefix optional", func(t *testing.T) {
		withPrefix := newTestVerifier(t, testUnix)
		without, err := NewVerifier(strings.TrimPrefix(testSecret, secretPrefix))
		if err != nil {
			t.Fatal(err)
		}
		ts := time.Unix(testUnix, 0)
		if withPrefix.Sign("m", ts, nil) != without.Sign("m", ts, nil) {
			t.Error("whsec_ prefix should not change the key")
		}
	})

	t.Run("not base64", func(t *testing.T) {
		if _, err := NewVerifier("whsec_***not base64***"); !errors.Is(err, ErrSecretEncoding) {
			t.Errorf("error = %v, want ErrSecretEncoding", err)
		}
	})

	t.Run("raw secret", func(t *testing.T) {
		raw, err := NewVerifier("plain-text-key", WithRawSecret())
		if err != nil {
			t.Fatal(err)
		}
		fromKey, err := NewVerifierFromKey([]byte("plain-text-key"))
		if err != nil {
			t.Fatal(err)
		}
		ts := time.Unix(testUnix, 0)
		if raw.Sign("m", ts, []byte("p")) != fromKey.Sign("m", ts, []byte("p")) {
			t.Error("raw secret and key bytes should sign identically")
		}
	})

	t.Run("empty key bytes", func(t *testing.T) {
		if _, err := NewVerifierFromKey(nil); !errors.Is(err, ErrEmptySecret) {
			t.Errorf("error = %v, want ErrEmptySecret", err)
		}
	})

	t.Run("custom tolerance", func(t *testing.T) {
		v, err := NewVerifier(testSecret, WithClock(fixedClock(testUnix)), WithTolerance(10*time.Second))
		if err != nil {
			t.Fatal(err)
		}
		ts := testUnix - 11
		sig := v.Sign(testMsgID, time.Unix(ts, 0), []byte(testPayload))
		if _, err := v.Verify([]byte(testPayload), testHeaders(testMsgID, ts, sig)); !errors.Is(err, ErrTimestampOutOfRange) {
			t.Errorf("error = %v, want out of range", err)
		}
	})
}
