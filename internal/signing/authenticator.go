// Package signing authenticates server-to-server requests with an HMAC-SHA256
// tag over a timestamp and payload pair.
//
// The signed message is timestamp + "." + payload and the tag is rendered as
// lowercase hex. Verification accepts a timestamp only while it lies within a
// symmetric tolerance window around the verifier's clock.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTolerance is the freshness window applied by Verify.
	DefaultTolerance = 5 * time.Minute

	// TimestampLayout renders outgoing timestamps in UTC with millisecond precision.
	TimestampLayout = "2006-01-02T15:04:05.000Z"

	separator = "."

	// 9999-12-31T23:59:59.999Z
	maxUnixMilli = 253402300799999
)

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("signing: secret is not configured")

// Authenticator signs and verifies payloads with a process-wide secret.
// It is immutable and safe for concurrent use.
type Authenticator struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// Option customises an Authenticator.
type Option func(*Authenticator)

// WithTolerance overrides DefaultTolerance.
func WithTolerance(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.tolerance = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// New builds an Authenticator. An empty secret fails immediately so that a
// misconfigured process never reaches its first request.
func New(secret string, opts ...Option) (*Authenticator, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	a := &Authenticator{
		secret:    []byte(secret),
		tolerance: DefaultTolerance,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Tolerance reports the freshness window used by Verify.
func (a *Authenticator) Tolerance() time.Duration {
	if a == nil || a.tolerance <= 0 {
		return DefaultTolerance
	}
	return a.tolerance
}

// Sign computes the signature for payload at timestamp with the configured secret.
func (a *Authenticator) Sign(payload, timestamp string) (string, error) {
	if a == nil || len(a.secret) == 0 {
		return "", ErrMissingSecret
	}
	return compute(a.secret, timestamp, payload), nil
}

// SignWithSecret signs with an explicit secret. An empty override falls back
// to the configured secret.
func (a *Authenticator) SignWithSecret(payload, timestamp, secret string) (string, error) {
	if secret != "" {
		return compute([]byte(secret), timestamp, payload), nil
	}
	return a.Sign(payload, timestamp)
}

// Sign is the stateless form of Authenticator.Sign.
func Sign(secret, payload, timestamp string) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	return compute([]byte(secret), timestamp, payload), nil
}

// Timestamp formats t the way outgoing requests carry it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Verify reports whether signature authenticates payload at timestamp within
// the default tolerance. It never panics, whatever the input.
func (a *Authenticator) Verify(payload, timestamp, signature string) bool {
	return a.VerifyWithin(payload, timestamp, signature, a.Tolerance())
}

// VerifyWithin is Verify with an explicit tolerance. Non-positive values fall
// back to the authenticator's tolerance.
func (a *Authenticator) VerifyWithin(payload, timestamp, signature string, tolerance time.Duration) bool {
	return a.Check(payload, timestamp, signature, tolerance) == OutcomeValid
}

// Check runs every verification step and reports the first one that failed.
// Callers exposed to untrusted input should only surface whether the outcome
// is OutcomeValid.
func (a *Authenticator) Check(payload, timestamp, signature string, tolerance time.Duration) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeInternalError
		}
	}()

	if timestamp == "" {
		return OutcomeMissingTimestamp
	}
	if signature == "" {
		return OutcomeMissingSignature
	}

	ts, err := ParseTimestamp(timestamp)
	if err != nil {
		return OutcomeMalformedTimestamp
	}

	if tolerance <= 0 {
		tolerance = a.Tolerance()
	}
	clock := time.Now
	if a != nil && a.now != nil {
		clock = a.now
	}
	// Compare instants: Time.Sub saturates for timestamps centuries away.
	now := clock()
	if ts.Before(now.Add(-tolerance)) || ts.After(now.Add(tolerance)) {
		return OutcomeStale
	}

	expected, err := a.Sign(payload, timestamp)
	if err != nil {
		return OutcomeMissingSecret
	}

	// hmac.Equal is only constant-time for equal-length inputs.
	if len(expected) != len(signature) {
		return OutcomeLengthMismatch
	}
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return OutcomeMismatch
	}
	return OutcomeValid
}

// ParseTimestamp accepts RFC 3339 timestamps with optional fractional seconds
// and, failing that, integer Unix milliseconds between the epoch and the end
// of year 9999.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, errors.New("signing: unparseable timestamp")
	}
	if ms < 0 || ms > maxUnixMilli {
		return time.Time{}, errors.New("signing: timestamp out of range")
	}
	return time.UnixMilli(ms), nil
}

func compute(secret []byte, timestamp, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte(separator))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
