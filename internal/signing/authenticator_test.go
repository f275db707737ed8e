package signing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret    = "topsecret"
	testPayload   = `{"email":"a@b.com"}`
	testTimestamp = "2024-01-01T00:00:00.000Z"

	// Calculated using: printf '%s' '2024-01-01T00:00:00.000Z.{"email":"a@b.com"}' | openssl dgst -sha256 -hmac topsecret
	testSignature = "f17021896c4e396b611bf42a7efd81f474dcf3b6ac102f144d066c37c3345c84"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339Nano, s)
	require.NoError(t, err)
	return ts
}

func newAuthenticator(t *testing.T, secret string, now time.Time, opts ...Option) *Authenticator {
	t.Helper()
	a, err := New(secret, append([]Option{WithClock(fixedClock(now))}, opts...)...)
	require.NoError(t, err)
	return a
}

func TestNew_MissingSecret(t *testing.T) {
	a, err := New("")
	assert.Nil(t, a)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestSign_KnownVector(t *testing.T) {
	a := newAuthenticator(t, testSecret, time.Now())

	sig, err := a.Sign(testPayload, testTimestamp)
	require.NoError(t, err)
	assert.Equal(t, testSignature, sig)
	assert.Len(t, sig, 64)
	assert.Equal(t, strings.ToLower(sig), sig)

	free, err := Sign(testSecret, testPayload, testTimestamp)
	require.NoError(t, err)
	assert.Equal(t, testSignature, free)
}

func TestSign_Deterministic(t *testing.T) {
	a := newAuthenticator(t, testSecret, time.Now())

	first, err := a.Sign("payload", "ts")
	require.NoError(t, err)
	second, err := a.Sign("payload", "ts")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSign_SecretOverride(t *testing.T) {
	a := newAuthenticator(t, "configured", time.Now())

	sig, err := a.SignWithSecret(testPayload, testTimestamp, testSecret)
	require.NoError(t, err)
	assert.Equal(t, testSignature, sig)

	fallback, err := a.SignWithSecret(testPayload, testTimestamp, "")
	require.NoError(t, err)
	configured, err := a.Sign(testPayload, testTimestamp)
	require.NoError(t, err)
	assert.Equal(t, configured, fallback)
}

func TestSign_NoSecretAnywhere(t *testing.T) {
	var a *Authenticator

	_, err := a.Sign("p", "t")
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = a.SignWithSecret("p", "t", "")
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = Sign("", "p", "t")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestSign_BoundaryShift(t *testing.T) {
	a := newAuthenticator(t, testSecret, time.Now())

	left, err := a.Sign("bc", "a")
	require.NoError(t, err)
	right, err := a.Sign("c", "ab")
	require.NoError(t, err)
	assert.NotEqual(t, left, right)
}

func TestVerify_EndToEnd(t *testing.T) {
	a := newAuthenticator(t, testSecret, mustTime(t, testTimestamp))

	assert.True(t, a.Verify(testPayload, testTimestamp, testSignature))
	assert.False(t, a.Verify(`{"email":"a@b.com","x":1}`, testTimestamp, testSignature))
	assert.False(t, a.Verify(testPayload, "2024-01-01T00:00:01.000Z", testSignature))
}

func TestVerify_WrongKey(t *testing.T) {
	a := newAuthenticator(t, "another-secret", mustTime(t, testTimestamp))

	assert.False(t, a.Verify(testPayload, testTimestamp, testSignature))
	assert.Equal(t, OutcomeMismatch, a.Check(testPayload, testTimestamp, testSignature, 0))
}

func TestVerify_FreshnessBoundary(t *testing.T) {
	signedAt := mustTime(t, testTimestamp)
	tolerance := 300000 * time.Millisecond

	tests := []struct {
		name  string
		delta time.Duration
		want  bool
	}{
		{name: "same instant", delta: 0, want: true},
		{name: "exactly at tolerance", delta: 300000 * time.Millisecond, want: true},
		{name: "one ms past tolerance", delta: 300001 * time.Millisecond, want: false},
		{name: "future exactly at tolerance", delta: -300000 * time.Millisecond, want: true},
		{name: "future one ms past tolerance", delta: -300001 * time.Millisecond, want: false},
		{name: "an hour stale", delta: time.Hour, want: false},
		{name: "an hour in the future", delta: -time.Hour, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAuthenticator(t, testSecret, signedAt.Add(tt.delta))
			assert.Equal(t, tt.want, a.VerifyWithin(testPayload, testTimestamp, testSignature, tolerance))
			assert.Equal(t, tt.want, a.Verify(testPayload, testTimestamp, testSignature))
		})
	}
}

func TestVerify_FarFutureIsStale(t *testing.T) {
	a := newAuthenticator(t, testSecret, mustTime(t, testTimestamp))

	tests := []struct {
		timestamp string
		want      Outcome
	}{
		{"2400-01-01T00:00:00.000Z", OutcomeStale},
		{"9999-12-31T23:59:59.999Z", OutcomeStale},
		{"253402300799999", OutcomeStale},
		{"1600-01-01T00:00:00.000Z", OutcomeStale},
		{"9223372036854775807", OutcomeMalformedTimestamp},
		{"-1", OutcomeMalformedTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.timestamp, func(t *testing.T) {
			sig, err := a.Sign("{}", tt.timestamp)
			require.NoError(t, err)

			assert.Equal(t, tt.want, a.Check("{}", tt.timestamp, sig, 0))
			assert.False(t, a.Verify("{}", tt.timestamp, sig))
			assert.False(t, a.VerifyWithin("{}", tt.timestamp, sig, 24*time.Hour))
		})
	}
}

func TestVerify_CustomTolerance(t *testing.T) {
	signedAt := mustTime(t, testTimestamp)
	a := newAuthenticator(t, testSecret, signedAt.Add(2*time.Second), WithTolerance(time.Second))

	assert.Equal(t, time.Second, a.Tolerance())
	assert.False(t, a.Verify(testPayload, testTimestamp, testSignature))
	assert.True(t, a.VerifyWithin(testPayload, testTimestamp, testSignature, 3*time.Second))
}

func TestCheck_Outcomes(t *testing.T) {
	signedAt := mustTime(t, testTimestamp)
	a := newAuthenticator(t, testSecret, signedAt)

	tests := []struct {
		name      string
		payload   string
		timestamp string
		signature string
		want      Outcome
	}{
		{"valid", testPayload, testTimestamp, testSignature, OutcomeValid},
		{"missing timestamp", testPayload, "", testSignature, OutcomeMissingTimestamp},
		{"missing signature", testPayload, testTimestamp, "", OutcomeMissingSignature},
		{"unparseable timestamp", testPayload, "not-a-date", testSignature, OutcomeMalformedTimestamp},
		{"short signature", testPayload, testTimestamp, "ab", OutcomeLengthMismatch},
		{"long signature", testPayload, testTimestamp, testSignature + "00", OutcomeLengthMismatch},
		{"uppercase signature", testPayload, testTimestamp, strings.ToUpper(testSignature), OutcomeMismatch},
		{"tampered payload", `{"email":"x@b.com"}`, testTimestamp, testSignature, OutcomeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Check(tt.payload, tt.timestamp, tt.signature, 0)
			assert.Equal(t, tt.want, got, "outcome %s", got)
			assert.Equal(t, tt.want == OutcomeValid, a.Verify(tt.payload, tt.timestamp, tt.signature))
		})
	}
}

func TestVerify_NeverPanics(t *testing.T) {
	var nilAuth *Authenticator

	assert.NotPanics(t, func() {
		assert.False(t, nilAuth.Verify(testPayload, testTimestamp, testSignature))
	})

	panicky := newAuthenticator(t, testSecret, time.Now())
	panicky.now = func() time.Time { panic("clock failure") }
	assert.NotPanics(t, func() {
		assert.False(t, panicky.Verify(testPayload, testTimestamp, testSignature))
	})
	assert.Equal(t, OutcomeInternalError, panicky.Check(testPayload, testTimestamp, testSignature, 0))
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("1704067200000")
	require.NoError(t, err)
	assert.True(t, ts.Equal(mustTime(t, testTimestamp)))

	ts, err = ParseTimestamp("2024-01-01T01:00:00+01:00")
	require.NoError(t, err)
	assert.True(t, ts.Equal(mustTime(t, testTimestamp)))

	ts, err = ParseTimestamp("253402300799999")
	require.NoError(t, err)
	assert.True(t, ts.Equal(mustTime(t, "9999-12-31T23:59:59.999Z")))

	for _, bad := range []string{"not-a-date", "253402300800000", "9223372036854775807", "-1"} {
		_, err = ParseTimestamp(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimestamp_RoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, testTimestamp, Timestamp(now))

	a := newAuthenticator(t, testSecret, now)
	sig, err := a.Sign(testPayload, Timestamp(now))
	require.NoError(t, err)
	assert.True(t, a.Verify(testPayload, Timestamp(now), sig))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "valid", OutcomeValid.String())
	assert.Equal(t, "stale", OutcomeStale.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}
