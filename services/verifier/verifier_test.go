package verifier

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openrelay/hookstack/internal/enum"
	"github.com/openrelay/hookstack/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestVerifier(secret string, tolerance int64) *Verifier {
	return NewVerifier(Config{
		Secret:           secret,
		ToleranceSeconds: tolerance,
	}, getLogger())
}

func TestVerifySplitHeaders_ValidSignature(t *testing.T) {
	v := newTestVerifier("s3cr3t", 300)
	now := time.Now()
	body := []byte(`{"type":"gmail_new_message","data":{"user_id":"abc"}}`)
	ts := now.Unix()
	sig := SignPayload("s3cr3t", ts, body)

	result := v.VerifySplitHeaders(body, sig, fmt.Sprintf("%d", ts), now)

	assert.True(t, result.Ok)
}

func TestVerifySplitHeaders_MutatedBodyFlipsResult(t *testing.T) {
	v := newTestVerifier("s3cr3t", 300)
	now := time.Now()
	body := []byte(`{"type":"gmail_new_message"}`)
	ts := now.Unix()
	sig := SignPayload("s3cr3t", ts, body)

	mutated := make([]byte, len(body))
	copy(mutated, body)
	mutated[len(mutated)-2] ^= 0x01

	assert.True(t, v.VerifySplitHeaders(body, sig, fmt.Sprintf("%d", ts), now).Ok)

	result := v.VerifySplitHeaders(mutated, sig, fmt.Sprintf("%d", ts), now)
	assert.False(t, result.Ok)
	assert.Equal(t, enum.FailureDigestMismatch, result.Reason)
}

func TestVerifySplitHeaders_ExpiredTimestamp(t *testing.T) {
	v := newTestVerifier("s3cr3t", 300)
	now := time.Now()
	body := []byte(`{"type":"gmail_new_message"}`)
	ts := now.Add(-10 * time.Minute).Unix()
	sig := SignPayload("s3cr3t", ts, body)

	result := v.VerifySplitHeaders(body, sig, fmt.Sprintf("%d", ts), now)

	assert.False(t, result.Ok)
	assert.Equal(t, enum.FailureExpired, result.Reason)
}

func TestVerifySplitHeaders_FutureTimestampOutsideTolerance(t *testing.T) {
	v := newTestVerifier("s3cr3t", 300)
	now := time.Now()
	body := []byte(`{}`)
	ts := now.Add(10 * time.Minute).Unix()
	sig := SignPayload("s3cr3t", ts, body)

	result := v.VerifySplitHeaders(body, sig, fmt.Sprintf("%d", ts), now)

	assert.False(t, result.Ok)
	assert.Equal(t, enum.FailureExpired, result.Reason)
}

func TestVerifySplitHeaders_MissingHeaders(t *testing.T) {
	v := newTestVerifier("s3cr3t", 300)
	now := time.Now()

	result := v.VerifySplitHeaders([]byte(`{}`), "", "", now)

	assert.False(t, result.Ok)
	assert.Equal(t, enum.FailureMissingHeader, result.Reason)
}

func TestVerifySplitHeaders_MalformedTimestamp(t *testing.T) {
	v := newTestVerifier("s3cr3t", 300)
	now := time.Now()

	result := v.VerifySplitHeaders([]byte(`{}`), "deadbeef", "not-a-number", now)

	assert.False(t, result.Ok)
	assert.Equal(t, enum.FailureMalformedHeader, result.Reason)
}

func TestVerifyCompositeHeader_ValidSignature(t *testing.T) {
	v := newTestVerifier("wh-secret", 1800)
	now := time.Now()
	body := []byte(`{"type":"post_call_transcription"}`)
	ts := now.Unix()
	header := fmt.Sprintf("t=%d,v0=%s", ts, SignPayload("wh-secret", ts, body))

	result := v.VerifyCompositeHeader(body, header, now)

	assert.True(t, result.Ok)
}

func TestVerifyCompositeHeader_LooseToleranceAcceptsDelayedDelivery(t *testing.T) {
	v := newTestVerifier("wh-secret", 1800)
	now := time.Now()
	body := []byte(`{"type":"post_call_transcription"}`)
	ts := now.Add(-20 * time.Minute).Unix()
	header := fmt.Sprintf("t=%d,v0=%s", ts, SignPayload("wh-secret", ts, body))

	result := v.VerifyCompositeHeader(body, header, now)

	assert.True(t, result.Ok)
}

func TestVerifyCompositeHeader_Malformed(t *testing.T) {
	v := newTestVerifier("wh-secret", 1800)
	now := time.Now()

	tests := []struct {
		name   string
		header string
		reason enum.FailureKind
	}{
		{"empty", "", enum.FailureMissingHeader},
		{"no digest", "t=123", enum.FailureMalformedHeader},
		{"no timestamp", "v0=deadbeef", enum.FailureMalformedHeader},
		{"bad timestamp", "t=abc,v0=deadbeef", enum.FailureMalformedHeader},
		{"garbage", "not-a-signature-header", enum.FailureMalformedHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.VerifyCompositeHeader([]byte(`{}`), tt.header, now)
			assert.False(t, result.Ok)
			assert.Equal(t, tt.reason, result.Reason)
		})
	}
}

func TestVerify_NoSecretConfigured(t *testing.T) {
	now := time.Now()
	body := []byte(`{}`)

	t.Run("rejected by default", func(t *testing.T) {
		v := NewVerifier(Config{ToleranceSeconds: 300}, getLogger())
		result := v.VerifySplitHeaders(body, "sig", "123", now)
		assert.False(t, result.Ok)
		assert.Equal(t, enum.FailureNoSecret, result.Reason)
	})

	t.Run("explicit bypass outside production", func(t *testing.T) {
		v := NewVerifier(Config{ToleranceSeconds: 300, AllowUnverified: true}, getLogger())
		result := v.VerifySplitHeaders(body, "", "", now)
		assert.True(t, result.Ok)
	})

	t.Run("bypass ignored in production", func(t *testing.T) {
		v := NewVerifier(Config{ToleranceSeconds: 300, AllowUnverified: true, Production: true}, getLogger())
		result := v.VerifySplitHeaders(body, "", "", now)
		assert.False(t, result.Ok)
		assert.Equal(t, enum.FailureNoSecret, result.Reason)
	})
}

func TestVerify_Idempotent(t *testing.T) {
	v := newTestVerifier("s3cr3t", 300)
	now := time.Now()
	body := []byte(`{"a":1}`)
	ts := now.Unix()
	sig := SignPayload("s3cr3t", ts, body)

	first := v.VerifySplitHeaders(body, sig, fmt.Sprintf("%d", ts), now)
	second := v.VerifySplitHeaders(body, sig, fmt.Sprintf("%d", ts), now)

	assert.Equal(t, first, second)
}

func TestVerify_Sha256PrefixTolerated(t *testing.T) {
	v := newTestVerifier("s3cr3t", 300)
	now := time.Now()
	body := []byte(`{}`)
	ts := now.Unix()
	sig := "sha256=" + SignPayload("s3cr3t", ts, body)

	assert.True(t, v.VerifySplitHeaders(body, sig, fmt.Sprintf("%d", ts), now).Ok)
}
