package verifier

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/openrelay/hookstack/internal/enum"
	"github.com/openrelay/hookstack/internal/logger"
	"github.com/openrelay/hookstack/internal/models"
)

// Config holds the per-provider verification policy. Tolerance windows
// differ by provider and are configured, never shared constants.
type Config struct {
	Secret           string
	ToleranceSeconds int64
	// AllowUnverified admits unsigned requests when no secret is
	// configured. It is an explicit per-provider escape hatch and is
	// ignored in production.
	AllowUnverified bool
	Production      bool
}

// Verifier authenticates webhook deliveries with HMAC-SHA256 over
// "<timestamp>.<rawBody>". It holds no mutable state; verification is
// idempotent.
type Verifier struct {
	cfg Config
	log logger.Logger
}

func NewVerifier(cfg Config, log logger.Logger) *Verifier {
	return &Verifier{cfg: cfg, log: log}
}

// VerifySplitHeaders validates the convention where the digest and the
// timestamp arrive in two separate headers.
func (v *Verifier) VerifySplitHeaders(rawBody []byte, signature, timestamp string, now time.Time) models.VerificationResult {
	if bypass, result := v.checkSecret(); bypass {
		return result
	}
	if signature == "" || timestamp == "" {
		return models.VerificationFailed(enum.FailureMissingHeader)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		return models.VerificationFailed(enum.FailureMalformedHeader)
	}
	return v.verify(models.SignatureContext{
		RawBody:          rawBody,
		Timestamp:        ts,
		SignatureDigest:  strings.TrimSpace(signature),
		ToleranceSeconds: v.cfg.ToleranceSeconds,
	}, now)
}

// VerifyCompositeHeader validates the convention where one header
// carries comma-separated "t=<ts>,v0=<digest>" fields.
func (v *Verifier) VerifyCompositeHeader(rawBody []byte, header string, now time.Time) models.VerificationResult {
	if bypass, result := v.checkSecret(); bypass {
		return result
	}
	if header == "" {
		return models.VerificationFailed(enum.FailureMissingHeader)
	}
	ts, digest, ok := parseCompositeHeader(header)
	if !ok {
		return models.VerificationFailed(enum.FailureMalformedHeader)
	}
	return v.verify(models.SignatureContext{
		RawBody:          rawBody,
		Timestamp:        ts,
		SignatureDigest:  digest,
		ToleranceSeconds: v.cfg.ToleranceSeconds,
	}, now)
}

func (v *Verifier) checkSecret() (bool, models.VerificationResult) {
	if v.cfg.Secret != "" {
		return false, models.VerificationResult{}
	}
	if !v.cfg.Production && v.cfg.AllowUnverified {
		v.log.Warn("webhook secret not configured, admitting unverified request")
		return true, models.VerificationOk()
	}
	return true, models.VerificationFailed(enum.FailureNoSecret)
}

func (v *Verifier) verify(sigCtx models.SignatureContext, now time.Time) models.VerificationResult {
	skew := now.Unix() - sigCtx.Timestamp
	if skew < 0 {
		skew = -skew
	}
	if skew > sigCtx.ToleranceSeconds {
		return models.VerificationFailed(enum.FailureExpired)
	}

	received, err := hex.DecodeString(strings.TrimPrefix(sigCtx.SignatureDigest, "sha256="))
	if err != nil {
		return models.VerificationFailed(enum.FailureMalformedHeader)
	}

	expected := computeDigest(v.cfg.Secret, sigCtx.Timestamp, sigCtx.RawBody)
	if !hmac.Equal(expected, received) {
		v.log.Debugf("signature mismatch, received digest prefix %s", digestPrefix(sigCtx.SignatureDigest))
		return models.VerificationFailed(enum.FailureDigestMismatch)
	}

	return models.VerificationOk()
}

// computeDigest returns HMAC-SHA256(secret, "<timestamp>.<rawBody>").
// The signature covers the exact bytes received; re-serializing the JSON
// would invalidate it.
func computeDigest(secret string, timestamp int64, rawBody []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	return mac.Sum(nil)
}

// SignPayload produces the hex digest a provider would send for the
// given body and timestamp. Used by the non-production test endpoint and
// by tests.
func SignPayload(secret string, timestamp int64, rawBody []byte) string {
	return hex.EncodeToString(computeDigest(secret, timestamp, rawBody))
}

func parseCompositeHeader(header string) (int64, string, bool) {
	var ts int64
	var digest string
	var haveTs, haveDigest bool

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "t="):
			parsed, err := strconv.ParseInt(part[2:], 10, 64)
			if err != nil {
				return 0, "", false
			}
			ts = parsed
			haveTs = true
		case strings.HasPrefix(part, "v0="):
			digest = part[3:]
			haveDigest = true
		}
	}

	if !haveTs || !haveDigest || digest == "" {
		return 0, "", false
	}
	return ts, digest, true
}

func digestPrefix(digest string) string {
	if len(digest) <= 8 {
		return digest
	}
	return digest[:8]
}
