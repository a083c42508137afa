package models

import "github.com/openrelay/hookstack/internal/enum"

// SignatureContext carries everything needed to authenticate one webhook
// delivery. RawBody holds the exact bytes received; the digest is computed
// over those bytes, never over re-serialized JSON.
type SignatureContext struct {
	RawBody          []byte
	Timestamp        int64
	SignatureDigest  string
	ToleranceSeconds int64
}

// VerificationResult is the outcome of signature verification. Reason is
// set only when Ok is false.
type VerificationResult struct {
	Ok     bool
	Reason enum.FailureKind
}

func VerificationOk() VerificationResult {
	return VerificationResult{Ok: true}
}

func VerificationFailed(reason enum.FailureKind) VerificationResult {
	return VerificationResult{Ok: false, Reason: reason}
}
