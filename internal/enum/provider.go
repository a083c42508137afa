package enum

type SourceProvider string

const (
	ProviderAutomation    SourceProvider = "automation_platform"
	ProviderVoiceTool     SourceProvider = "voice_tool_callback"
	ProviderVoicePostCall SourceProvider = "voice_post_call"
)

func (t SourceProvider) String() string {
	return string(t)
}

type FailureKind string

const (
	FailureMissingHeader   FailureKind = "missing_header"
	FailureMalformedHeader FailureKind = "malformed_header"
	FailureExpired         FailureKind = "expired"
	FailureDigestMismatch  FailureKind = "digest_mismatch"
	FailureNoSecret        FailureKind = "no_secret"
)

func (t FailureKind) String() string {
	return string(t)
}

type DispatchOutcome string

const (
	DispatchProcessed DispatchOutcome = "processed"
	DispatchFailed    DispatchOutcome = "failed"
	DispatchDeduped   DispatchOutcome = "deduped"
)

func (t DispatchOutcome) String() string {
	return string(t)
}
