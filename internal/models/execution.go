package models

// Stable machine-readable error codes returned in webhook error bodies.
const (
	CodeInvalidSignature = "INVALID_SIGNATURE"
	CodeExpiredTimestamp = "EXPIRED_TIMESTAMP"
	CodeMissingSignature = "MISSING_SIGNATURE"
	CodeInvalidBody      = "INVALID_BODY"
	CodeMissingField     = "MISSING_FIELD"
	CodeMissingUserAuth  = "MISSING_USER_AUTH"
	CodeToolNotSupported = "TOOL_NOT_SUPPORTED"
	CodeExecutionFailed  = "EXECUTION_FAILED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// ExecutionResult is the outcome of a synchronous agent instruction run.
type ExecutionResult struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// ExecutionError is a downstream tool-execution failure carrying one of
// the stable error codes above.
type ExecutionError struct {
	Code    string
	Message string
}

func (e *ExecutionError) Error() string {
	return e.Message
}

func NewExecutionError(code, message string) *ExecutionError {
	return &ExecutionError{Code: code, Message: message}
}
