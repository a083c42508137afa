package normalizer

import "fmt"

// NormalizationError is a typed failure mapping a malformed or
// unroutable payload to a stable machine code. It distinguishes
// structurally bad input from well-formed input with no resolvable
// owning user.
type NormalizationError struct {
	Code    string
	Field   string
	Message string
}

func (e *NormalizationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, field, message string) *NormalizationError {
	return &NormalizationError{Code: code, Field: field, Message: message}
}

func stringField(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}

func mapField(payload map[string]interface{}, key string) map[string]interface{} {
	if payload == nil {
		return nil
	}
	if value, ok := payload[key].(map[string]interface{}); ok {
		return value
	}
	return nil
}
