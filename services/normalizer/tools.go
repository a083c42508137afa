package normalizer

import (
	"fmt"
	"sort"
	"strings"
)

// ToolInvocation is a voice-agent tool call translated into the
// downstream agent engine's vocabulary.
type ToolInvocation struct {
	ProviderTool string
	Tool         string
	Parameters   map[string]interface{}
	Instruction  string
}

// toolTranslations renames provider-specific tool identifiers to the
// internal ids the agent engine understands. Unmapped names pass through
// unchanged.
var toolTranslations = map[string]string{
	"gmail_send_email":   "send_email",
	"gmail_create_draft": "create_email_draft",
	"gmail_search_inbox": "search_email",
	"gcal_create_event":  "create_calendar_event",
	"gcal_list_events":   "list_calendar_events",
	"slack_send_message": "send_slack_message",
	"notion_create_page": "create_note",
	"memory_search":      "search_memory",
}

func translateToolName(providerTool string) string {
	if internal, ok := toolTranslations[providerTool]; ok {
		return internal
	}
	return providerTool
}

// formatInstruction turns (tool, parameters) into the natural-language
// instruction the agent engine consumes. The two highest-traffic tools
// get explicit phrasing; everything else falls back to a generic
// serialization of the parameters.
func formatInstruction(tool string, params map[string]interface{}) string {
	switch tool {
	case "send_email", "send_slack_message":
		to := paramString(params, "to", "recipient", "channel")
		subject := paramString(params, "subject")
		body := paramString(params, "body", "message", "text")
		if subject != "" {
			return fmt.Sprintf("Send a message to %s with subject %q and body: %s", to, subject, body)
		}
		return fmt.Sprintf("Send a message to %s: %s", to, body)
	case "create_calendar_event":
		title := paramString(params, "title", "summary")
		start := paramString(params, "start_time", "start")
		end := paramString(params, "end_time", "end")
		instruction := fmt.Sprintf("Create a calendar event titled %q starting at %s", title, start)
		if end != "" {
			instruction += fmt.Sprintf(" ending at %s", end)
		}
		if attendees := paramString(params, "attendees"); attendees != "" {
			instruction += fmt.Sprintf(" with attendees %s", attendees)
		}
		return instruction
	default:
		return fmt.Sprintf("Run the %s tool with %s", tool, serializeParams(params))
	}
}

func serializeParams(params map[string]interface{}) string {
	if len(params) == 0 {
		return "no parameters"
	}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s: %v", key, params[key]))
	}
	return strings.Join(pairs, ", ")
}

func paramString(params map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := params[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}
