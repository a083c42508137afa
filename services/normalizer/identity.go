package normalizer

// IdentityStrategy resolves the owning user id from one location in the
// request. Strategies run in priority order; the first non-empty result
// wins. Changing the order changes which user an ambiguous payload
// routes to.
type IdentityStrategy struct {
	Name    string
	Resolve func(headerUserID string, payload map[string]interface{}) string
}

func resolveIdentity(strategies []IdentityStrategy, headerUserID string, payload map[string]interface{}) (string, string) {
	for _, strategy := range strategies {
		if id := strategy.Resolve(headerUserID, payload); id != "" {
			return id, strategy.Name
		}
	}
	return "", ""
}

// automationIdentityStrategies is the priority order for the automation
// platform: the user id nested in the event data wins over the
// alternately-named top-level fields.
var automationIdentityStrategies = []IdentityStrategy{
	{
		Name: "data.user_id",
		Resolve: func(_ string, payload map[string]interface{}) string {
			return stringField(mapField(payload, "data"), "user_id")
		},
	},
	{
		Name: "entityId",
		Resolve: func(_ string, payload map[string]interface{}) string {
			return stringField(payload, "entityId")
		},
	},
	{
		Name: "entity_id",
		Resolve: func(_ string, payload map[string]interface{}) string {
			return stringField(payload, "entity_id")
		},
	},
	{
		Name: "userId",
		Resolve: func(_ string, payload map[string]interface{}) string {
			return stringField(payload, "userId")
		},
	},
}

// voiceToolIdentityStrategies is the priority order for the voice tool
// callback: explicit header, then top-level field, then the wrapped
// form, then the conversation's dynamic variables. Absence of all four
// is a hard rejection; tool execution never proceeds without a known
// actor.
var voiceToolIdentityStrategies = []IdentityStrategy{
	{
		Name: "header.x-user-id",
		Resolve: func(headerUserID string, _ map[string]interface{}) string {
			return headerUserID
		},
	},
	{
		Name: "user_id",
		Resolve: func(_ string, payload map[string]interface{}) string {
			return stringField(payload, "user_id")
		},
	},
	{
		Name: "request_body.user_id",
		Resolve: func(_ string, payload map[string]interface{}) string {
			return stringField(mapField(payload, "request_body"), "user_id")
		},
	},
	{
		Name: "dynamic_variables.user_id",
		Resolve: func(_ string, payload map[string]interface{}) string {
			return dynamicVariableUserID(payload)
		},
	},
}

// voicePostCallIdentityStrategies resolves the post-call transcript
// owner from the conversation's dynamic variables first, then the
// request header.
var voicePostCallIdentityStrategies = []IdentityStrategy{
	{
		Name: "dynamic_variables.user_id",
		Resolve: func(_ string, payload map[string]interface{}) string {
			return dynamicVariableUserID(payload)
		},
	},
	{
		Name: "header.x-user-id",
		Resolve: func(headerUserID string, _ map[string]interface{}) string {
			return headerUserID
		},
	},
}

func dynamicVariableUserID(payload map[string]interface{}) string {
	dynamicVars := mapField(mapField(payload, "conversation_initiation_client_data"), "dynamic_variables")
	if dynamicVars == nil {
		// post-call payloads nest the client data under "data"
		dynamicVars = mapField(mapField(mapField(payload, "data"), "conversation_initiation_client_data"), "dynamic_variables")
	}
	return stringField(dynamicVars, "user_id")
}
