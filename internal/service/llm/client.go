// Package llm wraps the external LLM capability behind small interfaces so
// orchestrators can be tested without a provider. Clients are constructed per
// call from explicit credentials; there is no shared mutable singleton.
package llm

import (
	"context"
	"encoding/json"
)

// Chat roles understood by the capability.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StructuredRequest asks for a completion constrained to a JSON schema.
type StructuredRequest struct {
	System     string
	Prompt     string
	SchemaName string
	Schema     json.RawMessage
}

// Client is the LLM capability consumed by the orchestrators.
type Client interface {
	// StructuredComplete issues one completion constrained to the request
	// schema and unmarshals the response into out.
	StructuredComplete(ctx context.Context, req *StructuredRequest, out interface{}) error

	// StreamComplete issues one streaming completion and invokes onToken
	// for every incremental text token. The stream is finite and not
	// restartable.
	StreamComplete(ctx context.Context, messages []Message, onToken func(token string)) error

	// VerifyKey performs a cheap authenticated call to check the
	// credentials behind this client.
	VerifyKey(ctx context.Context) error
}

// Factory constructs a capability client for one call.
type Factory interface {
	NewClient(apiKey, model string) Client
}

// Credentials is the per-call key/model selection: the explicit caller
// override when present, else the process-wide default.
type Credentials struct {
	APIKey string
	Model  string
}

// Resolve applies caller overrides on top of the configured defaults.
func Resolve(defaultKey, defaultModel, overrideKey, overrideModel string) Credentials {
	creds := Credentials{APIKey: defaultKey, Model: defaultModel}
	if overrideKey != "" {
		creds.APIKey = overrideKey
	}
	if overrideModel != "" {
		creds.Model = overrideModel
	}
	return creds
}
