// Package llm defines the Provider interface for completion backends.
//
// A completion provider wraps a remote or local model API (e.g., OpenAI
// GPT-4o, Anthropic Claude, or a local Ollama instance) and exposes a uniform
// single-shot interface for structured extraction without coupling to any
// specific SDK. The voice-order pipeline sends one instruction template plus
// one transcript per request and expects one JSON object back; streaming,
// tool calling, and multi-turn history are deliberately out of scope.
//
// Implementors must be safe for concurrent use and must propagate context
// cancellation promptly.
package llm

import "context"

// Usage holds token accounting information returned by the backend.
// All counts are in the model's native token unit and may differ between
// providers for the same textual content.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the instruction and
	// user content. This value directly affects billing.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the reply.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens. Provided as a
	// convenience; some providers return it directly rather than computing it
	// from the parts.
	TotalTokens int
}

// CompletionRequest carries everything the model needs to produce a reply.
// Callers should treat a zero-value request as invalid; at minimum UserPrompt
// must be non-empty.
type CompletionRequest struct {
	// SystemPrompt is a high-priority instruction injected before the user
	// content. Many providers give this special treatment (e.g., OpenAI's
	// "system" role, Anthropic's separate system field). If the provider does
	// not natively support a dedicated system prompt, implementors should
	// prepend it as a "system"-role message.
	SystemPrompt string

	// UserPrompt is the content the model should respond to. For the
	// voice-order pipeline this is the raw transcript.
	UserPrompt string

	// Temperature controls output randomness in the range [0.0, 2.0]. Lower
	// values produce more deterministic outputs. A value of 0.0 typically
	// requests greedy (argmax) decoding.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int

	// JSONOnly asks the backend to constrain the reply to a single JSON
	// object where the API supports such a response format. Backends without
	// native support may ignore this field; callers must validate the reply
	// shape regardless.
	JSONOnly bool
}

// CompletionResponse is the full, non-streaming reply from the model.
type CompletionResponse struct {
	// Content is the text of the model's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any completion backend.
//
// Implementations must be safe for concurrent use from multiple goroutines
// and should return as quickly as possible when ctx is cancelled.
type Provider interface {
	// Complete sends req to the model and waits for the full reply.
	// Returns an error if the request fails or if ctx is cancelled before
	// the completion arrives.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Model returns the model identifier this provider was constructed with.
	// It is reported in order metadata for auditability.
	Model() string
}
