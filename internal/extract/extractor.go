package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/barriocredito/voxpedido/pkg/provider/llm"
)

// ErrInvalidOutput is returned when the completion backend replies with
// something that is not a JSON object carrying an "orden" array. The raw
// reply travels alongside via InvalidOutputError.
var ErrInvalidOutput = errors.New("extract: model output invalid")

// InvalidOutputError wraps ErrInvalidOutput and carries the raw model reply
// for the error response and logs.
type InvalidOutputError struct {
	// RawOutput is the verbatim reply text from the model.
	RawOutput string
	// Reason describes which check failed.
	Reason string
}

func (e *InvalidOutputError) Error() string {
	return fmt.Sprintf("extract: model output invalid: %s", e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidOutput) hold.
func (e *InvalidOutputError) Unwrap() error { return ErrInvalidOutput }

// Label is the model's self-reported confidence in its own interpretation of
// the transcript.
type Label string

// Confidence labels as emitted by the instruction template.
const (
	LabelLow    Label = "baja"
	LabelMedium Label = "media"
	LabelHigh   Label = "alta"
)

// Score maps a label to its numeric confidence. Unknown or empty labels are
// treated as low confidence.
func (l Label) Score() float64 {
	switch l {
	case LabelHigh:
		return 0.9
	case LabelMedium:
		return 0.7
	default:
		return 0.5
	}
}

// SpokenLine is one requested product as the model heard it. JSON keys match
// the instruction template's schema, so the struct round-trips into the order
// audit payload unchanged.
type SpokenLine struct {
	// Product is the standardized product name the model inferred.
	Product string `json:"producto"`

	// Quantity is the requested unit count, already coerced to a positive
	// integer (absent or invalid values default to 1).
	Quantity int `json:"cantidad"`

	// Unit is the free-form unit phrase (cajas, piezas, paquetes). Carried
	// for audit only.
	Unit string `json:"unidad,omitempty"`

	// OriginalNote is the user's verbatim phrasing for this line.
	OriginalNote string `json:"nota_original,omitempty"`
}

// Output is the validated structured order extracted from one transcript.
type Output struct {
	// Order is the list of spoken lines. May be empty.
	Order []SpokenLine `json:"orden"`

	// Confidence is the model's self-reported label.
	Confidence Label `json:"confianza"`

	// Doubt is non-nil when the model flagged something it did not fully
	// understand. Any non-nil doubt forces a clarification decision.
	Doubt *string `json:"duda_posible"`
}

// rawLine mirrors SpokenLine with loosely typed fields so that quantity
// values like 2.0, "2", or null survive decoding and can be coerced.
type rawLine struct {
	Product      string          `json:"producto"`
	Quantity     json.RawMessage `json:"cantidad"`
	Unit         string          `json:"unidad"`
	OriginalNote string          `json:"nota_original"`
}

type rawOutput struct {
	Order      []rawLine `json:"orden"`
	Confidence Label     `json:"confianza"`
	Doubt      *string   `json:"duda_posible"`
}

const (
	defaultTemperature = 0.2
	defaultMaxTokens   = 1024
)

// Option is a functional option for configuring an Extractor.
type Option func(*Extractor)

// WithTemperature overrides the sampling temperature. Default: 0.2.
func WithTemperature(t float64) Option {
	return func(e *Extractor) {
		if t > 0 {
			e.temperature = t
		}
	}
}

// WithMaxTokens caps the completion length. Default: 1024.
func WithMaxTokens(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// Extractor prompts a completion backend with the fixed instruction template
// and validates the reply into an Output. Safe for concurrent use.
type Extractor struct {
	provider    llm.Provider
	temperature float64
	maxTokens   int
}

// New returns an Extractor over the given completion provider.
func New(provider llm.Provider, opts ...Option) (*Extractor, error) {
	if provider == nil {
		return nil, errors.New("extract: provider must not be nil")
	}
	e := &Extractor{
		provider:    provider,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Model reports the underlying provider's model identifier for response
// metadata.
func (e *Extractor) Model() string {
	return e.provider.Model()
}

// Extract sends the transcript to the model and returns the validated
// structured order. Transport failures are returned as-is for the caller to
// classify; malformed replies return an error matching ErrInvalidOutput.
func (e *Extractor) Extract(ctx context.Context, transcript string) (*Output, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   transcript,
		Temperature:  e.temperature,
		MaxTokens:    e.maxTokens,
		JSONOnly:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("extract: completion: %w", err)
	}
	if resp == nil {
		return nil, &InvalidOutputError{Reason: "empty completion response"}
	}
	return parse(resp.Content)
}

// parse validates and coerces the raw model reply.
func parse(content string) (*Output, error) {
	var generic any
	if err := json.Unmarshal([]byte(content), &generic); err != nil {
		return nil, &InvalidOutputError{RawOutput: content, Reason: "not valid JSON"}
	}
	if err := compiledReplySchema.Validate(generic); err != nil {
		return nil, &InvalidOutputError{RawOutput: content, Reason: "orden missing or not an array"}
	}

	var raw rawOutput
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, &InvalidOutputError{RawOutput: content, Reason: "unexpected field types"}
	}

	out := &Output{
		Order:      make([]SpokenLine, 0, len(raw.Order)),
		Confidence: raw.Confidence,
		Doubt:      raw.Doubt,
	}
	for _, line := range raw.Order {
		out.Order = append(out.Order, SpokenLine{
			Product:      line.Product,
			Quantity:     coerceQuantity(line.Quantity),
			Unit:         line.Unit,
			OriginalNote: line.OriginalNote,
		})
	}
	return out, nil
}

// coerceQuantity converts a loosely typed quantity to a positive integer.
// Absent, non-numeric, non-finite, or non-positive values default to 1.
func coerceQuantity(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 1
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		// Quantities sometimes arrive as strings ("2").
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 1
		}
		if _, err := fmt.Sscanf(s, "%g", &f); err != nil {
			return 1
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 1
	}
	q := int(math.Round(f))
	if q < 1 {
		return 1
	}
	return q
}
