package pipeline

import (
	"time"

	"github.com/barriocredito/voxpedido/internal/extract"
	"github.com/barriocredito/voxpedido/internal/order"
)

// Item is one matched line of the normalized order as reported to the client.
// ProductID is the public product identifier, never an internal catalog id.
type Item struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// NormalizedOrder is the priced cart derived from the spoken order.
type NormalizedOrder struct {
	Items      []Item  `json:"items"`
	OrderTotal float64 `json:"order_total"`
	Currency   string  `json:"currency"`
}

// UnmatchedLine is a spoken product no catalog entry resolved, with the
// nearest catalog name when one is close enough to suggest.
type UnmatchedLine struct {
	Phrase     string `json:"phrase"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Metadata describes how and when the order was processed.
type Metadata struct {
	InputMethod string    `json:"input_method"`
	Language    string    `json:"language"`
	ProcessedAt time.Time `json:"processed_at"`
	Model       string    `json:"model"`
}

// Result is the full outcome of processing one voice order. It is returned
// for both verdicts; OrderID is set only when the order committed.
type Result struct {
	Intent            order.Intent    `json:"intent"`
	Confidence        float64         `json:"confidence"`
	RawTranscription  string          `json:"raw_transcription"`
	VoicePromptOutput *extract.Output `json:"voice_prompt_output"`
	NormalizedOrder   NormalizedOrder `json:"normalized_order"`
	Unmatched         []UnmatchedLine `json:"unmatched,omitempty"`
	Metadata          Metadata        `json:"metadata"`
	OrderID           int64           `json:"order_id,omitempty"`
}

// newResult assembles the client-facing result from the stage outputs.
func newResult(intent order.Intent, transcript string, out *extract.Output, assembled order.AssembleResult, meta Metadata, currency string) *Result {
	items := make([]Item, len(assembled.Items))
	for i, it := range assembled.Items {
		items[i] = Item{
			ProductID:   it.PublicID,
			ProductName: it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		}
	}

	var unmatched []UnmatchedLine
	for _, u := range assembled.Unmatched {
		unmatched = append(unmatched, UnmatchedLine{
			Phrase:     u.Phrase,
			Suggestion: u.Suggestion,
		})
	}

	return &Result{
		Intent:            intent,
		Confidence:        out.Confidence.Score(),
		RawTranscription:  transcript,
		VoicePromptOutput: out,
		NormalizedOrder: NormalizedOrder{
			Items:      items,
			OrderTotal: assembled.Total,
			Currency:   currency,
		},
		Unmatched: unmatched,
		Metadata:  meta,
	}
}
