package order

import "github.com/barriocredito/voxpedido/internal/extract"

// Intent is the decision engine's verdict for one voice order.
type Intent string

const (
	// IntentAddToCart means the order commits automatically.
	IntentAddToCart Intent = "add_to_cart"

	// IntentClarificationRequired means the order needs human review before
	// anything is written.
	IntentClarificationRequired Intent = "clarification_required"
)

// Decide returns the intent for an assembled cart. An order auto-commits
// only when at least one item matched and the model raised no doubt; either
// failing condition forces clarification. Unmatched lines alone do not block
// a commit of the matched remainder.
func Decide(items []CartItem, out *extract.Output) Intent {
	if len(items) == 0 {
		return IntentClarificationRequired
	}
	if out != nil && out.Doubt != nil && *out.Doubt != "" {
		return IntentClarificationRequired
	}
	return IntentAddToCart
}
