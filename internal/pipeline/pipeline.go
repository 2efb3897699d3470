// Package pipeline orchestrates one voice order from audio upload to
// committed order: transcription, structured extraction, catalog matching,
// the commit decision, and persistence. Each stage is injected so tests can
// substitute mocks for every external dependency.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/barriocredito/voxpedido/internal/events"
	"github.com/barriocredito/voxpedido/internal/extract"
	"github.com/barriocredito/voxpedido/internal/observe"
	"github.com/barriocredito/voxpedido/internal/order"
	"github.com/barriocredito/voxpedido/internal/store"
	"github.com/barriocredito/voxpedido/pkg/provider/stt"
)

// ErrEmptyTranscript is returned when transcription succeeds but yields no
// speech. The HTTP layer maps it to a client error: there is nothing to
// extract an order from.
var ErrEmptyTranscript = errors.New("pipeline: transcription produced no text")

// ErrNotConfigured is returned when the pipeline is missing required runtime
// configuration, such as the buyer identity orders are written under.
var ErrNotConfigured = errors.New("pipeline: service not configured")

// UpstreamError wraps a transport-level failure from an external provider.
// Stage names the failing provider: "stt" or "llm".
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("pipeline: %s provider: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Config holds the per-deployment order parameters.
type Config struct {
	// BuyerID is the shopkeeper identity all orders are written under.
	// Required.
	BuyerID string

	// Currency is the ISO 4217 code reported in responses. Default: "MXN".
	Currency string

	// Locale is the BCP 47 tag reported when the transcription provider does
	// not detect a language. Default: "es-MX".
	Locale string

	// OwnerFilter, when non-empty, restricts the catalog snapshot to products
	// of one owner.
	OwnerFilter string
}

// Pipeline processes voice orders end to end. Construct with New; safe for
// concurrent use.
type Pipeline struct {
	stt       stt.Provider
	extractor *extract.Extractor
	store     store.Store
	assembler *order.Assembler
	committer *order.Committer
	events    events.Publisher
	metrics   *observe.Metrics
	log       *slog.Logger
	cfg       Config
}

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline)

// WithPublisher sets the event publisher. Default: events.Noop.
func WithPublisher(p events.Publisher) Option {
	return func(pl *Pipeline) {
		if p != nil {
			pl.events = p
		}
	}
}

// WithMetrics sets the metrics instance. Default: observe.DefaultMetrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(pl *Pipeline) {
		if m != nil {
			pl.metrics = m
		}
	}
}

// WithLogger sets the logger. Default: slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(pl *Pipeline) {
		if log != nil {
			pl.log = log
		}
	}
}

// New builds a Pipeline over the given stages. All five stage arguments are
// required; cfg.BuyerID may be empty, in which case Process fails with
// ErrNotConfigured until configuration is fixed.
func New(sttProvider stt.Provider, extractor *extract.Extractor, st store.Store, assembler *order.Assembler, committer *order.Committer, cfg Config, opts ...Option) (*Pipeline, error) {
	if sttProvider == nil {
		return nil, errors.New("pipeline: stt provider must not be nil")
	}
	if extractor == nil {
		return nil, errors.New("pipeline: extractor must not be nil")
	}
	if st == nil {
		return nil, errors.New("pipeline: store must not be nil")
	}
	if assembler == nil {
		return nil, errors.New("pipeline: assembler must not be nil")
	}
	if committer == nil {
		return nil, errors.New("pipeline: committer must not be nil")
	}
	if cfg.Currency == "" {
		cfg.Currency = "MXN"
	}
	if cfg.Locale == "" {
		cfg.Locale = "es-MX"
	}

	p := &Pipeline{
		stt:       sttProvider,
		extractor: extractor,
		store:     st,
		assembler: assembler,
		committer: committer,
		events:    events.Noop{},
		log:       slog.Default(),
		cfg:       cfg,
	}
	for _, o := range opts {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	p.log = p.log.With("component", "pipeline")
	return p, nil
}

// auditPayload is the JSON document stored on the order header describing how
// the order was derived. It is the ground truth for disputes.
type auditPayload struct {
	Transcript      string          `json:"raw_transcription"`
	ModelOutput     *extract.Output `json:"voice_prompt_output"`
	NormalizedOrder NormalizedOrder `json:"normalized_order"`
}

// Process runs one voice order through every stage. The catalog is read only
// after extraction succeeds, so a garbage transcript never touches the store.
// A clarification verdict returns a Result with no writes performed; a commit
// verdict persists the order and reports its id.
func (p *Pipeline) Process(ctx context.Context, audio stt.Audio) (*Result, error) {
	start := time.Now()
	defer func() {
		p.metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds())
	}()

	if p.cfg.BuyerID == "" {
		return nil, fmt.Errorf("%w: buyer id is empty", ErrNotConfigured)
	}

	// Stage 1: transcription.
	sttStart := time.Now()
	transcript, err := p.stt.Transcribe(ctx, audio)
	p.metrics.STTDuration.Record(ctx, time.Since(sttStart).Seconds())
	if err != nil {
		p.metrics.RecordProviderError(ctx, "stt")
		return nil, &UpstreamError{Stage: "stt", Err: err}
	}
	if transcript == nil {
		return nil, ErrEmptyTranscript
	}
	text := strings.TrimSpace(transcript.Text)
	if text == "" {
		return nil, ErrEmptyTranscript
	}

	// Stage 2: structured extraction.
	extractStart := time.Now()
	out, err := p.extractor.Extract(ctx, text)
	p.metrics.ExtractionDuration.Record(ctx, time.Since(extractStart).Seconds())
	if err != nil {
		if errors.Is(err, extract.ErrInvalidOutput) {
			return nil, err
		}
		p.metrics.RecordProviderError(ctx, "llm")
		return nil, &UpstreamError{Stage: "llm", Err: err}
	}

	// Stage 3: catalog snapshot and matching. The read is deliberately
	// deferred until extraction succeeded.
	products, err := p.store.ListProducts(ctx, p.cfg.OwnerFilter)
	if err != nil {
		return nil, fmt.Errorf("pipeline: list products: %w", err)
	}
	assembled := p.assembler.Assemble(out.Order, products)
	if n := len(assembled.Unmatched); n > 0 {
		p.metrics.UnmatchedLines.Add(ctx, int64(n))
	}

	// Stage 4: decision.
	intent := order.Decide(assembled.Items, out)

	result := newResult(intent, text, out, assembled, Metadata{
		InputMethod: "voice",
		Language:    p.languageFor(transcript),
		ProcessedAt: time.Now().UTC(),
		Model:       p.extractor.Model(),
	}, p.cfg.Currency)

	if intent == order.IntentClarificationRequired {
		reason := "doubt"
		if len(assembled.Items) == 0 {
			reason = "no_items"
		}
		p.metrics.RecordClarification(ctx, reason)
		p.log.InfoContext(ctx, "order needs clarification",
			"reason", reason, "unmatched", len(assembled.Unmatched))
		return result, nil
	}

	// Stage 5: commit.
	audit, err := json.Marshal(auditPayload{
		Transcript:      text,
		ModelOutput:     out,
		NormalizedOrder: result.NormalizedOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: marshal audit payload: %w", err)
	}

	commitStart := time.Now()
	committed, err := p.committer.Commit(ctx, p.cfg.BuyerID, assembled.Items, assembled.Total, audit)
	p.metrics.CommitDuration.Record(ctx, time.Since(commitStart).Seconds())
	if err != nil {
		return nil, err
	}
	p.metrics.OrdersCommitted.Add(ctx, 1)
	result.OrderID = committed.OrderID

	p.publishCommitted(committed.OrderID, assembled)

	p.log.InfoContext(ctx, "order committed",
		"order_id", committed.OrderID,
		"items", len(assembled.Items),
		"total", assembled.Total)
	return result, nil
}

// languageFor prefers the language the STT provider detected, falling back to
// the configured locale.
func (p *Pipeline) languageFor(t *stt.Transcript) string {
	if t != nil && t.Language != "" {
		return t.Language
	}
	return p.cfg.Locale
}

// publishCommitted emits the OrderCommitted event. Best effort: a committed
// order never fails because its event could not be built or queued.
func (p *Pipeline) publishCommitted(orderID int64, assembled order.AssembleResult) {
	env, err := events.NewOrderCommitted(orderID, p.cfg.BuyerID, assembled.Items, assembled.Total)
	if err != nil {
		p.log.Error("build order committed event", "order_id", orderID, "error", err)
		return
	}
	p.events.Publish(env)
}
