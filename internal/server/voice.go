package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/barriocredito/voxpedido/internal/extract"
	"github.com/barriocredito/voxpedido/internal/order"
	"github.com/barriocredito/voxpedido/internal/pipeline"
	"github.com/barriocredito/voxpedido/pkg/provider/stt"
)

// audioField is the multipart form field carrying the recorded utterance.
const audioField = "audio"

// handleVoiceOrder accepts a multipart audio upload, runs it through the
// pipeline, and returns the full processing result. Every failure maps to a
// stable error code so clients can branch without parsing messages.
func (s *Server) handleVoiceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile(audioField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_audio", "multipart field 'audio' is required")
		return
	}
	defer file.Close()

	audio := stt.Audio{
		Reader:   file,
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
	}

	result, err := s.processor.Process(ctx, audio)
	if err != nil {
		s.writeProcessError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeProcessError maps pipeline errors to HTTP responses. Client mistakes
// are 400s, provider outages are 502s, and everything that failed inside the
// service is a 500.
func (s *Server) writeProcessError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		upstream  *pipeline.UpstreamError
		decrement *order.StockDecrementError
	)

	switch {
	case errors.Is(err, pipeline.ErrEmptyTranscript):
		writeError(w, http.StatusBadRequest, "empty_transcript", "no speech detected in the audio")
	case errors.As(err, &upstream):
		s.log.ErrorContext(ctx, "upstream provider failed", "stage", upstream.Stage, "error", err)
		writeError(w, http.StatusBadGateway, "upstream_error", upstream.Stage+" provider unavailable")
	case errors.Is(err, extract.ErrInvalidOutput):
		s.log.ErrorContext(ctx, "model output invalid", "error", err)
		writeError(w, http.StatusInternalServerError, "extraction_invalid", "model produced an unusable order")
	case errors.Is(err, pipeline.ErrNotConfigured):
		s.log.ErrorContext(ctx, "service misconfigured", "error", err)
		writeError(w, http.StatusInternalServerError, "not_configured", "service is not configured for orders")
	case errors.As(err, &decrement):
		s.log.ErrorContext(ctx, "stock decrement failed", "product", decrement.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "stock_decrement_failed",
			"could not reserve stock for "+decrement.Name)
	case errors.Is(err, order.ErrOrderWrite):
		s.log.ErrorContext(ctx, "order write failed", "error", err)
		writeError(w, http.StatusInternalServerError, "order_write_failed", "could not persist the order")
	case errors.Is(err, order.ErrOrderLinesWrite):
		s.log.ErrorContext(ctx, "order lines write failed", "error", err)
		writeError(w, http.StatusInternalServerError, "order_lines_write_failed", "could not persist the order lines")
	default:
		s.log.ErrorContext(ctx, "voice order failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
