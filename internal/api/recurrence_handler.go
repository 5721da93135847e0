package api

import (
	"log/slog"
	"net/http"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/api/shared"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/clock"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain/recurrence"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/logger"
)

// RecurrenceHandler serves the store-free rule endpoints.
type RecurrenceHandler struct {
	clock  clock.Clock
	logger *slog.Logger
}

// NewRecurrenceHandler creates a RecurrenceHandler.
func NewRecurrenceHandler(clk clock.Clock, logger *slog.Logger) *RecurrenceHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for RecurrenceHandler")
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &RecurrenceHandler{
		clock:  clk,
		logger: logger.With(slog.String("component", "recurrence_handler")),
	}
}

// Validate handles POST /api/recurrence/validate. An unparsable rule is
// reported in the body with status 200; only a malformed request is a 400.
func (h *RecurrenceHandler) Validate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req ValidateRuleRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		log.Debug("invalid request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, SanitizeValidationError(err))
		return
	}

	start := h.clock.Now()
	if req.StartDate != nil {
		start = *req.StartDate
	}

	result := recurrence.Validate(req.RRule, start, req.Count)
	log.Debug("rule validated",
		slog.String("rrule", req.RRule),
		slog.Bool("valid", result.Valid),
		slog.Int("occurrences", len(result.NextOccurrences)))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Examples handles GET /api/recurrence/examples.
func (h *RecurrenceHandler) Examples(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, ExamplesResponse{Examples: recurrence.Examples()})
}
