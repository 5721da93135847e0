package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/api/shared"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/logger"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/service"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

// Paging defaults for instance listings.
const (
	DefaultInstancePageSize = 50
)

// RecurringTaskHandler handles recurring task templates and their
// instances on behalf of the authenticated owner.
type RecurringTaskHandler struct {
	service service.RecurringTaskService
	logger  *slog.Logger
}

// NewRecurringTaskHandler creates a new RecurringTaskHandler
func NewRecurringTaskHandler(svc service.RecurringTaskService, logger *slog.Logger) *RecurringTaskHandler {
	if svc == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("service cannot be nil for RecurringTaskHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for RecurringTaskHandler")
	}
	return &RecurringTaskHandler{
		service: svc,
		logger:  logger.With(slog.String("component", "recurring_task_handler")),
	}
}

func (h *RecurringTaskHandler) log(r *http.Request) *slog.Logger {
	return logger.FromContextOrDefault(r.Context(), h.logger)
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *RecurringTaskHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(w, r, v); err != nil {
		h.log(r).Debug("invalid request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleAPIError(w, r, err, SanitizeValidationError(err))
		return false
	}
	return true
}

// CreateRecurringTask handles POST /api/recurring-tasks.
func (h *RecurringTaskHandler) CreateRecurringTask(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	var req CreateRecurringTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	tmpl, err := h.service.CreateTemplate(r.Context(), userID, service.CreateTemplateParams{
		Payload: domain.Payload{
			Title:       req.Title,
			Description: req.Description,
			CategoryID:  req.CategoryID,
			RoomID:      req.RoomID,
			Priority:    domain.Priority(req.Priority),
		},
		Rule:      req.RRule,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, templateToResponse(tmpl))
}

// ListRecurringTasks handles GET /api/recurring-tasks.
func (h *RecurringTaskHandler) ListRecurringTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := handleUserID(w, r, h.log(r))
	if !ok {
		return
	}

	templates, err := h.service.ListTemplates(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list recurring tasks")
		return
	}

	resp := RecurringTaskListResponse{RecurringTasks: make([]RecurringTaskResponse, 0, len(templates))}
	for _, t := range templates {
		resp.RecurringTasks = append(resp.RecurringTasks, templateToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetRecurringTask handles GET /api/recurring-tasks/{id}.
func (h *RecurringTaskHandler) GetRecurringTask(w http.ResponseWriter, r *http.Request) {
	userID, templateID, ok := handleUserIDAndPathUUID(w, r, "id", h.log(r))
	if !ok {
		return
	}

	tmpl, err := h.service.GetTemplate(r.Context(), userID, templateID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, templateToResponse(tmpl))
}

// UpdateRecurringTask handles PUT /api/recurring-tasks/{id}.
func (h *RecurringTaskHandler) UpdateRecurringTask(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	userID, templateID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateRecurringTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	params := service.UpdateTemplateParams{
		Rule:         req.RRule,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		ClearEndDate: req.ClearEndDate,
	}
	if req.touchesPayload() {
		current, err := h.service.GetTemplate(r.Context(), userID, templateID)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		p := req.payload(current.Payload)
		params.Payload = &p
	}

	tmpl, err := h.service.UpdateTemplate(r.Context(), userID, templateID, params)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("recurring task updated", slog.String("template_id", templateID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, templateToResponse(tmpl))
}

// DeleteRecurringTask handles DELETE /api/recurring-tasks/{id}. The
// template is deactivated; with ?cascade=true its instances are deleted.
func (h *RecurringTaskHandler) DeleteRecurringTask(w http.ResponseWriter, r *http.Request) {
	userID, templateID, ok := handleUserIDAndPathUUID(w, r, "id", h.log(r))
	if !ok {
		return
	}
	cascade, err := queryBool(r, "cascade")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	deleted, err := h.service.DeactivateTemplate(r.Context(), userID, templateID, cascade)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DeactivateResponse{
		ID:               templateID,
		Active:           false,
		InstancesDeleted: deleted,
	})
}

// ListInstances handles GET /api/recurring-tasks/{id}/instances.
func (h *RecurringTaskHandler) ListInstances(w http.ResponseWriter, r *http.Request) {
	userID, templateID, ok := handleUserIDAndPathUUID(w, r, "id", h.log(r))
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", DefaultInstancePageSize, 1, store.MaxInstancePageSize)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	offset, err := queryInt(r, "offset", 0, 0, int(^uint32(0)>>1))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	instances, err := h.service.ListInstances(r.Context(), userID, templateID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, InstanceListResponse{
		Instances: instancesToResponse(instances),
		Limit:     limit,
		Offset:    offset,
	})
}

// PreviewOccurrences handles GET /api/recurring-tasks/{id}/occurrences.
func (h *RecurringTaskHandler) PreviewOccurrences(w http.ResponseWriter, r *http.Request) {
	userID, templateID, ok := handleUserIDAndPathUUID(w, r, "id", h.log(r))
	if !ok {
		return
	}
	count, err := queryInt(r, "count", 0, 1, 50)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	occurrences, err := h.service.PreviewOccurrences(r.Context(), userID, templateID, count)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, OccurrencesResponse{Occurrences: occurrences})
}

// MaterializeRecurringTask handles POST /api/recurring-tasks/{id}/materialize.
// The body is optional.
func (h *RecurringTaskHandler) MaterializeRecurringTask(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	userID, templateID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req MaterializeRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		log.Debug("invalid request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, SanitizeValidationError(err))
		return
	}

	result, err := h.service.MaterializeTemplate(r.Context(), userID, templateID, service.MaterializeParams{
		Until:        req.Until,
		MaxInstances: req.MaxInstances,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("recurring task materialized on demand",
		slog.String("template_id", templateID.String()),
		slog.Int("created", len(result.Created)),
		slog.Int("skipped", result.Skipped))
	shared.RespondWithJSON(w, r, http.StatusOK, materializeToResponse(result))
}

// UpdateInstance handles PATCH /api/instances/{id}.
func (h *RecurringTaskHandler) UpdateInstance(w http.ResponseWriter, r *http.Request) {
	userID, instanceID, ok := handleUserIDAndPathUUID(w, r, "id", h.log(r))
	if !ok {
		return
	}

	var req UpdateInstanceRequest
	if !h.decode(w, r, &req) {
		return
	}

	inst, err := h.service.UpdateInstance(r.Context(), userID, instanceID, domain.InstanceEdit{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.priority(),
		Completed:   req.Completed,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, instanceToResponse(inst))
}

// DeleteInstance handles DELETE /api/instances/{id}.
func (h *RecurringTaskHandler) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	userID, instanceID, ok := handleUserIDAndPathUUID(w, r, "id", h.log(r))
	if !ok {
		return
	}

	if err := h.service.DeleteInstance(r.Context(), userID, instanceID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
