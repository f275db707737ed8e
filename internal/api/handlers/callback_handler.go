package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"hirely/internal/engine/parsing"
	"hirely/internal/pkg/errors"
	"hirely/internal/platform/repositories"
)

// CallbackHandler receives results from the resume-processing service. It
// must only be mounted behind SignatureMiddleware.
type CallbackHandler struct {
	svc *parsing.Service
}

func NewCallbackHandler(svc *parsing.Service) *CallbackHandler {
	return &CallbackHandler{svc: svc}
}

func (h *CallbackHandler) ResumeParsed(w http.ResponseWriter, r *http.Request) {
	var cb parsing.Callback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	err := h.svc.HandleCallback(r.Context(), cb)
	var verr *parsing.ValidationError
	switch {
	case err == nil:
		log.Info().Str("job_id", cb.JobID).Str("status", cb.Status).Msg("resume parse callback applied")
		errors.WriteJSON(w, http.StatusOK, map[string]string{"job_id": cb.JobID, "status": cb.Status})
	case stderrors.As(err, &verr):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, verr.Error(), map[string]string{"field": verr.Field})
	case stderrors.Is(err, repositories.ErrNotFound):
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Parse job not found", nil)
	case stderrors.Is(err, repositories.ErrStateConflict):
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Parse job already finished", nil)
	default:
		log.Error().Err(err).Str("job_id", cb.JobID).Msg("failed to apply resume parse callback")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to apply callback", nil)
	}
}
