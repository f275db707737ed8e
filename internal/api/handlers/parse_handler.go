package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	apiContext "hirely/internal/api/context"
	"hirely/internal/api/middleware"
	"hirely/internal/engine/parsing"
	"hirely/internal/pkg/errors"
	"hirely/internal/platform/auth"
	"hirely/internal/platform/repositories"
)

type ParseHandler struct {
	svc *parsing.Service
}

func NewParseHandler(svc *parsing.Service) *ParseHandler {
	return &ParseHandler{svc: svc}
}

type SubmitParseRequest struct {
	ResumeID  string `json:"resume_id"`
	ResumeURL string `json:"resume_url"`
}

// Submit queues the caller's resume for parsing.
func (h *ParseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
		return
	}

	var req SubmitParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	job, err := h.svc.Submit(r.Context(), claims.UserID(), req.ResumeID, req.ResumeURL)
	if err != nil {
		var verr *parsing.ValidationError
		if stderrors.As(err, &verr) {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, verr.Error(), map[string]string{"field": verr.Field})
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID()).Msg("failed to submit parse job")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to submit parse job", nil)
		return
	}

	errors.WriteJSON(w, http.StatusAccepted, job)
}

func (h *ParseHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
		return
	}
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("job_id")

	job, err := h.svc.Get(r.Context(), id, claims.UserID(), claims.Role == auth.RoleRecruiter)
	switch {
	case err == nil:
		errors.WriteJSON(w, http.StatusOK, job)
	case stderrors.Is(err, repositories.ErrNotFound):
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Parse job not found", nil)
	case stderrors.Is(err, parsing.ErrForbidden):
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
	default:
		log.Error().Err(err).Str("job_id", id).Msg("failed to load parse job")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
	}
}
