// Package handler exposes the disclosure endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veil/internal/disclosure"
	"veil/internal/platform/middleware"
	id "veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/platform/httputil"
)

// Service defines the disclosure operations the handler delegates to.
type Service interface {
	Disclose(ctx context.Context, subject id.SubjectID, mask disclosure.Mask) (*disclosure.Result, error)
	Schema() []string
}

// Handler handles disclosure-related endpoints.
type Handler struct {
	logger       *slog.Logger
	service      Service
	jwtValidator middleware.JWTValidator
}

func New(service Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{logger: logger, service: service, jwtValidator: jwtValidator}
}

// Register mounts the disclosure routes. The schema listing is public so
// callers can build masks; filtering itself requires a party token.
func (h *Handler) Register(r chi.Router) {
	r.Get("/schema", h.handleSchema)

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(30 * time.Second))
		gr.Use(middleware.ContentTypeJSON)
		gr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		gr.Post("/subjects/{subjectID}/disclose", h.handleDisclose)
	})
}

// SchemaResponse lists field names in ascending ordinal order; a mask's Nth
// flag governs the Nth name here.
type SchemaResponse struct {
	Fields []string `json:"fields"`
}

func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, SchemaResponse{Fields: h.service.Schema()})
}

// DiscloseRequest carries the authorization mask, one flag per schema ordinal.
type DiscloseRequest struct {
	Mask []bool `json:"mask"`
}

func (h *Handler) handleDisclose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req DiscloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid disclose request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.Disclose(ctx, subject, disclosure.Mask(req.Mask))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeMaskLengthMismatch) || dErrors.HasCode(err, dErrors.CodeUnknownField) {
			h.logger.WarnContext(ctx, "disclosure contract violation",
				"request_id", middleware.GetRequestID(ctx),
				"party_id", middleware.GetPartyID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
