// Package handler exposes the subject record endpoints.
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

// Service defines the record operations the handler delegates to.
type Service interface {
	Replace(ctx context.Context, subject id.SubjectID, values map[string][]byte) (*disclosure.Record, error)
	Delete(ctx context.Context, subject id.SubjectID) error
}

// Handler handles subject record endpoints.
type Handler struct {
	logger       *slog.Logger
	records      Service
	jwtValidator middleware.JWTValidator
}

func New(records Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{logger: logger, records: records, jwtValidator: jwtValidator}
}

// Register mounts the record routes with their middleware stack.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(30 * time.Second))
		gr.Use(middleware.ContentTypeJSON)
		gr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		gr.Put("/subjects/{subjectID}/record", h.handleReplace)
		gr.Delete("/subjects/{subjectID}/record", h.handleDelete)
	})
}

// ReplaceRequest carries the full snapshot. Values are opaque bytes,
// base64-encoded on the wire.
type ReplaceRequest struct {
	Values map[string][]byte `json:"values"`
}

// ReplaceResponse deliberately excludes the stored values: uploads are
// write-only through this API.
type ReplaceResponse struct {
	SubjectID  string    `json:"subject_id"`
	Version    int64     `json:"version"`
	FieldCount int       `json:"field_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req ReplaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid replace record request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.records.Replace(ctx, subject, req.Values)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ReplaceResponse{
		SubjectID:  record.Subject.String(),
		Version:    record.Version,
		FieldCount: len(record.Values),
		UploadedAt: record.UploadedAt,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	subject, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.records.Delete(r.Context(), subject); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
