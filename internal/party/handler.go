package party

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veil/internal/platform/middleware"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/platform/httputil"
)

// Handler exposes party registration and the token endpoint.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	adminKey string
}

func NewHandler(service *Service, logger *slog.Logger, adminKey string) *Handler {
	return &Handler{logger: logger, service: service, adminKey: adminKey}
}

// Register mounts the party routes. The token endpoint is unauthenticated by
// nature; registration is guarded by the deployment admin key.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(10 * time.Second))
		gr.Use(middleware.ContentTypeJSON)
		gr.Post("/parties", h.handleRegister)
		gr.Post("/token", h.handleToken)
	})
}

type RegisterRequest struct {
	Name string `json:"name"`
}

type RegisterResponse struct {
	PartyID string `json:"party_id"`
	Name    string `json:"name"`
	// ClientSecret is shown exactly once; only its hash survives server-side.
	ClientSecret string `json:"client_secret"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.adminKey == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "party registration is disabled"))
		return
	}
	supplied := r.Header.Get("X-Admin-Key")
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(h.adminKey)) != 1 {
		h.logger.WarnContext(ctx, "party registration with bad admin key",
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "invalid admin key"))
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	p, secret, err := h.service.Register(ctx, req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{
		PartyID:      p.ID.String(),
		Name:         p.Name,
		ClientSecret: secret,
	})
}

type TokenRequest struct {
	PartyID      string `json:"party_id"`
	ClientSecret string `json:"client_secret"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	token, ttl, err := h.service.IssueToken(ctx, req.PartyID, req.ClientSecret)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	})
}
