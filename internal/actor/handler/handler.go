// Package handler exposes authentication and administrator management over
// HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"reestr/internal/actor/models"
	"reestr/internal/actor/service"
	id "reestr/pkg/domain"
	dErrors "reestr/pkg/domain-errors"
	"reestr/pkg/platform/httputil"
	"reestr/pkg/requestcontext"
)

// Service defines the actor operations the handler needs.
type Service interface {
	Login(ctx context.Context, login, password string) (string, *models.Actor, error)
	Logout(ctx context.Context, actorID id.ActorID) error
	Me(ctx context.Context, actorID id.ActorID) (*models.Actor, error)
	ChangePassword(ctx context.Context, actorID id.ActorID, current, next string) error
	CreateAdmin(ctx context.Context, actorID id.ActorID, input service.CreateAdminInput) (*models.Actor, error)
	UpdateAdmin(ctx context.Context, actorID, targetID id.ActorID, input service.UpdateAdminInput) (*models.Actor, error)
	DeleteAdmin(ctx context.Context, actorID, targetID id.ActorID) error
	ListAdmins(ctx context.Context, actorID id.ActorID) ([]models.Actor, error)
}

// Handler wires actor endpoints to the actor service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the endpoints that must work without a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

// Register mounts the authenticated endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/me", h.HandleMe)
	r.Post("/auth/password", h.HandleChangePassword)

	r.Get("/admins", h.HandleListAdmins)
	r.Post("/admins", h.HandleCreateAdmin)
	r.Put("/admins/{adminID}", h.HandleUpdateAdmin)
	r.Delete("/admins/{adminID}", h.HandleDeleteAdmin)
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[loginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	token, actor, err := h.service.Login(ctx, req.Login, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "login",
		"request_id", requestID,
		"actor_id", actor.ID,
		"role", actor.Role,
	)
	httputil.WriteJSON(w, http.StatusOK, loginResponse{Token: token, Actor: actor})
}

// HandleLogout handles POST /auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Logout(ctx, requestcontext.ActorID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /auth/me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := h.service.Me(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, actor)
}

// HandleChangePassword handles POST /auth/password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[changePasswordRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.ChangePassword(ctx, requestcontext.ActorID(ctx), req.CurrentPassword, req.NewPassword); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListAdmins handles GET /admins.
func (h *Handler) HandleListAdmins(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admins, err := h.service.ListAdmins(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if admins == nil {
		admins = []models.Actor{}
	}
	httputil.WriteJSON(w, http.StatusOK, admins)
}

// HandleCreateAdmin handles POST /admins.
func (h *Handler) HandleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[createAdminRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	input, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.CreateAdmin(ctx, requestcontext.ActorID(ctx), input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

// HandleUpdateAdmin handles PUT /admins/{adminID}.
func (h *Handler) HandleUpdateAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	targetID, err := id.ParseActorID(chi.URLParam(r, "adminID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid admin id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[updateAdminRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	input, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.UpdateAdmin(ctx, requestcontext.ActorID(ctx), targetID, input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// HandleDeleteAdmin handles DELETE /admins/{adminID}.
func (h *Handler) HandleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	targetID, err := id.ParseActorID(chi.URLParam(r, "adminID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid admin id"))
		return
	}

	if err := h.service.DeleteAdmin(ctx, requestcontext.ActorID(ctx), targetID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
