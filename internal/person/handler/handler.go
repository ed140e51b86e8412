// Package handler exposes the person registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"reestr/internal/person/models"
	"reestr/internal/person/service"
	id "reestr/pkg/domain"
	dErrors "reestr/pkg/domain-errors"
	"reestr/pkg/platform/httputil"
	"reestr/pkg/requestcontext"
)

// Service defines the person operations the handler needs.
type Service interface {
	Register(ctx context.Context, actorID id.ActorID, input service.RegisterInput) (*models.Person, error)
	Get(ctx context.Context, actorID id.ActorID, personID id.PersonID) (*models.Person, error)
	List(ctx context.Context, actorID id.ActorID) ([]models.Person, error)
	ListInProcess(ctx context.Context, actorID id.ActorID) ([]models.Person, error)
	Search(ctx context.Context, actorID id.ActorID, filter models.SearchFilter) ([]models.Person, error)
	Update(ctx context.Context, actorID id.ActorID, personID id.PersonID, input service.UpdateInput) (*models.Person, error)
	AddToProcess(ctx context.Context, actorID id.ActorID, personID id.PersonID) (*models.Person, error)
	RemoveFromProcess(ctx context.Context, actorID id.ActorID, personID id.PersonID) (*models.Person, error)
	Delete(ctx context.Context, actorID id.ActorID, personID id.PersonID) error
}

// Handler wires person endpoints to the person service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts person endpoints on the router. All of them require
// authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/persons", h.HandleList)
	r.Post("/persons", h.HandleRegister)
	r.Get("/persons/search", h.HandleSearch)
	r.Get("/persons/in-process", h.HandleListInProcess)
	r.Get("/persons/{personID}", h.HandleGet)
	r.Put("/persons/{personID}", h.HandleUpdate)
	r.Delete("/persons/{personID}", h.HandleDelete)
	r.Post("/persons/{personID}/process", h.HandleAddToProcess)
	r.Delete("/persons/{personID}/process", h.HandleRemoveFromProcess)
}

func personID(r *http.Request) (id.PersonID, error) {
	return id.ParsePersonID(chi.URLParam(r, "personID"))
}

// HandleRegister handles POST /persons.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[registerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	input, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Register(ctx, requestcontext.ActorID(ctx), input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

// HandleGet handles GET /persons/{personID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pid, err := personID(r)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid person id"))
		return
	}

	p, err := h.service.Get(ctx, requestcontext.ActorID(ctx), pid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleList handles GET /persons.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	persons, err := h.service.List(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writePersons(w, persons)
}

// HandleListInProcess handles GET /persons/in-process.
func (h *Handler) HandleListInProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	persons, err := h.service.ListInProcess(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writePersons(w, persons)
}

// HandleSearch handles GET /persons/search. Filters arrive as query
// parameters; unknown parameters are ignored.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	persons, err := h.service.Search(ctx, requestcontext.ActorID(ctx), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writePersons(w, persons)
}

// HandleUpdate handles PUT /persons/{personID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	pid, err := personID(r)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid person id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[updateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	input, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Update(ctx, requestcontext.ActorID(ctx), pid, input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleAddToProcess handles POST /persons/{personID}/process.
func (h *Handler) HandleAddToProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pid, err := personID(r)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid person id"))
		return
	}

	p, err := h.service.AddToProcess(ctx, requestcontext.ActorID(ctx), pid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleRemoveFromProcess handles DELETE /persons/{personID}/process.
func (h *Handler) HandleRemoveFromProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pid, err := personID(r)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid person id"))
		return
	}

	p, err := h.service.RemoveFromProcess(ctx, requestcontext.ActorID(ctx), pid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleDelete handles DELETE /persons/{personID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pid, err := personID(r)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid person id"))
		return
	}

	if err := h.service.Delete(ctx, requestcontext.ActorID(ctx), pid); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writePersons(w http.ResponseWriter, persons []models.Person) {
	if persons == nil {
		persons = []models.Person{}
	}
	httputil.WriteJSON(w, http.StatusOK, persons)
}
