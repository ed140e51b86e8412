// Package handler exposes reference data over HTTP. Reads are available to
// every authenticated actor; mutations are gated in the service layer.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"reestr/internal/refdata/models"
	id "reestr/pkg/domain"
	dErrors "reestr/pkg/domain-errors"
	"reestr/pkg/platform/httputil"
	"reestr/pkg/requestcontext"
)

// Service defines the reference-data operations the handler needs.
type Service interface {
	CreateDistrict(ctx context.Context, actorID id.ActorID, name, code string) (*models.District, error)
	ListDistricts(ctx context.Context) ([]models.District, error)

	CreateMahalla(ctx context.Context, actorID id.ActorID, name string, districtID id.DistrictID) (*models.Mahalla, error)
	ListMahallas(ctx context.Context, districtID id.DistrictID) ([]models.Mahalla, error)

	CreateCrimeCategory(ctx context.Context, actorID id.ActorID, name, description string) (*models.CrimeCategory, error)
	UpdateCrimeCategory(ctx context.Context, actorID id.ActorID, categoryID id.CrimeCategoryID, name, description string) (*models.CrimeCategory, error)
	DeleteCrimeCategory(ctx context.Context, actorID id.ActorID, categoryID id.CrimeCategoryID) error
	ListCrimeCategories(ctx context.Context) ([]models.CrimeCategory, error)

	CreateCrimeType(ctx context.Context, actorID id.ActorID, name, description string, categoryID *id.CrimeCategoryID) (*models.CrimeType, error)
	UpdateCrimeType(ctx context.Context, actorID id.ActorID, typeID id.CrimeTypeID, name, description string, categoryID *id.CrimeCategoryID) (*models.CrimeType, error)
	DeleteCrimeType(ctx context.Context, actorID id.ActorID, typeID id.CrimeTypeID) error
	ListCrimeTypes(ctx context.Context) ([]models.CrimeType, error)
}

// Handler wires reference-data endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts reference-data endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/districts", h.HandleListDistricts)
	r.Post("/districts", h.HandleCreateDistrict)
	r.Get("/districts/{districtID}/mahallas", h.HandleListMahallas)
	r.Post("/mahallas", h.HandleCreateMahalla)

	r.Get("/crime-categories", h.HandleListCrimeCategories)
	r.Post("/crime-categories", h.HandleCreateCrimeCategory)
	r.Put("/crime-categories/{categoryID}", h.HandleUpdateCrimeCategory)
	r.Delete("/crime-categories/{categoryID}", h.HandleDeleteCrimeCategory)

	r.Get("/crime-types", h.HandleListCrimeTypes)
	r.Post("/crime-types", h.HandleCreateCrimeType)
	r.Put("/crime-types/{typeID}", h.HandleUpdateCrimeType)
	r.Delete("/crime-types/{typeID}", h.HandleDeleteCrimeType)
}

type districtRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type mahallaRequest struct {
	Name       string `json:"name"`
	DistrictID string `json:"districtId"`
}

type crimeCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type crimeTypeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  string `json:"categoryId"`
}

func (r crimeTypeRequest) parsedCategory() (*id.CrimeCategoryID, error) {
	if r.CategoryID == "" {
		return nil, nil
	}
	categoryID, err := id.ParseCrimeCategoryID(r.CategoryID)
	if err != nil {
		return nil, err
	}
	return &categoryID, nil
}

// HandleListDistricts handles GET /districts.
func (h *Handler) HandleListDistricts(w http.ResponseWriter, r *http.Request) {
	districts, err := h.service.ListDistricts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if districts == nil {
		districts = []models.District{}
	}
	httputil.WriteJSON(w, http.StatusOK, districts)
}

// HandleCreateDistrict handles POST /districts.
func (h *Handler) HandleCreateDistrict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[districtRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	district, err := h.service.CreateDistrict(ctx, requestcontext.ActorID(ctx), req.Name, req.Code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, district)
}

// HandleListMahallas handles GET /districts/{districtID}/mahallas.
func (h *Handler) HandleListMahallas(w http.ResponseWriter, r *http.Request) {
	districtID, err := id.ParseDistrictID(chi.URLParam(r, "districtID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid district id"))
		return
	}

	mahallas, err := h.service.ListMahallas(r.Context(), districtID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if mahallas == nil {
		mahallas = []models.Mahalla{}
	}
	httputil.WriteJSON(w, http.StatusOK, mahallas)
}

// HandleCreateMahalla handles POST /mahallas.
func (h *Handler) HandleCreateMahalla(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[mahallaRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	districtID, err := id.ParseDistrictID(req.DistrictID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid district id"))
		return
	}

	mahalla, err := h.service.CreateMahalla(ctx, requestcontext.ActorID(ctx), req.Name, districtID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, mahalla)
}

// HandleListCrimeCategories handles GET /crime-categories.
func (h *Handler) HandleListCrimeCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCrimeCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if categories == nil {
		categories = []models.CrimeCategory{}
	}
	httputil.WriteJSON(w, http.StatusOK, categories)
}

// HandleCreateCrimeCategory handles POST /crime-categories.
func (h *Handler) HandleCreateCrimeCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[crimeCategoryRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	category, err := h.service.CreateCrimeCategory(ctx, requestcontext.ActorID(ctx), req.Name, req.Description)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, category)
}

// HandleUpdateCrimeCategory handles PUT /crime-categories/{categoryID}.
func (h *Handler) HandleUpdateCrimeCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categoryID, err := id.ParseCrimeCategoryID(chi.URLParam(r, "categoryID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid category id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[crimeCategoryRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	category, err := h.service.UpdateCrimeCategory(ctx, requestcontext.ActorID(ctx), categoryID, req.Name, req.Description)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, category)
}

// HandleDeleteCrimeCategory handles DELETE /crime-categories/{categoryID}.
func (h *Handler) HandleDeleteCrimeCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categoryID, err := id.ParseCrimeCategoryID(chi.URLParam(r, "categoryID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid category id"))
		return
	}

	if err := h.service.DeleteCrimeCategory(ctx, requestcontext.ActorID(ctx), categoryID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListCrimeTypes handles GET /crime-types.
func (h *Handler) HandleListCrimeTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.ListCrimeTypes(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if types == nil {
		types = []models.CrimeType{}
	}
	httputil.WriteJSON(w, http.StatusOK, types)
}

// HandleCreateCrimeType handles POST /crime-types.
func (h *Handler) HandleCreateCrimeType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[crimeTypeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	categoryID, err := req.parsedCategory()
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid category id"))
		return
	}

	crimeType, err := h.service.CreateCrimeType(ctx, requestcontext.ActorID(ctx), req.Name, req.Description, categoryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, crimeType)
}

// HandleUpdateCrimeType handles PUT /crime-types/{typeID}.
func (h *Handler) HandleUpdateCrimeType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	typeID, err := id.ParseCrimeTypeID(chi.URLParam(r, "typeID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid type id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[crimeTypeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	categoryID, err := req.parsedCategory()
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid category id"))
		return
	}

	crimeType, err := h.service.UpdateCrimeType(ctx, requestcontext.ActorID(ctx), typeID, req.Name, req.Description, categoryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, crimeType)
}

// HandleDeleteCrimeType handles DELETE /crime-types/{typeID}.
func (h *Handler) HandleDeleteCrimeType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	typeID, err := id.ParseCrimeTypeID(chi.URLParam(r, "typeID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid type id"))
		return
	}

	if err := h.service.DeleteCrimeType(ctx, requestcontext.ActorID(ctx), typeID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
