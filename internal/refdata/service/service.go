// Package service implements reference-data management: districts,
// mahallas, crime categories and crime types. Mutations are restricted to
// super admins; reads are open to any authenticated actor.
package service

import (
	"context"
	"errors"
	"log/slog"

	actormodels "reestr/internal/actor/models"
	"reestr/internal/audit"
	"reestr/internal/authz"
	"reestr/internal/platform/metrics"
	"reestr/internal/refdata/models"
	id "reestr/pkg/domain"
	dErrors "reestr/pkg/domain-errors"
	"reestr/pkg/platform/sentinel"
	"reestr/pkg/requestcontext"
)

// Store persists reference data.
type Store interface {
	CreateDistrict(ctx context.Context, d *models.District) error
	FindDistrict(ctx context.Context, districtID id.DistrictID) (*models.District, error)
	ListDistricts(ctx context.Context) ([]models.District, error)

	CreateMahalla(ctx context.Context, m *models.Mahalla) error
	FindMahalla(ctx context.Context, mahallaID id.MahallaID) (*models.Mahalla, error)
	ListMahallasByDistrict(ctx context.Context, districtID id.DistrictID) ([]models.Mahalla, error)

	CreateCrimeCategory(ctx context.Context, c *models.CrimeCategory) error
	UpdateCrimeCategory(ctx context.Context, c *models.CrimeCategory) error
	DeleteCrimeCategory(ctx context.Context, categoryID id.CrimeCategoryID) error
	FindCrimeCategory(ctx context.Context, categoryID id.CrimeCategoryID) (*models.CrimeCategory, error)
	ListCrimeCategories(ctx context.Context) ([]models.CrimeCategory, error)

	CreateCrimeType(ctx context.Context, c *models.CrimeType) error
	UpdateCrimeType(ctx context.Context, c *models.CrimeType) error
	DeleteCrimeType(ctx context.Context, typeID id.CrimeTypeID) error
	FindCrimeType(ctx context.Context, typeID id.CrimeTypeID) (*models.CrimeType, error)
	ListCrimeTypes(ctx context.Context) ([]models.CrimeType, error)
}

// ActorDirectory resolves the calling actor.
type ActorDirectory interface {
	FindByID(ctx context.Context, actorID id.ActorID) (*actormodels.Actor, error)
}

// Auditor records audit events.
type Auditor interface {
	Record(ctx context.Context, event audit.Event)
}

// Service is the reference-data business logic.
type Service struct {
	store   Store
	actors  ActorDirectory
	auditor Auditor
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(store Store, actors ActorDirectory, auditor Auditor, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, actors: actors, auditor: auditor, metrics: m, logger: logger}
}

// requireManager resolves the actor and checks the refdata.manage grant.
func (s *Service) requireManager(ctx context.Context, actorID id.ActorID) (*actormodels.Actor, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	decision := authz.Authorize(actor, authz.ActionRefDataManage, nil, nil)
	if !decision.Allowed {
		s.metrics.IncrementAuthzDenial(string(decision.Reason()))
		s.logger.WarnContext(ctx, "authorization denied",
			"actor_id", actor.ID,
			"role", actor.Role,
			"reason", decision.Reason(),
		)
		return nil, decision.Err()
	}
	return actor, nil
}

func (s *Service) recordChange(ctx context.Context, actor *actormodels.Actor, action audit.Action, subject, subjectID string) {
	s.auditor.Record(ctx, audit.Event{
		Action:    action,
		ActorID:   actor.ID.String(),
		ActorName: actor.FullName,
		Subject:   subject,
		SubjectID: subjectID,
	})
}

// CreateDistrict registers a new district.
func (s *Service) CreateDistrict(ctx context.Context, actorID id.ActorID, name, code string) (*models.District, error) {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return nil, err
	}

	d := &models.District{
		ID:        id.NewDistrictID(),
		Name:      name,
		Code:      code,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateDistrict(ctx, d); err != nil {
		return nil, translateStoreErr(err, "district")
	}
	s.recordChange(ctx, actor, audit.ActionRefDataCreated, "district", d.ID.String())
	return d, nil
}

// ListDistricts returns all districts sorted by name.
func (s *Service) ListDistricts(ctx context.Context) ([]models.District, error) {
	districts, err := s.store.ListDistricts(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list districts")
	}
	return districts, nil
}

// CreateMahalla registers a new mahalla within a district.
func (s *Service) CreateMahalla(ctx context.Context, actorID id.ActorID, name string, districtID id.DistrictID) (*models.Mahalla, error) {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return nil, err
	}

	m := &models.Mahalla{
		ID:         id.NewMahallaID(),
		Name:       name,
		DistrictID: districtID,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateMahalla(ctx, m); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "district not found")
		}
		return nil, translateStoreErr(err, "mahalla")
	}
	s.recordChange(ctx, actor, audit.ActionRefDataCreated, "mahalla", m.ID.String())
	return m, nil
}

// ListMahallas returns the mahallas of a district sorted by name.
func (s *Service) ListMahallas(ctx context.Context, districtID id.DistrictID) ([]models.Mahalla, error) {
	mahallas, err := s.store.ListMahallasByDistrict(ctx, districtID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list mahallas")
	}
	return mahallas, nil
}

// CreateCrimeCategory registers a new crime category.
func (s *Service) CreateCrimeCategory(ctx context.Context, actorID id.ActorID, name, description string) (*models.CrimeCategory, error) {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return nil, err
	}

	c := &models.CrimeCategory{
		ID:          id.NewCrimeCategoryID(),
		Name:        name,
		Description: description,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateCrimeCategory(ctx, c); err != nil {
		return nil, translateStoreErr(err, "crime category")
	}
	s.recordChange(ctx, actor, audit.ActionRefDataCreated, "crime_category", c.ID.String())
	return c, nil
}

// UpdateCrimeCategory renames or redescribes a crime category.
func (s *Service) UpdateCrimeCategory(ctx context.Context, actorID id.ActorID, categoryID id.CrimeCategoryID, name, description string) (*models.CrimeCategory, error) {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return nil, err
	}

	c, err := s.store.FindCrimeCategory(ctx, categoryID)
	if err != nil {
		return nil, translateStoreErr(err, "crime category")
	}
	c.Name = name
	c.Description = description
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCrimeCategory(ctx, c); err != nil {
		return nil, translateStoreErr(err, "crime category")
	}
	s.recordChange(ctx, actor, audit.ActionRefDataUpdated, "crime_category", c.ID.String())
	return c, nil
}

// DeleteCrimeCategory removes a crime category.
func (s *Service) DeleteCrimeCategory(ctx context.Context, actorID id.ActorID, categoryID id.CrimeCategoryID) error {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCrimeCategory(ctx, categoryID); err != nil {
		return translateStoreErr(err, "crime category")
	}
	s.recordChange(ctx, actor, audit.ActionRefDataDeleted, "crime_category", categoryID.String())
	return nil
}

// ListCrimeCategories returns all crime categories sorted by name.
func (s *Service) ListCrimeCategories(ctx context.Context) ([]models.CrimeCategory, error) {
	categories, err := s.store.ListCrimeCategories(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list crime categories")
	}
	return categories, nil
}

// CreateCrimeType registers a new crime type, optionally under a category.
func (s *Service) CreateCrimeType(ctx context.Context, actorID id.ActorID, name, description string, categoryID *id.CrimeCategoryID) (*models.CrimeType, error) {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return nil, err
	}

	c := &models.CrimeType{
		ID:          id.NewCrimeTypeID(),
		Name:        name,
		Description: description,
		CategoryID:  categoryID,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if categoryID != nil {
		if _, err := s.store.FindCrimeCategory(ctx, *categoryID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeValidation, "crime category not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve crime category")
		}
	}
	if err := s.store.CreateCrimeType(ctx, c); err != nil {
		return nil, translateStoreErr(err, "crime type")
	}
	s.recordChange(ctx, actor, audit.ActionRefDataCreated, "crime_type", c.ID.String())
	return c, nil
}

// UpdateCrimeType renames or recategorizes a crime type.
func (s *Service) UpdateCrimeType(ctx context.Context, actorID id.ActorID, typeID id.CrimeTypeID, name, description string, categoryID *id.CrimeCategoryID) (*models.CrimeType, error) {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return nil, err
	}

	c, err := s.store.FindCrimeType(ctx, typeID)
	if err != nil {
		return nil, translateStoreErr(err, "crime type")
	}
	c.Name = name
	c.Description = description
	c.CategoryID = categoryID
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCrimeType(ctx, c); err != nil {
		return nil, translateStoreErr(err, "crime type")
	}
	s.recordChange(ctx, actor, audit.ActionRefDataUpdated, "crime_type", c.ID.String())
	return c, nil
}

// DeleteCrimeType removes a crime type.
func (s *Service) DeleteCrimeType(ctx context.Context, actorID id.ActorID, typeID id.CrimeTypeID) error {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCrimeType(ctx, typeID); err != nil {
		return translateStoreErr(err, "crime type")
	}
	s.recordChange(ctx, actor, audit.ActionRefDataDeleted, "crime_type", typeID.String())
	return nil
}

// ListCrimeTypes returns all crime types sorted by name.
func (s *Service) ListCrimeTypes(ctx context.Context) ([]models.CrimeType, error) {
	types, err := s.store.ListCrimeTypes(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list crime types")
	}
	return types, nil
}

func translateStoreErr(err error, subject string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, subject+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.NewWithReason(dErrors.CodeConflict, dErrors.ReasonDuplicate, subject+" already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "reference data operation failed")
}
