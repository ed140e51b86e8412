// Package service implements the person lifecycle: registration, scoped
// reads and search, the in-process state machine, and deletion.
package service

import (
	"context"
	"errors"
	"log/slog"

	actormodels "reestr/internal/actor/models"
	"reestr/internal/audit"
	"reestr/internal/authz"
	"reestr/internal/person/models"
	"reestr/internal/platform/metrics"
	refmodels "reestr/internal/refdata/models"
	id "reestr/pkg/domain"
	dErrors "reestr/pkg/domain-errors"
	"reestr/pkg/platform/sentinel"
	"reestr/pkg/requestcontext"
)

// PersonStore persists person records.
type PersonStore interface {
	Create(ctx context.Context, p *models.Person) error
	Update(ctx context.Context, p *models.Person) error
	Delete(ctx context.Context, personID id.PersonID) error
	FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error)
	List(ctx context.Context, scope models.Scope) ([]models.Person, error)
	ListInProcess(ctx context.Context, scope models.Scope) ([]models.Person, error)
	Search(ctx context.Context, scope models.Scope, filter models.SearchFilter) ([]models.Person, error)
}

// ActorDirectory resolves the calling actor. The actor is looked up fresh
// on every call so role or jurisdiction changes take effect immediately.
type ActorDirectory interface {
	FindByID(ctx context.Context, actorID id.ActorID) (*actormodels.Actor, error)
}

// ReferenceData resolves jurisdiction and crime records for validation and
// name denormalization.
type ReferenceData interface {
	FindDistrict(ctx context.Context, districtID id.DistrictID) (*refmodels.District, error)
	FindMahalla(ctx context.Context, mahallaID id.MahallaID) (*refmodels.Mahalla, error)
	FindCrimeCategory(ctx context.Context, categoryID id.CrimeCategoryID) (*refmodels.CrimeCategory, error)
	FindCrimeType(ctx context.Context, typeID id.CrimeTypeID) (*refmodels.CrimeType, error)
}

// Auditor records audit events.
type Auditor interface {
	Record(ctx context.Context, event audit.Event)
}

// Service is the person module's business logic.
type Service struct {
	persons PersonStore
	actors  ActorDirectory
	refdata ReferenceData
	auditor Auditor
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(persons PersonStore, actors ActorDirectory, refdata ReferenceData,
	auditor Auditor, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		persons: persons,
		actors:  actors,
		refdata: refdata,
		auditor: auditor,
		metrics: m,
		logger:  logger,
	}
}

// RegisterInput carries the fields for a new person record.
type RegisterInput struct {
	FirstName  string
	LastName   string
	MiddleName string
	BirthDate  string

	PassportSerial string
	PassportNumber string
	CarInfo        string

	DistrictID id.DistrictID
	MahallaID  id.MahallaID

	CrimeCategoryID id.CrimeCategoryID
	CrimeTypeID     id.CrimeTypeID

	AdditionalInfo string
	PhotoURL       string
	FingerprintURL string
}

// Register creates a person record. District-bound actors have their own
// jurisdiction forced onto the record regardless of the submitted values,
// and the record always starts outside the in-process state.
func (s *Service) Register(ctx context.Context, actorID id.ActorID, input RegisterInput) (*models.Person, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.denyOr(ctx, actor, authz.Authorize(actor, authz.ActionPersonCreate, nil, nil)); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	p := &models.Person{
		ID:                id.NewPersonID(),
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		MiddleName:        input.MiddleName,
		BirthDate:         input.BirthDate,
		PassportSerial:    input.PassportSerial,
		PassportNumber:    input.PassportNumber,
		CarInfo:           input.CarInfo,
		DistrictID:        input.DistrictID,
		MahallaID:         input.MahallaID,
		CrimeCategoryID:   input.CrimeCategoryID,
		CrimeTypeID:       input.CrimeTypeID,
		AdditionalInfo:    input.AdditionalInfo,
		PhotoURL:          input.PhotoURL,
		FingerprintURL:    input.FingerprintURL,
		RegisteredBy:      actor.ID,
		RegisteredByName:  actor.FullName,
		RegisteredByPhone: actor.PhoneNumber,
		RegisteredAt:      now,
		UpdatedAt:         now,
	}
	forceJurisdiction(actor, p)

	p.NormalizePassport()
	if err := p.ValidateIdentity(); err != nil {
		return nil, err
	}
	if err := s.resolveNames(ctx, p); err != nil {
		return nil, err
	}

	if err := s.persons.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.NewWithReason(dErrors.CodeConflict, dErrors.ReasonDuplicate,
				"a person with this passport is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create person")
	}

	s.metrics.IncrementPersonsRegistered()
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionPersonRegistered,
		ActorID:   actor.ID.String(),
		ActorName: actor.FullName,
		Subject:   "person",
		SubjectID: p.ID.String(),
	})
	s.logger.InfoContext(ctx, "person registered",
		"actor_id", actor.ID,
		"person_id", p.ID,
		"district_id", p.DistrictID,
	)
	return p, nil
}

// Get returns a single person if the record is within the caller's reach.
func (s *Service) Get(ctx context.Context, actorID id.ActorID, personID id.PersonID) (*models.Person, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	p, err := s.findPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if err := s.denyOr(ctx, actor, authz.Authorize(actor, authz.ActionPersonRead, p, nil)); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns persons visible to the caller, most recently registered
// first.
func (s *Service) List(ctx context.Context, actorID id.ActorID) ([]models.Person, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	persons, err := s.persons.List(ctx, authz.PersonListScope(actor))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list persons")
	}
	return persons, nil
}

// ListInProcess returns in-process persons visible to the caller, most
// recently processed first.
func (s *Service) ListInProcess(ctx context.Context, actorID id.ActorID) ([]models.Person, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	persons, err := s.persons.ListInProcess(ctx, authz.PersonListScope(actor))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list persons in process")
	}
	return persons, nil
}

// Search applies the caller's mandatory scope, then the submitted filters.
// Jurisdiction filters beyond the caller's reach are dropped, never
// honored.
func (s *Service) Search(ctx context.Context, actorID id.ActorID, filter models.SearchFilter) ([]models.Person, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	filter = authz.ApplySearchOverrides(actor, filter)
	persons, err := s.persons.Search(ctx, authz.PersonListScope(actor), filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search persons")
	}
	return persons, nil
}

// UpdateInput carries the mutable person fields. Nil pointers leave the
// current value untouched. Registration stamps and process state are not
// updatable through this path.
type UpdateInput struct {
	FirstName  *string
	LastName   *string
	MiddleName *string
	BirthDate  *string

	PassportSerial *string
	PassportNumber *string
	CarInfo        *string

	DistrictID *id.DistrictID
	MahallaID  *id.MahallaID

	CrimeCategoryID *id.CrimeCategoryID
	CrimeTypeID     *id.CrimeTypeID

	AdditionalInfo *string
	PhotoURL       *string
	FingerprintURL *string
}

// Update modifies a person record. The caller must be entitled to the
// record both before and after the change, so a record cannot be moved out
// of the caller's jurisdiction.
func (s *Service) Update(ctx context.Context, actorID id.ActorID, personID id.PersonID, input UpdateInput) (*models.Person, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	p, err := s.findPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if err := s.denyOr(ctx, actor, authz.Authorize(actor, authz.ActionPersonUpdate, p, nil)); err != nil {
		return nil, err
	}

	applyUpdate(p, input)
	if err := s.denyOr(ctx, actor, authz.Authorize(actor, authz.ActionPersonUpdate, p, nil)); err != nil {
		return nil, err
	}

	p.NormalizePassport()
	if err := p.ValidateIdentity(); err != nil {
		return nil, err
	}
	if err := s.resolveNames(ctx, p); err != nil {
		return nil, err
	}

	p.UpdatedAt = requestcontext.Now(ctx)
	if err := s.persons.Update(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.NewWithReason(dErrors.CodeConflict, dErrors.ReasonDuplicate,
				"a person with this passport is already registered")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update person")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionPersonUpdated,
		ActorID:   actor.ID.String(),
		ActorName: actor.FullName,
		Subject:   "person",
		SubjectID: p.ID.String(),
	})
	return p, nil
}

// AddToProcess moves a person into the in-process state, stamping who
// started the process and when.
func (s *Service) AddToProcess(ctx context.Context, actorID id.ActorID, personID id.PersonID) (*models.Person, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	p, err := s.findPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if err := s.denyOr(ctx, actor, authz.Authorize(actor, authz.ActionPersonAddToProcess, p, nil)); err != nil {
		return nil, err
	}

	p.ApplyAddToProcess(actor.ID, actor.FullName, requestcontext.Now(ctx))
	if err := s.persons.Update(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update person")
	}

	s.metrics.IncrementProcessTransition("start")
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionPersonProcessStarted,
		ActorID:   actor.ID.String(),
		ActorName: actor.FullName,
		Subject:   "person",
		SubjectID: p.ID.String(),
	})
	s.logger.InfoContext(ctx, "person added to process",
		"actor_id", actor.ID,
		"person_id", p.ID,
	)
	return p, nil
}

// RemoveFromProcess clears the in-process state and its stamps.
func (s *Service) RemoveFromProcess(ctx context.Context, actorID id.ActorID, personID id.PersonID) (*models.Person, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	p, err := s.findPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if err := s.denyOr(ctx, actor, authz.Authorize(actor, authz.ActionPersonRemoveFromProcess, p, nil)); err != nil {
		return nil, err
	}

	p.ApplyRemoveFromProcess(requestcontext.Now(ctx))
	if err := s.persons.Update(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update person")
	}

	s.metrics.IncrementProcessTransition("clear")
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionPersonProcessCleared,
		ActorID:   actor.ID.String(),
		ActorName: actor.FullName,
		Subject:   "person",
		SubjectID: p.ID.String(),
	})
	return p, nil
}

// Delete removes a person record permanently.
func (s *Service) Delete(ctx context.Context, actorID id.ActorID, personID id.PersonID) error {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		return err
	}
	p, err := s.findPerson(ctx, personID)
	if err != nil {
		return err
	}
	if err := s.denyOr(ctx, actor, authz.Authorize(actor, authz.ActionPersonDelete, p, nil)); err != nil {
		return err
	}

	if err := s.persons.Delete(ctx, personID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete person")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionPersonDeleted,
		ActorID:   actor.ID.String(),
		ActorName: actor.FullName,
		Subject:   "person",
		SubjectID: personID.String(),
	})
	s.logger.InfoContext(ctx, "person deleted",
		"actor_id", actor.ID,
		"person_id", personID,
	)
	return nil
}

func (s *Service) findPerson(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	p, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up person")
	}
	return p, nil
}

func (s *Service) denyOr(ctx context.Context, actor *actormodels.Actor, decision authz.Decision) error {
	if decision.Allowed {
		return nil
	}
	s.metrics.IncrementAuthzDenial(string(decision.Reason()))
	s.logger.WarnContext(ctx, "authorization denied",
		"actor_id", actor.ID,
		"role", actor.Role,
		"reason", decision.Reason(),
	)
	return decision.Err()
}

// forceJurisdiction overwrites the record's jurisdiction with the actor's
// own binding. Submitted values only matter for super admins.
func forceJurisdiction(actor *actormodels.Actor, p *models.Person) {
	switch actor.Role {
	case actormodels.RoleJQBAdmin:
		if actor.DistrictID != nil {
			p.DistrictID = *actor.DistrictID
		}
	case actormodels.RoleMahallaInspector:
		if actor.DistrictID != nil {
			p.DistrictID = *actor.DistrictID
		}
		if actor.MahallaID != nil {
			p.MahallaID = *actor.MahallaID
		}
	}
}

func applyUpdate(p *models.Person, input UpdateInput) {
	if input.FirstName != nil {
		p.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		p.LastName = *input.LastName
	}
	if input.MiddleName != nil {
		p.MiddleName = *input.MiddleName
	}
	if input.BirthDate != nil {
		p.BirthDate = *input.BirthDate
	}
	if input.PassportSerial != nil {
		p.PassportSerial = *input.PassportSerial
	}
	if input.PassportNumber != nil {
		p.PassportNumber = *input.PassportNumber
	}
	if input.CarInfo != nil {
		p.CarInfo = *input.CarInfo
	}
	if input.DistrictID != nil {
		p.DistrictID = *input.DistrictID
	}
	if input.MahallaID != nil {
		p.MahallaID = *input.MahallaID
	}
	if input.CrimeCategoryID != nil {
		p.CrimeCategoryID = *input.CrimeCategoryID
	}
	if input.CrimeTypeID != nil {
		p.CrimeTypeID = *input.CrimeTypeID
	}
	if input.AdditionalInfo != nil {
		p.AdditionalInfo = *input.AdditionalInfo
	}
	if input.PhotoURL != nil {
		p.PhotoURL = *input.PhotoURL
	}
	if input.FingerprintURL != nil {
		p.FingerprintURL = *input.FingerprintURL
	}
}

// resolveNames validates the referenced records exist and are mutually
// consistent, then stamps the denormalized names.
func (s *Service) resolveNames(ctx context.Context, p *models.Person) error {
	district, err := s.refdata.FindDistrict(ctx, p.DistrictID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeValidation, "district not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve district")
	}
	p.DistrictName = district.Name

	mahalla, err := s.refdata.FindMahalla(ctx, p.MahallaID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeValidation, "mahalla not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve mahalla")
	}
	if mahalla.DistrictID != p.DistrictID {
		return dErrors.New(dErrors.CodeValidation, "mahalla does not belong to the given district")
	}
	p.MahallaName = mahalla.Name

	category, err := s.refdata.FindCrimeCategory(ctx, p.CrimeCategoryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeValidation, "crime category not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve crime category")
	}
	p.CrimeCategoryName = category.Name

	crimeType, err := s.refdata.FindCrimeType(ctx, p.CrimeTypeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeValidation, "crime type not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve crime type")
	}
	if crimeType.CategoryID != nil && *crimeType.CategoryID != p.CrimeCategoryID {
		return dErrors.New(dErrors.CodeValidation, "crime type does not belong to the given category")
	}
	p.CrimeTypeName = crimeType.Name

	return nil
}
