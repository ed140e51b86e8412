// Package service implements authentication and administrator management.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"reestr/internal/actor/models"
	"reestr/internal/audit"
	"reestr/internal/authz"
	"reestr/internal/platform/metrics"
	refmodels "reestr/internal/refdata/models"
	id "reestr/pkg/domain"
	dErrors "reestr/pkg/domain-errors"
	"reestr/pkg/platform/sentinel"
	"reestr/pkg/requestcontext"
)

// ActorStore persists administrator accounts.
type ActorStore interface {
	Create(ctx context.Context, a *models.Actor) error
	Update(ctx context.Context, a *models.Actor) error
	Delete(ctx context.Context, actorID id.ActorID) error
	FindByID(ctx context.Context, actorID id.ActorID) (*models.Actor, error)
	FindByLogin(ctx context.Context, login string) (*models.Actor, error)
	List(ctx context.Context) ([]models.Actor, error)
	ListByDistrict(ctx context.Context, districtID id.DistrictID) ([]models.Actor, error)
}

// Jurisdictions resolves district and mahalla records for denormalization.
type Jurisdictions interface {
	FindDistrict(ctx context.Context, districtID id.DistrictID) (*refmodels.District, error)
	FindMahalla(ctx context.Context, mahallaID id.MahallaID) (*refmodels.Mahalla, error)
}

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	Generate(actorID id.ActorID, now time.Time) (string, error)
	TTL() time.Duration
}

// Revoker invalidates a token before its natural expiry.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// Auditor records audit events.
type Auditor interface {
	Record(ctx context.Context, event audit.Event)
}

// Service is the actor module's business logic.
type Service struct {
	actors        ActorStore
	jurisdictions Jurisdictions
	tokens        TokenIssuer
	revocations   Revoker
	auditor       Auditor
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func New(actors ActorStore, jurisdictions Jurisdictions, tokens TokenIssuer,
	revocations Revoker, auditor Auditor, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		actors:        actors,
		jurisdictions: jurisdictions,
		tokens:        tokens,
		revocations:   revocations,
		auditor:       auditor,
		metrics:       m,
		logger:        logger,
	}
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, login, password string) (string, *models.Actor, error) {
	if login == "" || password == "" {
		return "", nil, dErrors.New(dErrors.CodeValidation, "login and password are required")
	}

	actor, err := s.actors.FindByLogin(ctx, login)
	if err != nil {
		// Unknown login and wrong password produce the same error so the
		// response does not reveal which logins exist.
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementLoginAttempt("failure")
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid login or password")
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up actor")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(password)); err != nil {
		s.metrics.IncrementLoginAttempt("failure")
		s.logger.WarnContext(ctx, "failed login attempt", "login", login)
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid login or password")
	}

	token, err := s.tokens.Generate(actor.ID, requestcontext.Now(ctx))
	if err != nil {
		return "", nil, err
	}

	s.metrics.IncrementLoginAttempt("success")
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionLogin,
		ActorID:   actor.ID.String(),
		ActorName: actor.FullName,
	})
	return token, actor, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, actorID id.ActorID) error {
	jti := requestcontext.TokenJTI(ctx)
	if jti == "" {
		return nil
	}
	if err := s.revocations.Revoke(ctx, jti, s.tokens.TTL()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.auditor.Record(ctx, audit.Event{
		Action:  audit.ActionLogout,
		ActorID: actorID.String(),
	})
	return nil
}

// Me returns the calling actor's own account.
func (s *Service) Me(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	return s.resolveActor(ctx, actorID)
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, actorID id.ActorID, current, next string) error {
	if len(next) < 6 {
		return dErrors.New(dErrors.CodeValidation, "new password must be at least 6 characters")
	}

	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(current)); err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	actor.PasswordHash = string(hash)
	actor.UpdatedAt = requestcontext.Now(ctx)
	if err := s.actors.Update(ctx, actor); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update actor")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionPasswordChange,
		ActorID:   actor.ID.String(),
		ActorName: actor.FullName,
	})
	return nil
}

// CreateAdminInput carries the fields for a new administrator account.
type CreateAdminInput struct {
	Login       string
	Password    string
	FullName    string
	PhoneNumber string
	Role        models.Role
	DistrictID  *id.DistrictID
	MahallaID   *id.MahallaID
}

// CreateAdmin registers a new administrator account.
func (s *Service) CreateAdmin(ctx context.Context, actorID id.ActorID, input CreateAdminInput) (*models.Actor, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	target := &models.Actor{
		ID:          id.NewActorID(),
		Login:       strings.TrimSpace(input.Login),
		FullName:    strings.TrimSpace(input.FullName),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		Role:        input.Role,
		DistrictID:  input.DistrictID,
		MahallaID:   input.MahallaID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.denyOr(ctx, actor, authz.Authorize(actor, authz.ActionAdminCreate, nil, target)); err != nil {
		return nil, err
	}
	if err := validateAdminFields(target, input.Password); err != nil {
		return nil, err
	}
	if err := s.resolveJurisdictionNames(ctx, target); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	target.PasswordHash = string(hash)

	if err := s.actors.Create(ctx, target); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.NewWithReason(dErrors.CodeConflict, dErrors.ReasonDuplicate, "login is already in use")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create actor")
	}

	s.metrics.IncrementAdminsCreated()
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionAdminCreated,
		ActorID:   actor.ID.String(),
		ActorName: actor.FullName,
		Subject:   "actor",
		SubjectID: target.ID.String(),
		Detail:    string(target.Role),
	})
	s.logger.InfoContext(ctx, "admin created",
		"actor_id", actor.ID,
		"target_id", target.ID,
		"role", target.Role,
	)
	return target, nil
}

// UpdateAdminInput carries the mutable administrator fields. Nil pointers
// leave the current value untouched; Password empty keeps the current hash.
type UpdateAdminInput struct {
	Login       *string
	Password    string
	FullName    *string
	PhoneNumber *string
	Role        *models.Role
	DistrictID  *id.DistrictID
	MahallaID   *id.MahallaID
}

// UpdateAdmin modifies an existing administrator account. The caller must
// be entitled to manage both the account's current shape and its new one,
// so a district admin cannot move an inspector out of its own district.
func (s *Service) UpdateAdmin(ctx context.Context, actorID, targetID id.ActorID, input UpdateAdminInput) (*models.Actor, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	target, err := s.findAdmin(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.denyOr(ctx, actor, authz.Authorize(actor, authz.ActionAdminUpdate, nil, target)); err != nil {
		return nil, err
	}

	if input.Login != nil {
		target.Login = strings.TrimSpace(*input.Login)
	}
	if input.FullName != nil {
		target.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.PhoneNumber != nil {
		target.PhoneNumber = strings.TrimSpace(*input.PhoneNumber)
	}
	if input.Role != nil {
		target.Role = *input.Role
	}
	if input.DistrictID != nil {
		target.DistrictID = input.DistrictID
	}
	if input.MahallaID != nil {
		target.MahallaID = input.MahallaID
	}
	if target.Role == models.RoleSuperAdmin {
		target.DistrictID = nil
		target.MahallaID = nil
	}
	if target.Role == models.RoleJQBAdmin {
		target.MahallaID = nil
	}

	if err := s.denyOr(ctx, actor, authz.Authorize(actor, authz.ActionAdminUpdate, nil, target)); err != nil {
		return nil, err
	}
	if err := validateAdminFields(target, ""); err != nil {
		return nil, err
	}
	if input.Password != "" {
		if len(input.Password) < 6 {
			return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		}
		target.PasswordHash = string(hash)
	}
	if err := s.resolveJurisdictionNames(ctx, target); err != nil {
		return nil, err
	}

	target.UpdatedAt = requestcontext.Now(ctx)
	if err := s.actors.Update(ctx, target); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.NewWithReason(dErrors.CodeConflict, dErrors.ReasonDuplicate, "login is already in use")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "actor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update actor")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionAdminUpdated,
		ActorID:   actor.ID.String(),
		ActorName: actor.FullName,
		Subject:   "actor",
		SubjectID: target.ID.String(),
	})
	return target, nil
}

// DeleteAdmin removes an administrator account. Self-deletion is refused
// for every role; super admin accounts are protected from deletion
// entirely.
func (s *Service) DeleteAdmin(ctx context.Context, actorID, targetID id.ActorID) error {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return err
	}
	target, err := s.findAdmin(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.denyOr(ctx, actor, authz.Authorize(actor, authz.ActionAdminDelete, nil, target)); err != nil {
		return err
	}

	if err := s.actors.Delete(ctx, targetID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "actor not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete actor")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionAdminDeleted,
		ActorID:   actor.ID.String(),
		ActorName: actor.FullName,
		Subject:   "actor",
		SubjectID: targetID.String(),
		Detail:    string(target.Role),
	})
	s.logger.InfoContext(ctx, "admin deleted",
		"actor_id", actor.ID,
		"target_id", targetID,
	)
	return nil
}

// ListAdmins returns the accounts visible to the caller: every account for
// a super admin, the mahalla inspectors of the caller's own district for a
// JQB admin.
func (s *Service) ListAdmins(ctx context.Context, actorID id.ActorID) ([]models.Actor, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.denyOr(ctx, actor, authz.Authorize(actor, authz.ActionAdminList, nil, nil)); err != nil {
		return nil, err
	}

	if actor.Role == models.RoleJQBAdmin {
		district, err := s.actors.ListByDistrict(ctx, *actor.DistrictID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list actors")
		}
		inspectors := make([]models.Actor, 0, len(district))
		for _, a := range district {
			if a.Role == models.RoleMahallaInspector {
				inspectors = append(inspectors, a)
			}
		}
		return inspectors, nil
	}

	actors, err := s.actors.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list actors")
	}
	return actors, nil
}

// FindByID resolves an actor for other modules; it satisfies their
// ActorDirectory interfaces.
func (s *Service) FindByID(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	return s.resolveActor(ctx, actorID)
}

// resolveActor loads the calling actor. A token whose account no longer
// exists is treated as unauthorized, not as a missing record.
func (s *Service) resolveActor(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up actor")
	}
	return actor, nil
}

func (s *Service) findAdmin(ctx context.Context, targetID id.ActorID) (*models.Actor, error) {
	target, err := s.actors.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "actor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up actor")
	}
	return target, nil
}

// denyOr logs and counts a denial before returning it.
func (s *Service) denyOr(ctx context.Context, actor *models.Actor, decision authz.Decision) error {
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

func validateAdminFields(target *models.Actor, password string) error {
	switch {
	case target.Login == "":
		return dErrors.New(dErrors.CodeValidation, "login is required")
	case target.FullName == "":
		return dErrors.New(dErrors.CodeValidation, "full name is required")
	case !target.Role.Valid():
		return dErrors.New(dErrors.CodeValidation, "unknown role")
	}
	if password != "" && len(password) < 6 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}
	if password == "" && target.PasswordHash == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return target.ValidateJurisdiction()
}

// resolveJurisdictionNames loads the district and mahalla records, checks
// their relationship, and stamps the denormalized names.
func (s *Service) resolveJurisdictionNames(ctx context.Context, target *models.Actor) error {
	target.DistrictName = ""
	target.MahallaName = ""

	if target.DistrictID != nil {
		district, err := s.jurisdictions.FindDistrict(ctx, *target.DistrictID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeValidation, "district not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve district")
		}
		target.DistrictName = district.Name
	}
	if target.MahallaID != nil {
		mahalla, err := s.jurisdictions.FindMahalla(ctx, *target.MahallaID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeValidation, "mahalla not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve mahalla")
		}
		if target.DistrictID == nil || mahalla.DistrictID != *target.DistrictID {
			return dErrors.New(dErrors.CodeValidation, "mahalla does not belong to the given district")
		}
		target.MahallaName = mahalla.Name
	}
	return nil
}
