// Package authz is the single source of truth for access control.
//
// Every service operation consults Authorize before touching a record. The
// engine is a pure function over (actor, action, target): no storage, no
// context, no clock. Role checks that used to be scattered inline across
// handlers live here once, so the rules cannot drift between call sites.
package authz

import (
	actormodels "reestr/internal/actor/models"
	personmodels "reestr/internal/person/models"
	dErrors "reestr/pkg/domain-errors"
)

// Action enumerates every policy-gated operation.
type Action string

const (
	ActionPersonCreate            Action = "person.create"
	ActionPersonRead              Action = "person.read"
	ActionPersonUpdate            Action = "person.update"
	ActionPersonAddToProcess      Action = "person.add_to_process"
	ActionPersonRemoveFromProcess Action = "person.remove_from_process"
	ActionPersonDelete            Action = "person.delete"

	ActionAdminCreate Action = "admin.create"
	ActionAdminUpdate Action = "admin.update"
	ActionAdminDelete Action = "admin.delete"
	ActionAdminList   Action = "admin.list"

	ActionRefDataManage Action = "refdata.manage"
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	code    dErrors.Code
	reason  dErrors.Reason
	message string
}

// Allow is the permissive decision.
var Allow = Decision{Allowed: true}

// Deny constructs a forbidden decision with a stable reason.
func Deny(reason dErrors.Reason, message string) Decision {
	return Decision{code: dErrors.CodeForbidden, reason: reason, message: message}
}

// DenyConflict constructs a state-precondition decision. Transition
// preconditions are conflicts, not permission failures: the actor was
// allowed, the record's state was not.
func DenyConflict(reason dErrors.Reason, message string) Decision {
	return Decision{code: dErrors.CodeConflict, reason: reason, message: message}
}

// Err converts a decision into a domain error, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return dErrors.NewWithReason(d.code, d.reason, d.message)
}

// Reason exposes the denial reason for logging and metrics.
func (d Decision) Reason() dErrors.Reason { return d.reason }

// PersonTarget is the slice of a person record the engine needs.
type PersonTarget = personmodels.Person

// Authorize evaluates whether actor may perform action. Person actions take
// a *PersonTarget (nil for create); admin actions take the target actor
// (nil for create/list, where AuthorizeAdminCreate carries the payload).
func Authorize(actor *actormodels.Actor, action Action, person *PersonTarget, admin *actormodels.Actor) Decision {
	switch action {
	case ActionPersonCreate:
		// Any authenticated actor may register a person; jurisdiction
		// forcing happens at creation time in the service.
		return Allow

	case ActionPersonRead:
		return personRead(actor, person)

	case ActionPersonUpdate:
		return personUpdate(actor, person)

	case ActionPersonAddToProcess:
		return personAddToProcess(actor, person)

	case ActionPersonRemoveFromProcess:
		return personRemoveFromProcess(actor, person)

	case ActionPersonDelete:
		if actor.Role != actormodels.RoleSuperAdmin {
			return Deny(dErrors.ReasonForbiddenRole, "only a super admin may delete persons")
		}
		return Allow

	case ActionAdminCreate, ActionAdminUpdate:
		return adminManage(actor, admin)

	case ActionAdminDelete:
		return adminDelete(actor, admin)

	case ActionAdminList:
		if actor.Role == actormodels.RoleMahallaInspector {
			return Deny(dErrors.ReasonForbiddenRole, "inspectors may not list admins")
		}
		return Allow

	case ActionRefDataManage:
		if actor.Role != actormodels.RoleSuperAdmin {
			return Deny(dErrors.ReasonForbiddenRole, "only a super admin may manage reference data")
		}
		return Allow
	}
	return Deny(dErrors.ReasonForbiddenRole, "unknown action")
}

func personRead(actor *actormodels.Actor, target *PersonTarget) Decision {
	switch actor.Role {
	case actormodels.RoleSuperAdmin:
		return Allow
	case actormodels.RoleJQBAdmin:
		if actor.InDistrict(target.DistrictID) {
			return Allow
		}
		return Deny(dErrors.ReasonForbiddenJurisdiction, "person is outside your district")
	case actormodels.RoleMahallaInspector:
		if actor.InMahalla(target.MahallaID) {
			return Allow
		}
		return Deny(dErrors.ReasonForbiddenJurisdiction, "person is outside your mahalla")
	}
	return Deny(dErrors.ReasonForbiddenRole, "unknown role")
}

func personUpdate(actor *actormodels.Actor, target *PersonTarget) Decision {
	switch actor.Role {
	case actormodels.RoleSuperAdmin:
		return Allow
	case actormodels.RoleJQBAdmin:
		if actor.InDistrict(target.DistrictID) {
			return Allow
		}
		return Deny(dErrors.ReasonForbiddenJurisdiction, "person is outside your district")
	case actormodels.RoleMahallaInspector:
		// Ownership-based: inspectors may edit only records they
		// registered, not everything in their mahalla.
		if target.RegisteredBy == actor.ID {
			return Allow
		}
		return Deny(dErrors.ReasonForbiddenJurisdiction, "you may only edit persons you registered")
	}
	return Deny(dErrors.ReasonForbiddenRole, "unknown role")
}

func personAddToProcess(actor *actormodels.Actor, target *PersonTarget) Decision {
	switch actor.Role {
	case actormodels.RoleSuperAdmin:
		// Role passes; fall through to the state precondition.
	case actormodels.RoleJQBAdmin:
		if !actor.InDistrict(target.DistrictID) {
			return Deny(dErrors.ReasonForbiddenJurisdiction, "person is outside your district")
		}
	default:
		return Deny(dErrors.ReasonForbiddenRole, "inspectors may not start processing")
	}
	if err := target.CanAddToProcess(); err != nil {
		return DenyConflict(dErrors.ReasonAlreadyInProcess, "person is already in process")
	}
	return Allow
}

func personRemoveFromProcess(actor *actormodels.Actor, target *PersonTarget) Decision {
	if actor.Role != actormodels.RoleSuperAdmin {
		return Deny(dErrors.ReasonForbiddenRole, "only a super admin may remove a person from process")
	}
	if err := target.CanRemoveFromProcess(); err != nil {
		return DenyConflict(dErrors.ReasonNotInProcess, "person is not in process")
	}
	return Allow
}

// adminManage covers create and update: SUPER_ADMIN unrestricted; JQB_ADMIN
// may manage only mahalla inspectors bound to its own district.
func adminManage(actor *actormodels.Actor, target *actormodels.Actor) Decision {
	switch actor.Role {
	case actormodels.RoleSuperAdmin:
		return Allow
	case actormodels.RoleJQBAdmin:
		if target == nil {
			return Deny(dErrors.ReasonForbiddenRole, "target admin required")
		}
		if target.Role != actormodels.RoleMahallaInspector {
			return Deny(dErrors.ReasonForbiddenRole, "JQB admins may only manage mahalla inspectors")
		}
		if target.DistrictID == nil || !actor.InDistrict(*target.DistrictID) {
			return Deny(dErrors.ReasonForbiddenJurisdiction, "inspector must belong to your district")
		}
		return Allow
	}
	return Deny(dErrors.ReasonForbiddenRole, "inspectors may not manage admins")
}

func adminDelete(actor *actormodels.Actor, target *actormodels.Actor) Decision {
	if target == nil {
		return Deny(dErrors.ReasonForbiddenRole, "target admin required")
	}
	// Self-delete is denied for every role, including super admins.
	if target.ID == actor.ID {
		return Deny(dErrors.ReasonSelfDeleteDenied, "cannot delete your own account")
	}
	// Super admin accounts cannot be deleted by anyone.
	if target.Role == actormodels.RoleSuperAdmin {
		return Deny(dErrors.ReasonProtectedRole, "super admin accounts cannot be deleted")
	}
	return adminManage(actor, target)
}

// PersonListScope returns the mandatory visibility restriction for list and
// search operations. Note the deliberate asymmetry: JQB_ADMIN scope is
// jurisdiction-based while MAHALLA_INSPECTOR scope is ownership-based, so
// an inspector never sees a colleague's records even within its own
// mahalla.
func PersonListScope(actor *actormodels.Actor) personmodels.Scope {
	switch actor.Role {
	case actormodels.RoleJQBAdmin:
		return personmodels.Scope{DistrictID: actor.DistrictID}
	case actormodels.RoleMahallaInspector:
		actorID := actor.ID
		return personmodels.Scope{RegisteredBy: &actorID}
	}
	return personmodels.Scope{}
}

// ApplySearchOverrides narrows the scope with caller-supplied jurisdiction
// filters where the role permits: districtId is honored for SUPER_ADMIN
// only, mahallaId for SUPER_ADMIN and JQB_ADMIN. For everyone else the
// caller-supplied values are dropped so the scope is never widened.
func ApplySearchOverrides(actor *actormodels.Actor, filter personmodels.SearchFilter) personmodels.SearchFilter {
	if actor.Role != actormodels.RoleSuperAdmin {
		filter.DistrictID = nil
	}
	if actor.Role != actormodels.RoleSuperAdmin && actor.Role != actormodels.RoleJQBAdmin {
		filter.MahallaID = nil
	}
	return filter
}
