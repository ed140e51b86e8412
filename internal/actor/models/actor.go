package models

import (
	"time"

	id "reestr/pkg/domain"
	dErrors "reestr/pkg/domain-errors"
)

// Role is the closed set of administrative roles. It is a distinct type,
// never a free string, so role checks stay exhaustiveness-checkable.
type Role string

const (
	// RoleSuperAdmin has no jurisdiction binding and unrestricted access.
	RoleSuperAdmin Role = "SUPER_ADMIN"
	// RoleJQBAdmin is bound to a single district.
	RoleJQBAdmin Role = "JQB_ADMIN"
	// RoleMahallaInspector is bound to a mahalla within a district.
	RoleMahallaInspector Role = "MAHALLA_INSPECTOR"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleJQBAdmin, RoleMahallaInspector:
		return true
	}
	return false
}

// Actor is an authenticated administrative account.
//
// Invariants:
//   - Role is one of the three closed variants
//   - JQB_ADMIN and MAHALLA_INSPECTOR have DistrictID set
//   - MAHALLA_INSPECTOR additionally has MahallaID set
//   - SUPER_ADMIN has neither jurisdiction binding
//
// DistrictName and MahallaName are denormalized from the jurisdiction
// records at write time and never independently editable.
type Actor struct {
	ID           id.ActorID     `json:"id"`
	Login        string         `json:"login"`
	PasswordHash string         `json:"-"`
	FullName     string         `json:"fullName"`
	PhoneNumber  string         `json:"phoneNumber"`
	Role         Role           `json:"role"`
	DistrictID   *id.DistrictID `json:"districtId,omitempty"`
	DistrictName string         `json:"districtName,omitempty"`
	MahallaID    *id.MahallaID  `json:"mahallaId,omitempty"`
	MahallaName  string         `json:"mahallaName,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ValidateJurisdiction enforces the role/jurisdiction coupling invariant.
func (a *Actor) ValidateJurisdiction() error {
	switch a.Role {
	case RoleSuperAdmin:
		if a.DistrictID != nil || a.MahallaID != nil {
			return dErrors.New(dErrors.CodeValidation, "super admin must not be bound to a jurisdiction")
		}
	case RoleJQBAdmin:
		if a.DistrictID == nil || a.DistrictID.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "district is required for a JQB admin")
		}
		if a.MahallaID != nil {
			return dErrors.New(dErrors.CodeValidation, "JQB admin must not be bound to a mahalla")
		}
	case RoleMahallaInspector:
		if a.DistrictID == nil || a.DistrictID.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "district is required for a mahalla inspector")
		}
		if a.MahallaID == nil || a.MahallaID.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "mahalla is required for a mahalla inspector")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown role")
	}
	return nil
}

// InDistrict reports whether the actor is bound to the given district.
func (a *Actor) InDistrict(districtID id.DistrictID) bool {
	return a.DistrictID != nil && *a.DistrictID == districtID
}

// InMahalla reports whether the actor is bound to the given mahalla.
func (a *Actor) InMahalla(mahallaID id.MahallaID) bool {
	return a.MahallaID != nil && *a.MahallaID == mahallaID
}
