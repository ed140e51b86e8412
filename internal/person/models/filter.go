package models

import (
	id "reestr/pkg/domain"
)

// SearchFilter holds the caller-supplied predicates for person search.
// Empty fields apply no predicate. Predicates combine with logical AND on
// top of the mandatory role scope; the scope is applied first and can never
// be widened by these filters.
type SearchFilter struct {
	FirstName       string              // case-insensitive substring
	LastName        string              // case-insensitive substring
	PassportSerial  string              // exact, compared upper-cased
	PassportNumber  string              // substring
	DistrictID      *id.DistrictID      // exact; honored for SUPER_ADMIN only
	MahallaID       *id.MahallaID       // exact; honored for SUPER_ADMIN and JQB_ADMIN
	CrimeCategoryID *id.CrimeCategoryID // exact
	CrimeTypeID     *id.CrimeTypeID     // exact
}

// Scope is the mandatory role-based visibility restriction computed by the
// authorization engine and applied by stores before any SearchFilter
// predicate. Zero value means unrestricted (SUPER_ADMIN).
type Scope struct {
	DistrictID   *id.DistrictID // JQB_ADMIN: only this district
	RegisteredBy *id.ActorID    // MAHALLA_INSPECTOR: only own records
}

// Unrestricted reports whether the scope imposes no visibility limit.
func (s Scope) Unrestricted() bool {
	return s.DistrictID == nil && s.RegisteredBy == nil
}

// Matches reports whether the person is visible under this scope.
func (s Scope) Matches(p *Person) bool {
	if s.DistrictID != nil && p.DistrictID != *s.DistrictID {
		return false
	}
	if s.RegisteredBy != nil && p.RegisteredBy != *s.RegisteredBy {
		return false
	}
	return true
}
