// Package domain defines the typed identifiers shared across modules.
//
// Each entity gets its own UUID-backed type so the compiler rejects
// cross-entity assignments (an ActorID can never be passed where a
// PersonID is expected). ParseXxxID functions validate untrusted input
// at transport boundaries; internal code constructs IDs directly from
// uuid.New().
package domain

import (
	"github.com/google/uuid"

	dErrors "reestr/pkg/domain-errors"
)

type (
	// ActorID identifies an administrative account.
	ActorID uuid.UUID
	// PersonID identifies a registered person of interest.
	PersonID uuid.UUID
	// DistrictID identifies a district (tuman).
	DistrictID uuid.UUID
	// MahallaID identifies a mahalla within a district.
	MahallaID uuid.UUID
	// CrimeCategoryID identifies a crime category.
	CrimeCategoryID uuid.UUID
	// CrimeTypeID identifies a crime type.
	CrimeTypeID uuid.UUID
)

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" ID is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" ID is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" ID cannot be the nil UUID")
	}
	return parsed, nil
}

func ParseActorID(raw string) (ActorID, error) {
	u, err := parseUUID(raw, "actor")
	return ActorID(u), err
}

func ParsePersonID(raw string) (PersonID, error) {
	u, err := parseUUID(raw, "person")
	return PersonID(u), err
}

func ParseDistrictID(raw string) (DistrictID, error) {
	u, err := parseUUID(raw, "district")
	return DistrictID(u), err
}

func ParseMahallaID(raw string) (MahallaID, error) {
	u, err := parseUUID(raw, "mahalla")
	return MahallaID(u), err
}

func ParseCrimeCategoryID(raw string) (CrimeCategoryID, error) {
	u, err := parseUUID(raw, "crime category")
	return CrimeCategoryID(u), err
}

func ParseCrimeTypeID(raw string) (CrimeTypeID, error) {
	u, err := parseUUID(raw, "crime type")
	return CrimeTypeID(u), err
}

func (id ActorID) String() string         { return uuid.UUID(id).String() }
func (id PersonID) String() string        { return uuid.UUID(id).String() }
func (id DistrictID) String() string      { return uuid.UUID(id).String() }
func (id MahallaID) String() string       { return uuid.UUID(id).String() }
func (id CrimeCategoryID) String() string { return uuid.UUID(id).String() }
func (id CrimeTypeID) String() string     { return uuid.UUID(id).String() }

func (id ActorID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id PersonID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id DistrictID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id MahallaID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id CrimeCategoryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CrimeTypeID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// MarshalText/UnmarshalText keep the typed IDs JSON-friendly as plain
// UUID strings.
func (id ActorID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *ActorID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ActorID(u)
	return nil
}

func (id PersonID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *PersonID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = PersonID(u)
	return nil
}

func (id DistrictID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *DistrictID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = DistrictID(u)
	return nil
}

func (id MahallaID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *MahallaID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = MahallaID(u)
	return nil
}

func (id CrimeCategoryID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *CrimeCategoryID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = CrimeCategoryID(u)
	return nil
}

func (id CrimeTypeID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *CrimeTypeID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = CrimeTypeID(u)
	return nil
}

// NewActorID and friends mint fresh identifiers.
func NewActorID() ActorID                 { return ActorID(uuid.New()) }
func NewPersonID() PersonID               { return PersonID(uuid.New()) }
func NewDistrictID() DistrictID           { return DistrictID(uuid.New()) }
func NewMahallaID() MahallaID             { return MahallaID(uuid.New()) }
func NewCrimeCategoryID() CrimeCategoryID { return CrimeCategoryID(uuid.New()) }
func NewCrimeTypeID() CrimeTypeID         { return CrimeTypeID(uuid.New()) }
