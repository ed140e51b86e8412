package models

import (
	"strings"
	"time"

	id "reestr/pkg/domain"
	dErrors "reestr/pkg/domain-errors"
)

// Person is the managed record of the registry.
//
// Invariants:
//   - PassportSerial is stored upper-cased, at most 2 characters
//   - PassportNumber is at most 7 characters
//   - InProcess == true ⇔ ProcessedAt, ProcessedBy, ProcessedByName are all
//     set; InProcess == false ⇔ all three are unset. No intermediate state.
//   - RegisteredBy/RegisteredByName/RegisteredByPhone/RegisteredAt are
//     stamped at creation and immutable afterwards.
//
// The denormalized name fields (DistrictName, MahallaName,
// CrimeCategoryName, CrimeTypeName) are resolved from their IDs at write
// time; they are a read optimization, never independently editable.
type Person struct {
	ID id.PersonID `json:"id"`

	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	MiddleName string `json:"middleName"`
	BirthDate  string `json:"birthDate"`

	PassportSerial string `json:"passportSerial"`
	PassportNumber string `json:"passportNumber"`
	CarInfo        string `json:"carInfo,omitempty"`

	DistrictID   id.DistrictID `json:"districtId"`
	DistrictName string        `json:"districtName"`
	MahallaID    id.MahallaID  `json:"mahallaId"`
	MahallaName  string        `json:"mahallaName"`

	CrimeCategoryID   id.CrimeCategoryID `json:"crimeCategoryId"`
	CrimeCategoryName string             `json:"crimeCategoryName"`
	CrimeTypeID       id.CrimeTypeID     `json:"crimeTypeId"`
	CrimeTypeName     string             `json:"crimeTypeName"`

	AdditionalInfo string `json:"additionalInfo,omitempty"`
	PhotoURL       string `json:"photoUrl,omitempty"`
	FingerprintURL string `json:"fingerprintUrl,omitempty"`

	InProcess       bool        `json:"inProcess"`
	ProcessedAt     *time.Time  `json:"processedAt,omitempty"`
	ProcessedBy     *id.ActorID `json:"processedBy,omitempty"`
	ProcessedByName string      `json:"processedByName,omitempty"`

	RegisteredBy      id.ActorID `json:"registeredBy"`
	RegisteredByName  string     `json:"registeredByName"`
	RegisteredByPhone string     `json:"registeredByPhone"`
	RegisteredAt      time.Time  `json:"registeredAt"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizePassport upper-cases the serial; called on every write path so
// the stored form is canonical regardless of input.
func (p *Person) NormalizePassport() {
	p.PassportSerial = strings.ToUpper(strings.TrimSpace(p.PassportSerial))
	p.PassportNumber = strings.TrimSpace(p.PassportNumber)
}

// ValidateIdentity enforces required identity fields and passport shape.
func (p *Person) ValidateIdentity() error {
	switch {
	case strings.TrimSpace(p.FirstName) == "":
		return dErrors.New(dErrors.CodeValidation, "first name is required")
	case strings.TrimSpace(p.LastName) == "":
		return dErrors.New(dErrors.CodeValidation, "last name is required")
	case strings.TrimSpace(p.MiddleName) == "":
		return dErrors.New(dErrors.CodeValidation, "middle name is required")
	case strings.TrimSpace(p.BirthDate) == "":
		return dErrors.New(dErrors.CodeValidation, "birth date is required")
	case p.PassportSerial == "":
		return dErrors.New(dErrors.CodeValidation, "passport serial is required")
	case len(p.PassportSerial) > 2:
		return dErrors.New(dErrors.CodeValidation, "passport serial must be at most 2 characters")
	case p.PassportNumber == "":
		return dErrors.New(dErrors.CodeValidation, "passport number is required")
	case len(p.PassportNumber) > 7:
		return dErrors.New(dErrors.CodeValidation, "passport number must be at most 7 characters")
	}
	return nil
}

// CanAddToProcess checks the Registered → InProcess precondition.
func (p *Person) CanAddToProcess() error {
	if p.InProcess {
		return dErrors.NewWithReason(dErrors.CodeConflict, dErrors.ReasonAlreadyInProcess, "person is already in process")
	}
	return nil
}

// ApplyAddToProcess transitions the record to InProcess, stamping the
// three processed fields together so the coupling invariant holds.
func (p *Person) ApplyAddToProcess(actorID id.ActorID, actorName string, now time.Time) {
	p.InProcess = true
	p.ProcessedAt = &now
	p.ProcessedBy = &actorID
	p.ProcessedByName = actorName
	p.UpdatedAt = now
}

// CanRemoveFromProcess checks the InProcess → Registered precondition.
func (p *Person) CanRemoveFromProcess() error {
	if !p.InProcess {
		return dErrors.NewWithReason(dErrors.CodeConflict, dErrors.ReasonNotInProcess, "person is not in process")
	}
	return nil
}

// ApplyRemoveFromProcess transitions the record back to Registered,
// clearing the three processed fields together.
func (p *Person) ApplyRemoveFromProcess(now time.Time) {
	p.InProcess = false
	p.ProcessedAt = nil
	p.ProcessedBy = nil
	p.ProcessedByName = ""
	p.UpdatedAt = now
}
