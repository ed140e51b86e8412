// Package models holds the registry's reference entities: the two-level
// jurisdiction hierarchy and the crime classification lists.
package models

import (
	"strings"
	"time"

	id "reestr/pkg/domain"
	dErrors "reestr/pkg/domain-errors"
)

// District is the upper jurisdiction tier (tuman). Name and code are
// globally unique.
type District struct {
	ID        id.DistrictID `json:"id"`
	Name      string        `json:"name"`
	Code      string        `json:"code"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Validate enforces required fields.
func (d *District) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "district name is required")
	}
	if strings.TrimSpace(d.Code) == "" {
		return dErrors.New(dErrors.CodeValidation, "district code is required")
	}
	return nil
}

// Mahalla is the lower jurisdiction tier; it always belongs to exactly one
// district, and its name is unique within that district.
type Mahalla struct {
	ID         id.MahallaID  `json:"id"`
	Name       string        `json:"name"`
	DistrictID id.DistrictID `json:"districtId"`
	CreatedAt  time.Time     `json:"createdAt"`
}

func (m *Mahalla) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "mahalla name is required")
	}
	if m.DistrictID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "district is required")
	}
	return nil
}

// CrimeCategory groups crime types. Name is globally unique.
type CrimeCategory struct {
	ID          id.CrimeCategoryID `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func (c *CrimeCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "crime category name is required")
	}
	return nil
}

// CrimeType is a concrete classification, optionally grouped under a
// category. Name is unique within its category (or among uncategorized
// types when CategoryID is nil).
type CrimeType struct {
	ID          id.CrimeTypeID      `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	CategoryID  *id.CrimeCategoryID `json:"categoryId,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

func (c *CrimeType) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "crime type name is required")
	}
	return nil
}
