package handler

import (
	"net/http"

	"reestr/internal/person/models"
	"reestr/internal/person/service"
	id "reestr/pkg/domain"
	dErrors "reestr/pkg/domain-errors"
)

type registerRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	MiddleName string `json:"middleName"`
	BirthDate  string `json:"birthDate"`

	PassportSerial string `json:"passportSerial"`
	PassportNumber string `json:"passportNumber"`
	CarInfo        string `json:"carInfo"`

	DistrictID string `json:"districtId"`
	MahallaID  string `json:"mahallaId"`

	CrimeCategoryID string `json:"crimeCategoryId"`
	CrimeTypeID     string `json:"crimeTypeId"`

	AdditionalInfo string `json:"additionalInfo"`
	PhotoURL       string `json:"photoUrl"`
	FingerprintURL string `json:"fingerprintUrl"`
}

func (r registerRequest) toInput() (service.RegisterInput, error) {
	input := service.RegisterInput{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		MiddleName:     r.MiddleName,
		BirthDate:      r.BirthDate,
		PassportSerial: r.PassportSerial,
		PassportNumber: r.PassportNumber,
		CarInfo:        r.CarInfo,
		AdditionalInfo: r.AdditionalInfo,
		PhotoURL:       r.PhotoURL,
		FingerprintURL: r.FingerprintURL,
	}

	var err error
	if r.DistrictID != "" {
		if input.DistrictID, err = id.ParseDistrictID(r.DistrictID); err != nil {
			return input, err
		}
	}
	if r.MahallaID != "" {
		if input.MahallaID, err = id.ParseMahallaID(r.MahallaID); err != nil {
			return input, err
		}
	}
	if r.CrimeCategoryID == "" {
		return input, dErrors.New(dErrors.CodeValidation, "crime category is required")
	}
	if input.CrimeCategoryID, err = id.ParseCrimeCategoryID(r.CrimeCategoryID); err != nil {
		return input, err
	}
	if r.CrimeTypeID == "" {
		return input, dErrors.New(dErrors.CodeValidation, "crime type is required")
	}
	if input.CrimeTypeID, err = id.ParseCrimeTypeID(r.CrimeTypeID); err != nil {
		return input, err
	}
	return input, nil
}

type updateRequest struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	MiddleName *string `json:"middleName"`
	BirthDate  *string `json:"birthDate"`

	PassportSerial *string `json:"passportSerial"`
	PassportNumber *string `json:"passportNumber"`
	CarInfo        *string `json:"carInfo"`

	DistrictID *string `json:"districtId"`
	MahallaID  *string `json:"mahallaId"`

	CrimeCategoryID *string `json:"crimeCategoryId"`
	CrimeTypeID     *string `json:"crimeTypeId"`

	AdditionalInfo *string `json:"additionalInfo"`
	PhotoURL       *string `json:"photoUrl"`
	FingerprintURL *string `json:"fingerprintUrl"`
}

func (r updateRequest) toInput() (service.UpdateInput, error) {
	input := service.UpdateInput{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		MiddleName:     r.MiddleName,
		BirthDate:      r.BirthDate,
		PassportSerial: r.PassportSerial,
		PassportNumber: r.PassportNumber,
		CarInfo:        r.CarInfo,
		AdditionalInfo: r.AdditionalInfo,
		PhotoURL:       r.PhotoURL,
		FingerprintURL: r.FingerprintURL,
	}

	if r.DistrictID != nil {
		districtID, err := id.ParseDistrictID(*r.DistrictID)
		if err != nil {
			return input, err
		}
		input.DistrictID = &districtID
	}
	if r.MahallaID != nil {
		mahallaID, err := id.ParseMahallaID(*r.MahallaID)
		if err != nil {
			return input, err
		}
		input.MahallaID = &mahallaID
	}
	if r.CrimeCategoryID != nil {
		categoryID, err := id.ParseCrimeCategoryID(*r.CrimeCategoryID)
		if err != nil {
			return input, err
		}
		input.CrimeCategoryID = &categoryID
	}
	if r.CrimeTypeID != nil {
		typeID, err := id.ParseCrimeTypeID(*r.CrimeTypeID)
		if err != nil {
			return input, err
		}
		input.CrimeTypeID = &typeID
	}
	return input, nil
}

// filterFromQuery reads search predicates from the query string.
func filterFromQuery(r *http.Request) (models.SearchFilter, error) {
	q := r.URL.Query()
	filter := models.SearchFilter{
		FirstName:      q.Get("firstName"),
		LastName:       q.Get("lastName"),
		PassportSerial: q.Get("passportSerial"),
		PassportNumber: q.Get("passportNumber"),
	}

	if raw := q.Get("districtId"); raw != "" {
		districtID, err := id.ParseDistrictID(raw)
		if err != nil {
			return filter, err
		}
		filter.DistrictID = &districtID
	}
	if raw := q.Get("mahallaId"); raw != "" {
		mahallaID, err := id.ParseMahallaID(raw)
		if err != nil {
			return filter, err
		}
		filter.MahallaID = &mahallaID
	}
	if raw := q.Get("crimeCategoryId"); raw != "" {
		categoryID, err := id.ParseCrimeCategoryID(raw)
		if err != nil {
			return filter, err
		}
		filter.CrimeCategoryID = &categoryID
	}
	if raw := q.Get("crimeTypeId"); raw != "" {
		typeID, err := id.ParseCrimeTypeID(raw)
		if err != nil {
			return filter, err
		}
		filter.CrimeTypeID = &typeID
	}
	return filter, nil
}
