package handler

import (
	"reestr/internal/actor/models"
	"reestr/internal/actor/service"
	id "reestr/pkg/domain"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string        `json:"token"`
	Actor *models.Actor `json:"actor"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type createAdminRequest struct {
	Login       string `json:"login"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
	DistrictID  string `json:"districtId"`
	MahallaID   string `json:"mahallaId"`
}

func (r createAdminRequest) toInput() (service.CreateAdminInput, error) {
	input := service.CreateAdminInput{
		Login:       r.Login,
		Password:    r.Password,
		FullName:    r.FullName,
		PhoneNumber: r.PhoneNumber,
		Role:        models.Role(r.Role),
	}
	if r.DistrictID != "" {
		districtID, err := id.ParseDistrictID(r.DistrictID)
		if err != nil {
			return input, err
		}
		input.DistrictID = &districtID
	}
	if r.MahallaID != "" {
		mahallaID, err := id.ParseMahallaID(r.MahallaID)
		if err != nil {
			return input, err
		}
		input.MahallaID = &mahallaID
	}
	return input, nil
}

type updateAdminRequest struct {
	Login       *string `json:"login"`
	Password    string  `json:"password"`
	FullName    *string `json:"fullName"`
	PhoneNumber *string `json:"phoneNumber"`
	Role        *string `json:"role"`
	DistrictID  *string `json:"districtId"`
	MahallaID   *string `json:"mahallaId"`
}

func (r updateAdminRequest) toInput() (service.UpdateAdminInput, error) {
	input := service.UpdateAdminInput{
		Login:       r.Login,
		Password:    r.Password,
		FullName:    r.FullName,
		PhoneNumber: r.PhoneNumber,
	}
	if r.Role != nil {
		role := models.Role(*r.Role)
		input.Role = &role
	}
	if r.DistrictID != nil && *r.DistrictID != "" {
		districtID, err := id.ParseDistrictID(*r.DistrictID)
		if err != nil {
			return input, err
		}
		input.DistrictID = &districtID
	}
	if r.MahallaID != nil && *r.MahallaID != "" {
		mahallaID, err := id.ParseMahallaID(*r.MahallaID)
		if err != nil {
			return input, err
		}
		input.MahallaID = &mahallaID
	}
	return input, nil
}
