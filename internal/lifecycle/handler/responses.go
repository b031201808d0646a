package handler

import (
	"time"

	"minbar/internal/lifecycle/models"
	"minbar/pkg/domain"
)

// InstitutionResponse shows the verification code only on creation and
// regeneration, the two moments a super admin hands it out.
type InstitutionResponse struct {
	ID               domain.InstitutionID `json:"id"`
	Name             string               `json:"name"`
	Location         string               `json:"location"`
	AdminID          domain.AdminID       `json:"admin_id,omitzero"`
	Claimed          bool                 `json:"claimed"`
	VerificationCode string               `json:"verification_code,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func toInstitutionResponse(inst *models.Institution, withCode bool) InstitutionResponse {
	resp := InstitutionResponse{
		ID:        inst.ID,
		Name:      inst.Name,
		Location:  inst.Location,
		AdminID:   inst.AdminID,
		Claimed:   inst.IsClaimed(),
		CreatedAt: inst.CreatedAt,
		UpdatedAt: inst.UpdatedAt,
	}
	if withCode {
		resp.VerificationCode = inst.VerificationCode
	}
	return resp
}

// ApplyResponse returns the new account and, when token issuing is enabled,
// a bearer token the applicant uses to follow up on the application.
type ApplyResponse struct {
	Account     models.AccountStatus `json:"account"`
	AccessToken string               `json:"access_token,omitempty"`
	ExpiresIn   int                  `json:"expires_in,omitempty"`
}

type AccountListResponse struct {
	Items  []models.AccountStatus `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

type DeletedCountResponse struct {
	Deleted int `json:"deleted"`
}
