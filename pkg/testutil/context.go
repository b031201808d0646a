package testutil

import (
	"net/http"

	"minbar/pkg/domain"
	"minbar/pkg/requestcontext"
)

// WithActor attaches a caller identity to the request, as the auth middleware would.
func WithActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// SuperAdmin is a ready-made super admin identity for handler tests.
func SuperAdmin() domain.Actor {
	return domain.Actor{ID: "sa-test", Role: domain.RoleSuperAdmin, Name: "Test Super Admin"}
}

// Applicant returns the identity of the applicant owning adminID.
func Applicant(adminID domain.AdminID) domain.Actor {
	return domain.Actor{ID: adminID.String(), Role: domain.RoleApplicant}
}
