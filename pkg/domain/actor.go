package domain

// Role is the caller's role as asserted by the transport layer.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleApplicant  Role = "applicant"
	// RoleSystem is used by scheduled callers such as the audit purge job.
	RoleSystem Role = "system"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleApplicant, RoleSystem:
		return true
	}
	return false
}

// Actor is the identity attached to every request.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name,omitempty"`
}

func (a Actor) IsSuperAdmin() bool { return a.Role == RoleSuperAdmin }

// IsApplicant reports whether the actor is the applicant who owns the given account.
func (a Actor) IsApplicant(adminID AdminID) bool {
	return a.Role == RoleApplicant && a.ID == adminID.String()
}
