// Package access maps backend roles to the roles the UI gates on and
// decides which portal routes a user may open.
package access

// Role is a backend or UI role name
type Role string

// Bureau context roles
const (
	RoleOwner      Role = "OWNER"
	RoleManager    Role = "MANAGER"
	RoleConsultant Role = "CONSULTANT"
	RoleJunior     Role = "JUNIOR"
)

// Company and admin context roles. OWNER is shared with the bureau context.
const (
	RoleOperator     Role = "OPERATOR"
	RoleViewer       Role = "VIEWER"
	RoleAgencyAdmin  Role = "AGENCY_ADMIN"
	RoleCompanyAdmin Role = "COMPANY_ADMIN"
	RoleSuperAdmin   Role = "SUPER_ADMIN"
)

// RoleUser is the generic raw role of a company member; its UI role comes from
// the user's preferences
const RoleUser Role = "USER"

var knownRoles = map[Role]bool{
	RoleOwner:        true,
	RoleManager:      true,
	RoleConsultant:   true,
	RoleJunior:       true,
	RoleOperator:     true,
	RoleViewer:       true,
	RoleAgencyAdmin:  true,
	RoleCompanyAdmin: true,
	RoleSuperAdmin:   true,
	RoleUser:         true,
}

// IsValid returns true for any role the backend can issue
func (r Role) IsValid() bool {
	return knownRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Preferences are user-editable settings stored with the profile
type Preferences struct {
	CompanyRole Role `json:"company_role,omitempty"`
}

// User is the authenticated principal as decoded from a token or profile
type User struct {
	ID          string       `json:"id"`
	Email       string       `json:"email,omitempty"`
	Role        Role         `json:"role"`
	Preferences *Preferences `json:"preferences,omitempty"`
}
