package access

// EffectiveCompanyRole returns the company portal role for user.
// A nil user resolves to VIEWER, COMPANY_ADMIN to OWNER and USER to OPERATOR
// unless the user's preferences downgrade them to VIEWER. Every other role
// resolves to VIEWER.
func EffectiveCompanyRole(user *User) Role {
	if user == nil {
		return RoleViewer
	}

	switch user.Role {
	case RoleCompanyAdmin:
		return RoleOwner
	case RoleUser:
		if user.Preferences != nil && user.Preferences.CompanyRole == RoleViewer {
			return RoleViewer
		}
		return RoleOperator
	default:
		return RoleViewer
	}
}

// HasRole reports whether userRole is in allowed. The empty role never matches.
func HasRole(userRole Role, allowed []Role) bool {
	if userRole == "" {
		return false
	}
	for _, r := range allowed {
		if r == userRole {
			return true
		}
	}
	return false
}
