package access

import (
	"sort"
	"strings"
)

// Portal identifies which role mapping guards a route
type Portal string

const (
	PortalPublic  Portal = "public"
	PortalCompany Portal = "company"
	PortalBureau  Portal = "bureau"
	PortalAdmin   Portal = "admin"
)

// Redirect targets
const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

// RouteRule guards every path under Prefix
type RouteRule struct {
	Prefix  string `json:"prefix"`
	Portal  Portal `json:"portal"`
	Allowed []Role `json:"allowed,omitempty"`
}

// Decision is the outcome of a route guard check
type Decision struct {
	Allow         bool   `json:"allow"`
	Redirect      string `json:"redirect,omitempty"`
	Portal        Portal `json:"portal"`
	EffectiveRole Role   `json:"effective_role,omitempty"`
}

// RouteTable resolves paths to rules, longest prefix first
type RouteTable struct {
	rules []RouteRule
}

// NewRouteTable creates a table from rules
func NewRouteTable(rules []RouteRule) *RouteTable {
	sorted := append([]RouteRule{}, rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &RouteTable{rules: sorted}
}

// DefaultRoutes returns the rules of the dashboard, admin console, bureau
// console and demo mode
func DefaultRoutes() *RouteTable {
	companyRoles := []Role{RoleOwner, RoleOperator, RoleViewer}
	adminRoles := []Role{RoleSuperAdmin, RoleAgencyAdmin}

	return NewRouteTable([]RouteRule{
		{Prefix: "/", Portal: PortalPublic},
		{Prefix: "/demo", Portal: PortalPublic},
		{Prefix: LoginPath, Portal: PortalPublic},
		{Prefix: UnauthorizedPath, Portal: PortalPublic},

		{Prefix: "/dashboard", Portal: PortalCompany, Allowed: companyRoles},
		{Prefix: "/dashboard/invoices", Portal: PortalCompany, Allowed: companyRoles},
		{Prefix: "/dashboard/approvals", Portal: PortalCompany, Allowed: []Role{RoleOwner, RoleOperator}},
		{Prefix: "/dashboard/settings", Portal: PortalCompany, Allowed: []Role{RoleOwner}},

		{Prefix: "/bureau", Portal: PortalBureau, Allowed: []Role{RoleOwner, RoleManager, RoleConsultant, RoleJunior}},
		{Prefix: "/bureau/clients", Portal: PortalBureau, Allowed: []Role{RoleOwner, RoleManager, RoleConsultant}},
		{Prefix: "/bureau/settings", Portal: PortalBureau, Allowed: []Role{RoleOwner, RoleManager}},

		{Prefix: "/admin", Portal: PortalAdmin, Allowed: adminRoles},
		{Prefix: "/admin/pilots", Portal: PortalAdmin, Allowed: adminRoles},
		{Prefix: "/admin/system", Portal: PortalAdmin, Allowed: []Role{RoleSuperAdmin}},
	})
}

// Rules returns the rules, longest prefix first
func (t *RouteTable) Rules() []RouteRule {
	return append([]RouteRule{}, t.rules...)
}

// Match returns the rule guarding path. Unknown paths match nothing.
func (t *RouteTable) Match(path string) (RouteRule, bool) {
	for _, rule := range t.rules {
		if matchesPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return RouteRule{}, false
}

// Decide returns whether user may render path. A nil user is unauthenticated.
func (t *RouteTable) Decide(user *User, path string) Decision {
	rule, ok := t.Match(path)
	if !ok || rule.Portal == PortalPublic {
		return Decision{Allow: true, Portal: PortalPublic}
	}

	if user == nil {
		return Decision{Allow: false, Redirect: LoginPath, Portal: rule.Portal}
	}

	role := user.Role
	if rule.Portal == PortalCompany {
		role = EffectiveCompanyRole(user)
	}

	if !HasRole(role, rule.Allowed) {
		return Decision{Allow: false, Redirect: UnauthorizedPath, Portal: rule.Portal, EffectiveRole: role}
	}
	return Decision{Allow: true, Portal: rule.Portal, EffectiveRole: role}
}

func matchesPrefix(path, prefix string) bool {
	if prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
