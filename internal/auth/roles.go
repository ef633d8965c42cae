// Package auth issues and verifies session tokens and maps roles to the
// capabilities checked before record mutations.
package auth

import "strings"

// Role is a user's access level.
type Role string

// Roles, from most to least privileged.
const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// ParseRole maps a role name to a Role. Unknown names map to RoleViewer.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleEditor:
		return RoleEditor
	default:
		return RoleViewer
	}
}

// CanRead is true for every role.
func (r Role) CanRead() bool { return true }

// CanWrite is true for admins and editors.
func (r Role) CanWrite() bool { return r == RoleAdmin || r == RoleEditor }

// CanDelete is true for admins only.
func (r Role) CanDelete() bool { return r == RoleAdmin }

// Page names a dashboard view subject to access control.
type Page string

// Dashboard pages.
const (
	PageDashboard  Page = "dashboard"
	PageAnalytics  Page = "analytics"
	PageSearch     Page = "search"
	PageDataTable  Page = "data-table"
	PageAdminUsers Page = "admin-users"
)

var pageAccess = map[Page][]Role{
	PageDashboard:  {RoleAdmin, RoleEditor, RoleViewer},
	PageAnalytics:  {RoleAdmin, RoleEditor, RoleViewer},
	PageSearch:     {RoleAdmin, RoleEditor, RoleViewer},
	PageDataTable:  {RoleAdmin, RoleEditor},
	PageAdminUsers: {RoleAdmin},
}

// CanAccess reports whether r may open page. Unknown pages are denied.
func (r Role) CanAccess(page Page) bool {
	for _, allowed := range pageAccess[page] {
		if allowed == r {
			return true
		}
	}

	return false
}

// Pages lists the pages r may open, in navigation order.
func (r Role) Pages() []Page {
	var out []Page

	for _, p := range []Page{PageDashboard, PageAnalytics, PageSearch, PageDataTable, PageAdminUsers} {
		if r.CanAccess(p) {
			out = append(out, p)
		}
	}

	return out
}
