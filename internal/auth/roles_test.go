package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{" Editor ", RoleEditor},
		{"viewer", RoleViewer},
		{"", RoleViewer},
		{"root", RoleViewer},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.in))
		})
	}
}

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role   Role
		write  bool
		delete bool
	}{
		{RoleAdmin, true, true},
		{RoleEditor, true, false},
		{RoleViewer, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.True(t, tt.role.CanRead())
			assert.Equal(t, tt.write, tt.role.CanWrite())
			assert.Equal(t, tt.delete, tt.role.CanDelete())
		})
	}
}

func TestRolePages(t *testing.T) {
	assert.Equal(t, []Page{PageDashboard, PageAnalytics, PageSearch, PageDataTable, PageAdminUsers}, RoleAdmin.Pages())
	assert.Equal(t, []Page{PageDashboard, PageAnalytics, PageSearch, PageDataTable}, RoleEditor.Pages())
	assert.Equal(t, []Page{PageDashboard, PageAnalytics, PageSearch}, RoleViewer.Pages())
	assert.False(t, RoleAdmin.CanAccess(Page("settings")))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"valid", "Bearer abc123", "abc123", true},
		{"lowercase scheme", "bearer abc123", "abc123", true},
		{"missing", "", "", false},
		{"basic scheme", "Basic dXNlcjpwYXNz", "", false},
		{"empty token", "Bearer   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/records", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			got, ok := BearerToken(req)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	_, ok := SessionFrom(req.Context())
	assert.False(t, ok)

	ctx := WithSession(req.Context(), Session{UserID: "u1", Role: RoleAdmin})

	s, ok := SessionFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", s.UserID)
}
