package mocks

// Principal is a fixed-capability implementation of ports.Principal.
type Principal struct {
	ID     string
	Write  bool
	Delete bool
}

// Subject returns the principal id.
func (p Principal) Subject() string { return p.ID }

// CanWrite reports the configured write capability.
func (p Principal) CanWrite() bool { return p.Write }

// CanDelete reports the configured delete capability.
func (p Principal) CanDelete() bool { return p.Delete }

// Common principals.
var (
	Admin  = Principal{ID: "admin-1", Write: true, Delete: true}
	Editor = Principal{ID: "editor-1", Write: true}
	Viewer = Principal{ID: "viewer-1"}
)
