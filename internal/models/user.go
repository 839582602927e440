package models

import (
	"strings"
	"time"
)

// Role is a portal user role
type Role string

const (
	RoleClient     Role = "client"
	RoleConsultant Role = "consultant"
	RoleAdmin      Role = "admin"
)

// rolePermissions maps roles to granted permissions
var rolePermissions = map[Role][]string{
	RoleClient:     {"intake:*", "bookings:write", "catalog:read"},
	RoleConsultant: {"pricing:*", "catalog:read", "bookings:read"},
	RoleAdmin:      {"*"},
}

// User is the backend user behind a portal session
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	ConsultantID string `json:"consultant_id,omitempty"`
}

// HasPermission checks if the user's role grants a permission.
// Supports wildcard permissions like "intake:*"
func (u *User) HasPermission(required string) bool {
	if u == nil {
		return false
	}

	for _, perm := range rolePermissions[u.Role] {
		if perm == required || perm == "*" {
			return true
		}

		if strings.HasSuffix(perm, ":*") {
			prefix := strings.TrimSuffix(perm, "*")
			if strings.HasPrefix(required, prefix) {
				return true
			}
		}
	}

	return false
}

// Session is an explicit auth context created on login and cleared on logout
type Session struct {
	ID           string    `json:"id"`
	User         User      `json:"user"`
	BackendToken string    `json:"backend_token"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// CreateSessionRequest carries the backend token obtained at sign-in
type CreateSessionRequest struct {
	Token string `json:"token"`
}

// CreateSessionResponse is returned after login
type CreateSessionResponse struct {
	SessionID string    `json:"session_id"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}
