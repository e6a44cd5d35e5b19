package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the JWT payload carried by the session cookie (or a
// Bearer header for API clients).
type SessionClaims struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Role        UserRole `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the session belongs to an admin.
func (c *SessionClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// Identity describes the signed-in user as returned by /auth/me.
type Identity struct {
	User             User  `json:"user"`
	SessionExpiresIn int64 `json:"session_expires_in"`
}

// OAuthUserInfo is the profile extracted from the identity provider after a
// successful code exchange.
type OAuthUserInfo struct {
	Email       string `json:"mail"`
	Principal   string `json:"userPrincipalName"`
	DisplayName string `json:"displayName"`
	ID          string `json:"id"`
}
