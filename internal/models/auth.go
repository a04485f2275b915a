package models

import "fmt"

// Role is the caller's portal role as asserted by the token verifier.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleMentor    Role = "mentor"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleApplicant, RoleMentor, RoleAdmin:
		return true
	}
	return false
}

// ParseRole maps a claim value onto a Role.
func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}

// Actor is the authenticated caller of a request. It is treated as immutable.
type Actor struct {
	Identity string `json:"identity"`
	Role     Role   `json:"role"`
}

// TokenClaims is what a token verifier extracts from a credential.
type TokenClaims struct {
	Identity  string `json:"identity"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}
