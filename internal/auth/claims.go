package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims the API relies on. Permissions come from the
// Auth0 RBAC "permissions" array and from the OAuth "scope" string.
type Claims struct {
	Permissions []string `json:"permissions,omitempty"`
	Scope       string   `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Granted returns the union of permissions and scopes
func (c *Claims) Granted() []string {
	granted := make([]string, 0, len(c.Permissions))
	seen := make(map[string]struct{})
	for _, p := range append(append([]string{}, c.Permissions...), strings.Fields(c.Scope)...) {
		if _, dup := seen[p]; dup || p == "" {
			continue
		}
		seen[p] = struct{}{}
		granted = append(granted, p)
	}
	return granted
}

// Grants reports whether the token carries permission
func (c *Claims) Grants(permission string) bool {
	for _, p := range c.Granted() {
		if p == permission {
			return true
		}
	}
	return false
}
