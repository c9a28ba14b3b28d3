package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Reason codes carried by AuthError
const (
	CodeHeaderMissing = "authorization_header_missing"
	CodeInvalidHeader = "invalid_header"
	CodeTokenExpired  = "token_expired"
	CodeInvalidClaims = "invalid_claims"
	CodeUnauthorized  = "unauthorized"
)

// AuthError rejects a request at the permission check
type AuthError struct {
	Code        string
	Description string
	Status      int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func unauthenticated(code, description string) *AuthError {
	return &AuthError{Code: code, Description: description, Status: http.StatusUnauthorized}
}

func forbidden(description string) *AuthError {
	return &AuthError{Code: CodeUnauthorized, Description: description, Status: http.StatusForbidden}
}

// AsAuthError extracts an *AuthError from err
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	ok := errors.As(err, &authErr)
	return authErr, ok
}
