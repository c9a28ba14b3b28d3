// Package auth validates bearer tokens and enforces per-route permissions.
//
// A Checker parses the token from the Authorization header, verifies its
// signature, expiry, issuer and audience, and then requires that the
// granted permission set contains the permission the route asks for.
// Failures are reported as *AuthError carrying a 401 or 403 status.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Authorizer checks that a request's credentials grant a permission
type Authorizer interface {
	Authorize(ctx context.Context, authorization, permission string) (*Claims, error)
}

// CheckerOptions configures token validation
type CheckerOptions struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// Checker is the token-backed Authorizer
type Checker struct {
	keys KeySource
	opts CheckerOptions
}

func NewChecker(keys KeySource, opts CheckerOptions) *Checker {
	return &Checker{keys: keys, opts: opts}
}

// Authorize validates the bearer token in authorization and requires permission
func (c *Checker) Authorize(ctx context.Context, authorization, permission string) (*Claims, error) {
	raw, err := BearerToken(authorization)
	if err != nil {
		return nil, err
	}

	claims, err := c.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}

	if !claims.Grants(permission) {
		return nil, forbidden("permission " + permission + " not granted")
	}
	return claims, nil
}

// Verify parses raw and validates its signature and registered claims
func (c *Checker) Verify(ctx context.Context, raw string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(c.keys.Methods()),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(c.opts.Leeway),
	}
	if c.opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.opts.Issuer))
	}
	if c.opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(c.opts.Audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return c.keys.Key(ctx, token)
	}, parserOpts...)
	if err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(authorization string) (string, error) {
	if strings.TrimSpace(authorization) == "" {
		return "", unauthenticated(CodeHeaderMissing, "authorization header is expected")
	}

	parts := strings.Fields(authorization)
	switch {
	case !strings.EqualFold(parts[0], "bearer"):
		return "", unauthenticated(CodeInvalidHeader, "authorization header must start with Bearer")
	case len(parts) == 1:
		return "", unauthenticated(CodeInvalidHeader, "token not found")
	case len(parts) > 2:
		return "", unauthenticated(CodeInvalidHeader, "authorization header must be a bearer token")
	}
	return parts[1], nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrKeySourceUnavailable):
		// not the caller's fault; let it surface as a server error
		return fmt.Errorf("verify token: %w", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return unauthenticated(CodeTokenExpired, "token expired")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return unauthenticated(CodeInvalidClaims, "incorrect claims, please check the audience and issuer")
	default:
		return unauthenticated(CodeInvalidHeader, "unable to parse authentication token")
	}
}
