package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnknownKey is returned when a token names a key the source does not hold
	ErrUnknownKey = errors.New("signing key not found")
	// ErrKeySourceUnavailable is returned when signing keys cannot be loaded
	ErrKeySourceUnavailable = errors.New("signing keys unavailable")
)

// KeySource resolves the verification key for a token
type KeySource interface {
	Key(ctx context.Context, token *jwt.Token) (interface{}, error)
	// Methods lists the signing algorithms the source can verify
	Methods() []string
}

// HMACKeySource verifies HS256 tokens with a shared secret
type HMACKeySource struct {
	secret []byte
}

func NewHMACKeySource(secret string) *HMACKeySource {
	return &HMACKeySource{secret: []byte(secret)}
}

func (s *HMACKeySource) Key(_ context.Context, _ *jwt.Token) (interface{}, error) {
	return s.secret, nil
}

func (s *HMACKeySource) Methods() []string {
	return []string{jwt.SigningMethodHS256.Alg()}
}
