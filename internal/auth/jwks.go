package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/ashendes/retail-api/internal/metrics"
	"github.com/ashendes/retail-api/internal/patterns"
	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

// minRefreshInterval limits refetches triggered by unknown key ids
const minRefreshInterval = 30 * time.Second

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// JWKSKeySource verifies RS256 tokens with keys published at a JWKS URL.
// Keys are cached for a TTL; a token with an unknown kid triggers at most
// one refetch per minRefreshInterval.
type JWKSKeySource struct {
	url      string
	ttl      time.Duration
	client   *resty.Client
	breaker  *patterns.CircuitBreakerWrapper
	bulkhead *patterns.Bulkhead
	now      func() time.Time

	refreshMu sync.Mutex
	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewJWKSKeySource creates a key source for url. service labels the
// breaker and bulkhead metrics.
func NewJWKSKeySource(url string, ttl time.Duration, service string) *JWKSKeySource {
	return &JWKSKeySource{
		url: url,
		ttl: ttl,
		client: resty.New().
			SetTimeout(patterns.DefaultTimeout).
			SetRetryCount(0),
		breaker:  patterns.NewCircuitBreaker("jwks", service, patterns.DefaultBreakerSettings),
		bulkhead: patterns.NewBulkhead(4, patterns.DefaultBulkheadWait, "jwks", service),
		now:      time.Now,
	}
}

// Circuits reports the breaker guarding the JWKS endpoint
func (s *JWKSKeySource) Circuits() []patterns.CircuitStatus {
	return []patterns.CircuitStatus{s.breaker.Status()}
}

func (s *JWKSKeySource) Methods() []string {
	return []string{jwt.SigningMethodRS256.Alg()}
}

// Key returns the public key named by the token's kid header
func (s *JWKSKeySource) Key(ctx context.Context, token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: token has no kid", ErrUnknownKey)
	}

	if key, fresh := s.cached(kid); key != nil && fresh {
		return key, nil
	}

	if err := s.refresh(ctx, kid); err != nil {
		// serve a stale key rather than fail while the endpoint is down
		if key, _ := s.cached(kid); key != nil {
			log.WithError(err).WithField("kid", kid).Warn("Using stale signing key")
			return key, nil
		}
		return nil, err
	}

	if key, _ := s.cached(kid); key != nil {
		return key, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
}

func (s *JWKSKeySource) cached(kid string) (*rsa.PublicKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[kid], s.now().Sub(s.fetchedAt) < s.ttl
}

// refresh refetches the key set unless another caller already did so
// recently enough to have picked up kid
func (s *JWKSKeySource) refresh(ctx context.Context, kid string) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.RLock()
	_, known := s.keys[kid]
	age := s.now().Sub(s.fetchedAt)
	s.mu.RUnlock()

	if age < s.ttl && (known || age < minRefreshInterval) {
		return nil
	}

	keys, err := s.fetch(ctx)
	if err != nil {
		metrics.JWKSRefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %v", ErrKeySourceUnavailable, err)
	}
	metrics.JWKSRefreshTotal.WithLabelValues("ok").Inc()

	s.mu.Lock()
	s.keys = keys
	s.fetchedAt = s.now()
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"url":  s.url,
		"keys": len(keys),
	}).Info("Signing keys refreshed")
	return nil
}

func (s *JWKSKeySource) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	var keys map[string]*rsa.PublicKey

	err := s.bulkhead.Execute(ctx, func() error {
		result, cbErr := s.breaker.Execute(func() (interface{}, error) {
			resp, httpErr := s.client.R().
				SetContext(ctx).
				SetHeader("Accept", "application/json").
				Get(s.url)

			if httpErr != nil {
				return nil, fmt.Errorf("HTTP error: %w", httpErr)
			}

			if resp.StatusCode() != http.StatusOK {
				return nil, fmt.Errorf("jwks endpoint returned status %d", resp.StatusCode())
			}

			var set jwkSet
			if err := json.Unmarshal(resp.Body(), &set); err != nil {
				return nil, fmt.Errorf("failed to parse key set: %w", err)
			}

			return parseKeySet(set)
		})
		if cbErr != nil {
			return cbErr
		}
		keys = result.(map[string]*rsa.PublicKey)
		return nil
	})

	return keys, err
}

func parseKeySet(set jwkSet) (map[string]*rsa.PublicKey, error) {
	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := rsaPublicKey(k)
		if err != nil {
			log.WithError(err).WithField("kid", k.Kid).Warn("Skipping malformed signing key")
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("key set holds no usable RSA signing keys")
	}
	return keys, nil
}

func rsaPublicKey(k jwk) (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	exponent := new(big.Int).SetBytes(e)
	if !exponent.IsInt64() || exponent.Int64() < 3 || exponent.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("unsupported exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(exponent.Int64()),
	}, nil
}
