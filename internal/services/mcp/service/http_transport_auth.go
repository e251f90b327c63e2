package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures HS256 bearer token verification.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	Now      func() time.Time
}

// validateLocalRequest enforces host access to mitigate DNS rebinding.
// It checks Host and Origin headers against the allowed hosts.
func (t *HTTPTransport) validateLocalRequest(r *http.Request) error {
	if r == nil {
		return fmt.Errorf("invalid request")
	}
	if !t.isAllowedHostHeader(r.Host) {
		return fmt.Errorf("invalid host")
	}

	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return nil
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid origin")
	}
	if !t.isAllowedHostHeader(parsed.Host) {
		return fmt.Errorf("invalid origin")
	}
	return nil
}

// isAllowedHostHeader reports whether a Host/Origin header resolves to an
// allowed host. Loopback is always allowed.
func (t *HTTPTransport) isAllowedHostHeader(host string) bool {
	resolvedHost, ok := normalizeHost(host)
	if !ok {
		return false
	}
	if isLoopbackHost(resolvedHost) {
		return true
	}
	_, ok = t.allowedHosts[strings.ToLower(resolvedHost)]
	return ok
}

func isLoopbackHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

// parseAllowedHosts lowercases and deduplicates configured host names.
func parseAllowedHosts(hosts []string) map[string]struct{} {
	result := make(map[string]struct{}, len(hosts))
	for _, entry := range hosts {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		result[strings.ToLower(trimmed)] = struct{}{}
	}
	return result
}

// normalizeHost extracts the hostname portion from Host/Origin headers.
func normalizeHost(host string) (string, bool) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", false
	}

	if strings.HasPrefix(host, "[") {
		if splitHost, _, err := net.SplitHostPort(host); err == nil {
			return splitHost, true
		}
		if strings.HasSuffix(host, "]") {
			return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]"), true
		}
		return "", false
	}
	if strings.Count(host, ":") > 1 {
		return host, true
	}
	if strings.Contains(host, ":") {
		splitHost, _, err := net.SplitHostPort(host)
		if err != nil {
			return "", false
		}
		return splitHost, true
	}
	return host, true
}

var (
	errMissingBearer = errors.New("authorization required")
	errInvalidBearer = errors.New("invalid access token")
)

// bearerAuth accepts a static token, an HS256 JWT, or either when both are
// configured.
type bearerAuth struct {
	apiToken string
	jwt      *JWTConfig
}

// newBearerAuth returns nil when no credential is configured.
func newBearerAuth(apiToken string, jwtCfg JWTConfig) (*bearerAuth, error) {
	apiToken = strings.TrimSpace(apiToken)
	secret := strings.TrimSpace(jwtCfg.Secret)
	if apiToken == "" && secret == "" {
		return nil, nil
	}
	auth := &bearerAuth{apiToken: apiToken}
	if secret != "" {
		if len(secret) < 32 {
			return nil, fmt.Errorf("JWT secret must be at least 32 bytes")
		}
		cfg := jwtCfg
		cfg.Secret = secret
		cfg.Issuer = strings.TrimSpace(cfg.Issuer)
		cfg.Audience = strings.TrimSpace(cfg.Audience)
		if cfg.Now == nil {
			cfg.Now = time.Now
		}
		auth.jwt = &cfg
	}
	return auth, nil
}

// authorizeRequest writes 401 and returns false when the request lacks a
// valid bearer credential.
func (t *HTTPTransport) authorizeRequest(w http.ResponseWriter, r *http.Request) bool {
	if t.auth == nil {
		return true
	}
	if err := t.auth.authorize(r); err != nil {
		w.Header().Set("WWW-Authenticate", `Bearer realm="kvmcp"`)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return false
	}
	return true
}

func (a *bearerAuth) authorize(r *http.Request) error {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return errMissingBearer
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return errMissingBearer
	}
	if a.apiToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.apiToken)) == 1 {
		return nil
	}
	if a.jwt != nil {
		if err := validateJWT(token, *a.jwt); err == nil {
			return nil
		}
	}
	return errInvalidBearer
}

// validateJWT verifies an HS256 token and its time and identity claims.
func validateJWT(token string, cfg JWTConfig) error {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}

	now := cfg.Now()
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(now) {
		return errors.New("token is expired")
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return errors.New("token not active yet")
	}
	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return errors.New("token issuer mismatch")
	}
	if cfg.Audience != "" && !audienceContains(claims.Audience, cfg.Audience) {
		return errors.New("token audience mismatch")
	}
	return nil
}

func audienceContains(audience jwt.ClaimStrings, expected string) bool {
	for _, entry := range audience {
		if entry == expected {
			return true
		}
	}
	return false
}
