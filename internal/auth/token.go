package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/order-service/internal/config"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrMissingEmail = errors.New("token has no email claim")
	ErrNoSigningKey = errors.New("no verification key configured")
)

// Identity is the verified caller attached to a request.
type Identity struct {
	Email   string
	Subject string
}

// Verifier turns a bearer token into a verified identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Claims describes the identity provider's JWT payload.
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier validates provider-issued tokens signed with HS256 or RS256.
type JWTVerifier struct {
	secret []byte
	rsaKey *rsa.PublicKey
	parser *jwt.Parser
}

// NewJWTVerifier builds a verifier from the configured key material.
func NewJWTVerifier(cfg config.AuthConfig) (*JWTVerifier, error) {
	v := &JWTVerifier{}
	var methods []string

	if cfg.JWTSecret != "" {
		v.secret = []byte(cfg.JWTSecret)
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if cfg.PublicKeyPEMBase64 != "" {
		pemBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(cfg.PublicKeyPEMBase64))
		if err != nil {
			return nil, fmt.Errorf("decode public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		v.rsaKey = key
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	if len(methods) == 0 {
		return nil, ErrNoSigningKey
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	v.parser = jwt.NewParser(opts...)
	return v, nil
}

// Verify validates the token and returns the email it was issued for.
func (v *JWTVerifier) Verify(_ context.Context, tokenStr string) (*Identity, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(tokenStr, claims, v.keyFor)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Email == "" {
		return nil, ErrMissingEmail
	}
	return &Identity{Email: claims.Email, Subject: claims.Subject}, nil
}

func (v *JWTVerifier) keyFor(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if len(v.secret) > 0 {
			return v.secret, nil
		}
	case *jwt.SigningMethodRSA:
		if v.rsaKey != nil {
			return v.rsaKey, nil
		}
	}
	return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
}

// TokenIssuer signs HS256 tokens shaped like the provider's, for local use.
type TokenIssuer struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string
}

// NewTokenIssuer builds an issuer sharing the verifier's secret.
func NewTokenIssuer(cfg config.AuthConfig, ttl time.Duration) (*TokenIssuer, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrNoSigningKey
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{secret: []byte(cfg.JWTSecret), ttl: ttl, issuer: cfg.Issuer, audience: cfg.Audience}, nil
}

// GenerateToken builds and signs a token for email.
func (ti *TokenIssuer) GenerateToken(email string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ti.ttl)
	claims := &Claims{
		Email:         email,
		EmailVerified: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    ti.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if ti.audience != "" {
		claims.Audience = jwt.ClaimStrings{ti.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}
