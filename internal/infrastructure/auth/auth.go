package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Validator verifies bearer tokens against a JWKS endpoint.
type Validator struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience string
	logger   zerolog.Logger
}

// Claims carries the verified identity extracted from a token.
type Claims struct {
	Subject string
}

// NewValidator fetches and caches the JWKS, refreshing it in the
// background until ctx is cancelled.
func NewValidator(ctx context.Context, jwksURL, issuer, audience string, logger zerolog.Logger) (*Validator, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:              ctx,
		RefreshInterval:  time.Hour,
		RefreshRateLimit: 5 * time.Minute,
		RefreshErrorHandler: func(err error) {
			logger.Warn().Err(err).Msg("jwks refresh failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch jwks from %s: %w", jwksURL, err)
	}
	return &Validator{
		jwks:     jwks,
		issuer:   issuer,
		audience: audience,
		logger:   logger.With().Str("component", "auth").Logger(),
	}, nil
}

// Validate parses and verifies a bearer token, returning the claims.
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return &Claims{Subject: subject}, nil
}
