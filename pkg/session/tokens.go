package session

import (
	"context"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gopass/dashboard/pkg/config"
)

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// NewTokenValidator checks access tokens against the shared HS256 secret of the backend.
// Without a configured secret tokens are trusted as they are and nil is returned.
func NewTokenValidator(settings config.SessionSettings) (TokenValidator, error) {
	if settings.JWTSecret == "" {
		return nil, nil
	}

	secret := []byte(settings.JWTSecret)
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return secret, nil
	}

	jwtValidator, err := validator.New(
		keyFunc,
		validator.HS256,
		settings.JWTIssuer,
		[]string{settings.JWTAudience},
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return jwtValidator, nil
}
