package api

import (
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/gopass/dashboard/pkg/session"
)

const accountUserIDKey = "account_userid"

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Authorization header is required")
	}

	jwtToken, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || jwtToken == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be a bearer token")
	}

	return jwtToken, nil
}

// EnsureValidToken checks the signature and claims of the caller's bearer token when a
// token validator is configured, otherwise it lets every request through
func EnsureValidToken(tokenValidator session.TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenValidator == nil {
			return c.Next()
		}

		jwtToken, err := bearerToken(c)
		if err != nil {
			return err
		}

		claimsI, err := tokenValidator.ValidateToken(c.UserContext(), jwtToken)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid auth token")
		}

		if claims, ok := claimsI.(*validator.ValidatedClaims); ok {
			c.Locals(accountUserIDKey, claims.RegisteredClaims.Subject)
		}

		return c.Next()
	}
}

// RequireOperator only lets through callers presenting the access token of the logged in
// operator session, and only while that operator is an admin
func RequireOperator(operatorSession *session.Session) fiber.Handler {
	return func(c *fiber.Ctx) error {
		jwtToken, err := bearerToken(c)
		if err != nil {
			return err
		}

		if err := operatorSession.Authorize(jwtToken); err != nil {
			return err
		}

		if c.Locals(accountUserIDKey) == nil {
			if user := operatorSession.User(); user != nil {
				c.Locals(accountUserIDKey, user.ID)
			}
		}

		return c.Next()
	}
}
