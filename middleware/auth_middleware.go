package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/hirebridge/hirebridge/auth"
)

// Protected validates the bearer token's signature and expiry. The verified
// *jwt.Token lands in Locals("user") for PrincipalRequired to finish the job.
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": fiber.Map{"kind": "authentication_error", "message": "Missing or malformed JWT"},
		})
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{"kind": "authentication_error", "message": "Invalid or expired JWT"},
	})
}

// PrincipalRequired checks the revocation list and resolves the subject
// against the identity stores on every request, then exposes the principal in
// Locals("principal"). REST calls are stateless: no verification is cached.
func PrincipalRequired(verifier *auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Locals("user").(*jwt.Token)

		principal, err := verifier.ResolveToken(c.UserContext(), token)
		if err != nil {
			message := "Invalid credential"
			switch {
			case errors.Is(err, auth.ErrRevoked):
				message = "Credential has been revoked"
			case errors.Is(err, auth.ErrUnknownPrincipal):
				message = "Unknown principal"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": fiber.Map{"kind": "authentication_error", "message": message},
			})
		}

		c.Locals("principal", principal)
		return c.Next()
	}
}
