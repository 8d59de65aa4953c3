package middleware

import (
	"errors"
	"log/slog"

	"github.com/decisioniq/decisioniq-api/internal/config"
	"github.com/decisioniq/decisioniq-api/internal/dto"
	"github.com/decisioniq/decisioniq-api/internal/session"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserLookup reports whether a token subject still names a user.
type UserLookup interface {
	UserExists(userID uuid.UUID) (bool, error)
}

// JWTProtected rejects requests without a valid bearer token and stores the
// resolved user id in the request locals.
func JWTProtected(cfg *config.Config, users UserLookup) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		SuccessHandler: func(c *fiber.Ctx) error {
			userID, err := session.SubjectFromToken(c.Locals("user"))
			if err != nil {
				return unauthorized(c, "Not authorized, token failed")
			}

			ok, err := users.UserExists(userID)
			if err != nil {
				slog.Error("auth user lookup failed", "error", err, "user_id", userID.String())
				return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
					Error:   true,
					Message: "Internal server error",
				})
			}
			if !ok {
				return unauthorized(c, "Not authorized, user no longer exists")
			}

			c.Locals(session.UserIDKey, userID)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				return unauthorized(c, "Not authorized, no token")
			}
			return unauthorized(c, "Not authorized, token failed")
		},
	})
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
	})
}
