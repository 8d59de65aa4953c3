// Package session reads the authenticated caller from a request.
package session

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserIDKey is the Fiber local the auth middleware stores the caller in.
const UserIDKey = "user_id"

var ErrNoUser = errors.New("no authenticated user in context")

// GetUserID returns the caller resolved by the auth middleware, falling back
// to the sub claim of the raw token.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := c.Locals(UserIDKey).(uuid.UUID); ok && id != uuid.Nil {
		return id, nil
	}
	return SubjectFromToken(c.Locals("user"))
}

// SubjectFromToken parses the sub claim of a jwtware token.
func SubjectFromToken(v any) (uuid.UUID, error) {
	token, ok := v.(*jwt.Token)
	if !ok || token == nil {
		return uuid.Nil, ErrNoUser
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}
