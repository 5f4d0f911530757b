// Package middleware holds the fiber middleware shared by the HTTP routes.
package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/spendsense/pkg/config"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenContextKey is the fiber Locals key the parsed token is stored under.
const TokenContextKey = "user"

const userIDClaim = "user_id"

var errMissingUserID = errors.New("token has no user_id claim")

// Protected returns a JWT middleware signed with cfg.Secret.
func Protected(cfg *config.Jwt) fiber.Handler {
	var secret string
	if cfg != nil {
		secret = cfg.Secret
	}
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{Key: []byte(secret)},
		ContextKey:   TokenContextKey,
		ErrorHandler: jwtError,
	})
}

// RequireSelf rejects requests whose token subject differs from the :param path segment.
func RequireSelf(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserIDFromContext(c)
		if err != nil {
			return problem(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		if !strings.EqualFold(userID.String(), c.Params(param)) {
			return problem(c, fiber.StatusForbidden, "Forbidden", "token does not belong to this user")
		}
		return c.Next()
	}
}

// UserIDFromContext reads the user_id claim of the token set by Protected.
func UserIDFromContext(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals(TokenContextKey).(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("missing user context")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid token claims")
	}
	raw, ok := claims[userIDClaim].(string)
	if !ok {
		return uuid.Nil, errMissingUserID
	}
	return uuid.Parse(raw)
}

// GenerateToken signs an HS256 token for userID that expires after cfg.Expiry.
func GenerateToken(cfg *config.Jwt, userID uuid.UUID, now time.Time) (string, error) {
	if cfg == nil || cfg.Secret == "" {
		return "", errors.New("jwt secret is not set")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		userIDClaim: userID.String(),
		"iat":       now.Unix(),
		"exp":       now.Add(cfg.Expiry).Unix(),
	})
	return token.SignedString([]byte(cfg.Secret))
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "missing or malformed JWT") {
		return problem(c, fiber.StatusBadRequest, "Bad Request", err.Error())
	}
	return problem(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid or expired JWT")
}

func problem(c *fiber.Ctx, status int, title, detail string) error {
	return c.Status(status).JSON(fiber.Map{
		"type":     "about:blank",
		"title":    title,
		"status":   status,
		"detail":   detail,
		"instance": c.OriginalURL(),
	}, "application/problem+json")
}
