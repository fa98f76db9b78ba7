package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/skor-go-api/internal/utils"
)

// JWTProtected returns a middleware that validates JWT bearer tokens and binds
// the caller's identity and role to the request.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		if userID := userIDFromClaims(claims); userID != nil {
			c.Locals("user_id", *userID)
		}
		if role := roleFromClaims(claims); role != "" {
			c.Locals("user_role", role)
		}

		return c.Next()
	}
}

func userIDFromClaims(claims jwt.MapClaims) *uint {
	for _, key := range []string{"sub", "user_id", "id"} {
		raw, ok := claims[key]
		if !ok {
			continue
		}
		switch value := raw.(type) {
		case float64:
			if value < 0 {
				continue
			}
			id := uint(value)
			return &id
		case string:
			parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
			if err != nil {
				continue
			}
			id := uint(parsed)
			return &id
		}
	}
	return nil
}

func roleFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"role", "user_role"} {
		if raw, ok := claims[key]; ok {
			if role, ok := raw.(string); ok {
				return strings.ToLower(strings.TrimSpace(role))
			}
		}
	}
	return ""
}
