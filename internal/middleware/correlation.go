package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type correlationIDKey struct{}

var correlationKey = correlationIDKey{}

// CorrelationID ensures every request carries a correlation identifier so log
// lines and published events can be tied back to one request.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		incoming := strings.TrimSpace(c.Get("X-Correlation-ID"))
		if incoming == "" {
			incoming = strings.TrimSpace(c.Get("X-Request-ID"))
		}
		if incoming == "" {
			incoming = uuid.NewString()
		}

		c.Locals("correlation_id", incoming)
		c.Set("X-Correlation-ID", incoming)

		ctx := context.WithValue(c.Context(), correlationKey, incoming)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// GetCorrelationID returns the correlation identifier bound to the request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if value := c.Locals("correlation_id"); value != nil {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

// CorrelationIDFromContext extracts the correlation identifier from a context.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value := ctx.Value(correlationKey); value != nil {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
