package middleware

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/weatherlog/internal/domain"
	"github.com/simp-lee/weatherlog/internal/pkg"
)

const (
	userIDHeader     = "X-User-ID"
	userIDContextKey = "user_id"
)

// Identity returns a gin middleware that reads the acting user's ID from the
// X-User-ID header, set by the session layer in front of this service.
// Missing or malformed values leave the request anonymous.
//
// A known user ID is stored in gin.Context under "user_id" and attached to
// the request context for structured logging.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(userIDHeader))
		if raw == "" {
			c.Next()
			return
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			c.Next()
			return
		}

		c.Set(userIDContextKey, uint(id))
		ctx := logger.WithContextAttrs(c.Request.Context(), slog.Uint64("user_id", id))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireUser aborts with 401 unless Identity resolved a user for the request.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok {
			pkg.Error(c, domain.NewAppError(domain.CodeUnauthorized, "missing or invalid "+userIDHeader+" header", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID returns the user ID resolved by Identity.
func GetUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(userIDContextKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id > 0
}
