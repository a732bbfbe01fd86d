package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
)

const (
	requestIDHeader     = "X-Request-ID"
	requestIDContextKey = "request_id"
	maxRequestIDLength  = 64
)

// RequestIDConfig configures RequestIDWithConfig.
type RequestIDConfig struct {
	// TrustUpstream reuses a well-formed incoming ID instead of minting one.
	TrustUpstream bool
	// Header defaults to X-Request-ID.
	Header string
	// Generator defaults to uuid.NewString.
	Generator func() string
}

// RequestID tags every request with a fresh UUID and ignores upstream IDs.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig tags every request with an ID. The ID is echoed in the
// response header, stored in gin.Context under "request_id" and attached to
// the request context so context-aware log records carry it.
func RequestIDWithConfig(cfg RequestIDConfig) gin.HandlerFunc {
	header := cfg.Header
	if header == "" {
		header = requestIDHeader
	}
	generate := cfg.Generator
	if generate == nil {
		generate = uuid.NewString
	}

	return func(c *gin.Context) {
		var id string
		if cfg.TrustUpstream {
			if incoming := c.GetHeader(header); wellFormedRequestID(incoming) {
				id = incoming
			}
		}
		if id == "" {
			id = generate()
		}

		c.Set(requestIDContextKey, id)
		c.Header(header, id)
		c.Request = c.Request.WithContext(
			logger.WithContextAttrs(c.Request.Context(), slog.String("request_id", id)),
		)

		c.Next()
	}
}

// wellFormedRequestID accepts 1 to 64 ASCII letters, digits or dashes.
func wellFormedRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		switch b := id[i]; {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9', b == '-':
		default:
			return false
		}
	}
	return true
}

// GetRequestID returns the ID assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}
