package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds the configuration for the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to make cross-origin requests.
	// "*" allows every origin; an empty list allows none.
	AllowOrigins []string

	AllowMethods []string
	AllowHeaders []string

	// ExposeHeaders lists response headers readable by browser clients.
	ExposeHeaders []string

	AllowCredentials bool

	// MaxAge is how long, in seconds, a preflight result may be cached.
	MaxAge int
}

// DefaultCORSConfig allows any origin to read and write weather records and
// exposes the request ID to browser clients.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader, userIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        86400,
	}
}

// CORS applies DefaultCORSConfig.
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// CORSWithConfig returns a middleware applying cfg. Requests from origins
// outside the allowlist pass through without CORS headers. A preflight from
// an allowed origin is answered with 204 and never reaches the handlers.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	p := newCORSPolicy(cfg)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		c.Writer.Header().Add("Vary", "Origin")

		allowOrigin, ok := p.allowOrigin(origin)
		if !ok {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		if p.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if p.expose != "" {
			h.Set("Access-Control-Expose-Headers", p.expose)
		}

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", p.methods)
			h.Set("Access-Control-Allow-Headers", p.headers)
			if p.maxAge != "" {
				h.Set("Access-Control-Max-Age", p.maxAge)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]struct{}
	credentials bool
	methods     string
	headers     string
	expose      string
	maxAge      string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     make(map[string]struct{}, len(cfg.AllowOrigins)),
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
	}
	for _, o := range cfg.AllowOrigins {
		o = normalizeOrigin(o)
		if o == "*" {
			p.anyOrigin = true
			continue
		}
		if o != "" {
			p.origins[o] = struct{}{}
		}
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

// allowOrigin reports the Access-Control-Allow-Origin value for origin.
// Credentialed responses must echo the origin rather than "*".
func (p corsPolicy) allowOrigin(origin string) (string, bool) {
	if _, ok := p.origins[normalizeOrigin(origin)]; ok {
		return origin, true
	}
	if !p.anyOrigin {
		return "", false
	}
	if p.credentials {
		return origin, true
	}
	return "*", true
}

func normalizeOrigin(o string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(o)), "/")
}
