package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/weatherlog/internal/middleware"
)

// AuthModule mounts the account endpoints under /auth.
type AuthModule struct {
	handler *AuthHandler
}

// NewModule panics if h is nil.
func NewModule(h *AuthHandler) *AuthModule {
	if h == nil {
		panic("auth.NewModule: handler must not be nil")
	}
	return &AuthModule{handler: h}
}

// RegisterRoutes mounts register, login and the caller's session. Only the
// session lookup needs an X-User-ID identity.
func (m *AuthModule) RegisterRoutes(api *gin.RouterGroup) {
	g := api.Group("/auth")
	g.POST("/register", m.handler.Register)
	g.POST("/login", m.handler.Login)
	g.GET("/me", middleware.RequireUser(), m.handler.Me)
}
