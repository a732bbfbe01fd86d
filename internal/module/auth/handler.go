package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/weatherlog/internal/middleware"
	"github.com/simp-lee/weatherlog/internal/pkg"
)

// AuthHandler serves registration, login and session lookup.
type AuthHandler struct {
	svc Service
}

func NewHandler(svc Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req Credentials
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, session)
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req Credentials
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Created(c, RegisterResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	})
}

// Me handles GET /api/v1/auth/me. It must run behind middleware.RequireUser.
func (h *AuthHandler) Me(c *gin.Context) {
	id, _ := middleware.GetUserID(c)
	session, err := h.svc.Current(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, session)
}
