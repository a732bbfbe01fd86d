package user

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/weatherlog/internal/domain"
	"github.com/simp-lee/weatherlog/internal/pkg"
)

// UserHandler handles REST API requests for the user resource.
type UserHandler struct {
	svc    domain.UserService
	limits pkg.PageLimits
}

// NewUserHandler creates a new UserHandler with the given service.
func NewUserHandler(svc domain.UserService, limits pkg.PageLimits) *UserHandler {
	return &UserHandler{svc: svc, limits: limits}
}

// Get handles GET /api/v1/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, toResponse(user))
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(c *gin.Context) {
	req := pkg.ParsePageRequest(c, h.limits)

	result, err := h.svc.ListUsers(c.Request.Context(), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	items := make([]UserResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toResponse(&result.Items[i]))
	}
	pkg.List(c, &domain.PageResult[UserResponse]{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
