package user

import (
	"context"

	"github.com/simp-lee/weatherlog/internal/domain"
	"github.com/simp-lee/weatherlog/internal/pkg"
)

// userService implements domain.UserService.
type userService struct {
	repo   domain.UserRepository
	limits pkg.PageLimits
}

// NewUserService creates a new UserService with the given repository.
func NewUserService(repo domain.UserRepository, limits pkg.PageLimits) domain.UserService {
	return &userService{repo: repo, limits: limits}
}

// GetUser retrieves a user by ID.
func (s *userService) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// ListUsers returns a paginated list of users.
func (s *userService) ListUsers(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.User], error) {
	return s.repo.List(ctx, pkg.ClampPageRequest(req, s.limits))
}
