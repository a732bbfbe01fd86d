package user

import (
	"time"

	"github.com/simp-lee/weatherlog/internal/domain"
)

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}
