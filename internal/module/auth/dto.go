package auth

import "time"

// Credentials is the input for both login and registration.
type Credentials struct {
	Username string `json:"username" form:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" form:"password" binding:"required,min=8,max=72"`
}

// Session identifies the authenticated user. Clients send UserID back in
// the X-User-ID header on write requests.
type Session struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

// RegisterResponse represents the public user data returned after registration.
type RegisterResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
