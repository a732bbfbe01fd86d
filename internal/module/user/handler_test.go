package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/weatherlog/internal/domain"
	"github.com/simp-lee/weatherlog/internal/pkg"
)

func setupAPIRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newMockRepo()
	for _, name := range []string{"alice", "bob"} {
		if err := repo.Create(context.Background(), &domain.User{Username: name, PasswordHash: "secret-hash"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	h := NewUserHandler(NewUserService(repo, pkg.DefaultPageLimits), pkg.DefaultPageLimits)

	r := gin.New()
	NewModule(h).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestUserHandler_Get(t *testing.T) {
	r := setupAPIRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data["username"] != "alice" {
		t.Errorf("username = %v, want alice", resp.Data["username"])
	}
	if _, ok := resp.Data["password_hash"]; ok {
		t.Error("password hash must not be exposed")
	}
}

func TestUserHandler_Get_Errors(t *testing.T) {
	r := setupAPIRouter(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"invalid id", "/api/v1/users/abc", http.StatusBadRequest},
		{"zero id", "/api/v1/users/0", http.StatusBadRequest},
		{"missing", "/api/v1/users/99", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestUserHandler_List(t *testing.T) {
	r := setupAPIRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users?page=1&page_size=10", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Data struct {
			Items []UserResponse `json:"items"`
			Total int64          `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.Total != 2 || len(resp.Data.Items) != 2 {
		t.Errorf("total = %d, items = %d; want 2, 2", resp.Data.Total, len(resp.Data.Items))
	}
}
