package user

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/simp-lee/weatherlog/internal/domain"
	"github.com/simp-lee/weatherlog/internal/pkg"
)

// Sort and filter whitelists for List.
var (
	sortColumns = map[string]string{
		"id":         "id",
		"username":   "username",
		"created_at": "created_at",
	}
	allowedFilterFields = []string{"username"}
)

// userRepository implements domain.UserRepository using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository backed by the given GORM database.
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user. A taken username yields CodeAlreadyExists.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return mapError(r.db.WithContext(ctx).Create(user).Error)
}

// GetByID retrieves a user by its primary key.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by exact username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// List returns a page of users. Total ignores the page window.
func (r *userRepository) List(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.User], error) {
	filtered := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&domain.User{}).
			Scopes(pkg.Filter(req, allowedFilterFields))
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, mapError(err)
	}

	var users []domain.User
	if err := filtered().Scopes(
		pkg.Sort(req, sortColumns, "id ASC"),
		pkg.Paginate(req),
	).Find(&users).Error; err != nil {
		return nil, mapError(err)
	}

	return pkg.NewPage(users, total, req), nil
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "username already taken", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError matches unique violations the pure-Go SQLite driver
// does not translate to gorm.ErrDuplicatedKey.
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
