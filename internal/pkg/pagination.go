package pkg

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/weatherlog/internal/domain"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageLimits bounds the page size a caller may request.
type PageLimits struct {
	DefaultSize int
	MaxSize     int
}

// DefaultPageLimits is used when no configured limits are available.
var DefaultPageLimits = PageLimits{DefaultSize: defaultPageSize, MaxSize: maxPageSize}

// reservedParams lists query parameter names used for pagination/sorting, not for filtering.
var reservedParams = map[string]bool{
	"page":      true,
	"page_size": true,
	"sort":      true,
}

// validFieldName matches only alphanumeric characters and underscores.
var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParsePageRequest extracts pagination, sorting, and filtering parameters from query params.
// Out-of-range values are clamped with ClampPageRequest.
func ParsePageRequest(c *gin.Context, limits PageLimits) domain.PageRequest {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	filter := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] {
			continue
		}
		if len(values) > 0 && values[0] != "" {
			filter[key] = values[0]
		}
	}

	return ClampPageRequest(domain.PageRequest{
		Page:     page,
		PageSize: pageSize,
		Sort:     strings.TrimSpace(c.Query("sort")),
		Filter:   filter,
	}, limits)
}

// ClampPageRequest forces Page >= 1 and 1 <= PageSize <= limits.MaxSize.
// A non-positive PageSize falls back to limits.DefaultSize.
func ClampPageRequest(req domain.PageRequest, limits PageLimits) domain.PageRequest {
	if limits.DefaultSize < 1 {
		limits.DefaultSize = defaultPageSize
	}
	if limits.MaxSize < limits.DefaultSize {
		limits.MaxSize = max(limits.DefaultSize, maxPageSize)
	}
	if req.Page < 1 {
		req.Page = defaultPage
	}
	if req.PageSize < 1 {
		req.PageSize = limits.DefaultSize
	}
	if req.PageSize > limits.MaxSize {
		req.PageSize = limits.MaxSize
	}
	return req
}

// Paginate returns a GORM scope that applies LIMIT and OFFSET based on the page request.
func Paginate(req domain.PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		offset := (req.Page - 1) * req.PageSize
		return db.Offset(offset).Limit(req.PageSize)
	}
}

// Sort returns a GORM scope that applies ORDER BY based on req.Sort ("field" or
// "field:asc|desc"). columns maps accepted sort names to column expressions;
// unknown names are ignored. tieBreaker, when non-empty, is always appended last
// so that row order is total.
func Sort(req domain.PageRequest, columns map[string]string, tieBreaker string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if clause, ok := sortClause(req.Sort, columns); ok {
			db = db.Order(clause)
		}
		if tieBreaker != "" {
			db = db.Order(tieBreaker)
		}
		return db
	}
}

func sortClause(sort string, columns map[string]string) (string, bool) {
	field, direction, _ := strings.Cut(sort, ":")
	field = strings.TrimSpace(field)
	direction = strings.ToLower(strings.TrimSpace(direction))
	if direction == "" {
		direction = "asc"
	}
	if direction != "asc" && direction != "desc" {
		return "", false
	}
	if !validFieldName.MatchString(field) {
		return "", false
	}
	column, ok := columns[field]
	if !ok {
		return "", false
	}
	return column + " " + strings.ToUpper(direction), true
}

// Filter returns a GORM scope that applies WHERE conditions based on the page request filters.
// Only filter keys present in the allowed list are applied; others are silently ignored.
// Keys ending with "__like" produce a LIKE '%value%' condition; others use exact match.
func Filter(req domain.PageRequest, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for key, value := range req.Filter {
			field, like := strings.CutSuffix(key, "__like")
			if !validFieldName.MatchString(field) || !isAllowed(field, allowed) {
				continue
			}
			if like {
				db = db.Where(field+" LIKE ?", "%"+value+"%")
			} else {
				db = db.Where(field+" = ?", value)
			}
		}
		return db
	}
}

// NewPage creates a PageResult with computed TotalPages. Items is never nil.
func NewPage[T any](items []T, total int64, req domain.PageRequest) *domain.PageResult[T] {
	totalPages := 0
	if req.PageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	}

	if items == nil {
		items = []T{}
	}

	return &domain.PageResult[T]{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}
}

// isAllowed checks if a field name is in the allowed list.
func isAllowed(field string, allowed []string) bool {
	return slices.Contains(allowed, field)
}
