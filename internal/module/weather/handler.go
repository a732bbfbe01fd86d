package weather

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/weatherlog/internal/domain"
	"github.com/simp-lee/weatherlog/internal/middleware"
	"github.com/simp-lee/weatherlog/internal/pkg"
)

// WeatherHandler handles REST API requests for weather searches.
type WeatherHandler struct {
	svc        domain.WeatherService
	pageLimits pkg.PageLimits
}

// NewWeatherHandler creates a new WeatherHandler with the given service.
func NewWeatherHandler(svc domain.WeatherService, limits pkg.PageLimits) *WeatherHandler {
	return &WeatherHandler{svc: svc, pageLimits: limits}
}

// Save handles POST /api/v1/weather.
func (h *WeatherHandler) Save(c *gin.Context) {
	var req SaveRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	userID, _ := middleware.GetUserID(c)

	rec, err := h.svc.SaveNew(c.Request.Context(), req.toRecord(), userID)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, rec)
}

// Get handles GET /api/v1/weather/:id.
func (h *WeatherHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	rec, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, rec)
}

// Search handles GET /api/v1/weather.
func (h *WeatherHandler) Search(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	req := pkg.ParsePageRequest(c, h.pageLimits)

	result, err := h.svc.Search(c.Request.Context(), filter, req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, result)
}

// ListAll handles GET /api/v1/weather/all.
func (h *WeatherHandler) ListAll(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	records, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, records)
}

// bindFilter reads the search filters; on failure it writes the error response.
func (h *WeatherHandler) bindFilter(c *gin.Context) (domain.SearchFilter, bool) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		pkg.ValidationError(c, err)
		return domain.SearchFilter{}, false
	}
	userID, known := middleware.GetUserID(c)
	if q.Mine && !known {
		pkg.Error(c, domain.NewAppError(domain.CodeUnauthorized, "mine requires a signed-in user", nil))
		return domain.SearchFilter{}, false
	}
	return q.toFilter(userID), true
}

// Cities handles GET /api/v1/weather/cities.
func (h *WeatherHandler) Cities(c *gin.Context) {
	cities, err := h.svc.Cities(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, cities)
}

// Conditions handles GET /api/v1/weather/conditions.
func (h *WeatherHandler) Conditions(c *gin.Context) {
	conditions, err := h.svc.Conditions(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, conditions)
}

// Update handles PUT /api/v1/weather/:id. A missing record answers 200 with
// found=false.
func (h *WeatherHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	var req StateRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	editorID, _ := middleware.GetUserID(c)

	result, err := h.svc.ApplyUpdate(c.Request.Context(), req.toCandidate(id), editorID)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, result)
}

// ApplyChanges handles POST /api/v1/weather/changes.
func (h *WeatherHandler) ApplyChanges(c *gin.Context) {
	var req ChangesRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	editorID, _ := middleware.GetUserID(c)

	candidates := make([]domain.WeatherSearch, 0, len(req.Changes))
	for _, item := range req.Changes {
		candidates = append(candidates, *item.toCandidate(item.ID))
	}

	results, err := h.svc.ApplyUpdates(c.Request.Context(), candidates, editorID)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, results)
}

// History handles GET /api/v1/weather/:id/history.
func (h *WeatherHandler) History(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	entries, err := h.svc.History(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, entries)
}

// parseID extracts and validates the :id path parameter.
func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
