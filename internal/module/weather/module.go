package weather

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/weatherlog/internal/middleware"
)

// WeatherModule implements the app.Module interface for weather searches.
type WeatherModule struct {
	handler *WeatherHandler
}

// NewModule creates a new WeatherModule. Panics if h is nil.
func NewModule(h *WeatherHandler) *WeatherModule {
	if h == nil {
		panic("weather.NewModule: handler must not be nil")
	}
	return &WeatherModule{handler: h}
}

// RegisterRoutes registers the weather API routes. Writes require a known user.
func (m *WeatherModule) RegisterRoutes(api *gin.RouterGroup) {
	requireUser := middleware.RequireUser()

	api.POST("/weather", requireUser, m.handler.Save)
	api.GET("/weather", m.handler.Search)
	api.GET("/weather/all", m.handler.ListAll)
	api.GET("/weather/cities", m.handler.Cities)
	api.GET("/weather/conditions", m.handler.Conditions)
	api.POST("/weather/changes", requireUser, m.handler.ApplyChanges)
	api.GET("/weather/:id", m.handler.Get)
	api.PUT("/weather/:id", requireUser, m.handler.Update)
	api.GET("/weather/:id/history", m.handler.History)
}
