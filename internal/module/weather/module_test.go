package weather

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestWeatherModule_WritesRequireIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewModule(&WeatherHandler{}).RegisterRoutes(r.Group("/api/v1"))

	writes := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/weather"},
		{http.MethodPut, "/api/v1/weather/1"},
		{http.MethodPost, "/api/v1/weather/changes"},
	}
	for _, w := range writes {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(w.method, w.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without X-User-ID = %d, want 401", w.method, w.path, rec.Code)
		}
	}

	registered := make(map[string]bool)
	for _, ri := range r.Routes() {
		registered[ri.Method+" "+ri.Path] = true
	}
	for _, route := range []string{
		"GET /api/v1/weather",
		"GET /api/v1/weather/all",
		"GET /api/v1/weather/cities",
		"GET /api/v1/weather/conditions",
		"GET /api/v1/weather/:id",
		"GET /api/v1/weather/:id/history",
	} {
		if !registered[route] {
			t.Errorf("route %s not registered", route)
		}
	}
}

func TestNewModule_NilHandler(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewModule(nil) did not panic")
		}
	}()
	NewModule(nil)
}
