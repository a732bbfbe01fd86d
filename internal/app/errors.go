package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/weatherlog/internal/pkg"
)

// renderError aborts with the JSON envelope. An empty message becomes the
// standard status text.
func renderError(c *gin.Context, code int, message string) {
	if message == "" {
		message = http.StatusText(code)
	}
	if message == "" {
		message = "Error"
	}
	c.AbortWithStatusJSON(code, pkg.Response{Code: code, Message: message})
}

func noRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		renderError(c, http.StatusNotFound, "not found")
	}
}

func noMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		renderError(c, http.StatusMethodNotAllowed, "")
	}
}
