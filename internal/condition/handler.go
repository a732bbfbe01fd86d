package condition

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/weatherlog/internal/domain"
	"github.com/simp-lee/weatherlog/internal/pkg"
)

// Handler serves the condition vocabulary.
type Handler struct {
	normalizer Normalizer
}

// NewHandler creates a Handler.
func NewHandler(n Normalizer) *Handler {
	return &Handler{normalizer: n}
}

type conditionView struct {
	Condition
	Label   string `json:"label"`
	IconURL string `json:"icon_url"`
}

// List handles GET /api/v1/conditions.
func (h *Handler) List(c *gin.Context) {
	all := All()
	views := make([]conditionView, 0, len(all))
	for _, cond := range all {
		views = append(views, conditionView{Condition: cond, Label: cond.String(), IconURL: cond.IconURL()})
	}
	pkg.Success(c, gin.H{
		"main_groups": MainGroups(),
		"conditions":  views,
	})
}

// Normalize handles GET /api/v1/conditions/normalize?q=.
func (h *Handler) Normalize(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		pkg.Error(c, domain.NewValidationError(map[string]string{"q": "q is required"}))
		return
	}
	label := h.normalizer.Normalize(q)
	pkg.Success(c, gin.H{
		"input":     q,
		"condition": label,
		"icon_url":  IconURL(label),
	})
}

// Module registers condition routes.
type Module struct {
	handler *Handler
}

// NewModule creates a condition Module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("condition.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

// RegisterRoutes registers the condition API routes.
func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/conditions", m.handler.List)
	api.GET("/conditions/normalize", m.handler.Normalize)
}
