package shell

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	cfg *Config
}

func NewHandler(cfg *Config) *Handler {
	return &Handler{cfg: cfg}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("/shell/config", h.GetConfig)
	g.GET("/shell/bootstrap", h.Bootstrap)
}

// GetConfig returns the native shell config
func (h *Handler) GetConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cfg)
}

// Bootstrap returns the native calls to run on launch for ?platform=
func (h *Handler) Bootstrap(c echo.Context) error {
	platform := strings.ToLower(strings.TrimSpace(c.QueryParam("platform")))
	if platform == "" {
		platform = "web"
	}

	rec := &Recorder{Calls: []Call{}}
	ApplyStatusBar(platform, rec)

	return c.JSON(http.StatusOK, echo.Map{
		"platform": platform,
		"native":   IsNative(platform),
		"calls":    rec.Calls,
		"config":   h.cfg,
	})
}
