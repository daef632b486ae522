package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ProfileCache forgets a cached profile, and with it the cached role.
type ProfileCache interface {
	Clear(ctx context.Context, userID string)
}

type Handler struct {
	store  Store
	cache  ProfileCache
	logger *slog.Logger
}

func NewHandler(store Store, cache ProfileCache, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, cache: cache, logger: logger}
}

// Register mounts the admin routes; g must already enforce the admin role.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/stats", h.Stats)
	g.GET("/profiles", h.ListProfiles)
	g.PATCH("/profiles/:id/role", h.SetRole)
}

// GET /admin/stats
func (h *Handler) Stats(c echo.Context) error {
	st, err := h.store.Stats(c.Request().Context())
	if err != nil {
		h.logger.Error("admin stats failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stats"})
	}
	return c.JSON(http.StatusOK, st)
}
