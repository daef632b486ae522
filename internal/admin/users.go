package admin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var validRoles = map[string]bool{"client": true, "provider": true, "admin": true}

type setRoleRequest struct {
	Role string `json:"role"`
}

// GET /admin/profiles?role=&limit=&offset=
func (h *Handler) ListProfiles(c echo.Context) error {
	role := c.QueryParam("role")
	if role != "" && !validRoles[role] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	limit, offset := 50, 0
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}

	profiles, err := h.store.ListProfiles(c.Request().Context(), role, limit, offset)
	if err != nil {
		h.logger.Error("admin list profiles failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list profiles"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"profiles": profiles,
		"pagination": echo.Map{
			"limit":  limit,
			"offset": offset,
		},
	})
}

// PATCH /admin/profiles/:id/role
func (h *Handler) SetRole(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
	}

	var req setRoleRequest
	if err := c.Bind(&req); err != nil || !validRoles[req.Role] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be client, provider or admin"})
	}

	err := h.store.SetRole(c.Request().Context(), id, req.Role)
	if errors.Is(err, ErrProfileNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
	}
	if err != nil {
		h.logger.Error("admin set role failed", slog.String("profile_id", id), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update role"})
	}

	if h.cache != nil {
		h.cache.Clear(c.Request().Context(), id)
	}

	h.logger.Info("role changed", slog.String("profile_id", id), slog.String("role", req.Role))
	return c.JSON(http.StatusOK, echo.Map{"id": id, "role": req.Role})
}
