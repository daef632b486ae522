package marketplace

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CreateJob posts a new job on behalf of the signed-in client
func (h *Handler) CreateJob(c echo.Context) error {
	uid := currentUser(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req CreateJobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	title := strings.TrimSpace(req.Title)
	budget := req.BudgetEur
	if !budget.Valid {
		budget = Price{Value: 0, Valid: true}
	}
	if title == "" || budget.Value < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and a non-negative budget are required"})
	}

	job, err := h.store.CreateJob(c.Request().Context(), NewJob{
		ClientID:    uid,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Location:    blankToNil(req.Location),
		BudgetEur:   budget.Value,
	})
	if err != nil {
		h.logger.Error("create job failed", slog.String("client_id", uid), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create job"})
	}

	return c.JSON(http.StatusCreated, job)
}

// ListJobs returns open jobs, newest first
func (h *Handler) ListJobs(c echo.Context) error {
	limit := 20
	offset := 0
	if l := c.QueryParam("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	jobs, err := h.store.ListOpenJobs(c.Request().Context(), limit, offset)
	if err != nil {
		h.logger.Error("list jobs failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch jobs"})
	}
	if jobs == nil {
		jobs = []Job{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"jobs": jobs,
		"pagination": echo.Map{
			"limit":  limit,
			"offset": offset,
		},
	})
}

// GetJob returns a single job posting
func (h *Handler) GetJob(c echo.Context) error {
	jobID := c.Param("id")
	if _, err := uuid.Parse(jobID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "job not found"})
	}

	job, err := h.store.GetJob(c.Request().Context(), jobID)
	if errors.Is(err, ErrJobNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "job not found"})
	}
	if err != nil {
		h.logger.Error("get job failed", slog.String("job_id", jobID), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch job"})
	}
	return c.JSON(http.StatusOK, job)
}
