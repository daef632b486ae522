package marketplace

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const maxCommentLength = 1000

// GetJobReview returns the review for a job, or {} if there is none.
func (h *Handler) GetJobReview(c echo.Context) error {
	jobID := c.Param("id")
	if _, err := uuid.Parse(jobID); err != nil {
		return c.JSON(http.StatusOK, echo.Map{})
	}

	review, err := h.store.GetJobReview(c.Request().Context(), jobID)
	if err != nil {
		h.logger.Error("get job review failed", slog.String("job_id", jobID), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch review"})
	}
	if review == nil {
		return c.JSON(http.StatusOK, echo.Map{})
	}
	return c.JSON(http.StatusOK, review)
}

// GetProviderReviews returns every review a provider received, newest first.
func (h *Handler) GetProviderReviews(c echo.Context) error {
	providerID := c.Param("id")
	if _, err := uuid.Parse(providerID); err != nil {
		return c.JSON(http.StatusOK, []Review{})
	}

	reviews, err := h.store.ListProviderReviews(c.Request().Context(), providerID)
	if err != nil {
		h.logger.Error("list provider reviews failed", slog.String("provider_id", providerID), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch reviews"})
	}
	if reviews == nil {
		reviews = []Review{}
	}
	return c.JSON(http.StatusOK, reviews)
}

// CreateReview lets the client of a finished order rate the provider once per job.
func (h *Handler) CreateReview(c echo.Context) error {
	uid := currentUser(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	jobID := c.Param("id")
	if _, err := uuid.Parse(jobID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id format"})
	}

	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}
	comment := strings.TrimSpace(req.Comment)
	if len(comment) > maxCommentLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "comment too long (max 1000 characters)"})
	}

	review, err := h.store.CreateReview(c.Request().Context(), NewReview{
		JobID:    jobID,
		ClientID: uid,
		Rating:   req.Rating,
		Comment:  comment,
	})
	switch {
	case errors.Is(err, ErrReviewExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "review already exists for this job"})
	case errors.Is(err, ErrNotReviewable):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "can only review jobs with a completed order"})
	case err != nil:
		h.logger.Error("create review failed", slog.String("job_id", jobID), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create review"})
	}

	return c.JSON(http.StatusCreated, review)
}
