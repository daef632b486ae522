package marketplace

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/workly/internal/metrics"
)

const msgOrderNotFound = "Order not found"

// =========================
// CreateOrder - client or provider submits a job offer
// =========================
func (h *Handler) CreateOrder(c echo.Context) error {
	uid := currentUser(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		metrics.OrderTransition("create", "invalid")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields"})
	}

	in, err := req.Validate()
	switch {
	case errors.Is(err, errMissingFields):
		metrics.OrderTransition("create", "invalid")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields"})
	case errors.Is(err, errInvalidDate):
		metrics.OrderTransition("create", "invalid")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid dateTimeISO"})
	}

	if uid != in.ClientID && uid != in.ProviderID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you are not a party to this order"})
	}

	o, err := h.store.CreateOrder(c.Request().Context(), in)
	if err != nil {
		metrics.OrderTransition("create", "error")
		h.logger.Error("create order failed", slog.String("task_id", in.TaskID), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	metrics.OrderTransition("create", "ok")
	h.logger.Info("order created", slog.String("order_id", o.ID), slog.String("task_id", o.TaskID))
	h.publish(o, EventOrderCreated)

	return c.JSON(http.StatusCreated, o)
}

// AcceptOrder - provider accepts a pending order
func (h *Handler) AcceptOrder(c echo.Context) error {
	return h.transition(c, ActionAccept)
}

// DeclineOrder - provider declines a pending or accepted order
func (h *Handler) DeclineOrder(c echo.Context) error {
	return h.transition(c, ActionDecline)
}

// CompleteOrder - either party marks accepted work as done
func (h *Handler) CompleteOrder(c echo.Context) error {
	return h.transition(c, ActionComplete)
}

// MarkOrderPaid - client records payment for a completed order
func (h *Handler) MarkOrderPaid(c echo.Context) error {
	return h.transition(c, ActionMarkPaid)
}

// transition runs one lifecycle action. Store failures other than not-found and
// illegal-status are handed to echo's error handler.
func (h *Handler) transition(c echo.Context, action Action) error {
	uid := currentUser(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orderID := c.Param("id")
	if _, err := uuid.Parse(orderID); err != nil {
		metrics.OrderTransition(string(action), "not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": msgOrderNotFound})
	}

	o, err := h.store.TransitionOrder(c.Request().Context(), orderID, uid, action)
	var terr *TransitionError
	switch {
	case errors.Is(err, ErrOrderNotFound):
		metrics.OrderTransition(string(action), "not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": msgOrderNotFound})
	case errors.As(err, &terr):
		metrics.OrderTransition(string(action), "conflict")
		return c.JSON(http.StatusConflict, echo.Map{
			"error":  fmt.Sprintf("Order cannot %s from status %s", terr.Action, terr.From),
			"status": terr.From,
		})
	case err != nil:
		metrics.OrderTransition(string(action), "error")
		return fmt.Errorf("%s order %s: %w", action, orderID, err)
	case o == nil:
		metrics.OrderTransition(string(action), "not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": msgOrderNotFound})
	}

	metrics.OrderTransition(string(action), "ok")
	h.logger.Info("order transitioned",
		slog.String("order_id", o.ID),
		slog.String("action", string(action)),
		slog.String("status", string(o.Status)),
	)
	h.publish(o, EventOrderUpdated)

	return c.JSON(http.StatusOK, o)
}

// GetThreadOrders - all orders grouped under a conversation thread
func (h *Handler) GetThreadOrders(c echo.Context) error {
	threadID := c.Param("threadId")
	if _, err := uuid.Parse(threadID); err != nil {
		return c.JSON(http.StatusOK, []Order{})
	}

	orders, err := h.store.ListThreadOrders(c.Request().Context(), threadID)
	if err != nil {
		h.logger.Error("list thread orders failed", slog.String("thread_id", threadID), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch orders"})
	}
	if orders == nil {
		orders = []Order{}
	}
	return c.JSON(http.StatusOK, orders)
}
