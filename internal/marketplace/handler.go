package marketplace

import (
	"log/slog"

	"github.com/labstack/echo/v4"
)

const (
	EventOrderCreated = "order_created"
	EventOrderUpdated = "order_updated"
)

// Broadcaster pushes order events to everyone watching a thread.
type Broadcaster interface {
	Publish(threadID, eventType string, data any)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Publish(string, string, any) {}

// Dependencies holds everything the marketplace handlers need
type Dependencies struct {
	Store  Store
	Events Broadcaster
	Logger *slog.Logger
	// JobPosters guards POST /jobs, typically a role check.
	JobPosters []echo.MiddlewareFunc
}

// Handler serves orders, reviews, jobs and thread order listings.
type Handler struct {
	store      Store
	events     Broadcaster
	logger     *slog.Logger
	jobPosters []echo.MiddlewareFunc
}

func NewHandler(deps Dependencies) *Handler {
	h := &Handler{
		store:      deps.Store,
		events:     deps.Events,
		logger:     deps.Logger,
		jobPosters: deps.JobPosters,
	}
	if h.events == nil {
		h.events = nopBroadcaster{}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Register mounts read-only routes on public and mutating ones on auth.
func (h *Handler) Register(public, auth *echo.Group) {
	public.GET("/jobs", h.ListJobs)
	public.GET("/jobs/:id", h.GetJob)
	public.GET("/jobs/:id/review", h.GetJobReview)
	public.GET("/providers/:id/reviews", h.GetProviderReviews)
	public.GET("/threads/:threadId/orders", h.GetThreadOrders)

	auth.POST("/jobs", h.CreateJob, h.jobPosters...)
	auth.POST("/jobs/:id/review", h.CreateReview)
	auth.POST("/orders", h.CreateOrder)
	auth.POST("/orders/:id/accept", h.AcceptOrder)
	auth.POST("/orders/:id/decline", h.DeclineOrder)
	auth.POST("/orders/:id/complete", h.CompleteOrder)
	auth.POST("/orders/:id/mark-paid", h.MarkOrderPaid)
}

// currentUser reads the id the auth middleware stored on the context.
func currentUser(c echo.Context) string {
	uid, _ := c.Get("user_id").(string)
	return uid
}

func (h *Handler) publish(o *Order, eventType string) {
	if o == nil || o.ThreadID == nil {
		return
	}
	h.events.Publish(*o.ThreadID, eventType, o)
}
