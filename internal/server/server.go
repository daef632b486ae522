// Package server assembles the echo instance and mounts every route group.
package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sudo-init-do/workly/internal/admin"
	"github.com/sudo-init-do/workly/internal/auth"
	"github.com/sudo-init-do/workly/internal/config"
	"github.com/sudo-init-do/workly/internal/marketplace"
	"github.com/sudo-init-do/workly/internal/messaging"
	mware "github.com/sudo-init-do/workly/internal/middleware"
	"github.com/sudo-init-do/workly/internal/profile"
	"github.com/sudo-init-do/workly/internal/shell"
	"github.com/sudo-init-do/workly/internal/status"
)

// Deps is everything the router mounts.
type Deps struct {
	Logger      *slog.Logger
	JWTSecret   []byte
	Roles       mware.RoleSource
	Deploy      config.DeployInfo
	Ready       map[string]status.Pinger
	Marketplace *marketplace.Handler
	Profiles    *profile.Handler
	Auth        *auth.Handler
	Hub         *messaging.Hub
	Shell       *shell.Handler
	Admin       *admin.Handler
}

// New builds the HTTP router.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = mware.ErrorHandler(d.Logger)

	e.Use(middleware.Recover())
	e.Use(mware.RequestLogger(d.Logger))
	e.Use(middleware.BodyLimit("6M"))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "workly"})
	})
	e.GET("/health", status.Health)
	e.GET("/ready", status.Ready(d.Ready))
	e.GET("/version", status.Version(d.Deploy, nil))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	limiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20))
	authn := []echo.MiddlewareFunc{mware.JWTMiddleware(d.JWTSecret), mware.ResolveRole(d.Roles)}

	public := e.Group("")
	sessions := e.Group("", limiter)
	api := e.Group("", append([]echo.MiddlewareFunc{limiter}, authn...)...)

	d.Marketplace.Register(public, api)
	d.Profiles.Register(public, api)
	d.Auth.Register(sessions)
	d.Hub.Register(api)
	if d.Shell != nil {
		d.Shell.Register(public)
	}

	adminGroup := e.Group("/admin", append(authn, mware.AdminGuard)...)
	d.Admin.Register(adminGroup)

	return e
}
