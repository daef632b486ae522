package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	mware "github.com/sudo-init-do/workly/internal/middleware"
	"github.com/sudo-init-do/workly/internal/profile"
)

const (
	msgSignedOut     = "Signed out. Redirecting…"
	msgSignOutFailed = "Sign-out failed. Redirecting anyway…"

	signedOutDelay = 1000 * time.Millisecond
	failedDelay    = 3000 * time.Millisecond

	DefaultRedirect = "/login"
)

// SessionRevoker ends a hosted auth session.
type SessionRevoker interface {
	SignOut(ctx context.Context, accessToken string) error
}

// LogoutResponse tells the client what to show and where to go next.
type LogoutResponse struct {
	Message    string `json:"message"`
	RedirectTo string `json:"redirectTo"`
	DelayMs    int64  `json:"delayMs"`
}

// Handler serves the session routes.
type Handler struct {
	sessions   SessionRevoker
	cache      *profile.Cache
	secret     []byte
	redirectTo string
	logger     *slog.Logger
}

// NewHandler builds the logout handler. secret verifies the caller's access
// token; logout itself is not behind the auth middleware.
func NewHandler(sessions SessionRevoker, cache *profile.Cache, secret []byte, redirectTo string, logger *slog.Logger) *Handler {
	if redirectTo == "" {
		redirectTo = DefaultRedirect
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{sessions: sessions, cache: cache, secret: secret, redirectTo: redirectTo, logger: logger}
}

// Register mounts logout on a group without JWTMiddleware so expired sessions
// still get their redirect.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/auth/logout", h.Logout)
}

// Logout revokes the caller's session and always answers with a redirect,
// using a longer delay when there was no valid session or revocation failed.
func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	resp := LogoutResponse{
		Message:    msgSignedOut,
		RedirectTo: h.redirectTo,
		DelayMs:    signedOutDelay.Milliseconds(),
	}
	failed := func() {
		resp.Message = msgSignOutFailed
		resp.DelayMs = failedDelay.Milliseconds()
	}

	token, ok := mware.BearerToken(c.Request())
	var claims *mware.Claims
	if ok {
		var err error
		if claims, err = mware.ParseToken(token, h.secret); err != nil {
			h.logger.Info("logout with unusable token", slog.String("error", err.Error()))
		}
	}

	if claims == nil {
		failed()
	} else {
		if err := h.sessions.SignOut(ctx, token); err != nil {
			h.logger.Warn("sign-out failed", slog.String("user_id", claims.UserID), slog.String("error", err.Error()))
			failed()
		}
		if h.cache != nil {
			h.cache.Clear(ctx, claims.UserID)
		}
	}

	secs := resp.DelayMs / 1000
	c.Response().Header().Set("Refresh", fmt.Sprintf("%d; url=%s", secs, resp.RedirectTo))
	return c.JSON(http.StatusOK, resp)
}
