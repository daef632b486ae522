// Package status serves the diagnostics routes: /version, /health and /ready.
package status

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/workly/internal/config"
)

// TimeFormat is RFC 3339 with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

type gitInfo struct {
	CommitSHA     *string `json:"commitSha"`
	CommitRef     *string `json:"commitRef"`
	CommitMessage *string `json:"commitMessage"`
}

type deployInfo struct {
	Env          *string `json:"env"`
	DeploymentID *string `json:"deploymentId"`
	URL          *string `json:"url"`
	Git          gitInfo `json:"git"`
}

// VersionResponse is the /version payload.
type VersionResponse struct {
	Time   string     `json:"time"`
	Vercel deployInfo `json:"vercel"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Version reports the deployment the process is running as. Responses must never be cached.
func Version(info config.DeployInfo, now func() time.Time) echo.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderCacheControl, "no-store, max-age=0")
		return c.JSON(http.StatusOK, VersionResponse{
			Time: now().UTC().Format(TimeFormat),
			Vercel: deployInfo{
				Env:          nullable(info.Env),
				DeploymentID: nullable(info.DeploymentID),
				URL:          nullable(info.URL),
				Git: gitInfo{
					CommitSHA:     nullable(info.CommitSHA),
					CommitRef:     nullable(info.CommitRef),
					CommitMessage: nullable(info.CommitMessage),
				},
			},
		})
	}
}
