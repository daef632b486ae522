package shell

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app_id: app.workly.mobile
app_name: Workly
server:
  url: https://workly.app
ios:
  background_color: "#0b0b0f"
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "app.workly.mobile", cfg.AppID)
	assert.Equal(t, "Workly", cfg.AppName)
	assert.Equal(t, "out", cfg.WebDir)
	assert.Equal(t, "https://workly.app", cfg.Server.URL)
	assert.Equal(t, "#0b0b0f", cfg.IOS.BackgroundColor)
	assert.Equal(t, "automatic", cfg.IOS.ContentInset)
	assert.Equal(t, "#ffffff", cfg.Android.BackgroundColor)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("app_name: Workly"))
	assert.Error(t, err)

	_, err = Parse([]byte("app_id: [unterminated"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shell.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Workly", cfg.AppName)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyStatusBar(t *testing.T) {
	for _, p := range []string{"web", "", "windows"} {
		rec := &Recorder{}
		ApplyStatusBar(p, rec)
		assert.Empty(t, rec.Calls, p)
	}

	for _, p := range []string{"ios", "android", "IOS"} {
		rec := &Recorder{}
		ApplyStatusBar(p, rec)
		require.Len(t, rec.Calls, 2, p)
		assert.Equal(t, "setOverlaysWebView", rec.Calls[0].Method)
		assert.Equal(t, false, rec.Calls[0].Args["overlay"])
		assert.Equal(t, "setStyle", rec.Calls[1].Method)
		assert.Equal(t, "light", rec.Calls[1].Args["style"])
	}
}

func TestBootstrapHandler(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	e := echo.New()
	NewHandler(cfg).Register(e.Group(""))

	get := func(path string) map[string]any {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}

	web := get("/shell/bootstrap")
	assert.Equal(t, "web", web["platform"])
	assert.Equal(t, false, web["native"])
	assert.Empty(t, web["calls"])

	ios := get("/shell/bootstrap?platform=ios")
	assert.Equal(t, true, ios["native"])
	assert.Len(t, ios["calls"], 2)
	assert.Equal(t, "app.workly.mobile", ios["config"].(map[string]any)["appId"])

	conf := get("/shell/config")
	assert.Equal(t, "Workly", conf["appName"])
}
