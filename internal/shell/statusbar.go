package shell

import "strings"

// Style is the status bar content style.
type Style string

// StyleLight is the style native shells switch to on start.
const StyleLight Style = "light"

// StatusBar is the native status bar bridge.
type StatusBar interface {
	SetOverlaysWebView(overlay bool)
	SetStyle(style Style)
}

// IsNative reports whether platform runs inside the native wrapper.
func IsNative(platform string) bool {
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "ios", "android":
		return true
	}
	return false
}

// ApplyStatusBar stops the WebView drawing under the status bar and switches
// to light content. It does nothing on the web.
func ApplyStatusBar(platform string, bar StatusBar) {
	if !IsNative(platform) {
		return
	}
	bar.SetOverlaysWebView(false)
	bar.SetStyle(StyleLight)
}

// Call is one native bridge invocation for the shell to replay.
type Call struct {
	Plugin string         `json:"plugin"`
	Method string         `json:"method"`
	Args   map[string]any `json:"args"`
}

// Recorder is a StatusBar that records calls instead of running them.
type Recorder struct {
	Calls []Call
}

func (r *Recorder) SetOverlaysWebView(overlay bool) {
	r.Calls = append(r.Calls, Call{Plugin: "StatusBar", Method: "setOverlaysWebView", Args: map[string]any{"overlay": overlay}})
}

func (r *Recorder) SetStyle(style Style) {
	r.Calls = append(r.Calls, Call{Plugin: "StatusBar", Method: "setStyle", Args: map[string]any{"style": string(style)}})
}
