package profile

import (
	"net/url"
	"strings"
)

// ImageHosts is the allow-list of hosts profile images may be served from.
type ImageHosts struct {
	hosts map[string]struct{}
}

// NewImageHosts allows the Supabase project host plus any extra hosts.
func NewImageHosts(projectHost string, extra []string) *ImageHosts {
	h := &ImageHosts{hosts: make(map[string]struct{})}
	for _, e := range append([]string{projectHost}, extra...) {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			h.hosts[e] = struct{}{}
		}
	}
	return h
}

// Allowed reports whether rawURL is an http(s) URL on an allowed host.
// The empty string is allowed and clears the avatar.
func (h *ImageHosts) Allowed(rawURL string) bool {
	if rawURL == "" {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	_, ok := h.hosts[strings.ToLower(u.Hostname())]
	return ok
}
