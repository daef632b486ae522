package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	orderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workly_order_transitions_total",
			Help: "Order create/accept/decline/complete/mark-paid attempts by result.",
		},
		[]string{"action", "result"},
	)

	avatarUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workly_avatar_uploads_total",
			Help: "Avatar uploads by result.",
		},
		[]string{"result"},
	)

	profileCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workly_profile_cache_total",
			Help: "Profile cache lookups (hit/miss).",
		},
		[]string{"result"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "workly_build_info",
			Help: "A constant metric labelled with the deployment environment and commit.",
		},
		[]string{"env", "commit"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(orderTransitions, avatarUploads, profileCache, buildInfo)
	})
}

// OrderTransition counts one order operation. result is "ok", "not_found", "conflict", "invalid" or "error".
func OrderTransition(action, result string) {
	orderTransitions.WithLabelValues(action, result).Inc()
}

func AvatarUpload(ok bool) {
	avatarUploads.WithLabelValues(okLabel(ok)).Inc()
}

func ProfileCacheLookup(hit bool) {
	if hit {
		profileCache.WithLabelValues("hit").Inc()
		return
	}
	profileCache.WithLabelValues("miss").Inc()
}

func SetBuildInfo(env, commit string) {
	if env == "" {
		env = "local"
	}
	if commit == "" {
		commit = "unknown"
	}
	buildInfo.WithLabelValues(env, commit).Set(1)
}

func okLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
