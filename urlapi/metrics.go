package urlapi

import (
	"github.com/prometheus/client_golang/prometheus"

	"go.vocdoni.io/analytics/backend"
	"go.vocdoni.io/analytics/database/kvcache"
)

var apiCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "analytics",
	Subsystem: "api",
	Name:      "calls_total",
	Help:      "Number of calls to the analytics API methods",
}, []string{"access", "method", "pattern"})

// registerMetrics registers the api, backend and cache collectors on the
// metrics agent, if there is one
func (u *URLAPI) registerMetrics() {
	if u.metricsagent == nil {
		return
	}
	u.metricsagent.Register(apiCalls)
	for _, c := range backend.Collectors() {
		u.metricsagent.Register(c)
	}
	for _, c := range kvcache.Collectors() {
		u.metricsagent.Register(c)
	}
}
