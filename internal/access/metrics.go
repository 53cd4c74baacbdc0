package access

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hongminglow/servicedesk-be/internal/models"
)

const (
	decisionAllow = "allow"
	decisionDeny  = "deny"
	decisionError = "error"
)

var decisions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "access_decisions_total",
		Help: "Authorization decisions by module, capability and outcome.",
	},
	[]string{"module", "capability", "decision"},
)

// Collectors returns the gate metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{decisions}
}

func observe(module models.Module, capability models.Capability, decision string) {
	decisions.WithLabelValues(string(module), string(capability), decision).Inc()
}
