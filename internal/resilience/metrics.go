package resilience

import "github.com/prometheus/client_golang/prometheus"

var (
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sink_breaker_state",
			Help: "Current breaker state per sink: 0=closed,1=open,2=half-open",
		},
		[]string{"sink"},
	)
	BreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sink_breaker_transition_total",
			Help: "Count of breaker state transitions per sink",
		},
		[]string{"sink", "from", "to"},
	)
	BreakerRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sink_breaker_rejected_total",
			Help: "Calls refused because the sink breaker was open",
		},
		[]string{"sink"},
	)
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, BreakerRejected)
}
